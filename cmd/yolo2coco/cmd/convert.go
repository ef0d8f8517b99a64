package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/MeKo-Tech/yolo2coco/internal/config"
	"github.com/MeKo-Tech/yolo2coco/internal/converter"
	"github.com/spf13/cobra"
)

func (c *cli) newConvertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a YOLO segmentation dataset to COCO JSON",
		Long: `Convert every image in the images directory, together with the label file of
the same name in the labels directory, into one COCO dataset file.

Images without a label file are kept with no annotations. Label lines with an
odd number of coordinates, too few vertices or unparsable numbers are skipped
with a warning (--strict turns unparsable numbers into errors).

Examples:
  yolo2coco convert --images data/images --labels data/labels --output out
  yolo2coco convert --category 0=person --category 1=car
  yolo2coco convert --categories-file data.yaml --ext .jpg --progress`,
		Args: cobra.NoArgs,
		RunE: c.runConvert,
	}

	defaults := config.DefaultConfig()
	f := cmd.Flags()
	f.String("images", defaults.Input.ImagesDir, "directory containing the images")
	f.String("labels", defaults.Input.LabelsDir, "directory containing the YOLO label files")
	f.StringP("output", "o", defaults.Output.Dir, "output directory")
	f.String("output-file", defaults.Output.File, "name of the dataset file inside the output directory")
	f.StringSlice("ext", defaults.Input.ImageExtensions, "accepted image extension (repeatable)")
	f.String("label-ext", defaults.Input.LabelExtension, "label file extension")
	f.StringArray("category", nil, "category as id=name (repeatable, replaces dataset.categories)")
	f.String("categories-file", "", "YAML file with categories or Ultralytics names")
	f.String("description", defaults.Dataset.Description, "dataset description for the info block")
	f.Bool("strict", defaults.Policy.Strict, "treat unparsable numbers and unreadable label files as errors")
	f.Int("min-vertices", defaults.Policy.MinVertices, "minimum polygon vertex count (0 disables the check)")
	f.String("unknown-category", defaults.Policy.UnknownCategory, "handling of undeclared class ids: keep, warn, skip")
	f.Bool("skip-unreadable", defaults.Policy.SkipUnreadableImages, "skip images whose size cannot be read")
	f.Bool("exif-orientation", defaults.Input.ExifOrientation, "report image sizes after EXIF orientation")
	f.Bool("progress", defaults.Output.Progress, "show a progress bar on stderr")
	f.String("metrics-file", "", "write run metrics in Prometheus text format to this file")

	c.bindFlags(f, []flagBinding{
		{"input.images_dir", "images"},
		{"input.labels_dir", "labels"},
		{"input.image_extensions", "ext"},
		{"input.label_extension", "label-ext"},
		{"input.exif_orientation", "exif-orientation"},
		{"output.dir", "output"},
		{"output.file", "output-file"},
		{"output.metrics_file", "metrics-file"},
		{"output.progress", "progress"},
		{"dataset.description", "description"},
		{"dataset.categories_file", "categories-file"},
		{"policy.strict", "strict"},
		{"policy.min_vertices", "min-vertices"},
		{"policy.unknown_category", "unknown-category"},
		{"policy.skip_unreadable_images", "skip-unreadable"},
	})

	return cmd
}

func (c *cli) runConvert(cmd *cobra.Command, _ []string) error {
	cfg := *c.cfg

	if cmd.Flags().Changed("category") {
		values, _ := cmd.Flags().GetStringArray("category")
		cats, err := parseCategoryFlags(values)
		if err != nil {
			return err
		}
		cfg.Dataset.Categories = cats
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	opts, err := cfg.ToConverterOptions()
	if err != nil {
		return err
	}

	logger := slog.Default()
	var progress converter.Progress = converter.NewLogProgress(logger, 100)
	if cfg.Output.Progress {
		progress = converter.NewConsoleProgress(cmd.ErrOrStderr())
	}

	conv, err := converter.New(opts,
		converter.WithLogger(logger),
		converter.WithProgress(progress),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := conv.Run(ctx)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), result)
	return nil
}

// parseCategoryFlags parses repeated --category id=name values.
func parseCategoryFlags(values []string) ([]config.CategoryConfig, error) {
	cats := make([]config.CategoryConfig, 0, len(values))
	for _, value := range values {
		idText, name, ok := strings.Cut(value, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --category %q: expected id=name", value)
		}
		id, err := strconv.Atoi(strings.TrimSpace(idText))
		if err != nil {
			return nil, fmt.Errorf("invalid --category %q: %w", value, errors.Unwrap(err))
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid --category %q: empty name", value)
		}
		cats = append(cats, config.CategoryConfig{ID: id, Name: name})
	}
	return cats, nil
}

func printSummary(w io.Writer, r *converter.Result) {
	_, _ = fmt.Fprintln(w, "Conversion complete!")
	_, _ = fmt.Fprintf(w, "  Output:         %s\n", r.OutputPath)
	_, _ = fmt.Fprintf(w, "  Images:         %d\n", r.Images)
	_, _ = fmt.Fprintf(w, "  Annotations:    %d\n", r.Annotations)
	if r.SkippedImages > 0 {
		_, _ = fmt.Fprintf(w, "  Skipped images: %d\n", r.SkippedImages)
	}
	if len(r.OrphanLabels) > 0 {
		_, _ = fmt.Fprintf(w, "  Orphan labels:  %d\n", len(r.OrphanLabels))
	}
	_, _ = fmt.Fprintf(w, "  Warnings:       %d\n", len(r.Warnings))
	_, _ = fmt.Fprintf(w, "  Duration:       %v\n", r.Duration.Round(time.Millisecond))
}
