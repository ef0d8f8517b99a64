// Package converter turns a YOLO segmentation dataset into a single COCO annotation file.
//
// A run is strictly sequential: discovery, image ingestion, label parsing and
// geometry, then one write of the aggregated dataset.
package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/yolo2coco/internal/coco"
	"github.com/MeKo-Tech/yolo2coco/internal/dataset"
	"github.com/MeKo-Tech/yolo2coco/internal/geometry"
	"github.com/MeKo-Tech/yolo2coco/internal/imageinfo"
	"github.com/MeKo-Tech/yolo2coco/internal/yolo"
)

// DefaultOutputFile is the name of the dataset file inside the output directory.
const DefaultOutputFile = "coco_format.json"

// CategoryPolicy decides what happens to lines whose class id is not declared.
type CategoryPolicy string

const (
	// CategoryKeep keeps the annotation silently.
	CategoryKeep CategoryPolicy = "keep"
	// CategoryWarn keeps the annotation and warns once per unknown id.
	CategoryWarn CategoryPolicy = "warn"
	// CategorySkip drops the line with a warning.
	CategorySkip CategoryPolicy = "skip"
)

// Valid reports whether p is a known policy.
func (p CategoryPolicy) Valid() bool {
	switch p {
	case CategoryKeep, CategoryWarn, CategorySkip:
		return true
	}
	return false
}

// Options configures a conversion run.
type Options struct {
	ImagesDir string
	LabelsDir string
	OutputDir string
	// OutputFile is the base name of the dataset file inside OutputDir.
	OutputFile string
	// MetricsFile, when set, receives the run metrics in Prometheus text format.
	MetricsFile string

	ImageExtensions []string
	LabelExtension  string

	Info       coco.Info
	Categories []coco.Category

	// Strict turns non-numeric tokens and unreadable label files into fatal errors.
	Strict bool
	// MinVertices rejects polygons with fewer vertices.
	MinVertices int
	// UnknownCategory handles class ids missing from Categories.
	UnknownCategory CategoryPolicy
	// SkipUnreadableImages leaves undecodable images out instead of aborting.
	SkipUnreadableImages bool
	// ExifOrientation reports image sizes after EXIF rotation.
	ExifOrientation bool
}

// DefaultOptions returns options matching the classic converter behavior.
func DefaultOptions() Options {
	return Options{
		OutputFile:      DefaultOutputFile,
		ImageExtensions: []string{".png"},
		LabelExtension:  dataset.DefaultLabelExtension,
		MinVertices:     yolo.DefaultMinVertices,
		UnknownCategory: CategoryWarn,
	}
}

// Validate checks the options for obvious mistakes.
func (o Options) Validate() error {
	if o.ImagesDir == "" {
		return errors.New("images directory is required")
	}
	if o.LabelsDir == "" {
		return errors.New("labels directory is required")
	}
	if o.OutputDir == "" {
		return errors.New("output directory is required")
	}
	if o.OutputFile == "" || strings.ContainsAny(o.OutputFile, `/\`) {
		return fmt.Errorf("invalid output file name: %q", o.OutputFile)
	}
	if len(o.ImageExtensions) == 0 {
		return errors.New("at least one image extension is required")
	}
	if o.MinVertices < 0 {
		return fmt.Errorf("invalid min vertices: %d (must be >= 0)", o.MinVertices)
	}
	if !o.UnknownCategory.Valid() {
		return fmt.Errorf("invalid unknown category policy: %q (must be keep, warn or skip)", o.UnknownCategory)
	}
	seen := make(map[int]struct{}, len(o.Categories))
	for _, c := range o.Categories {
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("duplicate category id: %d", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

// Warning is a recoverable problem met during a run.
type Warning struct {
	File    string
	Line    int
	Reason  string
	Message string
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", w.File, w.Line, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.File, w.Message)
}

// ReasonStemCollision marks a Warning about files that reduce to the same stem.
const ReasonStemCollision = "stem_collision"

// Result summarizes a successful run.
type Result struct {
	OutputPath    string
	Images        int
	Annotations   int
	SkippedImages int
	OrphanLabels  []string
	Warnings      []Warning
	Duration      time.Duration
}

// Converter runs conversions for one set of options.
type Converter struct {
	opts     Options
	logger   *slog.Logger
	progress Progress
	metrics  *Metrics
	reader   imageinfo.Reader
	parser   *yolo.Parser
}

// Option customizes a Converter.
type Option func(*Converter)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithProgress sets the progress reporter.
func WithProgress(p Progress) Option {
	return func(c *Converter) {
		if p != nil {
			c.progress = p
		}
	}
}

// WithMetrics sets the metrics sink. The default is a fresh private registry.
func WithMetrics(m *Metrics) Option {
	return func(c *Converter) {
		if m != nil {
			c.metrics = m
		}
	}
}

// New validates opts and returns a converter.
func New(opts Options, options ...Option) (*Converter, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	c := &Converter{
		opts:     opts,
		logger:   slog.Default(),
		progress: NoOpProgress{},
		metrics:  NewMetrics(),
		reader:   imageinfo.Reader{ExifOrientation: opts.ExifOrientation},
		parser:   yolo.NewParser(opts.MinVertices),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Metrics returns the metrics of this converter.
func (c *Converter) Metrics() *Metrics { return c.metrics }

// OutputPath returns where the dataset will be written.
func (c *Converter) OutputPath() string {
	return filepath.Join(c.opts.OutputDir, c.opts.OutputFile)
}

// run carries the mutable state of one Run call.
type run struct {
	builder   *coco.Builder
	result    *Result
	known     map[int]struct{}
	warnedIDs map[int]struct{}
}

// Run performs the conversion and writes the dataset file as its last step,
// so an existing dataset file is left untouched when an error is returned.
// The metrics file, when configured, is written just before the dataset.
func (c *Converter) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	if err := os.MkdirAll(c.opts.OutputDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	listing, err := dataset.Discover(c.opts.ImagesDir, c.opts.LabelsDir, c.opts.ImageExtensions, c.opts.LabelExtension)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Discovered dataset",
		"images", len(listing.Images),
		"labels", listing.LabelCount(),
		"images_dir", c.opts.ImagesDir,
		"labels_dir", c.opts.LabelsDir,
	)
	if len(c.opts.Categories) == 0 {
		c.logger.Warn("No categories declared; the categories collection will be empty")
	}

	r := &run{
		builder:   coco.NewBuilder(c.opts.Info, c.opts.Categories),
		result:    &Result{OutputPath: c.OutputPath()},
		known:     make(map[int]struct{}, len(c.opts.Categories)),
		warnedIDs: make(map[int]struct{}),
	}
	for _, cat := range c.opts.Categories {
		r.known[cat.ID] = struct{}{}
	}

	r.result.OrphanLabels = listing.OrphanLabels()
	for _, name := range r.result.OrphanLabels {
		c.logger.Info("Label file has no matching image", "label", name)
	}
	for _, col := range listing.Collisions {
		c.warn(r, collisionWarning(col))
	}

	total := len(listing.Images)
	c.progress.Start(total)
	nextImageID := 1
	for i, name := range listing.Images {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("conversion interrupted: %w", err)
		}

		added, err := c.ingestImage(r, listing, name, nextImageID)
		if err != nil {
			return nil, err
		}
		if added {
			nextImageID++
		}
		c.progress.Image(i+1, total, name)
	}
	c.progress.Done()

	ds := r.builder.Dataset()
	r.result.Images = len(ds.Images)
	r.result.Annotations = len(ds.Annotations)
	r.result.Duration = time.Since(start)
	c.metrics.observeDuration(r.result.Duration)

	if c.opts.MetricsFile != "" {
		if err := c.metrics.WriteTextfile(c.opts.MetricsFile); err != nil {
			return nil, err
		}
	}

	if err := coco.WriteFile(r.result.OutputPath, ds); err != nil {
		return nil, err
	}

	c.logger.Info("Wrote COCO dataset",
		"path", r.result.OutputPath,
		"images", r.result.Images,
		"annotations", r.result.Annotations,
		"warnings", len(r.result.Warnings),
		"duration", r.result.Duration.Round(time.Millisecond),
	)
	return r.result, nil
}

// ingestImage adds one image and its annotations. It reports whether the image
// consumed imageID.
func (c *Converter) ingestImage(r *run, listing *dataset.Listing, name string, imageID int) (bool, error) {
	info, err := c.reader.Read(listing.ImagePath(name))
	if err != nil {
		if !c.opts.SkipUnreadableImages {
			return false, fmt.Errorf("failed to read image %s: %w", name, err)
		}
		r.result.SkippedImages++
		c.metrics.observeSkippedImage()
		c.warn(r, Warning{File: name, Reason: ReasonUnreadableImage, Message: fmt.Sprintf("Skipped unreadable image: %v", err)})
		return false, nil
	}

	img := coco.Image{ID: imageID, Width: info.Width, Height: info.Height, FileName: name}
	if err := r.builder.AddImage(img); err != nil {
		return false, err
	}
	c.metrics.observeImage()

	return true, c.ingestLabels(r, listing, img)
}

func (c *Converter) ingestLabels(r *run, listing *dataset.Listing, img coco.Image) error {
	labelPath, ok := listing.LabelFor(img.FileName)
	if !ok {
		c.logger.Debug("No label file for image", "image", img.FileName)
		return nil
	}
	labelName := filepath.Base(labelPath)

	records, rejected, err := c.parser.ParseFile(labelPath)
	if err != nil {
		if c.opts.Strict {
			return fmt.Errorf("failed to read labels %s: %w", labelName, err)
		}
		c.metrics.observeSkippedLine(ReasonUnreadableLabel)
		c.warn(r, Warning{File: labelName, Reason: ReasonUnreadableLabel, Message: fmt.Sprintf("Skipped unreadable label file: %v", err)})
		return nil
	}

	if c.opts.Strict {
		for _, le := range rejected {
			if yolo.IsParseError(le) {
				return fmt.Errorf("%s: %w", labelName, le)
			}
		}
	}
	for _, le := range rejected {
		reason := skipReason(le)
		c.metrics.observeSkippedLine(reason)
		c.warn(r, Warning{File: labelName, Line: le.Line, Reason: reason, Message: skipMessage(reason, le)})
	}

	for _, rec := range records {
		if !c.acceptCategory(r, labelName, rec) {
			continue
		}
		polygon := geometry.Denormalize(rec.Polygon, img.Width, img.Height)
		_, err := r.builder.AddPolygon(img.ID, rec.ClassID, polygon)
		if errors.Is(err, coco.ErrNonFinite) && !c.opts.Strict {
			c.metrics.observeSkippedLine(ReasonNonFinite)
			c.warn(r, Warning{
				File: labelName, Line: rec.Line, Reason: ReasonNonFinite,
				Message: "Ignored annotation whose pixel coordinates are not finite",
			})
			continue
		}
		if err != nil {
			return fmt.Errorf("%s:%d: %w", labelName, rec.Line, err)
		}
		c.metrics.observeAnnotation(len(polygon))
	}
	return nil
}

// acceptCategory applies the unknown category policy to a record.
func (c *Converter) acceptCategory(r *run, labelName string, rec yolo.Record) bool {
	if _, ok := r.known[rec.ClassID]; ok {
		return true
	}

	switch c.opts.UnknownCategory {
	case CategorySkip:
		c.metrics.observeSkippedLine(ReasonUnknownCategory)
		c.warn(r, Warning{
			File: labelName, Line: rec.Line, Reason: ReasonUnknownCategory,
			Message: fmt.Sprintf("Ignored annotation with undeclared category id %d", rec.ClassID),
		})
		return false
	case CategoryWarn:
		if _, done := r.warnedIDs[rec.ClassID]; !done {
			r.warnedIDs[rec.ClassID] = struct{}{}
			c.warn(r, Warning{
				File: labelName, Line: rec.Line, Reason: ReasonUnknownCategory,
				Message: fmt.Sprintf("Category id %d is not declared; keeping its annotations", rec.ClassID),
			})
		}
	}
	return true
}

func collisionWarning(col dataset.StemCollision) Warning {
	names := strings.Join(col.Names, ", ")
	w := Warning{File: col.Names[len(col.Names)-1], Reason: ReasonStemCollision}
	switch col.Kind {
	case dataset.LabelCollision:
		w.Message = fmt.Sprintf("Label files %s share the stem %q; using %s", names, col.Stem, w.File)
	default:
		w.File = col.Names[0]
		w.Message = fmt.Sprintf("Images %s share the stem %q and receive the same annotations", names, col.Stem)
	}
	return w
}

func (c *Converter) warn(r *run, w Warning) {
	r.result.Warnings = append(r.result.Warnings, w)
	c.logger.Warn(w.Message, "file", w.File, "line", w.Line, "reason", w.Reason)
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, yolo.ErrOddCoordinates):
		return ReasonOddCoordinates
	case errors.Is(err, yolo.ErrTooFewVertices):
		return ReasonTooFewVertices
	default:
		return ReasonInvalidNumber
	}
}

func skipMessage(reason string, err *yolo.LineError) string {
	switch reason {
	case ReasonOddCoordinates:
		return "Ignored annotation with odd number of coordinates"
	case ReasonTooFewVertices:
		return fmt.Sprintf("Ignored annotation with too few vertices: %v", err.Err)
	default:
		return fmt.Sprintf("Ignored annotation with unparseable value: %v", err.Err)
	}
}
