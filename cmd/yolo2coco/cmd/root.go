package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/yolo2coco/internal/config"
	"github.com/MeKo-Tech/yolo2coco/internal/version"
	"github.com/spf13/cobra"
)

// skipConfigAnnotation marks commands that must run without loading configuration.
const skipConfigAnnotation = "skip-config"

// cli holds the state shared by the commands of one root command tree.
type cli struct {
	loader  *config.Loader
	cfgFile string
	cfg     *config.Config
}

// Execute builds the command tree and runs it against os.Args.
// This is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCommand returns a fresh root command. Every call gets its own
// configuration loader, so tests can execute commands repeatedly.
func NewRootCommand() *cobra.Command {
	c := &cli{loader: config.NewLoader()}

	rootCmd := &cobra.Command{
		Use:   "yolo2coco",
		Short: "Convert YOLO segmentation labels to a COCO dataset",
		Long: `yolo2coco converts YOLO polygon segmentation labels (one text file per image,
one normalized polygon per line) into a single COCO-style JSON dataset.

Image sizes are read from the image headers, coordinates are denormalized to
pixels, and every polygon gets a bounding box and an area.

Examples:
  yolo2coco convert --images data/images --labels data/labels --output out
  yolo2coco convert --categories-file data.yaml --ext .jpg --ext .png
  yolo2coco config init`,
		Version:       version.String(),
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}
	rootCmd.SetVersionTemplate("yolo2coco version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&c.cfgFile, "config", "",
		"config file (default is search in ., $HOME, $XDG_CONFIG_HOME/yolo2coco, /etc/yolo2coco)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	c.bindFlags(rootCmd.PersistentFlags(), []flagBinding{
		{"verbose", "verbose"},
		{"log_level", "log-level"},
		{"log_format", "log-format"},
	})

	rootCmd.AddCommand(c.newConvertCommand())
	rootCmd.AddCommand(c.newConfigCommand())

	return rootCmd
}

// setup loads configuration and installs the default logger.
func (c *cli) setup(cmd *cobra.Command) error {
	if cmd.Annotations[skipConfigAnnotation] == "true" {
		defaults := config.DefaultConfig()
		slog.SetDefault(newLogger(cmd.ErrOrStderr(), defaults.LogLevel, defaults.LogFormat, false))
		return nil
	}

	cfg, err := c.loader.LoadWithFile(c.cfgFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	c.cfg = cfg

	slog.SetDefault(newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat, cfg.Verbose))
	if used := c.loader.GetConfigFileUsed(); used != "" {
		slog.Debug("Using config file", "path", used)
	}
	return nil
}

// newLogger builds the process logger. Verbose wins over the configured level.
func newLogger(w io.Writer, level, format string, verbose bool) *slog.Logger {
	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		switch level {
		case "debug":
			logLevel = slog.LevelDebug
		case "warn":
			logLevel = slog.LevelWarn
		case "error":
			logLevel = slog.LevelError
		default:
			logLevel = slog.LevelInfo
		}
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
