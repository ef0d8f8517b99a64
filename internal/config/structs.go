//nolint:lll
package config

// Config represents the complete configuration for yolo2coco.
// It can be loaded from configuration files, environment variables and command-line flags.
type Config struct {
	// Global settings
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" json:"log_format"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Input dataset layout
	Input InputConfig `mapstructure:"input" yaml:"input" json:"input"`

	// Output location
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Dataset metadata
	Dataset DatasetConfig `mapstructure:"dataset" yaml:"dataset" json:"dataset"`

	// Handling of problematic input
	Policy PolicyConfig `mapstructure:"policy" yaml:"policy" json:"policy"`
}

// InputConfig describes where images and labels live.
type InputConfig struct {
	ImagesDir       string   `mapstructure:"images_dir" yaml:"images_dir" json:"images_dir"`
	LabelsDir       string   `mapstructure:"labels_dir" yaml:"labels_dir" json:"labels_dir"`
	ImageExtensions []string `mapstructure:"image_extensions" yaml:"image_extensions" json:"image_extensions"`
	LabelExtension  string   `mapstructure:"label_extension" yaml:"label_extension" json:"label_extension"`
	ExifOrientation bool     `mapstructure:"exif_orientation" yaml:"exif_orientation" json:"exif_orientation"`
}

// OutputConfig describes where results are written.
type OutputConfig struct {
	Dir         string `mapstructure:"dir" yaml:"dir" json:"dir"`
	File        string `mapstructure:"file" yaml:"file" json:"file"`
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file" json:"metrics_file"`
	Progress    bool   `mapstructure:"progress" yaml:"progress" json:"progress"`
}

// DatasetConfig holds the COCO info block and the category list.
type DatasetConfig struct {
	Description    string           `mapstructure:"description" yaml:"description" json:"description"`
	Categories     []CategoryConfig `mapstructure:"categories" yaml:"categories" json:"categories"`
	CategoriesFile string           `mapstructure:"categories_file" yaml:"categories_file" json:"categories_file"`
}

// CategoryConfig is one declared category.
type CategoryConfig struct {
	ID   int    `mapstructure:"id" yaml:"id" json:"id"`
	Name string `mapstructure:"name" yaml:"name" json:"name"`
}

// PolicyConfig controls how recoverable input problems are treated.
type PolicyConfig struct {
	Strict               bool   `mapstructure:"strict" yaml:"strict" json:"strict"`
	MinVertices          int    `mapstructure:"min_vertices" yaml:"min_vertices" json:"min_vertices"`
	UnknownCategory      string `mapstructure:"unknown_category" yaml:"unknown_category" json:"unknown_category"`
	SkipUnreadableImages bool   `mapstructure:"skip_unreadable_images" yaml:"skip_unreadable_images" json:"skip_unreadable_images"`
}
