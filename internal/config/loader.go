package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "yolo2coco"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "YOLO2COCO"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with its own viper instance. Commands bind their
// flags to GetViper() so flag values take precedence over files and env.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// Load loads configuration from the standard search paths, environment
// variables and defaults. A missing config file is not an error.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()

	return l.load(func() error {
		err := l.v.ReadInConfig()
		var notFound viper.ConfigFileNotFoundError
		if err != nil && !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		return nil
	})
}

// LoadWithFile loads configuration from a specific file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}
	l.v.SetConfigFile(configFile)

	return l.load(func() error {
		if err := l.v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		return nil
	})
}

func (l *Loader) load(read func() error) (*Config, error) {
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := read(); err != nil {
		return nil, err
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for flag binding.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

func (l *Loader) addConfigPaths() {
	for _, p := range GetConfigSearchPaths() {
		l.v.AddConfigPath(p)
	}
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("log_format", defaults.LogFormat)
	l.v.SetDefault("verbose", defaults.Verbose)

	l.v.SetDefault("input.images_dir", defaults.Input.ImagesDir)
	l.v.SetDefault("input.labels_dir", defaults.Input.LabelsDir)
	l.v.SetDefault("input.image_extensions", defaults.Input.ImageExtensions)
	l.v.SetDefault("input.label_extension", defaults.Input.LabelExtension)
	l.v.SetDefault("input.exif_orientation", defaults.Input.ExifOrientation)

	l.v.SetDefault("output.dir", defaults.Output.Dir)
	l.v.SetDefault("output.file", defaults.Output.File)
	l.v.SetDefault("output.metrics_file", defaults.Output.MetricsFile)
	l.v.SetDefault("output.progress", defaults.Output.Progress)

	l.v.SetDefault("dataset.description", defaults.Dataset.Description)
	l.v.SetDefault("dataset.categories_file", defaults.Dataset.CategoriesFile)

	l.v.SetDefault("policy.strict", defaults.Policy.Strict)
	l.v.SetDefault("policy.min_vertices", defaults.Policy.MinVertices)
	l.v.SetDefault("policy.unknown_category", defaults.Policy.UnknownCategory)
	l.v.SetDefault("policy.skip_unreadable_images", defaults.Policy.SkipUnreadableImages)
}

// GenerateDefaultConfigFile writes the default configuration as YAML.
func GenerateDefaultConfigFile(filename string) error {
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}

	loader := NewLoader()
	loader.setDefaults()
	loader.v.SetDefault("dataset.categories", []CategoryConfig{{ID: 0, Name: "object"}})

	return loader.v.WriteConfigAs(filename)
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, ConfigFileName))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", ConfigFileName))
	}

	paths = append(paths, "/etc/"+ConfigFileName)

	return paths
}
