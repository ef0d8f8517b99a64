package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/MeKo-Tech/yolo2coco/internal/coco"
	"github.com/MeKo-Tech/yolo2coco/internal/converter"
	"github.com/MeKo-Tech/yolo2coco/internal/dataset"
	"github.com/MeKo-Tech/yolo2coco/internal/yolo"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		Verbose:   false,
		Input: InputConfig{
			ImagesDir:       "images",
			LabelsDir:       "labels",
			ImageExtensions: []string{".png"},
			LabelExtension:  dataset.DefaultLabelExtension,
			ExifOrientation: false,
		},
		Output: OutputConfig{
			Dir:  "output",
			File: converter.DefaultOutputFile,
		},
		Dataset: DatasetConfig{
			Description: "converted with yolo2coco",
		},
		Policy: PolicyConfig{
			Strict:               false,
			MinVertices:          yolo.DefaultMinVertices,
			UnknownCategory:      string(converter.CategoryWarn),
			SkipUnreadableImages: false,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"text", "json"}
	if !slices.Contains(validLogFormats, c.LogFormat) {
		return fmt.Errorf("invalid log format: %s (must be one of: %s)", c.LogFormat, strings.Join(validLogFormats, ", "))
	}

	if len(c.Input.ImageExtensions) == 0 {
		return errors.New("input.image_extensions must not be empty")
	}
	for _, ext := range c.Input.ImageExtensions {
		if dataset.NormalizeExtension(ext) == "" {
			return fmt.Errorf("invalid image extension: %q", ext)
		}
	}

	if c.Output.File == "" || strings.ContainsAny(c.Output.File, `/\`) {
		return fmt.Errorf("invalid output file name: %q (must be a plain file name)", c.Output.File)
	}

	if c.Policy.MinVertices < 0 {
		return fmt.Errorf("invalid min vertices: %d (must be >= 0)", c.Policy.MinVertices)
	}
	if !converter.CategoryPolicy(c.Policy.UnknownCategory).Valid() {
		return fmt.Errorf("invalid unknown category policy: %s (must be one of: keep, warn, skip)", c.Policy.UnknownCategory)
	}

	if _, err := mergeCategories(c.Dataset.Categories, nil); err != nil {
		return err
	}

	return nil
}

// ResolveCategories returns the declared categories sorted by id. Entries from
// the categories file are merged with inline entries; the same id may appear in
// both only with the same name.
func (c *Config) ResolveCategories() ([]coco.Category, error) {
	var fromFile []CategoryConfig
	if c.Dataset.CategoriesFile != "" {
		var err error
		fromFile, err = LoadCategoriesFile(c.Dataset.CategoriesFile)
		if err != nil {
			return nil, err
		}
	}
	return mergeCategories(c.Dataset.Categories, fromFile)
}

// ToConverterOptions converts the config to converter options.
func (c *Config) ToConverterOptions() (converter.Options, error) {
	cats, err := c.ResolveCategories()
	if err != nil {
		return converter.Options{}, err
	}

	exts := make([]string, 0, len(c.Input.ImageExtensions))
	for _, ext := range c.Input.ImageExtensions {
		exts = append(exts, dataset.NormalizeExtension(ext))
	}

	return converter.Options{
		ImagesDir:            c.Input.ImagesDir,
		LabelsDir:            c.Input.LabelsDir,
		OutputDir:            c.Output.Dir,
		OutputFile:           c.Output.File,
		MetricsFile:          c.Output.MetricsFile,
		ImageExtensions:      exts,
		LabelExtension:       dataset.NormalizeExtension(c.Input.LabelExtension),
		Info:                 coco.Info{Description: c.Dataset.Description},
		Categories:           cats,
		Strict:               c.Policy.Strict,
		MinVertices:          c.Policy.MinVertices,
		UnknownCategory:      converter.CategoryPolicy(c.Policy.UnknownCategory),
		SkipUnreadableImages: c.Policy.SkipUnreadableImages,
		ExifOrientation:      c.Input.ExifOrientation,
	}, nil
}

func mergeCategories(inline, fromFile []CategoryConfig) ([]coco.Category, error) {
	byID := make(map[int]string, len(inline)+len(fromFile))
	add := func(src string, cats []CategoryConfig) error {
		seen := make(map[int]struct{}, len(cats))
		for _, cat := range cats {
			if strings.TrimSpace(cat.Name) == "" {
				return fmt.Errorf("category %d in %s has an empty name", cat.ID, src)
			}
			if _, dup := seen[cat.ID]; dup {
				return fmt.Errorf("duplicate category id %d in %s", cat.ID, src)
			}
			seen[cat.ID] = struct{}{}
			if name, ok := byID[cat.ID]; ok && name != cat.Name {
				return fmt.Errorf("category %d is declared as both %q and %q", cat.ID, name, cat.Name)
			}
			byID[cat.ID] = cat.Name
		}
		return nil
	}
	if err := add("categories file", fromFile); err != nil {
		return nil, err
	}
	if err := add("dataset.categories", inline); err != nil {
		return nil, err
	}

	out := make([]coco.Category, 0, len(byID))
	for id, name := range byID {
		out = append(out, coco.Category{ID: id, Name: name})
	}
	slices.SortFunc(out, func(a, b coco.Category) int { return a.ID - b.ID })
	return out, nil
}
