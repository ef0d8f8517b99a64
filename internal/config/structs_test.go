package config

import (
	"testing"

	"gopkg.in/yaml.v3"
)

// TestConfigYAMLKeys checks the snake_case keys users write in yolo2coco.yaml.
func TestConfigYAMLKeys(t *testing.T) {
	doc := `
log_level: debug
log_format: json
input:
  images_dir: /d/images
  labels_dir: /d/labels
  image_extensions: [".jpg"]
  label_extension: .txt
  exif_orientation: true
output:
  dir: /d/out
  file: val.json
  metrics_file: /d/out/run.prom
  progress: true
dataset:
  description: leaves
  categories_file: /d/data.yaml
policy:
  strict: true
  min_vertices: 4
  unknown_category: keep
  skip_unreadable_images: true
`
	var cfg Config
	if err := yaml.Unmarshal([]byte(doc), &cfg); err != nil {
		t.Fatalf("yaml.Unmarshal() error: %v", err)
	}

	if cfg.LogFormat != "json" || cfg.LogLevel != debugLevel {
		t.Errorf("global settings not decoded: %+v", cfg)
	}
	if !cfg.Input.ExifOrientation || cfg.Input.ImageExtensions[0] != ".jpg" {
		t.Errorf("input not decoded: %+v", cfg.Input)
	}
	if cfg.Output.MetricsFile != "/d/out/run.prom" || !cfg.Output.Progress {
		t.Errorf("output not decoded: %+v", cfg.Output)
	}
	if cfg.Dataset.CategoriesFile != "/d/data.yaml" {
		t.Errorf("dataset not decoded: %+v", cfg.Dataset)
	}
	if cfg.Policy.MinVertices != 4 || cfg.Policy.UnknownCategory != "keep" || !cfg.Policy.SkipUnreadableImages {
		t.Errorf("policy not decoded: %+v", cfg.Policy)
	}

	out, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		t.Fatalf("yaml.Marshal() error: %v", err)
	}
	var back Config
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("yaml.Unmarshal() error: %v", err)
	}
	if back.Output.File != DefaultConfig().Output.File {
		t.Errorf("Expected output file to survive marshaling, got %q", back.Output.File)
	}
}
