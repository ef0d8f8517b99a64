package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolateConfigEnv clears YOLO2COCO_ variables and points every config search
// path at an empty temp dir.
func isolateConfigEnv(t *testing.T) string {
	t.Helper()
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, EnvPrefix+"_") {
			name, _, _ := strings.Cut(env, "=")
			t.Setenv(name, "")
			_ = os.Unsetenv(name)
		}
	}

	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, ".config"))
	t.Chdir(tmpDir)
	return tmpDir
}

func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+".yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if loader.GetViper() == nil {
		t.Error("Loader viper instance is nil")
	}
	if NewLoader().GetViper() == loader.GetViper() {
		t.Error("Loaders should not share a viper instance")
	}
}

func TestLoadWithNoConfigFile(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.LogLevel != infoLevel {
		t.Errorf("Expected default log level '%s', got %s", infoLevel, cfg.LogLevel)
	}
	if cfg.Input.ImagesDir != "images" || cfg.Input.LabelsDir != "labels" || cfg.Output.Dir != "output" {
		t.Errorf("Expected default directories, got %+v / %+v", cfg.Input, cfg.Output)
	}
	if cfg.Policy.MinVertices != 3 {
		t.Errorf("Expected default min vertices 3, got %d", cfg.Policy.MinVertices)
	}
}

func TestLoadFromSearchPath(t *testing.T) {
	dir := isolateConfigEnv(t)
	writeConfigFile(t, dir, `
log_level: debug
input:
  images_dir: imgs
  image_extensions: [".png", ".jpg"]
dataset:
  description: my dataset
  categories:
    - id: 0
      name: person
`)

	loader := NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.LogLevel != debugLevel {
		t.Errorf("Expected log level '%s', got %s", debugLevel, cfg.LogLevel)
	}
	if cfg.Input.ImagesDir != "imgs" {
		t.Errorf("Expected images_dir 'imgs', got %s", cfg.Input.ImagesDir)
	}
	if cfg.Input.LabelsDir != "labels" {
		t.Errorf("Expected default labels_dir to survive, got %s", cfg.Input.LabelsDir)
	}
	if len(cfg.Input.ImageExtensions) != 2 {
		t.Errorf("Expected 2 image extensions, got %v", cfg.Input.ImageExtensions)
	}
	if len(cfg.Dataset.Categories) != 1 || cfg.Dataset.Categories[0].Name != "person" {
		t.Errorf("Expected one category 'person', got %v", cfg.Dataset.Categories)
	}
	if !strings.HasSuffix(loader.GetConfigFileUsed(), ConfigFileName+".yaml") {
		t.Errorf("Expected config file to be used, got %q", loader.GetConfigFileUsed())
	}
}

func TestLoadWithFile(t *testing.T) {
	isolateConfigEnv(t)
	path := writeConfigFile(t, t.TempDir(), `
output:
  dir: /tmp/coco
  file: train.json
policy:
  strict: true
  unknown_category: skip
`)

	cfg, err := NewLoader().LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	if cfg.Output.Dir != "/tmp/coco" || cfg.Output.File != "train.json" {
		t.Errorf("Expected output /tmp/coco/train.json, got %+v", cfg.Output)
	}
	if !cfg.Policy.Strict || cfg.Policy.UnknownCategory != "skip" {
		t.Errorf("Expected strict skip policy, got %+v", cfg.Policy)
	}
}

func TestLoadWithFileMissing(t *testing.T) {
	isolateConfigEnv(t)

	_, err := NewLoader().LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("LoadWithFile() expected error for missing file")
	}
	if !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	isolateConfigEnv(t)
	path := writeConfigFile(t, t.TempDir(), "policy:\n  min_vertices: -2\n")

	_, err := NewLoader().LoadWithFile(path)
	if err == nil {
		t.Fatal("LoadWithFile() expected validation error")
	}
	if !strings.Contains(err.Error(), "configuration validation failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	isolateConfigEnv(t)
	path := writeConfigFile(t, t.TempDir(), "input: [unterminated\n")

	if _, err := NewLoader().LoadWithFile(path); err == nil {
		t.Fatal("LoadWithFile() expected read error for malformed YAML")
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	dir := isolateConfigEnv(t)
	writeConfigFile(t, dir, "log_level: warn\n")

	t.Setenv("YOLO2COCO_LOG_LEVEL", "error")
	t.Setenv("YOLO2COCO_OUTPUT_DIR", "/env/out")
	t.Setenv("YOLO2COCO_POLICY_MIN_VERTICES", "5")
	t.Setenv("YOLO2COCO_POLICY_STRICT", "true")

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("Expected env to override file log level, got %s", cfg.LogLevel)
	}
	if cfg.Output.Dir != "/env/out" {
		t.Errorf("Expected output dir from env, got %s", cfg.Output.Dir)
	}
	if cfg.Policy.MinVertices != 5 {
		t.Errorf("Expected min vertices 5 from env, got %d", cfg.Policy.MinVertices)
	}
	if !cfg.Policy.Strict {
		t.Error("Expected strict mode from env")
	}
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	isolateConfigEnv(t)
	path := filepath.Join(t.TempDir(), "generated.yaml")

	if err := GenerateDefaultConfigFile(path); err != nil {
		t.Fatalf("GenerateDefaultConfigFile() unexpected error: %v", err)
	}

	cfg, err := NewLoader().LoadWithFile(path)
	if err != nil {
		t.Fatalf("generated config should load, got %v", err)
	}
	if cfg.Output.File != "coco_format.json" {
		t.Errorf("Expected default output file, got %s", cfg.Output.File)
	}
	if len(cfg.Dataset.Categories) != 1 || cfg.Dataset.Categories[0].Name != "object" {
		t.Errorf("Expected placeholder category, got %v", cfg.Dataset.Categories)
	}
}

func TestGetConfigSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	paths := GetConfigSearchPaths()
	if len(paths) == 0 || paths[0] != "." {
		t.Fatalf("Expected current directory first, got %v", paths)
	}

	want := []string{filepath.Join("/xdg", ConfigFileName), "/etc/" + ConfigFileName}
	for _, w := range want {
		found := false
		for _, p := range paths {
			if p == w {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected %s in search paths %v", w, paths)
		}
	}
}
