package support

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/MeKo-Tech/yolo2coco/internal/converter"
)

// TestContext holds the state for integration tests.
type TestContext struct {
	// Command execution state
	LastCommand   string
	LastOutput    string
	LastError     error
	LastExitCode  int
	LastStartTime time.Time
	LastDuration  time.Duration

	// Test environment
	WorkingDir string
	TempDir    string
	EnvVars    []string

	// Dataset under test
	ImagesDir   string
	LabelsDir   string
	DatasetPath string
}

// NewTestContext creates a new test context rooted in a fresh temp directory.
// Commands run inside that directory, so the default images/, labels/ and
// output/ locations resolve there.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "yolo2coco-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	ctx := &TestContext{
		WorkingDir:  tempDir,
		TempDir:     tempDir,
		ImagesDir:   filepath.Join(tempDir, "images"),
		LabelsDir:   filepath.Join(tempDir, "labels"),
		DatasetPath: filepath.Join(tempDir, "output", converter.DefaultOutputFile),
	}

	// Keep user and system configuration out of the scenarios.
	ctx.AddEnvVar("HOME", tempDir)
	ctx.AddEnvVar("XDG_CONFIG_HOME", filepath.Join(tempDir, ".config"))

	return ctx, nil
}

// Cleanup removes the temp directory of the scenario.
func (testCtx *TestContext) Cleanup() error {
	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err)
	}
	return nil
}

// AddEnvVar adds an environment variable for command execution.
func (testCtx *TestContext) AddEnvVar(name, value string) {
	testCtx.EnvVars = append(testCtx.EnvVars, fmt.Sprintf("%s=%s", name, value))
}

// path resolves a scenario-relative path against the working directory.
func (testCtx *TestContext) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(testCtx.WorkingDir, name)
}
