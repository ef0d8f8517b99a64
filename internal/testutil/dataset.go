package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// SquareLine is a label line describing the square (0.1,0.1)-(0.5,0.5) for class 0.
const SquareLine = "0 0.1 0.1 0.5 0.1 0.5 0.5 0.1 0.5"

// Dataset is a throwaway YOLO dataset layout on disk.
type Dataset struct {
	Root      string
	ImagesDir string
	LabelsDir string
	OutputDir string
}

// NewDataset creates empty images/ and labels/ directories under a temp root.
// The output directory is not created.
func NewDataset(t *testing.T) *Dataset {
	t.Helper()

	root := CreateTempDir(t)
	ds := &Dataset{
		Root:      root,
		ImagesDir: filepath.Join(root, "images"),
		LabelsDir: filepath.Join(root, "labels"),
		OutputDir: filepath.Join(root, "output"),
	}
	require.NoError(t, EnsureDir(ds.ImagesDir))
	require.NoError(t, EnsureDir(ds.LabelsDir))
	return ds
}

// AddImage writes an image file into the images directory.
func (d *Dataset) AddImage(t *testing.T, name string, width, height int) string {
	t.Helper()

	return WriteImage(t, filepath.Join(d.ImagesDir, name), width, height)
}

// AddLabel writes a label file with the given lines into the labels directory.
func (d *Dataset) AddLabel(t *testing.T, name string, lines ...string) string {
	t.Helper()

	path := filepath.Join(d.LabelsDir, name)
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// AddFile writes arbitrary bytes into the images directory.
func (d *Dataset) AddFile(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(d.ImagesDir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}
