package testutil

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDataset(t *testing.T) {
	ds := NewDataset(t)
	assert.True(t, DirExists(ds.ImagesDir))
	assert.True(t, DirExists(ds.LabelsDir))
	assert.False(t, DirExists(ds.OutputDir))
}

func TestDataset_AddImage(t *testing.T) {
	ds := NewDataset(t)
	path := ds.AddImage(t, "a.png", 100, 200)

	img, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 200), img.Bounds())
}

func TestDataset_AddLabel(t *testing.T) {
	ds := NewDataset(t)
	path := ds.AddLabel(t, "a.txt", SquareLine, "1 0.2 0.2 0.3 0.3 0.2 0.3")
	assert.Equal(t, filepath.Join(ds.LabelsDir, "a.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, SquareLine+"\n1 0.2 0.2 0.3 0.3 0.2 0.3\n", string(data))
}
