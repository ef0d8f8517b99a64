package testutil

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

// ImageSize represents common image dimensions.
type ImageSize struct {
	Width  int
	Height int
}

var (
	// Common test image sizes.
	SmallSize  = ImageSize{100, 200}
	MediumSize = ImageSize{640, 480}
)

// CreateTestImage creates a solid image of the given size.
func CreateTestImage(width, height int, backgroundColor color.Color) image.Image {
	return imaging.New(width, height, backgroundColor)
}

// WriteImage writes a solid image of the given size to path.
// The encoder is chosen from the file extension.
func WriteImage(t *testing.T, path string, width, height int) string {
	t.Helper()

	require.NoError(t, EnsureDir(filepath.Dir(path)))
	img := CreateTestImage(width, height, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	require.NoError(t, imaging.Save(img, path), "Failed to save image: %s", path)
	return path
}
