// Package imageinfo reads pixel dimensions from image files without decoding pixel data.
package imageinfo

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF header decoder
	_ "image/jpeg" // register JPEG header decoder
	_ "image/png"  // register PNG header decoder
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // register BMP header decoder
	_ "golang.org/x/image/tiff" // register TIFF header decoder
	_ "golang.org/x/image/webp" // register WebP header decoder
)

// Error wraps a failure to read an image with the operation that failed.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("image %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Info is the header information needed for an image record.
type Info struct {
	Width  int
	Height int
	Format string
}

// Reader resolves image dimensions.
type Reader struct {
	// ExifOrientation reports the dimensions after applying the EXIF orientation
	// tag. This requires a full decode.
	ExifOrientation bool
}

// Read returns the dimensions of the image at path.
func (r Reader) Read(path string) (Info, error) {
	if path == "" {
		return Info{}, &Error{Op: "open", Path: path, Err: errors.New("empty path")}
	}
	if r.ExifOrientation {
		return readOriented(path)
	}
	return readHeader(path)
}

func readHeader(path string) (Info, error) {
	f, err := os.Open(path) //nolint:gosec // G304: image paths come from directory discovery
	if err != nil {
		return Info{}, &Error{Op: "open", Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return Info{}, &Error{Op: "decode", Path: path, Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, &Error{Op: "decode", Path: path, Err: fmt.Errorf("invalid dimensions %dx%d", cfg.Width, cfg.Height)}
	}

	return Info{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

func readOriented(path string) (Info, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		op := "decode"
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			op = "open"
		}
		return Info{}, &Error{Op: op, Path: path, Err: err}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return Info{}, &Error{Op: "decode", Path: path, Err: fmt.Errorf("invalid dimensions %dx%d", b.Dx(), b.Dy())}
	}

	// imaging does not report the source format; the extension is good enough here.
	format, _ := imaging.FormatFromFilename(path)
	return Info{Width: b.Dx(), Height: b.Dy(), Format: formatName(format)}, nil
}

func formatName(f imaging.Format) string {
	switch f {
	case imaging.JPEG:
		return "jpeg"
	case imaging.PNG:
		return "png"
	case imaging.GIF:
		return "gif"
	case imaging.TIFF:
		return "tiff"
	case imaging.BMP:
		return "bmp"
	default:
		return ""
	}
}
