// Package codec isolates image decode, encode, crop and resize behind a small
// capability interface so the alignment pipeline can be tested without
// touching real files.
package codec

import (
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Codec loads, saves and scales images.
type Codec interface {
	Load(path string) (image.Image, error)
	Save(img image.Image, path string) error
	// Resize scales to exactly width x height, not preserving aspect ratio.
	Resize(img image.Image, width, height int) image.Image
}

// Imaging is the production Codec built on disintegration/imaging with WebP
// support. JPEG quality applies to .jpg/.jpeg and WebP output.
type Imaging struct {
	Quality int
}

// NewImaging returns an Imaging codec with the given JPEG/WebP quality (1-100).
func NewImaging(quality int) *Imaging {
	return &Imaging{Quality: quality}
}

// Load opens an image file, auto-correcting EXIF orientation. Falls back to
// an explicit WebP decode for files imaging cannot open.
func (c *Imaging) Load(path string) (image.Image, error) {
	if img, err := imaging.Open(path, imaging.AutoOrientation(true)); err == nil {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if img, err := webp.Decode(f); err == nil {
		return img, nil
	}
	if _, err := f.Seek(0, 0); err == nil {
		if img, _, err := image.Decode(f); err == nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("codec: unknown image format for %s", path)
}

// Save encodes the image according to the path's extension.
func (c *Imaging) Save(img image.Image, path string) error {
	ext := strings.ToLower(strings.TrimPrefix(strings.ToLower(pathExt(path)), "."))
	switch ext {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return webp.Encode(f, img, &webp.Options{Quality: float32(c.Quality)})
	case "png":
		return imaging.Save(img, path)
	case "jpg", "jpeg":
		return imaging.Save(img, path, imaging.JPEGQuality(c.Quality))
	default:
		return fmt.Errorf("codec: unsupported output format %q", ext)
	}
}

// Resize scales the image to the exact target dimensions with Lanczos
// resampling, ignoring the source aspect ratio.
func (c *Imaging) Resize(img image.Image, width, height int) image.Image {
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

// Crop extracts a rectangle from the image. Thin wrapper kept next to the
// other pixel operations.
func Crop(img image.Image, rect image.Rectangle) *image.NRGBA {
	return imaging.Crop(img, rect)
}

func pathExt(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		switch path[i] {
		case '.':
			return path[i:]
		case '/', '\\':
			return ""
		}
	}
	return ""
}
