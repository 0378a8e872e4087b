package codec

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x > width/3 && x < 2*width/3 && y > height/3 && y < 2*height/3 {
				img.Set(x, y, color.RGBA{255, 255, 255, 255})
			} else {
				img.Set(x, y, color.RGBA{64, 64, 64, 255})
			}
		}
	}
	return img
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := NewImaging(90)
	dir := t.TempDir()

	for _, ext := range []string{"png", "jpg", "jpeg"} {
		path := filepath.Join(dir, "test."+ext)
		if err := c.Save(createTestImage(120, 90), path); err != nil {
			t.Fatalf("Save %s failed: %v", ext, err)
		}

		img, err := c.Load(path)
		if err != nil {
			t.Fatalf("Load %s failed: %v", ext, err)
		}
		if img.Bounds().Dx() != 120 || img.Bounds().Dy() != 90 {
			t.Errorf("%s: expected 120x90, got %dx%d", ext, img.Bounds().Dx(), img.Bounds().Dy())
		}
	}
}

func TestSaveUnsupportedFormat(t *testing.T) {
	c := NewImaging(90)
	err := c.Save(createTestImage(10, 10), filepath.Join(t.TempDir(), "test.tiff"))
	if err == nil {
		t.Error("Expected error for unsupported output format")
	}
}

func TestLoadMissingFile(t *testing.T) {
	c := NewImaging(90)
	if _, err := c.Load(filepath.Join(t.TempDir(), "nope.jpg")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestResizeExactDimensions(t *testing.T) {
	c := NewImaging(90)

	// Non-aspect-preserving: 400x300 squeezed into 90x120.
	out := c.Resize(createTestImage(400, 300), 90, 120)
	if out.Bounds().Dx() != 90 || out.Bounds().Dy() != 120 {
		t.Errorf("Expected 90x120, got %dx%d", out.Bounds().Dx(), out.Bounds().Dy())
	}
}

func TestCrop(t *testing.T) {
	cropped := Crop(createTestImage(200, 200), image.Rect(50, 60, 150, 180))
	if cropped.Bounds().Dx() != 100 || cropped.Bounds().Dy() != 120 {
		t.Errorf("Expected 100x120 crop, got %dx%d", cropped.Bounds().Dx(), cropped.Bounds().Dy())
	}
}
