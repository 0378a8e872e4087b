package idphoto

import (
	"image"
	"image/color"
	"testing"

	"github.com/menta2k/idphoto/pkg/types"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x > width/3 && x < 2*width/3 && y > height/3 && y < 2*height/3 {
				img.Set(x, y, color.RGBA{220, 180, 160, 255})
			} else {
				img.Set(x, y, color.RGBA{64, 64, 64, 255})
			}
		}
	}

	return img
}

type stubDetector struct {
	face  types.BoundingBox
	found bool
	eyes  []types.BoundingBox
}

func (s *stubDetector) DetectFace(img image.Image) (types.BoundingBox, bool, error) {
	return s.face, s.found, nil
}

func (s *stubDetector) DetectEyes(img image.Image, face types.BoundingBox) ([]types.BoundingBox, error) {
	return s.eyes, nil
}

func portraitDetector() *stubDetector {
	return &stubDetector{
		face:  types.BoundingBox{X: 100, Y: 100, Width: 200, Height: 260},
		found: true,
		eyes: []types.BoundingBox{
			{X: 40, Y: 60, Width: 40, Height: 20},
			{X: 120, Y: 60, Width: 40, Height: 20},
		},
	}
}

func testOptions() Options {
	return Options{
		Crop: types.CropConfig{
			TargetWidth:      90,
			TargetHeight:     120,
			EyeAlignFraction: 1.0 / 3.0,
			PaddingRatio:     2.0 / 3.0,
		},
	}
}

func TestNew(t *testing.T) {
	std := New(portraitDetector(), Options{})
	if std == nil {
		t.Fatal("New() returned nil")
	}

	if std.crop.TargetWidth != 900 || std.crop.TargetHeight != 1200 {
		t.Errorf("Expected default 900x1200 crop, got %dx%d", std.crop.TargetWidth, std.crop.TargetHeight)
	}
}

func TestAlign(t *testing.T) {
	std := New(portraitDetector(), testOptions())
	img := createTestImage(400, 600)

	aligned, ok, err := std.Align(img)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected alignment to succeed")
	}

	bounds := aligned.Bounds()
	if bounds.Dx() != 90 || bounds.Dy() != 120 {
		t.Errorf("Expected 90x120 output, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestAlignNoFace(t *testing.T) {
	std := New(&stubDetector{found: false}, testOptions())

	aligned, ok, err := std.Align(createTestImage(400, 600))
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if ok || aligned != nil {
		t.Error("Expected no alignment without a face")
	}
}

func TestAlignNoEyes(t *testing.T) {
	det := portraitDetector()
	det.eyes = nil
	std := New(det, testOptions())

	_, ok, err := std.Align(createTestImage(400, 600))
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if ok {
		t.Error("Expected no alignment without eyes")
	}
}

func TestAlignTooSmall(t *testing.T) {
	std := New(portraitDetector(), testOptions())

	// Smaller than the padded crop rectangle.
	_, ok, err := std.Align(createTestImage(100, 150))
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if ok {
		t.Error("Expected no alignment for an image smaller than the crop")
	}
}

func TestGetVersion(t *testing.T) {
	if GetVersion() != Version {
		t.Errorf("GetVersion() returned %s, expected %s", GetVersion(), Version)
	}
}
