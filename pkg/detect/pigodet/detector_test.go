package pigodet

import (
	"path/filepath"
	"testing"

	pigo "github.com/esimov/pigo/core"
)

func TestNewMissingCascades(t *testing.T) {
	dir := t.TempDir()

	_, err := New(filepath.Join(dir, "facefinder"), filepath.Join(dir, "puploc"))
	if err == nil {
		t.Error("Expected error when cascade files are missing")
	}
}

func TestBestDetectionPrefersLargest(t *testing.T) {
	dets := []pigo.Detection{
		{Row: 100, Col: 100, Scale: 80, Q: 10},
		{Row: 200, Col: 200, Scale: 150, Q: 8},
		{Row: 300, Col: 300, Scale: 300, Q: 1}, // below quality threshold
	}

	best, found := bestDetection(dets)
	if !found {
		t.Fatal("Expected a detection to be selected")
	}
	if best.Scale != 150 {
		t.Errorf("Expected the largest confident detection (scale 150), got %d", best.Scale)
	}
}

func TestBestDetectionEmpty(t *testing.T) {
	if _, found := bestDetection(nil); found {
		t.Error("Expected no detection for empty input")
	}

	low := []pigo.Detection{{Scale: 100, Q: 0.5}}
	if _, found := bestDetection(low); found {
		t.Error("Expected low-quality detections to be rejected")
	}
}
