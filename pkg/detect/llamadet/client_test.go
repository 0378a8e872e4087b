package llamadet

import (
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/menta2k/idphoto/pkg/types"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestDetectFace(t *testing.T) {
	srv := chatServer(t, `{"found": true, "box": {"x": 0.25, "y": 0.2, "w": 0.5, "h": 0.6}}`)
	defer srv.Close()

	det, err := New(srv.URL, "test-model")
	if err != nil {
		t.Fatal(err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 1000, 500))
	box, found, err := det.DetectFace(img)
	if err != nil {
		t.Fatalf("DetectFace failed: %v", err)
	}
	if !found {
		t.Fatal("Expected a face")
	}
	if box.X != 250 || box.Y != 100 || box.Width != 500 || box.Height != 300 {
		t.Errorf("Unexpected pixel box: %+v", box)
	}
}

func TestDetectFaceNotFound(t *testing.T) {
	srv := chatServer(t, `{"found": false, "box": {"x":0,"y":0,"w":0,"h":0}}`)
	defer srv.Close()

	det, _ := New(srv.URL, "test-model")
	_, found, err := det.DetectFace(image.NewRGBA(image.Rect(0, 0, 100, 100)))
	if err != nil {
		t.Fatalf("DetectFace failed: %v", err)
	}
	if found {
		t.Error("Expected no face")
	}
}

func TestDetectFaceGarbageDegrades(t *testing.T) {
	srv := chatServer(t, "I could not find any structured data in this image, sorry!")
	defer srv.Close()

	det, _ := New(srv.URL, "test-model")
	_, found, err := det.DetectFace(image.NewRGBA(image.Rect(0, 0, 100, 100)))
	if err != nil {
		t.Fatalf("Expected garbage to degrade to not-found, got error: %v", err)
	}
	if found {
		t.Error("Expected no face for a garbage response")
	}
}

func TestDetectEyes(t *testing.T) {
	srv := chatServer(t, "```json\n{\"eyes\": [{\"x\": 0.2, \"y\": 0.3, \"w\": 0.2, \"h\": 0.1}, {\"x\": 0.6, \"y\": 0.3, \"w\": 0.2, \"h\": 0.1}]}\n```")
	defer srv.Close()

	det, _ := New(srv.URL, "test-model")
	img := image.NewRGBA(image.Rect(0, 0, 1000, 1000))
	face := types.BoundingBox{X: 100, Y: 100, Width: 500, Height: 500}

	eyes, err := det.DetectEyes(img, face)
	if err != nil {
		t.Fatalf("DetectEyes failed: %v", err)
	}
	if len(eyes) != 2 {
		t.Fatalf("Expected 2 eyes, got %d", len(eyes))
	}
	// Face-local coordinates scaled by the face size.
	if eyes[0].X != 100 || eyes[0].Y != 150 {
		t.Errorf("Unexpected first eye: %+v", eyes[0])
	}
}

func TestDetectFaceServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	det, _ := New(srv.URL, "test-model")
	if _, _, err := det.DetectFace(image.NewRGBA(image.Rect(0, 0, 100, 100))); err == nil {
		t.Error("Expected error for a failing server")
	}
}

func TestExtractText(t *testing.T) {
	if got := extractText("plain"); got != "plain" {
		t.Errorf("extractText(string) = %q", got)
	}

	parts := []interface{}{
		map[string]interface{}{"type": "text", "text": "from parts"},
	}
	if got := extractText(parts); got != "from parts" {
		t.Errorf("extractText(parts) = %q", got)
	}

	if got := extractText(42); got != "" {
		t.Errorf("extractText(unknown) = %q", got)
	}
}
