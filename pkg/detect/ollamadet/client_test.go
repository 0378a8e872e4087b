package ollamadet

import (
	"encoding/json"
	"testing"
)

func TestSanitizeModelJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain json",
			in:   `{"found": true}`,
			want: `{"found": true}`,
		},
		{
			name: "code fences",
			in:   "```json\n{\"found\": true}\n```",
			want: `{"found": true}`,
		},
		{
			name: "trailing comma",
			in:   `{"eyes": [{"x": 0.1,},]}`,
			want: `{"eyes": [{"x": 0.1}]}`,
		},
		{
			name: "surrounding prose",
			in:   `Here is the result: {"found": false} Hope that helps!`,
			want: `{"found": false}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeModelJSON(tt.in); got != tt.want {
				t.Errorf("sanitizeModelJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFaceResponseParsing(t *testing.T) {
	raw := sanitizeModelJSON("```json\n{\"found\": true, \"box\": {\"x\": 0.25, \"y\": 0.2, \"w\": 0.5, \"h\": 0.6}}\n```")

	var resp faceResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !resp.Found {
		t.Error("Expected found=true")
	}

	box := toPixels(resp.Box, 1000, 500)
	if box.X != 250 || box.Y != 100 || box.Width != 500 || box.Height != 300 {
		t.Errorf("Unexpected pixel box: %+v", box)
	}
}

func TestToPixelsClampsOutOfRange(t *testing.T) {
	box := toPixels(normBox{X: -0.5, Y: 0.5, W: 2.0, H: 1.0}, 100, 100)

	if box.X != 0 {
		t.Errorf("Expected X clamped to 0, got %d", box.X)
	}
	if box.X+box.Width > 100 || box.Y+box.Height > 100 {
		t.Errorf("Expected box inside frame, got %+v", box)
	}
}

func TestToPixelsDegenerateBox(t *testing.T) {
	box := toPixels(normBox{X: 0.5, Y: 0.5, W: 0, H: 0}, 100, 100)
	if !box.Empty() {
		t.Errorf("Expected empty box, got %+v", box)
	}
}
