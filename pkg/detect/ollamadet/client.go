// Package ollamadet implements the detection capability against an Ollama
// vision model. The model is prompted for normalized bounding boxes which are
// converted to pixel coordinates; anything the model returns outside the
// expected JSON shape degrades to "nothing found" rather than an error.
package ollamadet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/ollama/ollama/api"

	"github.com/menta2k/idphoto/pkg/types"
)

const requestTimeout = 300 * time.Second

// facePrompt asks for the single dominant face, normalized to [0,1].
const facePrompt = `You are a face locator.

Return JSON only:
{"found": true, "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels).
- The box must tightly include the single most prominent frontal face.
- If no face is visible return {"found": false, "box": {"x":0,"y":0,"w":0,"h":0}}.
- JSON only. No markdown, no code fences, no comments.`

// eyesPrompt runs against the cropped face region only.
const eyesPrompt = `You are an eye locator. The image is a cropped human face.

Return JSON only:
{"eyes": [{"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}]}

HARD RULES
- All coordinates are normalized to [0,1] relative to this face image.
- One box per visible eye, tightly around the eye including the eyelids.
- Return an empty list when no eyes are visible.
- JSON only. No markdown, no code fences, no comments.`

// Detector queries an Ollama server for face and eye boxes.
type Detector struct {
	client *api.Client
	model  string
}

// New creates a detector talking to the Ollama server at serverURL.
func New(serverURL, model string) (*Detector, error) {
	parsed, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("ollamadet: invalid URL: %w", err)
	}
	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}
	return &Detector{
		client: api.NewClient(base, http.DefaultClient),
		model:  model,
	}, nil
}

type faceResponse struct {
	Found bool    `json:"found"`
	Box   normBox `json:"box"`
}

type eyesResponse struct {
	Eyes []normBox `json:"eyes"`
}

type normBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// DetectFace asks the model for the dominant face and scales the normalized
// box to image-global pixels.
func (d *Detector) DetectFace(img image.Image) (types.BoundingBox, bool, error) {
	raw, err := d.query(facePrompt, img)
	if err != nil {
		return types.BoundingBox{}, false, err
	}

	var resp faceResponse
	if err := json.Unmarshal([]byte(sanitizeModelJSON(raw)), &resp); err != nil {
		// Unparseable response counts as no detection, matching the
		// recoverable-per-image error policy.
		return types.BoundingBox{}, false, nil
	}
	if !resp.Found || resp.Box.W <= 0 || resp.Box.H <= 0 {
		return types.BoundingBox{}, false, nil
	}

	bounds := img.Bounds()
	box := toPixels(resp.Box, bounds.Dx(), bounds.Dy())
	if box.Empty() {
		return types.BoundingBox{}, false, nil
	}
	return box, true, nil
}

// DetectEyes sends the cropped face region to the model and converts the
// normalized eye boxes to face-local pixel coordinates.
func (d *Detector) DetectEyes(img image.Image, face types.BoundingBox) ([]types.BoundingBox, error) {
	region := imaging.Crop(img, face.Rect())
	raw, err := d.query(eyesPrompt, region)
	if err != nil {
		return nil, err
	}

	var resp eyesResponse
	if err := json.Unmarshal([]byte(sanitizeModelJSON(raw)), &resp); err != nil {
		return nil, nil
	}

	eyes := make([]types.BoundingBox, 0, len(resp.Eyes))
	for _, nb := range resp.Eyes {
		box := toPixels(nb, face.Width, face.Height)
		if box.Empty() {
			continue
		}
		eyes = append(eyes, box)
	}
	return eyes, nil
}

func (d *Detector) query(prompt string, img image.Image) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return "", fmt.Errorf("ollamadet: encoding image: %w", err)
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: d.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: prompt,
				Images:  []api.ImageData{api.ImageData(buf.Bytes())},
			},
		},
		Stream: &streamFalse,
	}

	var content string
	err := d.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content = resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollamadet: chat error: %w", err)
	}
	if content == "" {
		return "", fmt.Errorf("ollamadet: empty response")
	}
	return content, nil
}

// toPixels converts a normalized box to pixel coordinates inside a w x h
// frame, clamping to [0,1] first.
func toPixels(nb normBox, w, h int) types.BoundingBox {
	x0 := clamp01(nb.X)
	y0 := clamp01(nb.Y)
	x1 := clamp01(nb.X + nb.W)
	y1 := clamp01(nb.Y + nb.H)

	return types.BoundingBox{
		X:      int(x0*float64(w) + 0.5),
		Y:      int(y0*float64(h) + 0.5),
		Width:  int((x1-x0)*float64(w) + 0.5),
		Height: int((y1-y0)*float64(h) + 0.5),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// sanitizeModelJSON removes code fences, comments, and trailing commas from a
// model response, keeping only the outermost JSON object.
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	reBlock := regexp.MustCompile(`(?s)/\*.*?\*/`)
	raw = reBlock.ReplaceAllString(raw, "")
	reLine := regexp.MustCompile(`(?m)^\s*//.*$`)
	raw = reLine.ReplaceAllString(raw, "")
	reTrailing := regexp.MustCompile(`,(\s*[}\]])`)
	raw = reTrailing.ReplaceAllString(raw, "$1")

	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
