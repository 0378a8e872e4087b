// Package llamadet implements the detection capability against a llama.cpp
// server using its OpenAI-compatible chat API. Prompting and response
// handling mirror the Ollama backend: the model returns normalized boxes and
// anything unparseable degrades to "nothing found".
package llamadet

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/menta2k/idphoto/pkg/types"
)

const requestTimeout = 300 * time.Second

const facePrompt = `You are a face locator.

Return JSON only:
{"found": true, "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels).
- The box must tightly include the single most prominent frontal face.
- If no face is visible return {"found": false, "box": {"x":0,"y":0,"w":0,"h":0}}.
- JSON only. No markdown, no code fences, no comments.`

const eyesPrompt = `You are an eye locator. The image is a cropped human face.

Return JSON only:
{"eyes": [{"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}]}

HARD RULES
- All coordinates are normalized to [0,1] relative to this face image.
- One box per visible eye, tightly around the eye including the eyelids.
- Return an empty list when no eyes are visible.
- JSON only. No markdown, no code fences, no comments.`

// Detector queries a llama.cpp server for face and eye boxes.
type Detector struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// New creates a detector talking to the llama.cpp server at serverURL.
func New(serverURL, model string) (*Detector, error) {
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}
	return &Detector{
		baseURL: strings.TrimSuffix(serverURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}, nil
}

// OpenAI-compatible message format
type message struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []choice `json:"choices"`
}

type choice struct {
	Message struct {
		Content interface{} `json:"content"` // string or []ContentPart
	} `json:"message"`
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
		return "", fmt.Errorf("llamadet: encoding image: %w", err)
	}
	imgB64 := base64.StdEncoding.EncodeToString(buf.Bytes())

	req := chatCompletionRequest{
		Model: d.model,
		Messages: []message{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: prompt},
					{Type: "image_url", ImageURL: &imageURL{
						URL: "data:image/jpeg;base64," + imgB64,
					}},
				},
			},
		},
		Temperature: 0.1,
		MaxTokens:   2048,
		Stream:      false,
	}

	respBody, err := d.sendRequest(ctx, "/v1/chat/completions", req)
	if err != nil {
		return "", fmt.Errorf("llamadet: request failed: %w", err)
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("llamadet: failed to parse response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llamadet: no choices in response")
	}

	if text := extractText(resp.Choices[0].Message.Content); text != "" {
		return text, nil
	}
	return "", fmt.Errorf("llamadet: no text content in response")
}

// extractText handles both response content encodings llama.cpp is known to
// produce: a plain string or a list of typed parts.
func extractText(content interface{}) string {
	switch c := content.(type) {
	case string:
		return c
	case []interface{}:
		for _, item := range c {
			if partMap, ok := item.(map[string]interface{}); ok {
				if text, ok := partMap["text"].(string); ok && text != "" {
					return text
				}
			}
		}
	}
	return ""
}

func (d *Detector) sendRequest(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", d.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
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
