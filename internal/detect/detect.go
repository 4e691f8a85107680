// Package detect talks to the external YOLO inference service. The
// detection models themselves are opaque collaborators; this side only
// validates the image payload and passes it through.
package detect

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ModelInfo describes one named pre-trained detector exposed by the
// inference service.
type ModelInfo struct {
	Name        string
	Description string
}

// Models is the registry of detectors the API accepts.
var Models = map[string]ModelInfo{
	"can_defect": {
		Name:        "CanDefect Detector",
		Description: "Детектор дефектов в консервных банках (трещины, вмятины)",
	},
	"mold_detector": {
		Name:        "Mold Detector",
		Description: "Детектор плесени и микробиологических загрязнений на продуктах",
	},
}

// ModelKeys lists the registry keys, for error messages.
func ModelKeys() []string {
	keys := make([]string, 0, len(Models))
	for k := range Models {
		keys = append(keys, k)
	}
	return keys
}

// NormalizeImage strips an optional data-URL header and checks the
// payload is decodable base64.
func NormalizeImage(image string) (string, error) {
	if i := strings.IndexByte(image, ','); i >= 0 {
		image = image[i+1:]
	}
	if image == "" {
		return "", fmt.Errorf("no image data provided")
	}
	if _, err := base64.StdEncoding.DecodeString(image); err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	return image, nil
}

// Detection is one recognized object.
type Detection struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

// Result is the inference response handed back to the API caller.
type Result struct {
	Model          string      `json:"model"`
	ModelName      string      `json:"model_name"`
	Detections     []Detection `json:"detections"`
	AnnotatedImage string      `json:"annotated_image"`
}

// Client calls the inference service.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: &http.Client{}}
}

// Detect runs the named model over a base64 image (already normalized)
// and returns classes, confidences and an annotated copy.
func (c *Client) Detect(ctx context.Context, model, imageB64 string) (*Result, error) {
	info, ok := Models[model]
	if !ok {
		return nil, fmt.Errorf("unknown model %q", model)
	}

	b, _ := json.Marshal(map[string]string{
		"model": model,
		"image": imageB64,
	})
	req, _ := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/detect", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		bs, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("detector error (%d): %s", resp.StatusCode, string(bs))
	}

	var out struct {
		Detections     []Detection `json:"detections"`
		AnnotatedImage string      `json:"annotated_image"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.Detections == nil {
		out.Detections = []Detection{}
	}
	annotated := out.AnnotatedImage
	if !strings.HasPrefix(annotated, "data:") {
		annotated = "data:image/jpeg;base64," + annotated
	}
	return &Result{
		Model:          model,
		ModelName:      info.Name,
		Detections:     out.Detections,
		AnnotatedImage: annotated,
	}, nil
}
