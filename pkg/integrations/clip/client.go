// Package clip wraps the remote CLIP service's image/text embed endpoints
// used by EP stage 5 and RE channels C2/C4 (spec.md §4.2, §4.6).
package clip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/SkyAerope/Brainpile/pkg/config"
	"github.com/SkyAerope/Brainpile/pkg/core"
)

// Client talks to a CLIP-shaped joint text/image embedding service.
type Client struct {
	apiURL string
	http   *http.Client
}

// NewClient builds a Client targeting the configured CLIP service.
func NewClient(cfg config.CLIPConfig) *Client {
	return &Client{
		apiURL: cfg.APIURL,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// EmbedImage posts image bytes as multipart/form-data to the image-embed
// endpoint and returns the resulting vector (EP stage 5, RE channel C4).
func (c *Client) EmbedImage(ctx context.Context, data []byte) ([]float32, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, &core.TransportError{Op: "clip.EmbedImage", Err: err}
	}
	if _, err := part.Write(data); err != nil {
		return nil, &core.TransportError{Op: "clip.EmbedImage", Err: err}
	}
	if err := writer.Close(); err != nil {
		return nil, &core.TransportError{Op: "clip.EmbedImage", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/embed", &body)
	if err != nil {
		return nil, &core.TransportError{Op: "clip.EmbedImage", Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(req, "clip.EmbedImage")
}

type textEmbedRequest struct {
	Text string `json:"text"`
}

// EmbedText encodes q through CLIP's joint text embedding space, used by RE
// channel C2 to recall visually-similar items from a text query.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(textEmbedRequest{Text: text})
	if err != nil {
		return nil, &core.TransportError{Op: "clip.EmbedText", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/embed_text", bytes.NewReader(payload))
	if err != nil {
		return nil, &core.TransportError{Op: "clip.EmbedText", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, "clip.EmbedText")
}

func (c *Client) do(req *http.Request, op string) ([]float32, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &core.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &core.TransportError{Op: op, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &core.TransportError{Op: op, Err: fmt.Errorf("status %d: %s", resp.StatusCode, body)}
	}

	var out embedResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &core.TransportError{Op: op, Err: err}
	}
	return out.Embedding, nil
}
