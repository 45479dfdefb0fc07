// Package synth is the image synthesis client. It turns a source photo and a
// text prompt into exactly one generated image using the OpenAI images edit
// endpoint.
package synth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tbourn/pet-calendar-backend/internal/config"
)

// ErrNoImage is returned when the upstream call succeeds but carries no
// image payload.
var ErrNoImage = errors.New("image response missing b64_json")

// ErrNotConfigured is returned by every call when no API key is set.
var ErrNotConfigured = errors.New("image synthesis is not configured")

// EditRequest describes one synthesis call.
type EditRequest struct {
	Image    []byte
	MimeType string // image/png, image/jpeg or image/webp
	Prompt   string
}

// Image is a generated image.
type Image struct {
	Bytes    []byte
	MimeType string
}

// APIError carries a non-2xx upstream response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

// Client calls the OpenAI images edit endpoint. It does not retry; callers
// decide what a failure means.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	size    string
	http    *http.Client
}

// New builds a Client from config. The HTTP transport is wrapped with
// otelhttp so each upstream call becomes a client span.
func New(cfg config.OpenAIConfig) *Client {
	return &Client{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		size:    cfg.ImageSize,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type imagesResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// Edit sends the photo and prompt and returns the single generated image.
func (c *Client) Edit(ctx context.Context, req EditRequest) (Image, error) {
	var out Image
	if c.apiKey == "" {
		return out, ErrNotConfigured
	}
	if len(req.Image) == 0 {
		return out, errors.New("source image required")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return out, errors.New("image prompt required")
	}

	payload, contentType, err := c.encode(req)
	if err != nil {
		return out, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/images/edits", bytes.NewReader(payload))
	if err != nil {
		return out, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return out, fmt.Errorf("images edit: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, &APIError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)}
	}

	var body imagesResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return out, fmt.Errorf("decode images response: %w", err)
	}
	if len(body.Data) == 0 || strings.TrimSpace(body.Data[0].B64JSON) == "" {
		return out, ErrNoImage
	}
	img, err := base64.StdEncoding.DecodeString(strings.TrimSpace(body.Data[0].B64JSON))
	if err != nil || len(img) == 0 {
		return out, fmt.Errorf("decode image base64: %w", errors.Join(ErrNoImage, err))
	}
	out.Bytes = img
	out.MimeType = "image/png"
	return out, nil
}

func (c *Client) encode(req EditRequest) ([]byte, string, error) {
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("model", c.model)
	_ = w.WriteField("prompt", req.Prompt)
	_ = w.WriteField("n", "1")
	_ = w.WriteField("size", c.size)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="pet%s"`, extFor(mimeType)))
	h.Set("Content-Type", mimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Image); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func extFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
