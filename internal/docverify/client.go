package docverify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mocky70025/eventplatform-real-sub003/internal/logger"
)

// Verifier reads an uploaded document image and extracts its expiration
// date, if one is legible.
type Verifier interface {
	ExtractExpiry(ctx context.Context, image []byte, mimeType string) (Result, error)
}

// Result is the verdict for one document image. Readable=false means the
// model could not make out an expiration date at all.
type Result struct {
	Readable   bool
	ExpiryDate *time.Time
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

func New(log *logger.Logger, cfg Config) (Verifier, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("docverify: api key required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &client{
		log:        log.With("client", "DocVerifier"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

const extractionPrompt = `You are reviewing a scanned business document (permit, license, or insurance certificate). Find the expiration date printed on it. Respond with JSON only: {"readable": true|false, "expiry_date": "YYYY-MM-DD" or null}. Set readable=false if the image is illegible or no expiration date is visible.`

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
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

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type verdict struct {
	Readable   bool    `json:"readable"`
	ExpiryDate *string `json:"expiry_date"`
}

func (c *client) ExtractExpiry(ctx context.Context, image []byte, mimeType string) (Result, error) {
	if len(image) == 0 {
		return Result{}, fmt.Errorf("docverify: empty image")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	dataURI := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: extractionPrompt},
					{Type: "image_url", ImageURL: &imageURL{URL: dataURI}},
				},
			},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	var resp chatResponse
	if err := c.post(ctx, "/v1/chat/completions", req, &resp); err != nil {
		return Result{}, err
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("docverify: empty completion")
	}

	var v verdict
	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return Result{}, fmt.Errorf("docverify: decode verdict: %w; raw=%s", err, content)
	}

	result := Result{Readable: v.Readable}
	if v.ExpiryDate != nil && *v.ExpiryDate != "" {
		t, err := time.Parse("2006-01-02", *v.ExpiryDate)
		if err != nil {
			// Model produced a date it cannot commit to a format;
			// treat as unreadable rather than guessing.
			c.log.Warn("unparseable expiry date from model", "value", *v.ExpiryDate)
			return Result{Readable: false}, nil
		}
		result.ExpiryDate = &t
	}

	return result, nil
}

func (c *client) post(ctx context.Context, path string, body, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("docverify: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("docverify: http %d: %s", resp.StatusCode, string(raw))
	}

	return json.Unmarshal(raw, out)
}
