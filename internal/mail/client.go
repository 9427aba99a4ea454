package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mocky70025/eventplatform-real-sub003/internal/logger"
)

// Client sends transactional mail. Only the flows that carry a link need
// it: magic-link login and email confirmation.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

type Message struct {
	ToEmail string
	Subject string
	Body    string
}

type Config struct {
	APIKey    string
	BaseURL   string
	FromEmail string
	FromName  string
	Timeout   time.Duration
}

// New returns a SendGrid-backed client. With no API key configured it
// returns a logging no-op so local development works without mail.
func New(log *logger.Logger, cfg Config) Client {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return &nopClient{log: log.With("client", "MailClient")}
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &sendgridClient{
		log:        log.With("client", "MailClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type sendgridClient struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type emailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type personalization struct {
	To []emailAddress `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             emailAddress      `json:"from"`
	Subject          string            `json:"subject"`
	Content          []mailContent     `json:"content"`
}

func (c *sendgridClient) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.ToEmail) == "" {
		return fmt.Errorf("mail: recipient required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return fmt.Errorf("mail: subject required")
	}

	wire := mailSendRequest{
		Personalizations: []personalization{
			{To: []emailAddress{{Email: msg.ToEmail}}},
		},
		From: emailAddress{
			Email: c.cfg.FromEmail,
			Name:  c.cfg.FromName,
		},
		Subject: msg.Subject,
		Content: []mailContent{
			{Type: "text/plain", Value: msg.Body},
		},
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return fmt.Errorf("mail: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.cfg.BaseURL+"/v3/mail/send",
		bytes.NewReader(body),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mail: send failed: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	return nil
}

type nopClient struct {
	log *logger.Logger
}

func (c *nopClient) Send(_ context.Context, msg Message) error {
	c.log.Info("mail delivery skipped, no api key configured",
		"to", msg.ToEmail,
		"subject", msg.Subject,
	)
	return nil
}
