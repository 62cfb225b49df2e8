package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"matri-board/internal/domain"
	"matri-board/internal/infra/metrics"
)

// Client отправляет письма через HTTP API транзакционной почты.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	from    string
}

var _ domain.Mailer = (*Client)(nil)

// Config описывает параметры клиента.
type Config struct {
	BaseURL string
	APIKey  string
	From    string
	Timeout time.Duration
}

// NewClient создаёт почтового клиента.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		from:    cfg.From,
	}
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	ReplyTo string `json:"reply_to,omitempty"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Send реализует domain.Mailer.
func (c *Client) Send(ctx context.Context, to, replyTo, subject, text string) error {
	if c.apiKey == "" {
		return fmt.Errorf("mailer: api key is empty")
	}
	body, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      to,
		ReplyTo: replyTo,
		Subject: subject,
		Text:    text,
	})
	if err != nil {
		return fmt.Errorf("mailer: marshal request: %w", err)
	}
	endpoint := c.baseURL + "/v1/messages"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mailer: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.ObserveNetworkRequest("mailer", "send", "messages", start, err)
		return fmt.Errorf("mailer: do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveNetworkRequest("mailer", "send", "messages", start, err)
		return fmt.Errorf("mailer: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr apiErrorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			err = fmt.Errorf("mailer: %s", apiErr.Error.Message)
		} else {
			err = fmt.Errorf("mailer: unexpected status %d", resp.StatusCode)
		}
		metrics.ObserveNetworkRequest("mailer", "send", "messages", start, err)
		return err
	}
	metrics.ObserveNetworkRequest("mailer", "send", "messages", start, nil)
	return nil
}
