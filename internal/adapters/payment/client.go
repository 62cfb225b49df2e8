package payment

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

// Client создаёт заказы в платёжном шлюзе через его REST API.
type Client struct {
	http      *http.Client
	baseURL   string
	keyID     string
	keySecret string
}

var _ domain.PaymentGateway = (*Client)(nil)

// Config описывает параметры клиента.
type Config struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Timeout   time.Duration
}

// NewClient создаёт клиента платёжного шлюза.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
	}
}

type createOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type apiErrorResponse struct {
	Error struct {
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder реализует domain.PaymentGateway.
func (c *Client) CreateOrder(ctx context.Context, req domain.PaymentOrderRequest) (domain.PaymentOrder, error) {
	if c.keyID == "" || c.keySecret == "" {
		return domain.PaymentOrder{}, fmt.Errorf("payment: credentials are empty")
	}
	body, err := json.Marshal(createOrderRequest{
		Amount:   req.AmountMinor,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return domain.PaymentOrder{}, fmt.Errorf("payment: marshal request: %w", err)
	}
	endpoint := c.baseURL + "/v1/orders"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.PaymentOrder{}, fmt.Errorf("payment: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.keyID, c.keySecret)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.ObserveNetworkRequest("payment", "create_order", "orders", start, err)
		return domain.PaymentOrder{}, fmt.Errorf("payment: do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveNetworkRequest("payment", "create_order", "orders", start, err)
		return domain.PaymentOrder{}, fmt.Errorf("payment: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr apiErrorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Description != "" {
			err = fmt.Errorf("payment: %s", apiErr.Error.Description)
		} else {
			err = fmt.Errorf("payment: unexpected status %d", resp.StatusCode)
		}
		metrics.ObserveNetworkRequest("payment", "create_order", "orders", start, err)
		return domain.PaymentOrder{}, err
	}
	var order orderResponse
	if err := json.Unmarshal(respBody, &order); err != nil {
		metrics.ObserveNetworkRequest("payment", "create_order", "orders", start, err)
		return domain.PaymentOrder{}, fmt.Errorf("payment: decode response: %w", err)
	}
	metrics.ObserveNetworkRequest("payment", "create_order", "orders", start, nil)
	return domain.PaymentOrder{
		ID:          order.ID,
		AmountMinor: order.Amount,
		Currency:    order.Currency,
		Status:      order.Status,
	}, nil
}
