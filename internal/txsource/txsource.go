// Package txsource is the HTTP adapter to the external transaction
// controller. The watchers and the orchestrator only ever see the narrow
// Lister/Submitter interfaces; this package is the one place that knows the
// controller speaks JSON over HTTP.
package txsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"musd-rewards-watcher/internal/conversion"
	"musd-rewards-watcher/internal/txwatch"
)

// Options parameterise the client.
type Options struct {
	BaseURL string
	Timeout time.Duration
}

// Client reads and submits wallet transactions.
type Client struct {
	opts    Options
	client  *http.Client
	baseURL string
	logger  zerolog.Logger
}

// New constructs a transaction source client.
func New(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		opts:    opts,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		logger:  logger.With().Str("component", "tx_source").Logger(),
	}
}

// List returns the current transaction list, ordered ascending by time as
// delivered by the controller.
func (c *Client) List(ctx context.Context) ([]txwatch.Record, error) {
	body, err := c.do(ctx, http.MethodGet, "/transactions", nil)
	if err != nil {
		return nil, err
	}

	var list []txwatch.Record
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode transaction list: %w", err)
	}
	return list, nil
}

// Submit hands a build request to the controller and returns the created
// transaction id.
func (c *Client) Submit(ctx context.Context, req conversion.SubmitRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	body, err := c.do(ctx, http.MethodPost, "/transactions", payload)
	if err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("transaction controller returned no id")
	}
	return created.ID, nil
}

// UpdatePaymentToken attaches the preferred source token to an existing
// transaction.
func (c *Client) UpdatePaymentToken(ctx context.Context, txID string, token conversion.PaymentToken) error {
	payload, err := json.Marshal(token)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPatch, "/transactions/"+txID+"/payment-token", payload)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("transaction controller base url not configured")
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("transaction controller error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

var (
	_ conversion.Lister    = (*Client)(nil)
	_ conversion.Submitter = (*Client)(nil)
)
