// Package automation posts CRM notifications to an outbound webhook.
package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tapevault/backoffice/pkg/config"
	"github.com/tapevault/backoffice/pkg/domain"
	"github.com/tapevault/backoffice/pkg/provider/automation"
)

const defaultTimeout = 10 * time.Second

// Client implements automation.Notifier over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// New returns a webhook client, or a no-op notifier when no URL is set.
func New(cfg *config.Automation, logger *slog.Logger) automation.Notifier {
	if cfg == nil || cfg.WebhookURL == "" {
		return noop{logger: logger}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		url:        cfg.WebhookURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "automation"),
	}
}

func (c *Client) Notify(ctx context.Context, n *automation.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Automation webhook failed", "event", n.Event, "error", err)
		return fmt.Errorf("%w: automation webhook: %v", domain.ErrProvider, err)
	}
	defer resp.Body.Close() //nolint:errcheck
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Automation webhook rejected", "event", n.Event, "status", resp.StatusCode)
		return fmt.Errorf("%w: automation webhook returned %d", domain.ErrProvider, resp.StatusCode)
	}
	c.logger.Info("Automation webhook delivered", "event", n.Event, "deal_id", n.Deal.ID)
	return nil
}

type noop struct {
	logger *slog.Logger
}

func (n noop) Notify(_ context.Context, notification *automation.Notification) error {
	n.logger.Debug("Automation webhook not configured", "event", notification.Event)
	return nil
}
