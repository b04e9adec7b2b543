// Package wise implements payout.Client against the Wise platform API.
package wise

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tapevault/backoffice/pkg/config"
	"github.com/tapevault/backoffice/pkg/provider/payout"
)

// Client is bound to one country's credentials.
type Client struct {
	baseURL    string
	creds      config.WiseCredentials
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a client for a single country credential set.
func New(baseURL string, creds config.WiseCredentials, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		creds:      creds,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("provider", "wise", "country", creds.Country),
	}
}

type quoteRequest struct {
	SourceCurrency string      `json:"sourceCurrency"`
	TargetCurrency string      `json:"targetCurrency"`
	SourceAmount   json.Number `json:"sourceAmount"`
	TargetAccount  *int64      `json:"targetAccount,omitempty"`
	PayOut         string      `json:"payOut"`
}

type quoteResponse struct {
	ID           string          `json:"id"`
	Rate         decimal.Decimal `json:"rate"`
	SourceAmount decimal.Decimal `json:"sourceAmount"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
	Status       string          `json:"status"`
}

// CreateQuote calls POST /v3/profiles/{profileId}/quotes.
func (c *Client) CreateQuote(ctx context.Context, req *payout.QuoteRequest) (*payout.Quote, error) {
	body := quoteRequest{
		SourceCurrency: req.SourceCurrency,
		TargetCurrency: req.TargetCurrency,
		SourceAmount:   json.Number(req.SourceAmount.StringFixed(2)),
		PayOut:         string(req.PayOut),
	}
	if req.TargetAccount != 0 {
		body.TargetAccount = &req.TargetAccount
	}

	var resp quoteResponse
	path := fmt.Sprintf("/v3/profiles/%d/quotes", c.creds.ProfileID)
	if err := c.do(ctx, "create quote", http.MethodPost, path, body, nil, &resp); err != nil {
		return nil, err
	}
	return &payout.Quote{
		ID:           resp.ID,
		Rate:         resp.Rate,
		SourceAmount: resp.SourceAmount,
		TargetAmount: resp.TargetAmount,
		Status:       resp.Status,
	}, nil
}

type transferRequest struct {
	TargetAccount         int64           `json:"targetAccount"`
	QuoteUUID             string          `json:"quoteUuid"`
	CustomerTransactionID string          `json:"customerTransactionId"`
	Details               transferDetails `json:"details"`
}

type transferDetails struct {
	Reference string `json:"reference,omitempty"`
}

type transferResponse struct {
	ID     json.Number `json:"id"`
	Status string      `json:"status"`
}

// CreateTransfer calls POST /v1/transfers.
func (c *Client) CreateTransfer(ctx context.Context, req *payout.TransferRequest) (*payout.Transfer, error) {
	txID := req.CustomerTransactionID
	if txID == uuid.Nil {
		txID = uuid.New()
	}
	body := transferRequest{
		TargetAccount:         req.TargetAccount,
		QuoteUUID:             req.QuoteID,
		CustomerTransactionID: txID.String(),
		Details:               transferDetails{Reference: truncate(req.Reference, 35)},
	}
	var resp transferResponse
	if err := c.do(ctx, "create transfer", http.MethodPost, "/v1/transfers", body, nil, &resp); err != nil {
		return nil, err
	}
	return &payout.Transfer{ID: resp.ID.String(), Status: resp.Status}, nil
}

type fundResponse struct {
	Type      string `json:"type"`
	Status    string `json:"status"`
	ErrorCode string `json:"errorCode"`
}

// FundTransfer calls POST /v3/profiles/{profileId}/transfers/{transferId}/payments
// paying from the multi-currency balance.
func (c *Client) FundTransfer(ctx context.Context, transferID string) (*payout.Funding, error) {
	var resp fundResponse
	path := fmt.Sprintf("/v3/profiles/%d/transfers/%s/payments", c.creds.ProfileID, transferID)
	if err := c.do(ctx, "fund transfer", http.MethodPost, path, map[string]string{"type": "BALANCE"}, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "" && resp.Status != "COMPLETED" {
		return nil, &payout.Error{Op: "fund transfer", Message: fmt.Sprintf("funding %s: %s", strings.ToLower(resp.Status), resp.ErrorCode)}
	}
	return &payout.Funding{Status: resp.Status, ErrorCode: resp.ErrorCode}, nil
}

type balanceMovementRequest struct {
	SourceBalanceID int64  `json:"sourceBalanceId"`
	TargetBalanceID int64  `json:"targetBalanceId"`
	QuoteID         string `json:"quoteId"`
}

type balanceMovementResponse struct {
	ID     json.Number `json:"id"`
	State  string      `json:"state"`
	Status string      `json:"status"`
}

// MoveBalance calls POST /v2/profiles/{profileId}/balance-movements.
func (c *Client) MoveBalance(ctx context.Context, req *payout.BalanceMovementRequest) (*payout.BalanceMovement, error) {
	source := req.SourceBalanceID
	if source == 0 {
		source = c.creds.SourceBalanceID
	}
	key := req.IdempotencyKey
	if key == uuid.Nil {
		key = uuid.New()
	}
	body := balanceMovementRequest{
		SourceBalanceID: source,
		TargetBalanceID: req.TargetBalanceID,
		QuoteID:         req.QuoteID,
	}
	headers := map[string]string{"X-idempotence-uuid": key.String()}

	var resp balanceMovementResponse
	path := fmt.Sprintf("/v2/profiles/%d/balance-movements", c.creds.ProfileID)
	if err := c.do(ctx, "balance movement", http.MethodPost, path, body, headers, &resp); err != nil {
		return nil, err
	}
	status := resp.State
	if status == "" {
		status = resp.Status
	}
	return &payout.BalanceMovement{ID: resp.ID.String(), Status: status}, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in any, headers map[string]string, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: failed to encode request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.creds.APIKey)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Provider request failed", "op", op, "error", err)
		return &payout.Error{Op: op, Message: err.Error()}
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &payout.Error{Op: op, StatusCode: resp.StatusCode, Message: err.Error()}
	}
	c.logger.Debug("Provider response", "op", op, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &payout.Error{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(body, resp.StatusCode)}
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

type errorBody struct {
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"message"`
}

// errorMessage pulls the first readable message out of a Wise error body.
func errorMessage(body []byte, status int) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		for _, e := range eb.Errors {
			if e.Message != "" {
				return e.Message
			}
		}
		switch {
		case eb.ErrorDescription != "":
			return eb.ErrorDescription
		case eb.Message != "":
			return eb.Message
		case eb.Error != "":
			return eb.Error
		}
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return truncate(s, 200)
	}
	return http.StatusText(status)
}

// truncate cuts s to n runes; Wise counts characters, not bytes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
