package wise

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tapevault/backoffice/pkg/config"
	"github.com/tapevault/backoffice/pkg/domain"
	"github.com/tapevault/backoffice/pkg/provider/payout"
)

var testCreds = config.WiseCredentials{
	Country:         "GB",
	APIKey:          "secret-key",
	ProfileID:       101,
	SourceBalanceID: 555,
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, testCreds, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_CreateQuote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/profiles/101/quotes", r.URL.Path)
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "GBP", body["sourceCurrency"])
		assert.Equal(t, "GBP", body["targetCurrency"])
		assert.Equal(t, 300.0, body["sourceAmount"])
		assert.Equal(t, "BALANCE", body["payOut"])
		_, hasTarget := body["targetAccount"]
		assert.False(t, hasTarget)

		_, _ = w.Write([]byte(`{"id":"q-123","rate":1,"sourceAmount":300,"targetAmount":300,"status":"PENDING"}`))
	})

	q, err := c.CreateQuote(context.Background(), &payout.QuoteRequest{
		SourceCurrency: "GBP",
		TargetCurrency: "GBP",
		SourceAmount:   decimal.NewFromInt(300),
		PayOut:         payout.PayOutBalance,
	})
	require.NoError(t, err)
	assert.Equal(t, "q-123", q.ID)
	assert.True(t, decimal.NewFromInt(300).Equal(q.TargetAmount))
}

func TestClient_CreateTransferAndFund(t *testing.T) {
	txID := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/transfers":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "q-9", body["quoteUuid"])
			assert.Equal(t, txID.String(), body["customerTransactionId"])
			assert.Equal(t, 777.0, body["targetAccount"])
			_, _ = w.Write([]byte(`{"id":4242,"status":"incoming_payment_waiting"}`))
		case "/v3/profiles/101/transfers/4242/payments":
			_, _ = w.Write([]byte(`{"type":"BALANCE","status":"COMPLETED","errorCode":null}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	tr, err := c.CreateTransfer(context.Background(), &payout.TransferRequest{
		QuoteID:               "q-9",
		TargetAccount:         777,
		Reference:             "Invoice INV-1",
		CustomerTransactionID: txID,
	})
	require.NoError(t, err)
	assert.Equal(t, "4242", tr.ID)
	assert.Equal(t, "incoming_payment_waiting", tr.Status)

	f, err := c.FundTransfer(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", f.Status)
}

func TestClient_CreateTransferCutsReferenceOnRunes(t *testing.T) {
	reference := "Invoice " + strings.Repeat("é", 40)
	var sent string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Details struct {
				Reference string `json:"reference"`
			} `json:"details"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		sent = body.Details.Reference
		_, _ = w.Write([]byte(`{"id":1,"status":"incoming_payment_waiting"}`))
	})

	_, err := c.CreateTransfer(context.Background(), &payout.TransferRequest{
		QuoteID:               "q-1",
		TargetAccount:         1,
		Reference:             reference,
		CustomerTransactionID: uuid.New(),
	})
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(sent))
	assert.Equal(t, 35, utf8.RuneCountInString(sent))
	assert.Equal(t, "Invoice "+strings.Repeat("é", 27), sent)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "żó", truncate("żółw", 2))
	assert.Equal(t, "", truncate("żółw", 0))
}

func TestClient_FundTransferRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"type":"BALANCE","status":"REJECTED","errorCode":"balance.payment-option-unavailable"}`))
	})

	_, err := c.FundTransfer(context.Background(), "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.Contains(t, err.Error(), "balance.payment-option-unavailable")
}

func TestClient_MoveBalance(t *testing.T) {
	key := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/profiles/101/balance-movements", r.URL.Path)
		assert.Equal(t, key.String(), r.Header.Get("X-idempotence-uuid"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 555.0, body["sourceBalanceId"])
		assert.Equal(t, 888.0, body["targetBalanceId"])
		assert.Equal(t, "q-1", body["quoteId"])
		_, _ = w.Write([]byte(`{"id":31,"state":"COMPLETED"}`))
	})

	mv, err := c.MoveBalance(context.Background(), &payout.BalanceMovementRequest{
		QuoteID:         "q-1",
		TargetBalanceID: 888,
		IdempotencyKey:  key,
	})
	require.NoError(t, err)
	assert.Equal(t, "31", mv.ID)
	assert.Equal(t, "COMPLETED", mv.Status)
}

func TestClient_ErrorMessageExtraction(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"errors array", `{"errors":[{"code":"error.quote.invalid","message":"Quote has expired"}]}`, "Quote has expired"},
		{"oauth style", `{"error":"invalid_token","error_description":"Invalid token"}`, "Invalid token"},
		{"message field", `{"message":"Balance not found"}`, "Balance not found"},
		{"plain text", `upstream exploded`, "upstream exploded"},
		{"empty", ``, "Unprocessable Entity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.CreateQuote(context.Background(), &payout.QuoteRequest{SourceAmount: decimal.NewFromInt(1)})
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrProvider)
			assert.Equal(t, tt.want, payout.Message(err))

			var perr *payout.Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, http.StatusUnprocessableEntity, perr.StatusCode)
		})
	}
}

func TestRegistry(t *testing.T) {
	cfg := &config.Wise{
		BaseURL:     "https://example.test",
		HTTPTimeout: time.Second,
		APIKeys:     map[string]string{"gb": "k1", "DE": "k2"},
		ProfileIDs:  map[string]int64{"GB": 1, "de": 2},
	}
	reg, err := NewRegistry(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.Equal(t, []string{"DE", "GB"}, reg.Countries())

	_, err = reg.ForCountry("gb")
	require.NoError(t, err)

	_, err = reg.ForCountry("FR")
	assert.ErrorIs(t, err, domain.ErrUnsupportedCountry)

	cfg.ProfileIDs = map[string]int64{"GB": 1}
	_, err = NewRegistry(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
