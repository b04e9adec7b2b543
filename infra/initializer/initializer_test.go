package initializer

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tapevault/backoffice/infra/provider/mockpayout"
	"github.com/tapevault/backoffice/infra/provider/wise"
	"github.com/tapevault/backoffice/pkg/config"
	"github.com/tapevault/backoffice/pkg/domain"
	"github.com/tapevault/backoffice/pkg/scheduler"
	"golang.org/x/oauth2/google"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetPayoutRegistry_Mock(t *testing.T) {
	cfg := &config.App{
		PaymentProviders: &config.PaymentProviders{Wise: &config.Wise{UseMock: true}},
		Salary:           &config.Salary{Percentages: map[string]float64{"gb": 40}},
	}
	reg, err := GetPayoutRegistry(cfg, discard())
	require.NoError(t, err)
	require.IsType(t, &mockpayout.Registry{}, reg)

	_, err = reg.ForCountry("GB")
	assert.NoError(t, err)
	_, err = reg.ForCountry("FR")
	assert.ErrorIs(t, err, domain.ErrUnsupportedCountry)
}

func TestGetPayoutRegistry_Wise(t *testing.T) {
	cfg := &config.App{
		PaymentProviders: &config.PaymentProviders{Wise: &config.Wise{
			BaseURL:     "https://wise.example.test",
			HTTPTimeout: time.Second,
			APIKeys:     map[string]string{"GB": "key"},
			ProfileIDs:  map[string]int64{"GB": 7},
		}},
	}
	reg, err := GetPayoutRegistry(cfg, discard())
	require.NoError(t, err)
	require.IsType(t, &wise.Registry{}, reg)
	assert.Equal(t, []string{"GB"}, reg.Countries())
}

func TestGetPayoutRegistry_Errors(t *testing.T) {
	_, err := GetPayoutRegistry(&config.App{}, discard())
	assert.Error(t, err)

	cfg := &config.App{
		PaymentProviders: &config.PaymentProviders{Wise: &config.Wise{
			APIKeys: map[string]string{"GB": "key"},
		}},
	}
	_, err = GetPayoutRegistry(cfg, discard())
	assert.Error(t, err)
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&config.Log{Format: "json", Prefix: "[test]"}, &buf)
	logger.Info("Transfer completed", "deal_id", "d-1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Transfer completed", line["msg"])
	assert.Equal(t, "d-1", line["deal_id"])
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&config.Log{Format: "text", Level: 4}, &buf)
	logger.Info("hidden")
	assert.Empty(t, buf.String())
	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewOAuthRefresher(t *testing.T) {
	r := newOAuthRefresher(&config.Google{
		ClientID:     "client",
		ClientSecret: "secret",
		Scopes:       []string{"calendar"},
	}, discard())
	oauth, ok := r.(scheduler.OAuthRefresher)
	require.True(t, ok)
	assert.Equal(t, "client", oauth.Config.ClientID)
	assert.Equal(t, google.Endpoint.TokenURL, oauth.Config.Endpoint.TokenURL)

	r = newOAuthRefresher(nil, discard())
	assert.NotNil(t, r)
}

func TestInitializeDependencies_RequiresDatabase(t *testing.T) {
	deps, err := InitializeDependencies(&config.App{
		Log: &config.Log{Format: "text"},
		DB:  &config.DB{},
	})
	assert.Error(t, err)
	assert.Nil(t, deps)
}
