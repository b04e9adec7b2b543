package wise

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/tapevault/backoffice/pkg/config"
	"github.com/tapevault/backoffice/pkg/domain"
	"github.com/tapevault/backoffice/pkg/provider/payout"
)

// Registry holds one client per configured country. It is built once at
// startup from config.Wise.Countries, so a missing key fails the boot
// instead of the first payout.
type Registry struct {
	clients map[string]payout.Client
}

// NewRegistry validates cfg and builds a client per country.
func NewRegistry(cfg *config.Wise, logger *slog.Logger) (*Registry, error) {
	creds, err := cfg.Countries()
	if err != nil {
		return nil, fmt.Errorf("wise: invalid country credentials: %w", err)
	}
	clients := make(map[string]payout.Client, len(creds))
	for country, c := range creds {
		clients[country] = New(cfg.BaseURL, c, cfg.HTTPTimeout, logger)
	}
	logger.Info("Wise clients configured", "countries", keys(clients))
	return &Registry{clients: clients}, nil
}

// NewStaticRegistry wraps prebuilt clients, keyed by country code.
func NewStaticRegistry(clients map[string]payout.Client) *Registry {
	normalised := make(map[string]payout.Client, len(clients))
	for k, v := range clients {
		normalised[strings.ToUpper(k)] = v
	}
	return &Registry{clients: normalised}
}

// ForCountry implements payout.Registry.
func (r *Registry) ForCountry(country string) (payout.Client, error) {
	c, ok := r.clients[strings.ToUpper(strings.TrimSpace(country))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedCountry, country)
	}
	return c, nil
}

// Countries implements payout.Registry.
func (r *Registry) Countries() []string {
	return keys(r.clients)
}

func keys(m map[string]payout.Client) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
