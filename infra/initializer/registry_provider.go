package initializer

import (
	"errors"
	"log/slog"

	"github.com/tapevault/backoffice/infra/provider/mockpayout"
	"github.com/tapevault/backoffice/infra/provider/wise"
	"github.com/tapevault/backoffice/pkg/config"
	"github.com/tapevault/backoffice/pkg/provider/payout"
)

// GetPayoutRegistry returns the per-country payout clients. With UseMock set
// every country that has a salary percentage or an API key is served by the
// in-memory provider.
func GetPayoutRegistry(cfg *config.App, logger *slog.Logger) (payout.Registry, error) {
	if cfg.PaymentProviders == nil || cfg.PaymentProviders.Wise == nil {
		return nil, errors.New("wise configuration is missing")
	}
	wcfg := cfg.PaymentProviders.Wise

	if wcfg.UseMock {
		countries := wcfg.SupportedCountries()
		if cfg.Salary != nil {
			for cc := range cfg.Salary.Percentages {
				countries = append(countries, cc)
			}
		}
		logger.Warn("Using mock payout provider", "countries", countries)
		return mockpayout.NewRegistry(mockpayout.New(), countries...), nil
	}

	reg, err := wise.NewRegistry(wcfg, logger)
	if err != nil {
		logger.Error("Failed to create payout registry", "error", err)
		return nil, err
	}
	logger.Info("Initialized payout registry",
		"provider", "wise",
		"countries", reg.Countries())
	return reg, nil
}
