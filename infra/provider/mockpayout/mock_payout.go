package mockpayout

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tapevault/backoffice/pkg/domain"
	"github.com/tapevault/backoffice/pkg/provider/payout"
)

// Provider simulates the payments provider for local development and tests.
// Every call succeeds immediately with COMPLETED unless the target balance
// or recipient was registered with FailBalance / FailRecipient.
//
// This is NOT for production use.
type Provider struct {
	mu                sync.Mutex
	failingBalances   map[int64]string
	failingRecipients map[int64]string
	quotes            int
	movements         []payout.BalanceMovementRequest
	transfers         []payout.TransferRequest
}

// New creates a new mock provider.
func New() *Provider {
	return &Provider{
		failingBalances:   make(map[int64]string),
		failingRecipients: make(map[int64]string),
	}
}

// FailBalance makes every movement into balanceID fail with msg.
func (p *Provider) FailBalance(balanceID int64, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failingBalances[balanceID] = msg
}

// FailRecipient makes every quote for recipientID fail with msg.
func (p *Provider) FailRecipient(recipientID int64, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failingRecipients[recipientID] = msg
}

func (p *Provider) CreateQuote(_ context.Context, req *payout.QuoteRequest) (*payout.Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if msg, ok := p.failingRecipients[req.TargetAccount]; ok && req.TargetAccount != 0 {
		return nil, &payout.Error{Op: "create quote", StatusCode: 422, Message: msg}
	}
	p.quotes++
	return &payout.Quote{
		ID:           uuid.NewString(),
		SourceAmount: req.SourceAmount,
		TargetAmount: req.SourceAmount,
		Status:       "PENDING",
	}, nil
}

func (p *Provider) CreateTransfer(_ context.Context, req *payout.TransferRequest) (*payout.Transfer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transfers = append(p.transfers, *req)
	return &payout.Transfer{
		ID:     fmt.Sprintf("%d", 50000+len(p.transfers)),
		Status: "incoming_payment_waiting",
	}, nil
}

func (p *Provider) FundTransfer(_ context.Context, transferID string) (*payout.Funding, error) {
	if strings.TrimSpace(transferID) == "" {
		return nil, &payout.Error{Op: "fund transfer", Message: "missing transfer id"}
	}
	return &payout.Funding{Status: "COMPLETED"}, nil
}

func (p *Provider) MoveBalance(_ context.Context, req *payout.BalanceMovementRequest) (*payout.BalanceMovement, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if msg, ok := p.failingBalances[req.TargetBalanceID]; ok {
		return nil, &payout.Error{Op: "balance movement", StatusCode: 422, Message: msg}
	}
	p.movements = append(p.movements, *req)
	return &payout.BalanceMovement{
		ID:     fmt.Sprintf("%d", 90000+len(p.movements)),
		Status: "COMPLETED",
	}, nil
}

// Movements returns the successful balance movements so far.
func (p *Provider) Movements() []payout.BalanceMovementRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]payout.BalanceMovementRequest(nil), p.movements...)
}

// Transfers returns the transfers created so far.
func (p *Provider) Transfers() []payout.TransferRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]payout.TransferRequest(nil), p.transfers...)
}

// Registry serves the same mock provider for every country in countries.
type Registry struct {
	provider  *Provider
	countries []string
}

// NewRegistry returns a registry answering for the given countries.
func NewRegistry(provider *Provider, countries ...string) *Registry {
	cc := make([]string, 0, len(countries))
	for _, c := range countries {
		cc = append(cc, strings.ToUpper(c))
	}
	return &Registry{provider: provider, countries: cc}
}

func (r *Registry) ForCountry(country string) (payout.Client, error) {
	if len(r.countries) == 0 {
		return r.provider, nil
	}
	for _, c := range r.countries {
		if strings.EqualFold(c, country) {
			return r.provider, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedCountry, country)
}

func (r *Registry) Countries() []string {
	return append([]string(nil), r.countries...)
}

// Quotes returns how many quotes were created.
func (p *Provider) Quotes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quotes
}
