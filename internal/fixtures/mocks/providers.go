package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tapevault/backoffice/pkg/provider/automation"
	"github.com/tapevault/backoffice/pkg/provider/payout"
)

type PayoutClient struct{ mock.Mock }

func NewPayoutClient(t TestingT) *PayoutClient {
	m := &PayoutClient{}
	register(&m.Mock, t)
	return m
}

func (m *PayoutClient) CreateQuote(ctx context.Context, req *payout.QuoteRequest) (*payout.Quote, error) {
	args := m.Called(ctx, req)
	return ret0[*payout.Quote](args), args.Error(1)
}

func (m *PayoutClient) CreateTransfer(ctx context.Context, req *payout.TransferRequest) (*payout.Transfer, error) {
	args := m.Called(ctx, req)
	return ret0[*payout.Transfer](args), args.Error(1)
}

func (m *PayoutClient) FundTransfer(ctx context.Context, transferID string) (*payout.Funding, error) {
	args := m.Called(ctx, transferID)
	return ret0[*payout.Funding](args), args.Error(1)
}

func (m *PayoutClient) MoveBalance(ctx context.Context, req *payout.BalanceMovementRequest) (*payout.BalanceMovement, error) {
	args := m.Called(ctx, req)
	return ret0[*payout.BalanceMovement](args), args.Error(1)
}

type Notifier struct{ mock.Mock }

func NewNotifier(t TestingT) *Notifier {
	m := &Notifier{}
	register(&m.Mock, t)
	return m
}

func (m *Notifier) Notify(ctx context.Context, n *automation.Notification) error {
	return m.Called(ctx, n).Error(0)
}

type Mailer struct{ mock.Mock }

func NewMailer(t TestingT) *Mailer {
	m := &Mailer{}
	register(&m.Mock, t)
	return m
}

func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}
