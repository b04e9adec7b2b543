// Package distribution fans a deal's revenue out across the percentage
// allocated jars of its country and keeps the transfer ledger.
package distribution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tapevault/backoffice/pkg/domain"
	"github.com/tapevault/backoffice/pkg/domain/jar"
	"github.com/tapevault/backoffice/pkg/lock"
	"github.com/tapevault/backoffice/pkg/money"
	"github.com/tapevault/backoffice/pkg/provider/payout"
	"github.com/tapevault/backoffice/pkg/repository"
)

const (
	defaultLockTTL     = 5 * time.Minute
	defaultLoopTimeout = 2 * time.Minute
	maxReferenceLength = 500

	defaultLedgerAttempts   = 3
	defaultLedgerRetryDelay = 200 * time.Millisecond
)

// Service runs jar distributions.
type Service struct {
	uow         repository.UnitOfWork
	payouts     payout.Registry
	locker      lock.Locker
	logger      *slog.Logger
	lockTTL     time.Duration
	loopTimeout time.Duration

	ledgerAttempts   int
	ledgerRetryDelay time.Duration
}

// Option customises a Service.
type Option func(*Service)

// WithLockTTL bounds how long a crashed holder can block a deal.
func WithLockTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// WithLoopTimeout bounds the provider calls of one distribution.
func WithLoopTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.loopTimeout = d
		}
	}
}

// WithLedgerRetry sets how often a ledger row's outcome write is retried.
func WithLedgerRetry(attempts int, delay time.Duration) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.ledgerAttempts = attempts
		}
		if delay >= 0 {
			s.ledgerRetryDelay = delay
		}
	}
}

// New creates a distribution service.
func New(uow repository.UnitOfWork, payouts payout.Registry, locker lock.Locker, logger *slog.Logger, opts ...Option) *Service {
	if locker == nil {
		locker = lock.NewLocal()
	}
	s := &Service{
		uow:         uow,
		payouts:     payouts,
		locker:      locker,
		logger:      logger,
		lockTTL:     defaultLockTTL,
		loopTimeout: defaultLoopTimeout,

		ledgerAttempts:   defaultLedgerAttempts,
		ledgerRetryDelay: defaultLedgerRetryDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TransferDeal loads the deal and distributes its recorded amount.
func (s *Service) TransferDeal(ctx context.Context, dealID uuid.UUID, reference string, force bool) (*Result, error) {
	repo, err := s.uow.DealRepository()
	if err != nil {
		return nil, err
	}
	d, err := repo.Get(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if reference == "" {
		reference = fmt.Sprintf("Deal %s", d.ID)
	}
	return s.TransferDealToJars(ctx, TransferRequest{
		DealID:      d.ID,
		Amount:      d.Amount,
		Currency:    d.Currency,
		CountryCode: d.CountryCode,
		Reference:   reference,
		Force:       force,
	})
}

// TransferDealToJars distributes req.Amount over the active jars of
// req.CountryCode. Each jar's ledger row is written as PENDING before its
// quote and balance movement and is updated with the outcome afterwards. A
// failing jar is recorded as FAILED and the rest are still attempted.
// Earlier successes are never rolled back.
func (s *Service) TransferDealToJars(ctx context.Context, req TransferRequest) (*Result, error) {
	country := strings.ToUpper(strings.TrimSpace(req.CountryCode))
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	log := s.logger.With("method", "TransferDealToJars", "deal_id", req.DealID, "country", country, "force", req.Force)

	if !req.Amount.IsPositive() {
		return nil, domain.ErrAmountMustBePositive
	}
	if country == "" {
		return nil, domain.ErrCountryRequired
	}
	if currency == "" {
		return nil, domain.ErrCurrencyRequired
	}

	release, err := s.locker.Obtain(ctx, "jar-transfer:"+req.DealID.String(), s.lockTTL)
	if errors.Is(err, lock.ErrNotObtained) {
		log.Warn("Jar transfer already running for deal")
		return nil, domain.ErrTransferInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain transfer lock: %w", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			log.Warn("Failed to release transfer lock", "error", err)
		}
	}()

	if !req.Force {
		status, err := s.CheckDealTransferStatus(ctx, req.DealID)
		if err != nil {
			return nil, err
		}
		if len(status.Successful) > 0 {
			log.Info("Deal already transferred, skipping", "rows", len(status.Successful))
			return &Result{
				DealID:             req.DealID,
				AlreadyTransferred: true,
				Success:            true,
				Currency:           currency,
				DealAmount:         req.Amount,
				TotalTransferred:   status.TotalTransferred,
				RemainingAmount:    req.Amount.Sub(status.TotalTransferred),
				Existing:           status,
			}, nil
		}
	}

	jars, err := s.receivingJars(ctx, country)
	if err != nil {
		return nil, err
	}
	for _, j := range jars {
		if !strings.EqualFold(j.Currency, currency) {
			return nil, fmt.Errorf("%w: jar %q holds %s, deal is in %s", domain.ErrCurrencyMismatch, j.Name, j.Currency, currency)
		}
	}
	client, err := s.payouts.ForCountry(country)
	if err != nil {
		return nil, err
	}

	// Provider calls are not abandoned when the caller goes away.
	loopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loopTimeout)
	defer cancel()

	res := &Result{
		DealID:           req.DealID,
		Currency:         currency,
		DealAmount:       req.Amount,
		TotalTransferred: decimal.Zero,
		Transfers:        make([]JarResult, 0, len(jars)),
		Summary:          Summary{TotalPercentageUsed: jar.TotalPercent(jars), JarCount: len(jars)},
	}
	for _, j := range jars {
		amount := money.Share(req.Amount, j.TransferPercent)
		if !amount.IsPositive() {
			log.Debug("Skipping jar with zero share", "jar_id", j.ID)
			continue
		}
		jr := s.transferToJar(loopCtx, client, req, j, amount)
		res.Transfers = append(res.Transfers, jr)
		if jr.Unrecorded {
			res.Summary.UnrecordedCount++
		}
		if jr.Status == jar.StatusFailed {
			res.Summary.FailedCount++
			continue
		}
		res.Summary.SuccessCount++
		res.TotalTransferred = res.TotalTransferred.Add(jr.Amount)
	}
	res.RemainingAmount = req.Amount.Sub(res.TotalTransferred)
	res.Success = res.Summary.FailedCount == 0 && res.Summary.UnrecordedCount == 0

	log.Info("Jar transfer finished",
		"transferred", res.TotalTransferred.StringFixed(2),
		"remaining", res.RemainingAmount.StringFixed(2),
		"succeeded", res.Summary.SuccessCount,
		"failed", res.Summary.FailedCount,
		"unrecorded", res.Summary.UnrecordedCount,
	)
	return res, nil
}

// receivingJars loads the active jars of a country and enforces the
// allocation ceiling before any money moves.
func (s *Service) receivingJars(ctx context.Context, country string) ([]*jar.Jar, error) {
	repo, err := s.uow.JarRepository()
	if err != nil {
		return nil, err
	}
	active, err := repo.ListByCountry(ctx, country, true)
	if err != nil {
		return nil, err
	}
	if err := jar.ValidateAllocation(active); err != nil {
		return nil, fmt.Errorf("%w: %s allocates %s%%", err, country, jar.TotalPercent(active).String())
	}
	out := make([]*jar.Jar, 0, len(active))
	for _, j := range active {
		if j.Receives() {
			out = append(out, j)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoActiveJars, country)
	}
	return out, nil
}

// transferToJar claims a PENDING ledger row before any money moves. A row
// whose outcome cannot be written stays PENDING, which the ledger guard
// counts as transferred, so a later run without force will not fund the
// jar again.
func (s *Service) transferToJar(ctx context.Context, client payout.Client, req TransferRequest, j *jar.Jar, amount decimal.Decimal) JarResult {
	log := s.logger.With("deal_id", req.DealID, "jar_id", j.ID, "jar", j.Name)
	jr := JarResult{
		JarID:    j.ID,
		JarName:  j.Name,
		Percent:  j.TransferPercent,
		Amount:   amount,
		Currency: j.Currency,
	}
	reference := fmt.Sprintf("%s - %s", req.Reference, j.Name)

	row := &jar.Transaction{
		ID:        uuid.New(),
		DealID:    req.DealID,
		JarID:     j.ID,
		Amount:    amount,
		Currency:  j.Currency,
		Status:    jar.StatusPending,
		Reference: truncate(reference, maxReferenceLength),
	}
	if err := s.record(ctx, row); err != nil {
		log.Error("Failed to write ledger row, jar skipped", "error", err)
		jr.Status = jar.StatusFailed
		jr.Error = "ledger unavailable, no transfer attempted"
		return jr
	}
	jr.TransactionID = row.ID

	status, err := s.move(ctx, client, req.DealID, j, amount, &jr)
	if err != nil {
		log.Error("Jar transfer failed", "error", err)
		jr.Status = jar.StatusFailed
		jr.Error = payout.Message(err)
		reference = fmt.Sprintf("%s | FAILED: %s", reference, jr.Error)
	} else {
		jr.Status = status
	}

	row.QuoteID = jr.QuoteID
	row.TransferID = jr.TransferID
	row.Status = jr.Status
	row.Reference = truncate(reference, maxReferenceLength)
	if err := s.settle(ctx, row); err != nil {
		log.Error("Ledger row left pending", "status", row.Status, "transfer_id", row.TransferID, "error", err)
		jr.Unrecorded = true
		if jr.Error == "" {
			jr.Error = "transfer outcome not recorded, ledger row left pending"
		}
	}
	return jr
}

func (s *Service) move(ctx context.Context, client payout.Client, dealID uuid.UUID, j *jar.Jar, amount decimal.Decimal, jr *JarResult) (jar.TransferStatus, error) {
	quote, err := client.CreateQuote(ctx, &payout.QuoteRequest{
		SourceCurrency: j.Currency,
		TargetCurrency: j.Currency,
		SourceAmount:   amount,
		PayOut:         payout.PayOutBalance,
	})
	if err != nil {
		return "", err
	}
	jr.QuoteID = quote.ID

	mv, err := client.MoveBalance(ctx, &payout.BalanceMovementRequest{
		QuoteID:         quote.ID,
		TargetBalanceID: j.BalanceID,
		IdempotencyKey:  uuid.NewSHA1(dealID, []byte(quote.ID)),
	})
	if err != nil {
		return "", err
	}
	jr.TransferID = mv.ID
	return jar.ParseStatus(mv.Status), nil
}

func (s *Service) record(ctx context.Context, row *jar.Transaction) error {
	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.JarTransactionRepository()
		if err != nil {
			return err
		}
		return repo.Create(ctx, row)
	})
}

// settle writes the outcome of a claimed row, retrying transient failures.
func (s *Service) settle(ctx context.Context, row *jar.Transaction) error {
	var err error
	for attempt := 1; attempt <= s.ledgerAttempts; attempt++ {
		err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
			repo, err := uow.JarTransactionRepository()
			if err != nil {
				return err
			}
			return repo.UpdateResult(ctx, row)
		})
		if err == nil || attempt == s.ledgerAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(s.ledgerRetryDelay):
		}
	}
	return err
}

// CheckDealTransferStatus reads the ledger for a deal and partitions it
// into successful and failed rows.
func (s *Service) CheckDealTransferStatus(ctx context.Context, dealID uuid.UUID) (*LedgerStatus, error) {
	repo, err := s.uow.JarTransactionRepository()
	if err != nil {
		return nil, err
	}
	rows, err := repo.ListByDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	st := &LedgerStatus{
		DealID:           dealID,
		HasTransfers:     len(rows) > 0,
		TotalTransferred: decimal.Zero,
		TotalFailed:      decimal.Zero,
	}
	for _, r := range rows {
		if r.Status.IsSuccessful() {
			st.Successful = append(st.Successful, r)
			st.TotalTransferred = st.TotalTransferred.Add(r.Amount)
		} else {
			st.Failed = append(st.Failed, r)
			st.TotalFailed = st.TotalFailed.Add(r.Amount)
		}
		if st.LastTransferAt == nil || r.CreatedAt.After(*st.LastTransferAt) {
			at := r.CreatedAt
			st.LastTransferAt = &at
		}
	}
	return st, nil
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
