// Package scheduler keeps stored Google OAuth tokens fresh. Each connected
// user gets one timer firing shortly before expiry, and a cron sweep
// reschedules everyone so missed timers recover.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/tapevault/backoffice/pkg/domain/calendar"
	"github.com/tapevault/backoffice/pkg/repository"
	"golang.org/x/oauth2"
)

const (
	defaultLead  = 5 * time.Minute
	defaultSweep = "@hourly"
)

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error)
}

// OAuthRefresher refreshes through an oauth2.Config.
type OAuthRefresher struct {
	Config *oauth2.Config
}

func (o OAuthRefresher) Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	// An empty access token forces the source to hit the token endpoint.
	stale := &oauth2.Token{RefreshToken: tok.RefreshToken, TokenType: tok.TokenType}
	next, err := o.Config.TokenSource(ctx, stale).Token()
	if err != nil {
		return nil, err
	}
	if next.RefreshToken == "" {
		next.RefreshToken = tok.RefreshToken
	}
	return next, nil
}

type stopper interface {
	Stop() bool
}

// TokenRefresher owns the per-user timers.
type TokenRefresher struct {
	uow       repository.UnitOfWork
	refresher Refresher
	logger    *slog.Logger
	lead      time.Duration
	spec      string

	mu      sync.Mutex
	timers  map[uuid.UUID]stopper
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	running bool

	now       func() time.Time
	afterFunc func(time.Duration, func()) stopper
}

// NewTokenRefresher creates a stopped refresher. lead is how long before
// expiry a token is refreshed; spec is the cron spec of the sweep.
func NewTokenRefresher(uow repository.UnitOfWork, refresher Refresher, lead time.Duration, spec string, logger *slog.Logger) *TokenRefresher {
	if lead <= 0 {
		lead = defaultLead
	}
	if spec == "" {
		spec = defaultSweep
	}
	return &TokenRefresher{
		uow:       uow,
		refresher: refresher,
		logger:    logger.With("component", "token_refresher"),
		lead:      lead,
		spec:      spec,
		timers:    make(map[uuid.UUID]stopper),
		now:       time.Now,
		afterFunc: func(d time.Duration, f func()) stopper { return time.AfterFunc(d, f) },
	}
}

// Start registers the sweep, runs it once and starts the cron.
func (r *TokenRefresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	r.ctx, r.cancel = context.WithCancel(context.WithoutCancel(ctx))
	r.cron = cron.New()
	if _, err := r.cron.AddFunc(r.spec, func() { r.Sweep(r.ctx) }); err != nil {
		r.cancel()
		r.mu.Unlock()
		return fmt.Errorf("invalid sweep spec %q: %w", r.spec, err)
	}
	r.running = true
	r.mu.Unlock()

	r.Sweep(r.ctx)
	r.cron.Start()
	r.logger.Info("Token refresher started", "sweep", r.spec, "lead", r.lead)
	return nil
}

// Stop halts the cron, cancels in-flight refreshes and drops every timer.
func (r *TokenRefresher) Stop(ctx context.Context) {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	c := r.cron
	r.cancel()
	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
	r.mu.Unlock()

	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
	r.logger.Info("Token refresher stopped")
}

// Sweep schedules every connected user. One user's failure does not stop the rest.
func (r *TokenRefresher) Sweep(ctx context.Context) {
	repo, err := r.uow.CalendarUserRepository()
	if err != nil {
		r.logger.Error("Sweep failed", "error", err)
		return
	}
	users, err := repo.ListConnected(ctx)
	if err != nil {
		r.logger.Error("Sweep failed to list users", "error", err)
		return
	}
	for _, u := range users {
		if err := r.Schedule(u); err != nil {
			r.logger.Warn("Skipping user", "user_id", u.ID, "error", err)
		}
	}
	r.logger.Debug("Sweep finished", "users", len(users))
}

// Schedule replaces the user's timer based on the stored token expiry.
// Users without a token or refresh token are unscheduled. While the
// refresher is not running nothing is armed; Start's sweep picks the user up.
func (r *TokenRefresher) Schedule(u *calendar.User) error {
	tok, err := u.Token()
	if err != nil {
		r.Cancel(u.ID)
		return fmt.Errorf("stored token is unreadable: %w", err)
	}
	if tok == nil || tok.RefreshToken == "" {
		r.Cancel(u.ID)
		return nil
	}
	delay := time.Duration(0)
	if !tok.Expiry.IsZero() {
		delay = tok.Expiry.Add(-r.lead).Sub(r.now())
		if delay < 0 {
			delay = 0
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		r.logger.Debug("Refresher not running, user not scheduled", "user_id", u.ID)
		return nil
	}
	if old, ok := r.timers[u.ID]; ok {
		old.Stop()
	}
	id := u.ID
	r.timers[id] = r.afterFunc(delay, func() { r.fire(id) })
	return nil
}

// Cancel drops the user's timer, if any.
func (r *TokenRefresher) Cancel(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timers[userID]; ok {
		t.Stop()
		delete(r.timers, userID)
	}
}

// Scheduled reports whether the user has a pending timer.
func (r *TokenRefresher) Scheduled(userID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.timers[userID]
	return ok
}

func (r *TokenRefresher) fire(userID uuid.UUID) {
	r.mu.Lock()
	delete(r.timers, userID)
	ctx := r.ctx
	r.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := r.RefreshUser(ctx, userID); err != nil {
		r.logger.Error("Token refresh failed", "user_id", userID, "error", err)
	}
}

// RefreshUser refreshes and stores one user's token, then schedules the next refresh.
func (r *TokenRefresher) RefreshUser(ctx context.Context, userID uuid.UUID) error {
	repo, err := r.uow.CalendarUserRepository()
	if err != nil {
		return err
	}
	u, err := repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	tok, err := u.Token()
	if err != nil {
		return err
	}
	if tok == nil || tok.RefreshToken == "" {
		return nil
	}
	next, err := r.refresher.Refresh(ctx, tok)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	raw, err := calendar.EncodeToken(next)
	if err != nil {
		return err
	}
	if err := repo.UpdateToken(ctx, userID, raw); err != nil {
		return err
	}
	u.GoogleToken = raw
	r.logger.Info("Token refreshed", "user_id", userID, "expiry", next.Expiry)
	return r.Schedule(u)
}
