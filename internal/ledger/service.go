package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/fubangkh/cashbook/internal/model"
	"github.com/fubangkh/cashbook/internal/store"
)

// ErrNotConfirmed is returned when a write succeeded but the new entries
// never became visible in the store.
var ErrNotConfirmed = errors.New("write not confirmed")

const (
	// DefaultConfirmAttempts bounds the post-write visibility poll.
	DefaultConfirmAttempts = 5
	// DefaultConfirmInterval spaces the post-write visibility polls.
	DefaultConfirmInterval = 500 * time.Millisecond
	// DefaultConflictRetries bounds re-reads after a version conflict.
	DefaultConflictRetries = 3
)

// RateSource supplies the exchange rate of a currency against USD.
type RateSource interface {
	Rate(ctx context.Context, code string) (decimal.Decimal, error)
}

// AccountChecker tests whether a settlement account is registered.
type AccountChecker interface {
	Exists(name string) bool
}

// Service runs entry submissions and corrections against a table store.
type Service struct {
	store           store.Store
	rates           RateSource
	accounts        AccountChecker
	now             func() time.Time
	logger          *slog.Logger
	confirmAttempts int
	confirmInterval time.Duration
	conflictRetries int
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for timestamps and IDs.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithAccounts makes the service warn about entries booked against
// unregistered settlement accounts.
func WithAccounts(a AccountChecker) Option {
	return func(s *Service) { s.accounts = a }
}

// WithConfirm sets how often and how fast the service polls the store for
// newly written entries.
func WithConfirm(attempts int, interval time.Duration) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.confirmAttempts = attempts
		}
		if interval > 0 {
			s.confirmInterval = interval
		}
	}
}

// WithConflictRetries sets how many times a conflicting write is retried
// against a fresh read.
func WithConflictRetries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.conflictRetries = n
		}
	}
}

// NewService creates a Service.
func NewService(st store.Store, rates RateSource, opts ...Option) *Service {
	s := &Service{
		store:           st,
		rates:           rates,
		now:             time.Now,
		logger:          slog.Default(),
		confirmAttempts: DefaultConfirmAttempts,
		confirmInterval: DefaultConfirmInterval,
		conflictRetries: DefaultConflictRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Table returns the current ledger rows.
func (s *Service) Table(ctx context.Context) ([]model.Row, error) {
	snap, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Rows, nil
}

// Submit appends a new entry (or transfer pair) and returns its entry IDs
// once they are visible in the store.
func (s *Service) Submit(ctx context.Context, intent Intent) ([]string, error) {
	intent, err := s.withRate(ctx, intent)
	if err != nil {
		return nil, err
	}
	s.checkAccounts(intent)

	ids, err := s.update(ctx, "submit", func(rows []model.Row, now time.Time) (Result, error) {
		return AppendEntry(rows, intent, now)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("entry recorded", "ids", ids, "category", string(intent.Category))
	return ids, nil
}

// BatchError reports which intent of a batch was rejected.
type BatchError struct {
	Index int // 0-based position in the batch
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("entry %d: %v", e.Index+1, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// SubmitAll appends every intent in order as a single write. If any intent
// is rejected nothing is stored and the error is a *BatchError.
func (s *Service) SubmitAll(ctx context.Context, intents []Intent) ([]string, error) {
	if len(intents) == 0 {
		return nil, nil
	}

	rated := make([]Intent, len(intents))
	for i, in := range intents {
		in, err := s.withRate(ctx, in)
		if err != nil {
			return nil, &BatchError{Index: i, Err: err}
		}
		s.checkAccounts(in)
		rated[i] = in
	}

	ids, err := s.update(ctx, "submit batch", func(rows []model.Row, now time.Time) (Result, error) {
		var all []string
		for i, in := range rated {
			res, err := AppendEntry(rows, in, now)
			if err != nil {
				return Result{}, &BatchError{Index: i, Err: err}
			}
			rows = res.Rows
			all = append(all, res.IDs...)
		}
		return Result{Rows: rows, IDs: all}, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("entries recorded", "count", len(ids))
	return ids, nil
}

// Correct replaces the editable fields of an existing entry.
func (s *Service) Correct(ctx context.Context, entryID string, intent Intent) error {
	intent, err := s.withRate(ctx, intent)
	if err != nil {
		return err
	}
	s.checkAccounts(intent)

	if _, err := s.update(ctx, "correct", func(rows []model.Row, now time.Time) (Result, error) {
		return CorrectEntry(rows, entryID, intent, now)
	}); err != nil {
		return err
	}
	s.logger.Info("entry corrected", "id", entryID)
	return nil
}

// Recompute rewrites the table with every running balance recalculated.
func (s *Service) Recompute(ctx context.Context) (int, error) {
	var n int
	_, err := s.update(ctx, "recompute", func(rows []model.Row, _ time.Time) (Result, error) {
		n = len(rows)
		return Result{Rows: Recompute(rows)}, nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("balances recomputed", "rows", n)
	return n, nil
}

type mutation func(rows []model.Row, now time.Time) (Result, error)

// update runs one read-modify-write cycle, retrying on version conflicts,
// then waits until the affected IDs are visible.
func (s *Service) update(ctx context.Context, op string, apply mutation) ([]string, error) {
	for attempt := 0; ; attempt++ {
		snap, err := s.store.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		res, err := apply(snap.Rows, s.now())
		if err != nil {
			return nil, err
		}

		err = s.store.Write(ctx, res.Rows, snap.Version)
		if errors.Is(err, store.ErrConflict) && attempt < s.conflictRetries {
			s.logger.Warn("ledger changed during write, retrying", "op", op, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if err := s.confirm(ctx, res.IDs); err != nil {
			return res.IDs, fmt.Errorf("%s: %w", op, err)
		}
		return res.IDs, nil
	}
}

// confirm polls the store until every id is present.
func (s *Service) confirm(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	limiter := rate.NewLimiter(rate.Every(s.confirmInterval), 1)
	for attempt := 1; attempt <= s.confirmAttempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		snap, err := s.store.Read(ctx)
		if err != nil {
			s.logger.Debug("confirmation read failed", "attempt", attempt, "error", err)
			continue
		}
		if containsAll(snap.IDs(), ids) {
			return nil
		}
		s.logger.Debug("entries not visible yet", "attempt", attempt, "ids", ids)
	}
	return fmt.Errorf("%w: %v not visible after %d attempts", ErrNotConfirmed, ids, s.confirmAttempts)
}

// withRate validates intent and fills in its exchange rate when the caller
// did not supply one.
func (s *Service) withRate(ctx context.Context, intent Intent) (Intent, error) {
	if err := intent.normalized().Validate(); err != nil {
		return intent, err
	}
	if !intent.Rate.IsZero() || s.rates == nil {
		return intent, nil
	}
	r, err := s.rates.Rate(ctx, intent.Currency)
	if err != nil {
		return intent, &ValidationError{Field: "currency", Reason: err.Error()}
	}
	intent.Rate = r
	return intent, nil
}

func (s *Service) checkAccounts(intent Intent) {
	if s.accounts == nil {
		return
	}
	for _, name := range []string{intent.Account, intent.SourceAccount, intent.DestAccount} {
		name = model.Normalize(name)
		if name != "" && !s.accounts.Exists(name) {
			s.logger.Warn("account is not registered", "account", name)
		}
	}
}

func containsAll(have, want []string) bool {
	set := make(map[string]bool, len(have))
	for _, id := range have {
		set[id] = true
	}
	for _, id := range want {
		if !set[id] {
			return false
		}
	}
	return true
}
