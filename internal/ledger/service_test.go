package ledger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fubangkh/cashbook/internal/model"
	"github.com/fubangkh/cashbook/internal/store"
)

// memStore is an in-memory store.Store with injectable faults.
type memStore struct {
	mu        sync.Mutex
	rows      []model.Row
	version   int
	conflicts int  // writes to reject with ErrConflict before accepting
	hidden    bool // accepted writes never become visible to Read
	writes    int
	readErr   error
}

func (m *memStore) Read(ctx context.Context) (store.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return store.Snapshot{}, m.readErr
	}
	rows := make([]model.Row, len(m.rows))
	copy(rows, m.rows)
	return store.Snapshot{Rows: rows, Version: strconv.Itoa(m.version)}, nil
}

func (m *memStore) Write(ctx context.Context, rows []model.Row, expected string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conflicts > 0 {
		m.conflicts--
		// Someone else appended a row in between.
		m.rows = append(m.rows, model.Row{EntryID: "R20250115050", Category: model.CategoryOtherIncome, IncomeUSD: decimal.NewFromInt(1)})
		m.version++
		return store.ErrConflict
	}
	if expected != strconv.Itoa(m.version) {
		return store.ErrConflict
	}
	m.writes++
	if m.hidden {
		return nil
	}
	m.rows = rows
	m.version++
	return nil
}

func (m *memStore) Close() error { return nil }

type fixedRates map[string]decimal.Decimal

func (f fixedRates) Rate(_ context.Context, code string) (decimal.Decimal, error) {
	r, ok := f[code]
	if !ok {
		return decimal.Zero, errors.New("unknown currency " + code)
	}
	return r, nil
}

type accountSet map[string]bool

func (a accountSet) Exists(name string) bool { return a[name] }

func newTestService(st store.Store, opts ...Option) *Service {
	base := []Option{
		WithClock(func() time.Time { return jan15 }),
		WithConfirm(3, time.Millisecond),
		WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
	}
	return NewService(st, fixedRates{"USD": dec("1"), "RMB": dec("7")}, append(base, opts...)...)
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()
	st := &memStore{}
	svc := newTestService(st)

	ids, err := svc.Submit(ctx, incomeIntent())
	require.NoError(t, err)
	assert.Equal(t, []string{"R20250115001"}, ids)

	ids, err = svc.Submit(ctx, transferIntent("50"))
	require.NoError(t, err)
	assert.Equal(t, []string{"R20250115002", "R20250115003"}, ids)

	rows, err := svc.Table(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assertBalanceInvariant(t, rows)
}

func TestService_SubmitLooksUpRate(t *testing.T) {
	ctx := context.Background()
	st := &memStore{}
	svc := newTestService(st)

	in := expenseIntent("70")
	in.Currency = "RMB"
	in.Rate = decimal.Zero

	_, err := svc.Submit(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "10.00", st.rows[0].ExpenseUSD.StringFixed(2))

	in.Currency = "KHR"
	_, err = svc.Submit(ctx, in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "currency", verr.Field)
}

func TestService_ValidationBeforeRateLookup(t *testing.T) {
	st := &memStore{}
	svc := newTestService(st)

	in := incomeIntent()
	in.Summary = ""
	in.Currency = ""
	in.Rate = decimal.Zero

	_, err := svc.Submit(context.Background(), in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "summary", verr.Field)
	assert.Zero(t, st.writes)
}

func TestService_ConflictRetry(t *testing.T) {
	ctx := context.Background()
	st := &memStore{conflicts: 2}
	svc := newTestService(st)

	ids, err := svc.Submit(ctx, expenseIntent("5"))
	require.NoError(t, err)
	// The concurrent rows took 050, so the retried write continues after them.
	assert.Equal(t, []string{"R20250115051"}, ids)
	assert.Len(t, st.rows, 3)
	assertBalanceInvariant(t, st.rows)
}

func TestService_ConflictRetriesExhausted(t *testing.T) {
	st := &memStore{conflicts: 10}
	svc := newTestService(st, WithConflictRetries(1))

	_, err := svc.Submit(context.Background(), expenseIntent("5"))
	require.ErrorIs(t, err, store.ErrConflict)
	assert.Zero(t, st.writes)
}

func TestService_NotConfirmed(t *testing.T) {
	st := &memStore{hidden: true}
	svc := newTestService(st)

	ids, err := svc.Submit(context.Background(), expenseIntent("5"))
	require.ErrorIs(t, err, ErrNotConfirmed)
	assert.Equal(t, []string{"R20250115001"}, ids, "ids are reported even when unconfirmed")
	assert.Equal(t, 1, st.writes)
}

func TestService_ReadError(t *testing.T) {
	boom := &store.IOError{Op: "read", Path: "ledger.csv", Err: errors.New("disk gone")}
	st := &memStore{readErr: boom}
	svc := newTestService(st)

	_, err := svc.Submit(context.Background(), expenseIntent("5"))
	var ioErr *store.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "read", ioErr.Op)
}

func TestService_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st := &memStore{hidden: true}
	svc := newTestService(st, WithConfirm(3, time.Hour))
	_, err := svc.Submit(ctx, expenseIntent("5"))
	require.Error(t, err)
}

func TestService_Correct(t *testing.T) {
	ctx := context.Background()
	st := &memStore{}
	svc := newTestService(st)

	_, err := svc.Submit(ctx, expenseIntent("5"))
	require.NoError(t, err)

	fix := expenseIntent("8")
	require.NoError(t, svc.Correct(ctx, "R20250115001", fix))
	assert.Equal(t, "-8.00", st.rows[0].BalanceUSD.StringFixed(2))

	err = svc.Correct(ctx, "R20250115099", fix)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_Recompute(t *testing.T) {
	st := &memStore{rows: []model.Row{
		{EntryID: "R20250101001", IncomeUSD: dec("10"), BalanceUSD: dec("999")},
		{EntryID: "R20250101002", ExpenseUSD: dec("4"), BalanceUSD: dec("-1")},
	}}
	svc := newTestService(st)

	n, err := svc.Recompute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "10.00", st.rows[0].BalanceUSD.StringFixed(2))
	assert.Equal(t, "6.00", st.rows[1].BalanceUSD.StringFixed(2))
}

func TestService_WarnsOnUnknownAccount(t *testing.T) {
	var logs bytes.Buffer
	st := &memStore{}
	svc := newTestService(st,
		WithAccounts(accountSet{"BankX": true}),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)

	_, err := svc.Submit(context.Background(), transferIntent("1"))
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "account is not registered")
	assert.Contains(t, logs.String(), "account=Cash")
	assert.NotContains(t, logs.String(), "account=BankX")
}

func TestService_CSVStoreConcurrentSubmits(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.csv")

	const workers = 4
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			svc := newTestService(store.NewCSVStore(path), WithConflictRetries(workers*2))
			_, errs[i] = svc.Submit(ctx, expenseIntent("1"))
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	snap, err := store.NewCSVStore(path).Read(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Rows, workers)

	seen := map[string]bool{}
	for _, r := range snap.Rows {
		assert.False(t, seen[r.EntryID], "duplicate %s", r.EntryID)
		seen[r.EntryID] = true
	}
	assert.Equal(t, "-4.00", snap.Rows[workers-1].BalanceUSD.StringFixed(2))
}

func TestService_SubmitAll(t *testing.T) {
	ctx := context.Background()
	st := &memStore{}
	svc := newTestService(st)

	ids, err := svc.SubmitAll(ctx, []Intent{incomeIntent(), expenseIntent("20"), transferIntent("5")})
	require.NoError(t, err)
	assert.Equal(t, []string{"R20250115001", "R20250115002", "R20250115003", "R20250115004"}, ids)
	assert.Equal(t, 1, st.writes, "one write for the whole batch")

	rows, err := svc.Table(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assertBalanceInvariant(t, rows)
	assert.Equal(t, "480.00", rows[3].BalanceUSD.StringFixed(2))
}

func TestService_SubmitAllRejectsWholeBatch(t *testing.T) {
	ctx := context.Background()
	st := &memStore{}
	svc := newTestService(st)

	bad := expenseIntent("20")
	bad.InvoiceNo = ""
	_, err := svc.SubmitAll(ctx, []Intent{incomeIntent(), expenseIntent("10"), bad})
	require.Error(t, err)

	var berr *BatchError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, 2, berr.Index)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "invoice_no", verr.Field)

	assert.Equal(t, 0, st.writes)
	assert.Empty(t, st.rows)

	// Fixing the rejected intent and resubmitting records each entry once.
	bad.InvoiceNo = "INV3"
	ids, err := svc.SubmitAll(ctx, []Intent{incomeIntent(), expenseIntent("10"), bad})
	require.NoError(t, err)
	assert.Len(t, ids, 3)
	rows, err := svc.Table(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestService_SubmitAllUnknownCurrency(t *testing.T) {
	st := &memStore{}
	svc := newTestService(st)

	in := expenseIntent("10")
	in.Currency = "KHR"
	in.Rate = decimal.Zero
	_, err := svc.SubmitAll(context.Background(), []Intent{incomeIntent(), in})

	var berr *BatchError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, 1, berr.Index)
	assert.Equal(t, 0, st.writes)
}

func TestService_SubmitAllEmpty(t *testing.T) {
	st := &memStore{}
	ids, err := newTestService(st).SubmitAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, 0, st.writes)
}
