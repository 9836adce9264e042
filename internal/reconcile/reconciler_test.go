package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"fjacquet/txn-import/internal/acceptance"
	"fjacquet/txn-import/internal/auth"
	"fjacquet/txn-import/internal/categorizer"
	"fjacquet/txn-import/internal/logging"
	"fjacquet/txn-import/internal/models"
	"fjacquet/txn-import/internal/pending"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory pending.Store with injectable failures.
type fakeStore struct {
	mu           sync.Mutex
	records      []models.PendingRecord
	fetchCalls   int
	fetchErr     error
	deleteErr    error
	deleteErrs   map[int64]error
	deleteAllErr error
	updateErr    error
	deleteGate   chan struct{}
	updates      []pending.Patch

	// A fetch snapshots the records, signals fetchStarted and then waits
	// on fetchGate. An update signals updateStarted and waits on updateGate.
	fetchGate     chan struct{}
	fetchStarted  chan struct{}
	updateGate    chan struct{}
	updateStarted chan struct{}
}

func newFakeStore(descriptions ...string) *fakeStore {
	s := &fakeStore{}
	for i, desc := range descriptions {
		s.records = append(s.records, models.PendingRecord{
			ID:             int64(i + 1),
			AccountID:      "acct-1",
			Date:           time.Date(2021, 9, 14+i, 0, 0, 0, 0, time.UTC),
			Description:    desc,
			Amount:         decimal.RequireFromString(fmt.Sprintf("-%d.50", 10*(i+1))),
			StoredCategory: models.CategoryImported,
		})
	}
	return s
}

func (s *fakeStore) FetchAll(context.Context) ([]models.PendingRecord, error) {
	s.mu.Lock()
	s.fetchCalls++
	if s.fetchErr != nil {
		s.mu.Unlock()
		return nil, s.fetchErr
	}
	out := make([]models.PendingRecord, len(s.records))
	copy(out, s.records)
	gate, started := s.fetchGate, s.fetchStarted
	s.mu.Unlock()

	if gate != nil {
		started <- struct{}{}
		<-gate
	}
	return out, nil
}

func (s *fakeStore) Update(_ context.Context, id int64, patch pending.Patch) (models.PendingRecord, error) {
	if s.updateGate != nil {
		s.updateStarted <- struct{}{}
		<-s.updateGate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return models.PendingRecord{}, s.updateErr
	}
	for i, rec := range s.records {
		if rec.ID == id {
			s.records[i] = patch.Apply(rec, models.Manual(time.Now()))
			s.updates = append(s.updates, patch)
			return s.records[i], nil
		}
	}
	return models.PendingRecord{}, pending.ErrNotFound
}

func (s *fakeStore) Delete(_ context.Context, id int64) error {
	if s.deleteGate != nil {
		<-s.deleteGate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if err := s.deleteErrs[id]; err != nil {
		return err
	}
	for i, rec := range s.records {
		if rec.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return pending.ErrNotFound
}

func (s *fakeStore) DeleteAll(context.Context) error {
	if s.deleteGate != nil {
		<-s.deleteGate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteAllErr != nil {
		return s.deleteAllErr
	}
	s.records = nil
	return nil
}

func (s *fakeStore) ids() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.ID)
	}
	return out
}

func (s *fakeStore) fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchCalls
}

// gatedIssuer blocks until gate is closed when gate is set.
type gatedIssuer struct {
	gate    chan struct{}
	started chan struct{}
	err     error
	mu      sync.Mutex
	n       int
}

func (g *gatedIssuer) Issue(context.Context) (string, error) {
	if g.started != nil {
		g.started <- struct{}{}
	}
	if g.gate != nil {
		<-g.gate
	}
	if g.err != nil {
		return "", g.err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("txn-%d", g.n), nil
}

type memLedger struct {
	mu  sync.Mutex
	txs []models.Transaction
	err error
}

func (l *memLedger) Insert(_ context.Context, t models.Transaction) (models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return models.Transaction{}, l.err
	}
	l.txs = append(l.txs, t)
	return t, nil
}

func (l *memLedger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.txs)
}

type fakeAI struct {
	fn func(ctx context.Context, req categorizer.AIRequest) (models.Categorization, error)
}

func (f fakeAI) Categorize(ctx context.Context, req categorizer.AIRequest) (models.Categorization, error) {
	return f.fn(ctx, req)
}

type recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *recorder) byLevel(level Level) []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notification
	for _, n := range r.items {
		if n.Level == level {
			out = append(out, n)
		}
	}
	return out
}

type fixture struct {
	store    *fakeStore
	issuer   *gatedIssuer
	ledger   *memLedger
	notes    *recorder
	rec      *Reconciler
	guidSeed int
}

func newFixture(t *testing.T, ai AICategorizer, descriptions ...string) *fixture {
	t.Helper()
	f := &fixture{
		store:  newFakeStore(descriptions...),
		issuer: &gatedIssuer{},
		ledger: &memLedger{},
		notes:  &recorder{},
	}
	var guidMu sync.Mutex
	logger := &logging.MockLogger{}
	workflow := acceptance.NewWorkflow(f.issuer, f.ledger, f.store, logger)
	rules := categorizer.NewRuleCategorizer(categorizer.DefaultRules(), models.CategoryImported, logger)
	f.rec = New(f.store, workflow, rules, ai, f.notes, logger, Options{
		Now: func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) },
		NewGUID: func() string {
			guidMu.Lock()
			defer guidMu.Unlock()
			f.guidSeed++
			return fmt.Sprintf("guid-%d", f.guidSeed)
		},
	})
	require.NoError(t, f.rec.Load(context.Background(), auth.Allow))
	return f
}

func (f *fixture) guidOf(t *testing.T, id int64) string {
	t.Helper()
	entry, ok := f.rec.FindByPendingID(id)
	require.True(t, ok, "pending id %d not in working set", id)
	return entry.Record.GUID
}

func pendingIDs(entries []Entry) []int64 {
	out := make([]int64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Record.ID)
	}
	return out
}

func TestLoad_InitialTransform(t *testing.T) {
	f := newFixture(t, nil, "Shell Gas Station", "Corner Bakery")

	entries := f.rec.Snapshot()
	require.Len(t, entries, 2)

	shell := entries[0].Record
	assert.NotEmpty(t, shell.GUID)
	assert.NotEqual(t, shell.GUID, entries[1].Record.GUID)
	assert.Equal(t, "fuel", shell.Category())
	assert.Equal(t, models.SourceRuleBased, shell.Categorization.Provenance().Source())
	assert.Equal(t, models.AIHint, shell.Categorization.Provenance().Reason())
	assert.Equal(t, models.RecurrenceOneTime, shell.Recurrence)
	assert.Equal(t, models.StateOutstanding, shell.State)
	assert.Equal(t, models.TypeUndefined, shell.Type)
	assert.True(t, shell.Active)
	assert.Equal(t, Idle, entries[0].State)

	assert.Equal(t, models.CategoryImported, entries[1].Record.Category())
	assert.False(t, f.rec.NeedsResync())
}

func TestLoad_RunsOncePerFetch(t *testing.T) {
	f := newFixture(t, nil, "Shell Gas Station")
	ctx := context.Background()

	require.NoError(t, f.rec.Load(ctx, auth.Allow))
	require.NoError(t, f.rec.Load(ctx, auth.Allow))
	assert.Equal(t, 1, f.store.fetches())
	guid := f.guidOf(t, 1)

	require.NoError(t, f.rec.Refresh(ctx, auth.Allow))
	assert.Equal(t, 2, f.store.fetches())
	assert.NotEqual(t, guid, f.guidOf(t, 1))
}

func TestLoad_EmptyStore(t *testing.T) {
	f := newFixture(t, nil)

	assert.Empty(t, f.rec.Snapshot())
	assert.Empty(t, f.notes.byLevel(LevelError))
}

func TestLoad_FetchFailureKeepsWorkingSet(t *testing.T) {
	f := newFixture(t, nil, "Shell Gas Station")
	before := f.rec.Snapshot()

	f.store.fetchErr = errors.New("connection refused")
	err := f.rec.Refresh(context.Background(), auth.Allow)

	require.Error(t, err)
	assert.Equal(t, before, f.rec.Snapshot())
	assert.True(t, f.rec.NeedsResync())
	require.Len(t, f.notes.byLevel(LevelError), 1)
	assert.Equal(t, ActionLoad, f.notes.byLevel(LevelError)[0].Action)
}

func TestDiscard_Success(t *testing.T) {
	f := newFixture(t, nil, "A", "B")
	guid := f.guidOf(t, 1)

	result, err := f.rec.Discard(context.Background(), auth.Allow, guid)

	require.NoError(t, err)
	assert.Equal(t, Committed, result)
	assert.Equal(t, []int64{2}, pendingIDs(f.rec.Snapshot()))
	assert.Equal(t, []int64{2}, f.store.ids())
	assert.Equal(t, Idle, f.rec.State(guid))
	require.Len(t, f.notes.byLevel(LevelInfo), 1)
	assert.Equal(t, ActionDiscard, f.notes.byLevel(LevelInfo)[0].Action)
	assert.Equal(t, guid, f.notes.byLevel(LevelInfo)[0].GUID)
}

func TestDiscard_FailureResyncs(t *testing.T) {
	f := newFixture(t, nil, "A", "B")
	guid := f.guidOf(t, 1)
	f.store.deleteErr = errors.New("store unavailable")

	result, err := f.rec.Discard(context.Background(), auth.Allow, guid)

	require.Error(t, err)
	assert.Equal(t, RolledBack, result)
	assert.Equal(t, []int64{1, 2}, pendingIDs(f.rec.Snapshot()))
	assert.Equal(t, 2, f.store.fetches())
	assert.False(t, f.rec.NeedsResync())

	errs := f.notes.byLevel(LevelError)
	require.Len(t, errs, 1)
	assert.Equal(t, ActionDiscard, errs[0].Action)
	assert.Contains(t, errs[0].Message, "store unavailable")
}

func TestDiscard_StaleResyncDoesNotRestoreDiscarded(t *testing.T) {
	f := newFixture(t, nil, "A", "B")
	ctx := context.Background()
	guidA, guidB := f.guidOf(t, 1), f.guidOf(t, 2)
	f.store.deleteErrs = map[int64]error{2: errors.New("locked")}
	f.store.mu.Lock()
	f.store.fetchGate = make(chan struct{})
	f.store.fetchStarted = make(chan struct{}, 1)
	f.store.mu.Unlock()

	// B's failed delete resyncs; its fetch sees A and is held.
	failed := Go(func() (OpResult, error) { return f.rec.Discard(ctx, auth.Allow, guidB) })
	<-f.store.fetchStarted

	result, err := f.rec.Discard(ctx, auth.Allow, guidA)
	require.NoError(t, err)
	assert.Equal(t, Committed, result)
	assert.Equal(t, []int64{2}, f.store.ids())

	f.store.mu.Lock()
	close(f.store.fetchGate)
	f.store.fetchGate = nil
	f.store.mu.Unlock()
	result, err = failed.Wait()
	require.Error(t, err)
	assert.Equal(t, RolledBack, result)

	assert.Equal(t, []int64{2}, pendingIDs(f.rec.Snapshot()))
	_, ok := f.rec.FindByPendingID(1)
	assert.False(t, ok)
	_, err = f.rec.Accept(ctx, auth.Allow, guidA)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, f.ledger.count())

	// A fetch started after the delete settles the tombstone.
	require.NoError(t, f.rec.Refresh(ctx, auth.Allow))
	assert.Equal(t, []int64{2}, pendingIDs(f.rec.Snapshot()))
	f.rec.mu.Lock()
	assert.Empty(t, f.rec.removed)
	f.rec.mu.Unlock()
}

func TestDiscardAll_StaleFetchDropped(t *testing.T) {
	f := newFixture(t, nil, "A", "B")
	ctx := context.Background()
	f.store.mu.Lock()
	f.store.fetchGate = make(chan struct{})
	f.store.fetchStarted = make(chan struct{}, 1)
	f.store.mu.Unlock()

	refresh := Go(func() (OpResult, error) { return Committed, f.rec.Refresh(ctx, auth.Allow) })
	<-f.store.fetchStarted

	bulk := Go(func() (OpResult, error) { return f.rec.DiscardAll(ctx, auth.Allow) })
	require.Eventually(t, func() bool { return len(f.store.ids()) == 0 }, time.Second, time.Millisecond)

	f.store.mu.Lock()
	close(f.store.fetchGate)
	f.store.fetchGate = nil
	f.store.mu.Unlock()
	_, err := refresh.Wait()
	require.NoError(t, err)
	result, err := bulk.Wait()
	require.NoError(t, err)
	assert.Equal(t, Committed, result)

	assert.Empty(t, f.rec.Snapshot())
	assert.False(t, f.rec.NeedsResync())
}

func TestDiscard_UnknownGUID(t *testing.T) {
	f := newFixture(t, nil, "A")

	result, err := f.rec.Discard(context.Background(), auth.Allow, "missing")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, Aborted, result)
	assert.Equal(t, []int64{1}, f.store.ids())
}

func TestAccept_Success(t *testing.T) {
	f := newFixture(t, nil, "Shell Gas Station", "B")
	guid := f.guidOf(t, 1)

	result, err := f.rec.Accept(context.Background(), auth.Allow, guid)

	require.NoError(t, err)
	assert.Equal(t, Committed, result)
	assert.Equal(t, []int64{2}, pendingIDs(f.rec.Snapshot()))
	assert.Equal(t, []int64{2}, f.store.ids())
	require.Equal(t, 1, f.ledger.count())
	assert.Equal(t, "fuel", f.ledger.txs[0].Category)
	assert.Equal(t, models.SourceRuleBased, f.ledger.txs[0].CategorySource)
	assert.Equal(t, 1, f.store.fetches())
}

func TestAccept_DeleteFailureLeavesDuplicate(t *testing.T) {
	f := newFixture(t, nil, "Shell Gas Station")
	guid := f.guidOf(t, 1)
	f.store.deleteErr = errors.New("delete timed out")

	result, err := f.rec.Accept(context.Background(), auth.Allow, guid)

	require.Error(t, err)
	assert.Equal(t, RolledBack, result)
	assert.Equal(t, 1, f.ledger.count())
	assert.Equal(t, []int64{1}, f.store.ids())
	assert.Equal(t, []int64{1}, pendingIDs(f.rec.Snapshot()))
	assert.Equal(t, Idle, f.rec.Snapshot()[0].State)

	var stepErr *acceptance.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, acceptance.StepDelete, stepErr.Step)
}

func TestAccept_InsertFailureResyncs(t *testing.T) {
	f := newFixture(t, nil, "Shell Gas Station")
	guid := f.guidOf(t, 1)
	f.ledger.err = errors.New("constraint violation")

	result, err := f.rec.Accept(context.Background(), auth.Allow, guid)

	require.Error(t, err)
	assert.Equal(t, RolledBack, result)
	assert.Equal(t, 0, f.ledger.count())
	assert.Equal(t, []int64{1}, pendingIDs(f.rec.Snapshot()))
	assert.Equal(t, 2, f.store.fetches())
}

func TestAccept_IssueFailureAborts(t *testing.T) {
	f := newFixture(t, nil, "Shell Gas Station")
	guid := f.guidOf(t, 1)
	f.issuer.err = errors.New("id service down")

	result, err := f.rec.Accept(context.Background(), auth.Allow, guid)

	require.Error(t, err)
	assert.Equal(t, Aborted, result)
	assert.Equal(t, 1, f.store.fetches())
	assert.Equal(t, 0, f.ledger.count())

	entry, ok := f.rec.Get(guid)
	require.True(t, ok)
	assert.Equal(t, Idle, entry.State)
	require.Len(t, f.notes.byLevel(LevelError), 1)
}

func TestAccept_ConcurrentRequestsRefused(t *testing.T) {
	ai := fakeAI{fn: func(context.Context, categorizer.AIRequest) (models.Categorization, error) {
		return models.NewCategorization("fuel", models.AI(time.Now())), nil
	}}
	f := newFixture(t, ai, "A", "B")
	f.issuer.gate = make(chan struct{})
	f.issuer.started = make(chan struct{}, 1)
	ctx := context.Background()
	guidA, guidB := f.guidOf(t, 1), f.guidOf(t, 2)

	op := Go(func() (OpResult, error) { return f.rec.Accept(ctx, auth.Allow, guidA) })
	<-f.issuer.started
	assert.Equal(t, Pending, op.Result())
	assert.Equal(t, Accepting, f.rec.State(guidA))

	_, err := f.rec.Accept(ctx, auth.Allow, guidA)
	assert.ErrorIs(t, err, ErrBusy)
	_, err = f.rec.Discard(ctx, auth.Allow, guidA)
	assert.ErrorIs(t, err, ErrBusy)
	_, err = f.rec.CategorizeAI(ctx, auth.Allow, guidA)
	assert.ErrorIs(t, err, ErrBusy)
	_, err = f.rec.Edit(ctx, auth.Allow, guidA, pending.Patch{Notes: strPtr("x")})
	assert.ErrorIs(t, err, ErrBusy)

	result, err := f.rec.Discard(ctx, auth.Allow, guidB)
	require.NoError(t, err)
	assert.Equal(t, Committed, result)

	close(f.issuer.gate)
	result, err = op.Wait()
	require.NoError(t, err)
	assert.Equal(t, Committed, result)
	assert.Equal(t, 1, f.ledger.count())
	assert.Empty(t, f.rec.Snapshot())
}

func TestCategorizeAI_FailureWhileAcceptingAnother(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	ai := fakeAI{fn: func(context.Context, categorizer.AIRequest) (models.Categorization, error) {
		started <- struct{}{}
		<-release
		return models.Categorization{}, &categorizerError{msg: "quota exceeded"}
	}}
	f := newFixture(t, ai, "Mystery Merchant", "Shell Gas Station")
	ctx := context.Background()
	guidX, guidY := f.guidOf(t, 1), f.guidOf(t, 2)
	before, _ := f.rec.Get(guidX)

	aiOp := Go(func() (OpResult, error) { return f.rec.CategorizeAI(ctx, auth.Allow, guidX) })
	<-started
	assert.Equal(t, Categorizing, f.rec.State(guidX))

	result, err := f.rec.Accept(ctx, auth.Allow, guidY)
	require.NoError(t, err)
	assert.Equal(t, Committed, result)

	close(release)
	aiResult, aiErr := aiOp.Wait()
	require.Error(t, aiErr)
	assert.Equal(t, Aborted, aiResult)

	after, ok := f.rec.Get(guidX)
	require.True(t, ok)
	assert.Equal(t, before.Record.Categorization, after.Record.Categorization)
	assert.Equal(t, Idle, after.State)
	assert.Equal(t, []int64{1}, pendingIDs(f.rec.Snapshot()))
	assert.Equal(t, 1, f.ledger.count())

	errs := f.notes.byLevel(LevelError)
	require.Len(t, errs, 1)
	assert.Equal(t, ActionCategorize, errs[0].Action)
	assert.Contains(t, errs[0].Message, "quota exceeded")
	infos := f.notes.byLevel(LevelInfo)
	require.Len(t, infos, 1)
	assert.Equal(t, ActionAccept, infos[0].Action)
}

type categorizerError struct{ msg string }

func (e *categorizerError) Error() string { return e.msg }

func TestCategorizeAI_Success(t *testing.T) {
	var seen categorizer.AIRequest
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ai := fakeAI{fn: func(_ context.Context, req categorizer.AIRequest) (models.Categorization, error) {
		seen = req
		return models.NewCategorization("dining", models.AI(at)), nil
	}}
	f := newFixture(t, ai, "Mystery Merchant")
	guid := f.guidOf(t, 1)

	result, err := f.rec.CategorizeAI(context.Background(), auth.Allow, guid)

	require.NoError(t, err)
	assert.Equal(t, Committed, result)
	entry, _ := f.rec.Get(guid)
	assert.Equal(t, "dining", entry.Record.Category())
	assert.Equal(t, models.SourceAI, entry.Record.Categorization.Provenance().Source())
	assert.Equal(t, at, entry.Record.Categorization.Provenance().Timestamp())
	assert.Equal(t, "Mystery Merchant", seen.Description)
	assert.Contains(t, seen.KnownCategories, "fuel")
	assert.Contains(t, seen.KnownCategories, models.CategoryImported)
}

func TestCategorizeAI_RecordGoneBeforeCompletion(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	ai := fakeAI{fn: func(context.Context, categorizer.AIRequest) (models.Categorization, error) {
		started <- struct{}{}
		<-release
		return models.NewCategorization("dining", models.AI(time.Now())), nil
	}}
	f := newFixture(t, ai, "Mystery Merchant", "B")
	ctx := context.Background()
	guid := f.guidOf(t, 1)

	op := Go(func() (OpResult, error) { return f.rec.CategorizeAI(ctx, auth.Allow, guid) })
	<-started

	result, err := f.rec.DiscardAll(ctx, auth.Allow)
	require.NoError(t, err)
	assert.Equal(t, Committed, result)

	close(release)
	result, err = op.Wait()
	require.NoError(t, err)
	assert.Equal(t, Committed, result)
	assert.Empty(t, f.rec.Snapshot())
	_, ok := f.rec.Get(guid)
	assert.False(t, ok)
}

func TestCategorizeAI_Unavailable(t *testing.T) {
	f := newFixture(t, nil, "A")

	result, err := f.rec.CategorizeAI(context.Background(), auth.Allow, f.guidOf(t, 1))

	assert.ErrorIs(t, err, ErrAIUnavailable)
	assert.Equal(t, Aborted, result)
}

func TestResync_KeepsBusyRecords(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	ai := fakeAI{fn: func(context.Context, categorizer.AIRequest) (models.Categorization, error) {
		started <- struct{}{}
		<-release
		return models.NewCategorization("dining", models.AI(time.Now())), nil
	}}
	f := newFixture(t, ai, "Mystery Merchant", "B")
	ctx := context.Background()
	guidX, guidB := f.guidOf(t, 1), f.guidOf(t, 2)

	op := Go(func() (OpResult, error) { return f.rec.CategorizeAI(ctx, auth.Allow, guidX) })
	<-started

	require.NoError(t, f.rec.Refresh(ctx, auth.Allow))
	assert.Equal(t, guidX, f.guidOf(t, 1))
	assert.Equal(t, Categorizing, f.rec.State(guidX))
	assert.NotEqual(t, guidB, f.guidOf(t, 2))

	close(release)
	result, err := op.Wait()
	require.NoError(t, err)
	assert.Equal(t, Committed, result)
	entry, _ := f.rec.Get(guidX)
	assert.Equal(t, "dining", entry.Record.Category())
}

func TestDiscardAll_Success(t *testing.T) {
	f := newFixture(t, nil, "A", "B", "C")

	result, err := f.rec.DiscardAll(context.Background(), auth.Allow)

	require.NoError(t, err)
	assert.Equal(t, Committed, result)
	assert.Empty(t, f.rec.Snapshot())
	assert.Empty(t, f.store.ids())
	assert.Equal(t, 2, f.store.fetches())
	assert.False(t, f.rec.BulkDeleting())
}

func TestDiscardAll_FailureLeavesWorkingSet(t *testing.T) {
	f := newFixture(t, nil, "A", "B")
	before := f.rec.Snapshot()
	f.store.deleteAllErr = errors.New("permission denied")

	result, err := f.rec.DiscardAll(context.Background(), auth.Allow)

	require.Error(t, err)
	assert.Equal(t, Aborted, result)
	assert.Equal(t, before, f.rec.Snapshot())
	assert.Equal(t, 1, f.store.fetches())
	assert.False(t, f.rec.BulkDeleting())
	require.Len(t, f.notes.byLevel(LevelError), 1)
	assert.Equal(t, ActionDiscardAll, f.notes.byLevel(LevelError)[0].Action)
}

func TestDiscardAll_SecondRequestRefused(t *testing.T) {
	f := newFixture(t, nil, "A", "B")
	f.store.deleteGate = make(chan struct{})
	ctx := context.Background()

	op := Go(func() (OpResult, error) { return f.rec.DiscardAll(ctx, auth.Allow) })
	require.Eventually(t, f.rec.BulkDeleting, time.Second, time.Millisecond)

	result, err := f.rec.DiscardAll(ctx, auth.Allow)
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, Aborted, result)

	edit, err := f.rec.Edit(ctx, auth.Allow, f.guidOf(t, 1), pending.Patch{Notes: strPtr("still editable")})
	require.NoError(t, err)
	assert.Equal(t, Committed, edit)

	close(f.store.deleteGate)
	result, err = op.Wait()
	require.NoError(t, err)
	assert.Equal(t, Committed, result)
}

func TestEdit_CategoryChangeIsManual(t *testing.T) {
	f := newFixture(t, nil, "Shell Gas Station")
	guid := f.guidOf(t, 1)
	before, _ := f.rec.Get(guid)

	result, err := f.rec.Edit(context.Background(), auth.Allow, guid, pending.Patch{Notes: strPtr("trip")})
	require.NoError(t, err)
	assert.Equal(t, Committed, result)
	entry, _ := f.rec.Get(guid)
	assert.Equal(t, "trip", entry.Record.Notes)
	assert.Equal(t, before.Record.Categorization, entry.Record.Categorization)

	result, err = f.rec.Edit(context.Background(), auth.Allow, guid, pending.Patch{Category: strPtr("travel")})
	require.NoError(t, err)
	assert.Equal(t, Committed, result)
	entry, _ = f.rec.Get(guid)
	assert.Equal(t, "travel", entry.Record.Category())
	assert.Equal(t, models.SourceManual, entry.Record.Categorization.Provenance().Source())
	assert.Len(t, f.store.updates, 2)
}

func TestEdit_InFlightRefusesOtherOperations(t *testing.T) {
	f := newFixture(t, nil, "A")
	ctx := context.Background()
	guid := f.guidOf(t, 1)
	f.store.updateGate = make(chan struct{})
	f.store.updateStarted = make(chan struct{}, 1)

	op := Go(func() (OpResult, error) {
		return f.rec.Edit(ctx, auth.Allow, guid, pending.Patch{Description: strPtr("renamed")})
	})
	<-f.store.updateStarted
	assert.Equal(t, Editing, f.rec.State(guid))

	_, err := f.rec.Discard(ctx, auth.Allow, guid)
	assert.ErrorIs(t, err, ErrBusy)
	_, err = f.rec.Accept(ctx, auth.Allow, guid)
	assert.ErrorIs(t, err, ErrBusy)
	_, err = f.rec.Edit(ctx, auth.Allow, guid, pending.Patch{Notes: strPtr("x")})
	assert.ErrorIs(t, err, ErrBusy)

	close(f.store.updateGate)
	result, err := op.Wait()
	require.NoError(t, err)
	assert.Equal(t, Committed, result)
	assert.Equal(t, Idle, f.rec.State(guid))
	assert.Zero(t, f.ledger.count())
	assert.Equal(t, []int64{1}, f.store.ids())
}

func TestEdit_ManualCategorySurvivesResync(t *testing.T) {
	f := newFixture(t, nil, "Shell Gas Station", "Corner Bakery")
	ctx := context.Background()

	_, err := f.rec.Edit(ctx, auth.Allow, f.guidOf(t, 1), pending.Patch{Category: strPtr("travel")})
	require.NoError(t, err)
	rules, _ := f.rec.Get(f.guidOf(t, 2))

	require.NoError(t, f.rec.Refresh(ctx, auth.Allow))

	edited, ok := f.rec.FindByPendingID(1)
	require.True(t, ok)
	assert.Equal(t, "travel", edited.Record.Category())
	assert.Equal(t, models.SourceManual, edited.Record.Categorization.Provenance().Source())

	other, ok := f.rec.FindByPendingID(2)
	require.True(t, ok)
	assert.Equal(t, rules.Record.Category(), other.Record.Category())
	assert.Equal(t, models.SourceRuleBased, other.Record.Categorization.Provenance().Source())
}

func TestEdit_RejectsSubCentAmount(t *testing.T) {
	f := newFixture(t, nil, "A")
	guid := f.guidOf(t, 1)
	before, _ := f.rec.Get(guid)
	amount := decimal.RequireFromString("-10.505")

	result, err := f.rec.Edit(context.Background(), auth.Allow, guid, pending.Patch{Amount: &amount})

	assert.ErrorIs(t, err, models.ErrAmountPrecision)
	assert.Equal(t, Aborted, result)
	assert.Empty(t, f.store.updates)
	after, _ := f.rec.Get(guid)
	assert.Equal(t, before, after)
	assert.Equal(t, Idle, f.rec.State(guid))
}

func TestEdit_FailureResyncs(t *testing.T) {
	f := newFixture(t, nil, "Shell Gas Station")
	guid := f.guidOf(t, 1)
	f.store.updateErr = errors.New("read-only")

	result, err := f.rec.Edit(context.Background(), auth.Allow, guid, pending.Patch{Description: strPtr("changed")})

	require.Error(t, err)
	assert.Equal(t, RolledBack, result)
	entries := f.rec.Snapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, "Shell Gas Station", entries[0].Record.Description)
}

func TestEdit_EmptyPatch(t *testing.T) {
	f := newFixture(t, nil, "A")

	result, err := f.rec.Edit(context.Background(), auth.Allow, f.guidOf(t, 1), pending.Patch{})

	require.NoError(t, err)
	assert.Equal(t, Committed, result)
	assert.Empty(t, f.store.updates)
}

func TestEntryPoints_RequireCapability(t *testing.T) {
	f := newFixture(t, fakeAI{fn: func(context.Context, categorizer.AIRequest) (models.Categorization, error) {
		return models.Categorization{}, errors.New("unreachable")
	}}, "A")
	ctx := context.Background()
	guid := f.guidOf(t, 1)
	denied := auth.NewSession("")

	calls := map[string]func() error{
		"load":    func() error { return f.rec.Load(ctx, denied) },
		"refresh": func() error { return f.rec.Refresh(ctx, denied) },
		"discard": func() error { _, err := f.rec.Discard(ctx, denied, guid); return err },
		"discard all": func() error {
			_, err := f.rec.DiscardAll(ctx, denied)
			return err
		},
		"accept":     func() error { _, err := f.rec.Accept(ctx, denied, guid); return err },
		"edit":       func() error { _, err := f.rec.Edit(ctx, denied, guid, pending.Patch{Notes: strPtr("x")}); return err },
		"categorize": func() error { _, err := f.rec.CategorizeAI(ctx, denied, guid); return err },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, call(), auth.ErrNotPermitted)
		})
	}

	assert.Equal(t, 1, f.store.fetches())
	assert.Equal(t, []int64{1}, f.store.ids())
	assert.Equal(t, 0, f.ledger.count())
	assert.Equal(t, Idle, f.rec.State(guid))
}

func TestLogNotifier(t *testing.T) {
	logger := &logging.MockLogger{}
	n := NewLogNotifier(logger)

	n.Notify(Notification{Level: LevelInfo, Action: ActionAccept, GUID: "g", Message: "Transaction accepted"})
	n.Notify(Notification{Level: LevelError, Action: ActionDiscard, Message: "Failed to discard transaction: boom"})

	assert.True(t, logger.HasEntry("INFO", "Transaction accepted"))
	assert.True(t, logger.HasEntry("ERROR", "Failed to discard transaction: boom"))
}

func TestOpResult_String(t *testing.T) {
	names := []string{Pending.String(), Committed.String(), RolledBack.String(), Aborted.String()}
	assert.Equal(t, "pending,committed,rolled-back,aborted", strings.Join(names, ","))
	assert.Equal(t, "categorizing", Categorizing.String())
}

func strPtr(s string) *string { return &s }
