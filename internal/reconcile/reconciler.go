// Package reconcile keeps the local working set of pending transactions in
// step with the pending store.
//
// Mutations are applied locally first and then sent to the store. When a
// store call fails the working set is never patched back: it is rebuilt
// from a full fetch (resync). Every record carries one RowState, so a
// record with an operation in flight refuses further operations with
// ErrBusy while other records stay usable.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fjacquet/txn-import/internal/acceptance"
	"fjacquet/txn-import/internal/auth"
	"fjacquet/txn-import/internal/categorizer"
	"fjacquet/txn-import/internal/ids"
	"fjacquet/txn-import/internal/logging"
	"fjacquet/txn-import/internal/models"
	"fjacquet/txn-import/internal/pending"
)

// Acceptor promotes a pending record to a permanent transaction.
type Acceptor interface {
	Accept(ctx context.Context, rec models.PendingRecord, onInserted func()) (models.Transaction, error)
}

// Rules categorizes descriptions synchronously.
type Rules interface {
	Categorize(description string) string
	Categories() []string
}

// AICategorizer categorizes one record on demand.
type AICategorizer interface {
	Categorize(ctx context.Context, req categorizer.AIRequest) (models.Categorization, error)
}

// Entry is a copy of one working set record and its state.
type Entry struct {
	Record models.PendingRecord
	State  RowState
}

// Options tweaks a Reconciler.
type Options struct {
	// AIHint is the reason recorded on rule-based categorizations.
	AIHint string
	// Now defaults to time.Now.
	Now func() time.Time
	// NewGUID defaults to ids.NewGUID.
	NewGUID func() string
}

// Reconciler owns the working set.
type Reconciler struct {
	store    pending.Store
	acceptor Acceptor
	rules    Rules
	ai       AICategorizer
	notifier Notifier
	logger   logging.Logger
	aiHint   string
	now      func() time.Time
	newGUID  func() string

	loadMu sync.Mutex

	mu           sync.Mutex
	records      []models.PendingRecord
	states       map[string]RowState
	removed      map[int64]tombstone // by pending id
	fetchSeq     uint64              // number of the latest fetch started
	dirtySeq     uint64              // fetchSeq when needsResync was last set
	clearedSeq   uint64              // fetchSeq when DiscardAll last succeeded
	loaded       bool
	needsResync  bool
	bulkDeleting bool
}

// tombstone marks a record removed locally. While its store call runs it
// hides the record from every fetch. Once the call has succeeded it only
// hides the record from fetches that started before that point, and the
// first fetch started afterwards drops it.
type tombstone struct {
	guid    string
	settled bool
	seq     uint64
}

func (t tombstone) hides(started uint64) bool {
	return !t.settled || started <= t.seq
}

// New creates a Reconciler. ai may be nil, in which case CategorizeAI
// returns ErrAIUnavailable.
func New(store pending.Store, acceptor Acceptor, rules Rules, ai AICategorizer,
	notifier Notifier, logger logging.Logger, opts Options) *Reconciler {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	if opts.AIHint == "" {
		opts.AIHint = models.AIHint
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewGUID == nil {
		opts.NewGUID = ids.NewGUID
	}
	return &Reconciler{
		store:    store,
		acceptor: acceptor,
		rules:    rules,
		ai:       ai,
		notifier: notifier,
		logger:   logger,
		aiHint:   opts.AIHint,
		now:      opts.Now,
		newGUID:  opts.NewGUID,
		states:   make(map[string]RowState),
		removed:  make(map[int64]tombstone),
	}
}

// Load fetches and transforms the pending records unless the working set
// is already loaded and no resync is due.
func (r *Reconciler) Load(ctx context.Context, c auth.Capability) error {
	if err := auth.Check(c); err != nil {
		return err
	}
	return r.load(ctx)
}

// Refresh forces a full reload.
func (r *Reconciler) Refresh(ctx context.Context, c auth.Capability) error {
	if err := auth.Check(c); err != nil {
		return err
	}
	r.mu.Lock()
	r.markResyncLocked()
	r.mu.Unlock()
	return r.load(ctx)
}

func (r *Reconciler) load(ctx context.Context) error {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	r.mu.Lock()
	if r.loaded && !r.needsResync {
		r.mu.Unlock()
		return nil
	}
	r.fetchSeq++
	started := r.fetchSeq
	r.mu.Unlock()

	fetched, err := r.store.FetchAll(ctx)
	if err != nil {
		r.notify(LevelError, ActionLoad, "", fmt.Sprintf("Failed to load pending transactions: %v", err))
		return fmt.Errorf("failed to load pending transactions: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	busy := make(map[int64]models.PendingRecord)
	for _, rec := range r.records {
		if r.states[rec.GUID] != Idle {
			busy[rec.ID] = rec
		}
	}

	// A fetch that started before a successful DiscardAll returns records
	// that no longer exist.
	if started <= r.clearedSeq {
		fetched = nil
	}

	now := r.now()
	records := make([]models.PendingRecord, 0, len(fetched))
	states := make(map[string]RowState)
	for _, rec := range fetched {
		if t, ok := r.removed[rec.ID]; ok && t.hides(started) {
			continue
		}
		if prev, ok := busy[rec.ID]; ok {
			records = append(records, prev)
			states[prev.GUID] = r.states[prev.GUID]
			continue
		}
		records = append(records, r.transform(rec, now))
	}
	for id, t := range r.removed {
		if t.settled && t.seq < started {
			delete(r.removed, id)
			continue
		}
		if st, ok := r.states[t.guid]; ok {
			states[t.guid] = st
		}
	}

	r.records = records
	r.states = states
	r.loaded = true
	if started > r.dirtySeq {
		r.needsResync = false
	}

	r.logger.Debug("Loaded working set", logging.Field{Key: logging.FieldCount, Value: len(records)})
	return nil
}

// transform is the initial transform applied to every fetched record. A
// category the user chose is kept; anything else comes from the rules.
func (r *Reconciler) transform(rec models.PendingRecord, now time.Time) models.PendingRecord {
	rec.GUID = r.newGUID()
	if rec.HasManualCategory() {
		at := rec.StoredCategoryAt
		if at.IsZero() {
			at = now
		}
		rec.Categorization = models.NewCategorization(rec.StoredCategory, models.Manual(at))
	} else {
		category := models.CategoryImported
		if r.rules != nil {
			category = r.rules.Categorize(rec.Description)
		}
		rec.Categorization = models.NewCategorization(category, models.RuleBased(r.aiHint, now))
	}
	rec.Recurrence = models.RecurrenceOneTime
	rec.State = models.StateOutstanding
	rec.Type = models.TypeUndefined
	rec.Active = true
	return rec
}

// resync is the only rollback path: flag, notify, reload.
func (r *Reconciler) resync(ctx context.Context, action, guid string, cause error) OpResult {
	r.mu.Lock()
	r.markResyncLocked()
	r.mu.Unlock()

	r.notify(LevelError, action, guid, fmt.Sprintf("Failed to %s transaction: %v", action, cause))
	if err := r.load(ctx); err != nil {
		r.logger.WithError(err).Warn("Resync failed; will retry on next load",
			logging.Field{Key: logging.FieldOperation, Value: action})
	}
	return RolledBack
}

// Discard removes one record locally and then from the store.
func (r *Reconciler) Discard(ctx context.Context, c auth.Capability, guid string) (OpResult, error) {
	if err := auth.Check(c); err != nil {
		return Aborted, err
	}

	r.mu.Lock()
	rec, err := r.claim(guid, Discarding)
	if err != nil {
		r.mu.Unlock()
		return Aborted, err
	}
	r.removeLocked(rec)
	r.mu.Unlock()

	err = r.store.Delete(ctx, rec.ID)
	r.release(rec, err == nil)
	if err != nil {
		return r.resync(ctx, ActionDiscard, guid, err), err
	}

	r.notify(LevelInfo, ActionDiscard, guid, "Transaction discarded")
	return Committed, nil
}

// DiscardAll deletes every pending record. Per-record operations stay
// allowed while it runs.
func (r *Reconciler) DiscardAll(ctx context.Context, c auth.Capability) (OpResult, error) {
	if err := auth.Check(c); err != nil {
		return Aborted, err
	}

	r.mu.Lock()
	if r.bulkDeleting {
		r.mu.Unlock()
		return Aborted, ErrBusy
	}
	r.bulkDeleting = true
	r.mu.Unlock()

	err := r.store.DeleteAll(ctx)

	r.mu.Lock()
	r.bulkDeleting = false
	if err == nil {
		r.records = nil
		r.markResyncLocked()
		r.clearedSeq = r.fetchSeq
	}
	r.mu.Unlock()

	if err != nil {
		r.notify(LevelError, ActionDiscardAll, "", fmt.Sprintf("Failed to discard all transactions: %v", err))
		return Aborted, err
	}

	r.notify(LevelInfo, ActionDiscardAll, "", "All transactions discarded")
	if err := r.load(ctx); err != nil {
		r.logger.WithError(err).Warn("Reload after discard-all failed")
	}
	return Committed, nil
}

// Accept promotes one record. The record leaves the working set once the
// permanent insert succeeds, before the pending delete.
func (r *Reconciler) Accept(ctx context.Context, c auth.Capability, guid string) (OpResult, error) {
	if err := auth.Check(c); err != nil {
		return Aborted, err
	}

	r.mu.Lock()
	rec, err := r.claim(guid, Accepting)
	r.mu.Unlock()
	if err != nil {
		return Aborted, err
	}

	txn, err := r.acceptor.Accept(ctx, rec, func() {
		r.mu.Lock()
		r.removeLocked(rec)
		r.mu.Unlock()
	})
	r.release(rec, err == nil)

	if err != nil {
		var stepErr *acceptance.StepError
		if errors.As(err, &stepErr) && !stepErr.Diverged() {
			r.notify(LevelError, ActionAccept, guid, fmt.Sprintf("Failed to accept transaction: %v", err))
			return Aborted, err
		}
		return r.resync(ctx, ActionAccept, guid, err), err
	}

	r.notify(LevelInfo, ActionAccept, guid, fmt.Sprintf("Transaction accepted as %s", txn.ID))
	return Committed, nil
}

// Edit applies patch locally and then to the store. A category change
// records manual provenance.
func (r *Reconciler) Edit(ctx context.Context, c auth.Capability, guid string, patch pending.Patch) (OpResult, error) {
	if err := auth.Check(c); err != nil {
		return Aborted, err
	}

	if err := patch.Validate(); err != nil {
		return Aborted, err
	}

	r.mu.Lock()
	rec, err := r.claim(guid, Editing)
	if err != nil {
		r.mu.Unlock()
		return Aborted, err
	}
	if patch.IsEmpty() {
		r.states[guid] = Idle
		r.mu.Unlock()
		return Committed, nil
	}
	rec = patch.Apply(rec, models.Manual(r.now()))
	r.records[r.indexOf(guid)] = rec
	r.mu.Unlock()

	_, err = r.store.Update(ctx, rec.ID, patch)
	r.release(rec, false)
	if err != nil {
		return r.resync(ctx, ActionEdit, guid, err), err
	}

	r.notify(LevelInfo, ActionEdit, guid, "Transaction updated")
	return Committed, nil
}

// CategorizeAI asks the AI categorizer for one record. A failure leaves
// the record unchanged.
func (r *Reconciler) CategorizeAI(ctx context.Context, c auth.Capability, guid string) (OpResult, error) {
	if err := auth.Check(c); err != nil {
		return Aborted, err
	}
	if r.ai == nil {
		return Aborted, ErrAIUnavailable
	}

	r.mu.Lock()
	rec, err := r.claim(guid, Categorizing)
	r.mu.Unlock()
	if err != nil {
		return Aborted, err
	}

	var known []string
	if r.rules != nil {
		known = r.rules.Categories()
	}
	result, err := r.ai.Categorize(ctx, categorizer.AIRequest{
		Description:     rec.Description,
		Amount:          rec.Amount,
		KnownCategories: known,
		AccountID:       rec.AccountID,
	})

	r.mu.Lock()
	if _, ok := r.states[guid]; ok {
		r.states[guid] = Idle
	}
	if err == nil {
		if i := r.indexOf(guid); i >= 0 {
			r.records[i].Categorization = result
		}
	}
	r.mu.Unlock()

	if err != nil {
		r.notify(LevelError, ActionCategorize, guid, fmt.Sprintf("AI categorization failed: %v", err))
		return Aborted, err
	}

	r.notify(LevelInfo, ActionCategorize, guid, fmt.Sprintf("Categorized as %s", result.Category()))
	return Committed, nil
}

// Snapshot returns a copy of the working set in order.
func (r *Reconciler) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, Entry{Record: rec, State: r.states[rec.GUID]})
	}
	return out
}

// Get returns the entry with the given GUID.
func (r *Reconciler) Get(guid string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(guid)
	if i < 0 {
		return Entry{}, false
	}
	return Entry{Record: r.records[i], State: r.states[guid]}, true
}

// FindByPendingID returns the entry for a pending store id.
func (r *Reconciler) FindByPendingID(id int64) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		if rec.ID == id {
			return Entry{Record: rec, State: r.states[rec.GUID]}, true
		}
	}
	return Entry{}, false
}

// State returns the state of a record. Unknown GUIDs are Idle.
func (r *Reconciler) State(guid string) RowState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[guid]
}

// NeedsResync reports whether the next Load will refetch.
func (r *Reconciler) NeedsResync() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.needsResync
}

// BulkDeleting reports whether a DiscardAll is in flight.
func (r *Reconciler) BulkDeleting() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bulkDeleting
}

// claim marks an idle record busy and returns a copy. Callers hold mu.
func (r *Reconciler) claim(guid string, state RowState) (models.PendingRecord, error) {
	i := r.indexOf(guid)
	if i < 0 {
		return models.PendingRecord{}, ErrNotFound
	}
	if r.states[guid] != Idle {
		return models.PendingRecord{}, ErrBusy
	}
	r.states[guid] = state
	return r.records[i], nil
}

// release returns a claimed record to Idle, or forgets it when it has left
// the working set. deleted reports that the store no longer holds the
// record, which settles its tombstone; otherwise the tombstone is dropped
// so the next fetch can restore the record.
func (r *Reconciler) release(rec models.PendingRecord, deleted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.removed[rec.ID]; ok && t.guid == rec.GUID {
		if deleted {
			t.settled, t.seq = true, r.fetchSeq
			r.removed[rec.ID] = t
		} else {
			delete(r.removed, rec.ID)
		}
	}
	if r.indexOf(rec.GUID) < 0 {
		delete(r.states, rec.GUID)
		return
	}
	if _, ok := r.states[rec.GUID]; ok {
		r.states[rec.GUID] = Idle
	}
}

// removeLocked drops rec from the working set by GUID. Callers hold mu.
func (r *Reconciler) removeLocked(rec models.PendingRecord) {
	i := r.indexOf(rec.GUID)
	if i < 0 {
		return
	}
	r.records = append(r.records[:i:i], r.records[i+1:]...)
	r.removed[rec.ID] = tombstone{guid: rec.GUID}
}

// markResyncLocked makes the next load refetch. Fetches already running
// when it is called do not clear it. Callers hold mu.
func (r *Reconciler) markResyncLocked() {
	r.needsResync = true
	r.dirtySeq = r.fetchSeq
}

func (r *Reconciler) indexOf(guid string) int {
	for i, rec := range r.records {
		if rec.GUID == guid {
			return i
		}
	}
	return -1
}

func (r *Reconciler) notify(level Level, action, guid, message string) {
	r.notifier.Notify(Notification{
		Level:   level,
		Action:  action,
		GUID:    guid,
		Message: message,
		At:      r.now(),
	})
}
