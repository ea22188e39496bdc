package goals

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/and161185/goalkeeper/internal/errs"
	"github.com/and161185/goalkeeper/internal/model"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// DefaultSyncTimeout bounds one background remote write.
const DefaultSyncTimeout = 10 * time.Second

// Manager is the single entry point for reading and mutating a user's goals.
//
// Local read-modify-write of the cached list is serialized per user. Toggle and
// edit are applied to the cache first and pushed to the remote store in the
// background; the other operations fail without local changes when the remote
// call fails.
type Manager struct {
	auth   AuthProvider
	remote RemoteStore
	cache  Cache
	rec    *Reconciler
	log    *zap.Logger

	now         func() time.Time
	newID       func() (uuid.UUID, error)
	syncTimeout time.Duration

	locks userLocks
	queue *syncQueue

	bgMu     sync.Mutex
	bgWG     sync.WaitGroup
	bgCtx    context.Context
	bgCancel context.CancelFunc
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for deletion stamps.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// WithSyncTimeout bounds each background remote write.
func WithSyncTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.syncTimeout = d
		}
	}
}

// WithIDGenerator overrides the id source for local-only goals that get soft deleted.
func WithIDGenerator(fn func() (uuid.UUID, error)) Option { return func(m *Manager) { m.newID = fn } }

// NewManager wires the lifecycle manager.
func NewManager(auth AuthProvider, remote RemoteStore, cache Cache, log *zap.Logger, opts ...Option) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	bgCtx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		auth:        auth,
		remote:      remote,
		cache:       cache,
		rec:         NewReconciler(remote, cache, log),
		log:         log,
		now:         time.Now,
		newID:       uuid.NewV4,
		syncTimeout: DefaultSyncTimeout,
		locks:       userLocks{m: map[uuid.UUID]*sync.Mutex{}},
		queue:       newSyncQueue(),
		bgCtx:       bgCtx,
		bgCancel:    cancel,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Reconciler exposes the underlying reconciler.
func (m *Manager) Reconciler() *Reconciler { return m.rec }

func (m *Manager) user() (uuid.UUID, error) {
	id, ok := m.auth.CurrentUserID()
	if !ok || id == uuid.Nil {
		return uuid.Nil, errs.ErrUnauthenticated
	}
	return id, nil
}

// load is Reconciler.Load with queued, not yet synced versions laid over the remote ones.
// Callers hold the user lock.
func (m *Manager) load(ctx context.Context, uid uuid.UUID) (Snapshot, error) {
	snap, err := m.rec.Load(ctx, uid)
	if err != nil {
		return Snapshot{}, err
	}
	return m.overlay(ctx, uid, snap), nil
}

// overlay swaps in queued versions and keeps only the first entry per id.
func (m *Manager) overlay(ctx context.Context, uid uuid.UUID, snap Snapshot) Snapshot {
	changed := false
	seen := make(map[uuid.UUID]struct{}, len(snap.Goals))
	out := snap.Goals[:0]
	for _, g := range snap.Goals {
		if !g.HasID() {
			out = append(out, g)
			continue
		}
		if _, dup := seen[g.ID]; dup {
			changed = true
			continue
		}
		seen[g.ID] = struct{}{}
		if p, ok := m.queue.pending(g.ID); ok && p != g {
			g = p
			changed = true
		}
		out = append(out, g)
	}
	snap.Goals = out
	if changed && snap.Online {
		if err := m.cache.Set(ctx, uid, snap.Goals); err != nil {
			m.log.Warn("cache write failed", zap.Error(err))
		}
	}
	return snap
}

// Goals returns the reconciled live list, falling back to the cache when offline.
func (m *Manager) Goals(ctx context.Context) ([]model.Goal, error) {
	snap, err := m.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Goals, nil
}

// Snapshot is Goals with remote membership and online state.
func (m *Manager) Snapshot(ctx context.Context) (Snapshot, error) {
	uid, err := m.user()
	if err != nil {
		return Snapshot{}, err
	}
	unlock := m.locks.lock(uid)
	defer unlock()
	return m.load(ctx, uid)
}

// Refresh re-pulls from the remote store without the cache fallback.
func (m *Manager) Refresh(ctx context.Context) ([]model.Goal, error) {
	uid, err := m.user()
	if err != nil {
		return nil, err
	}
	unlock := m.locks.lock(uid)
	defer unlock()
	snap, err := m.rec.Refresh(ctx, uid)
	if err != nil {
		return nil, err
	}
	return m.overlay(ctx, uid, snap).Goals, nil
}

// Progress is the completion percentage of the current live list.
func (m *Manager) Progress(ctx context.Context) (int, error) {
	gs, err := m.Goals(ctx)
	if err != nil {
		return 0, err
	}
	return Progress(gs), nil
}

// Backup lists soft-deleted goals.
func (m *Manager) Backup(ctx context.Context) ([]model.BackupGoal, error) {
	uid, err := m.user()
	if err != nil {
		return nil, err
	}
	return m.remote.ListBackup(ctx, uid)
}

// Create adds a goal in the remote store and refreshes the cache.
func (m *Manager) Create(ctx context.Context, text string) (model.Goal, error) {
	uid, err := m.user()
	if err != nil {
		return model.Goal{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Goal{}, errs.ErrEmptyInput
	}

	unlock := m.locks.lock(uid)
	defer unlock()

	snap, err := m.load(ctx, uid)
	if err != nil {
		return model.Goal{}, err
	}
	if ContainsText(snap.Goals, text) {
		return model.Goal{}, fmt.Errorf("%q: %w", text, errs.ErrDuplicateGoal)
	}
	g, err := m.remote.CreateLive(ctx, uid, text, snap.Goals)
	if err != nil {
		return model.Goal{}, err
	}

	if _, err := m.rec.Refresh(ctx, uid); err != nil {
		m.log.Warn("refresh after create failed, caching locally", zap.Error(err))
		if cerr := m.cache.Set(ctx, uid, append(snap.Goals, g)); cerr != nil {
			m.log.Warn("cache write failed", zap.Error(cerr))
		}
	}
	return g, nil
}

// ToggleCompleted flips the completed flag locally and syncs it in the background.
func (m *Manager) ToggleCompleted(ctx context.Context, goalID uuid.UUID) (model.Goal, error) {
	return m.mutate(ctx, goalID, func(g *model.Goal) { g.Completed = !g.Completed })
}

// EditText replaces the text locally and syncs it in the background.
// Uniqueness is not re-checked.
func (m *Manager) EditText(ctx context.Context, goalID uuid.UUID, text string) (model.Goal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Goal{}, errs.ErrEmptyInput
	}
	return m.mutate(ctx, goalID, func(g *model.Goal) { g.Text = text })
}

// mutate applies fn to the cached goal and queues a best-effort remote upsert.
// The upsert is queued under the user lock so remote order matches cache order.
func (m *Manager) mutate(ctx context.Context, goalID uuid.UUID, fn func(*model.Goal)) (model.Goal, error) {
	uid, err := m.user()
	if err != nil {
		return model.Goal{}, err
	}

	unlock := m.locks.lock(uid)
	defer unlock()

	snap, err := m.load(ctx, uid)
	if err != nil {
		return model.Goal{}, err
	}
	i := snap.Index(goalID)
	if i < 0 {
		return model.Goal{}, fmt.Errorf("goal %s: %w", goalID, errs.ErrNotFound)
	}
	fn(&snap.Goals[i])
	g := snap.Goals[i]
	if err := m.cache.Set(ctx, uid, snap.Goals); err != nil {
		return model.Goal{}, fmt.Errorf("cache: %w", err)
	}

	switch {
	case snap.IsRemote(g.ID):
		m.push(ctx, g)
	case !snap.Online:
		// cannot tell whether the goal exists remotely, the next refresh wins
		m.queue.mark(g.ID, model.SyncFailed)
		m.log.Warn("remote unavailable, change kept locally", zap.Stringer("goal", g.ID))
	}
	return g, nil
}

func (m *Manager) push(ctx context.Context, g model.Goal) {
	base := context.WithoutCancel(ctx)
	ok := m.queue.enqueue(g, func() error {
		cctx, cancel := context.WithTimeout(base, m.syncTimeout)
		defer cancel()
		if err := m.remote.UpsertLive(cctx, g); err != nil {
			m.log.Warn("remote upsert failed", zap.Stringer("goal", g.ID), zap.Error(err))
			return err
		}
		return nil
	})
	if !ok {
		m.queue.mark(g.ID, model.SyncFailed)
		m.log.Warn("manager closed, change kept locally", zap.Stringer("goal", g.ID))
	}
}

// SoftDelete moves a live goal to the backup collection.
func (m *Manager) SoftDelete(ctx context.Context, goalID uuid.UUID) (model.BackupGoal, error) {
	if goalID == uuid.Nil {
		return model.BackupGoal{}, fmt.Errorf("goal %s: %w", goalID, errs.ErrNotFound)
	}
	return m.softDelete(ctx, goalID.String(), func(g model.Goal) bool { return g.ID == goalID })
}

// SoftDeleteText soft deletes the goal with the given text. It is the only way
// to address a cached goal that never reached the remote store.
func (m *Manager) SoftDeleteText(ctx context.Context, text string) (model.BackupGoal, error) {
	k := TextKey(text)
	if k == "" {
		return model.BackupGoal{}, errs.ErrEmptyInput
	}
	return m.softDelete(ctx, fmt.Sprintf("%q", text), func(g model.Goal) bool { return TextKey(g.Text) == k })
}

// softDelete stamps deletedAt and writes the backup; the cached list only
// changes once the remote move succeeded. A goal without an id gets a fresh one.
func (m *Manager) softDelete(ctx context.Context, label string, match func(model.Goal) bool) (model.BackupGoal, error) {
	uid, err := m.user()
	if err != nil {
		return model.BackupGoal{}, err
	}

	unlock := m.locks.lock(uid)
	defer unlock()

	snap, err := m.load(ctx, uid)
	if err != nil {
		return model.BackupGoal{}, err
	}
	i := slices.IndexFunc(snap.Goals, match)
	if i < 0 {
		return model.BackupGoal{}, fmt.Errorf("goal %s: %w", label, errs.ErrNotFound)
	}
	g := snap.Goals[i]
	if g.HasID() {
		// a queued upsert landing after the move would resurrect the live row
		m.queue.wait(g.ID)
	} else if g.ID, err = m.newID(); err != nil {
		return model.BackupGoal{}, err
	}
	g.UserID = uid
	if g.CreatedAt.IsZero() {
		g.CreatedAt = m.now()
	}
	b := model.BackupGoal{Goal: g, DeletedAt: m.now()}
	if err := m.remote.MoveToBackup(ctx, b); err != nil {
		return model.BackupGoal{}, err
	}

	rest := slices.Delete(snap.Goals, i, i+1)
	if err := m.cache.Set(ctx, uid, rest); err != nil {
		m.log.Warn("cache write after soft delete failed", zap.Error(err))
	}
	m.queue.forget(g.ID)
	return b, nil
}

func findBackup(bs []model.BackupGoal, id uuid.UUID) (model.BackupGoal, bool) {
	for _, b := range bs {
		if b.ID == id {
			return b, true
		}
	}
	return model.BackupGoal{}, false
}

// Restore moves a backup goal back to the live list with a fresh created-at.
func (m *Manager) Restore(ctx context.Context, backupID uuid.UUID) (model.Goal, error) {
	uid, err := m.user()
	if err != nil {
		return model.Goal{}, err
	}
	unlock := m.locks.lock(uid)
	defer unlock()

	bs, err := m.remote.ListBackup(ctx, uid)
	if err != nil {
		return model.Goal{}, err
	}
	b, ok := findBackup(bs, backupID)
	if !ok {
		return model.Goal{}, fmt.Errorf("backup goal %s: %w", backupID, errs.ErrNotFound)
	}
	g, err := m.remote.RestoreFromBackup(ctx, b)
	if err != nil {
		return model.Goal{}, err
	}
	if _, err := m.rec.Refresh(ctx, uid); err != nil {
		m.log.Warn("refresh after restore failed", zap.Error(err))
	}
	return g, nil
}

// PermanentlyDelete archives a backup goal and removes it from the backup collection.
func (m *Manager) PermanentlyDelete(ctx context.Context, backupID uuid.UUID) (model.ArchivedGoal, error) {
	uid, err := m.user()
	if err != nil {
		return model.ArchivedGoal{}, err
	}
	bs, err := m.remote.ListBackup(ctx, uid)
	if err != nil {
		return model.ArchivedGoal{}, err
	}
	b, ok := findBackup(bs, backupID)
	if !ok {
		return model.ArchivedGoal{}, fmt.Errorf("backup goal %s: %w", backupID, errs.ErrNotFound)
	}
	return m.remote.MoveToArchiveAndDeleteBackup(ctx, b)
}

// BulkResult counts the outcome of a best-effort bulk operation.
type BulkResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// RestoreAll restores every backup goal in turn. Failures are logged and skipped.
func (m *Manager) RestoreAll(ctx context.Context) (BulkResult, error) {
	uid, err := m.user()
	if err != nil {
		return BulkResult{}, err
	}
	unlock := m.locks.lock(uid)
	defer unlock()

	bs, err := m.remote.ListBackup(ctx, uid)
	if err != nil {
		return BulkResult{}, err
	}
	var res BulkResult
	for _, b := range bs {
		if ctx.Err() != nil {
			break
		}
		if _, err := m.remote.RestoreFromBackup(ctx, b); err != nil {
			res.Failed++
			m.log.Error("restore failed", zap.Stringer("goal", b.ID), zap.Error(err))
			continue
		}
		res.Succeeded++
	}
	if res.Succeeded > 0 {
		if _, err := m.rec.Refresh(ctx, uid); err != nil {
			m.log.Warn("refresh after restore all failed", zap.Error(err))
		}
	}
	return res, ctx.Err()
}

// PermanentlyDeleteAll archives every backup goal in turn. Failures are logged and skipped.
func (m *Manager) PermanentlyDeleteAll(ctx context.Context) (BulkResult, error) {
	uid, err := m.user()
	if err != nil {
		return BulkResult{}, err
	}
	bs, err := m.remote.ListBackup(ctx, uid)
	if err != nil {
		return BulkResult{}, err
	}
	var res BulkResult
	for _, b := range bs {
		if ctx.Err() != nil {
			break
		}
		if _, err := m.remote.MoveToArchiveAndDeleteBackup(ctx, b); err != nil {
			res.Failed++
			m.log.Error("permanent delete failed", zap.Stringer("goal", b.ID), zap.Error(err))
			continue
		}
		res.Succeeded++
	}
	return res, ctx.Err()
}

// SyncStatus reports the background sync state of a goal.
func (m *Manager) SyncStatus(goalID uuid.UUID) model.SyncState {
	return m.queue.status(goalID)
}

// OnAuthChange reacts to sign-in and sign-out. A sign-in refreshes the
// user's goals in the background; a sign-out drops recorded sync states.
func (m *Manager) OnAuthChange(userID uuid.UUID, signedIn bool) {
	if !signedIn {
		m.queue.reset()
		return
	}
	m.bgMu.Lock()
	defer m.bgMu.Unlock()
	if m.bgCtx.Err() != nil {
		return
	}
	m.bgWG.Add(1)
	go func() {
		defer m.bgWG.Done()
		ctx, cancel := context.WithTimeout(m.bgCtx, m.syncTimeout)
		defer cancel()
		unlock := m.locks.lock(userID)
		defer unlock()
		if _, err := m.rec.Refresh(ctx, userID); err != nil && !errors.Is(err, context.Canceled) {
			m.log.Warn("refresh on sign-in failed", zap.Error(err))
		}
	}()
}

// Flush waits for queued remote writes and background refreshes.
func (m *Manager) Flush() {
	m.queue.flush()
	m.bgWG.Wait()
}

// Close stops accepting background work and waits for what is queued.
func (m *Manager) Close() {
	m.bgMu.Lock()
	m.bgCancel()
	m.bgMu.Unlock()
	m.queue.close()
	m.bgWG.Wait()
}

// userLocks hands out one mutex per user.
type userLocks struct {
	mu sync.Mutex
	m  map[uuid.UUID]*sync.Mutex
}

func (l *userLocks) lock(id uuid.UUID) (unlock func()) {
	l.mu.Lock()
	mu, ok := l.m[id]
	if !ok {
		mu = &sync.Mutex{}
		l.m[id] = mu
	}
	l.mu.Unlock()
	mu.Lock()
	return mu.Unlock
}
