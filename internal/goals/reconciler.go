package goals

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/and161185/goalkeeper/internal/errs"
	"github.com/and161185/goalkeeper/internal/model"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Snapshot is a reconciled view of one user's live goals.
type Snapshot struct {
	Goals []model.Goal
	// RemoteIDs holds the ids of goals confirmed live in the remote store.
	RemoteIDs map[uuid.UUID]struct{}
	// Online is false when the snapshot was served from the cache alone.
	Online bool
}

// IsRemote reports whether id is known to the remote store.
func (s Snapshot) IsRemote(id uuid.UUID) bool {
	_, ok := s.RemoteIDs[id]
	return ok
}

// Index returns the position of the goal with id, or -1.
func (s Snapshot) Index(id uuid.UUID) int {
	if id == uuid.Nil {
		return -1
	}
	return slices.IndexFunc(s.Goals, func(g model.Goal) bool { return g.ID == id })
}

func (s Snapshot) clone() Snapshot {
	return Snapshot{Goals: slices.Clone(s.Goals), RemoteIDs: s.RemoteIDs, Online: s.Online}
}

// DefaultRefreshTimeout bounds a shared refresh once it no longer follows any caller's context.
const DefaultRefreshTimeout = 30 * time.Second

// Reconciler produces the authoritative goal list from the remote store and the cache.
type Reconciler struct {
	remote  RemoteStore
	cache   Cache
	log     *zap.Logger
	sf      singleflight.Group
	timeout time.Duration
}

func NewReconciler(remote RemoteStore, cache Cache, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{remote: remote, cache: cache, log: log, timeout: DefaultRefreshTimeout}
}

// Refresh pulls the remote lists, merges them with the cache and stores the result.
// Concurrent refreshes for the same user share one round trip. The shared call
// is detached from every caller's cancellation; each caller stops waiting when
// its own context ends.
//
// Remote live goals that also sit in the backup collection are treated as
// deleted, and so are cached goals with such ids. A cached goal whose id the
// remote store returned is replaced by the remote version.
func (r *Reconciler) Refresh(ctx context.Context, userID uuid.UUID) (Snapshot, error) {
	ch := r.sf.DoChan(userID.String(), func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.refresh(sctx, userID)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		return res.Val.(Snapshot).clone(), nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Snapshot{}, fmt.Errorf("refresh: %w: %w", errs.ErrRemoteUnavailable, ctx.Err())
		}
		return Snapshot{}, ctx.Err()
	}
}

func (r *Reconciler) refresh(ctx context.Context, userID uuid.UUID) (Snapshot, error) {
	live, err := r.remote.ListLive(ctx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list live: %w", err)
	}
	backup, err := r.remote.ListBackup(ctx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list backup: %w", err)
	}

	deleted := make(map[uuid.UUID]struct{}, len(backup))
	for _, b := range backup {
		deleted[b.ID] = struct{}{}
	}
	notDeleted := func(g model.Goal) bool {
		_, gone := deleted[g.ID]
		return !gone
	}

	remote := make([]model.Goal, 0, len(live))
	ids := make(map[uuid.UUID]struct{}, len(live))
	for _, g := range live {
		if !notDeleted(g) {
			r.log.Warn("goal present in live and backup, treating as deleted", zap.Stringer("goal", g.ID))
			continue
		}
		remote = append(remote, g)
		ids[g.ID] = struct{}{}
	}

	local, _, err := r.cache.Get(ctx, userID)
	if err != nil {
		r.log.Warn("cache read failed, merging remote only", zap.Error(err))
		local = nil
	}
	local = slices.DeleteFunc(local, func(g model.Goal) bool {
		if !g.HasID() {
			return false
		}
		_, known := ids[g.ID]
		return known || !notDeleted(g)
	})

	merged := Merge(remote, local)
	if err := r.cache.Set(ctx, userID, merged); err != nil {
		r.log.Warn("cache write failed", zap.Error(err))
	}
	return Snapshot{Goals: merged, RemoteIDs: ids, Online: true}, nil
}

// Load returns a fresh snapshot, or the cached list when the remote store is unreachable.
// Without a cached list the remote error is returned.
func (r *Reconciler) Load(ctx context.Context, userID uuid.UUID) (Snapshot, error) {
	snap, err := r.Refresh(ctx, userID)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, errs.ErrRemoteUnavailable) {
		return Snapshot{}, err
	}
	cached, ok, cerr := r.cache.Get(ctx, userID)
	if cerr != nil || !ok {
		return Snapshot{}, err
	}
	r.log.Info("remote unavailable, serving cached goals", zap.Int("count", len(cached)))
	return Snapshot{Goals: cached, RemoteIDs: map[uuid.UUID]struct{}{}, Online: false}, nil
}
