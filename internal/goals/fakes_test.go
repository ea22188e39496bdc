package goals

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/and161185/goalkeeper/internal/errs"
	"github.com/and161185/goalkeeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

type fakeAuth struct {
	mu  sync.Mutex
	uid uuid.UUID
}

func (a *fakeAuth) CurrentUserID() (uuid.UUID, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.uid, a.uid != uuid.Nil
}

func (a *fakeAuth) set(id uuid.UUID) {
	a.mu.Lock()
	a.uid = id
	a.mu.Unlock()
}

// memCache clones on the way in and out, like a serializing cache would.
type memCache struct {
	mu     sync.Mutex
	m      map[uuid.UUID][]model.Goal
	getErr error
	setErr error
	sets   atomic.Int32
}

func newMemCache() *memCache { return &memCache{m: map[uuid.UUID][]model.Goal{}} }

func (c *memCache) Get(_ context.Context, uid uuid.UUID) ([]model.Goal, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	gs, ok := c.m[uid]
	return slices.Clone(gs), ok, nil
}

func (c *memCache) Set(_ context.Context, uid uuid.UUID, gs []model.Goal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets.Add(1)
	if c.setErr != nil {
		return c.setErr
	}
	c.m[uid] = slices.Clone(gs)
	return nil
}

func (c *memCache) put(uid uuid.UUID, gs ...model.Goal) {
	c.mu.Lock()
	c.m[uid] = gs
	c.mu.Unlock()
}

func (c *memCache) peek(uid uuid.UUID) []model.Goal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.m[uid])
}

// fakeRemote mirrors the server rules: uid scoping, atomic moves, fresh created-at on restore.
type fakeRemote struct {
	mu      sync.Mutex
	live    []model.Goal
	backup  []model.BackupGoal
	archive []model.ArchivedGoal
	now     time.Time

	down        bool // every call fails with ErrRemoteUnavailable
	upsertErr   error
	moveErr     error
	restoreFail map[uuid.UUID]bool
	archiveFail map[uuid.UUID]bool
	keepLive    bool // MoveToBackup writes the backup but leaves the live row

	listCalls   atomic.Int32
	upsertCalls atomic.Int32
	listGate    chan struct{}
	upsertGate  chan struct{}
	upserted    []model.Goal
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		now:         time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		restoreFail: map[uuid.UUID]bool{},
		archiveFail: map[uuid.UUID]bool{},
	}
}

var errDown = errors.Join(errs.ErrRemoteUnavailable, errors.New("connection refused"))

func (r *fakeRemote) tick() time.Time {
	r.now = r.now.Add(time.Minute)
	return r.now
}

func (r *fakeRemote) addLive(uid uuid.UUID, text string, completed bool) model.Goal {
	r.mu.Lock()
	defer r.mu.Unlock()
	g := model.Goal{ID: uuid.Must(uuid.NewV4()), UserID: uid, Text: text, Completed: completed, CreatedAt: r.tick()}
	r.live = append(r.live, g)
	return g
}

func (r *fakeRemote) setDown(v bool) {
	r.mu.Lock()
	r.down = v
	r.mu.Unlock()
}

func (r *fakeRemote) snapshot() ([]model.Goal, []model.BackupGoal, []model.ArchivedGoal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.live), slices.Clone(r.backup), slices.Clone(r.archive)
}

func (r *fakeRemote) ListLive(_ context.Context, uid uuid.UUID) ([]model.Goal, error) {
	r.listCalls.Add(1)
	if r.listGate != nil {
		<-r.listGate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return nil, errDown
	}
	var out []model.Goal
	for _, g := range r.live {
		if g.UserID == uid {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *fakeRemote) ListBackup(_ context.Context, uid uuid.UUID) ([]model.BackupGoal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return nil, errDown
	}
	var out []model.BackupGoal
	for _, b := range r.backup {
		if b.UserID == uid {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeRemote) CreateLive(_ context.Context, uid uuid.UUID, text string, current []model.Goal) (model.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return model.Goal{}, errDown
	}
	if ContainsText(current, text) {
		return model.Goal{}, errs.ErrDuplicateGoal
	}
	g := model.Goal{ID: uuid.Must(uuid.NewV4()), UserID: uid, Text: text, CreatedAt: r.tick()}
	r.live = append(r.live, g)
	return g, nil
}

func (r *fakeRemote) UpsertLive(_ context.Context, g model.Goal) error {
	r.upsertCalls.Add(1)
	if r.upsertGate != nil {
		<-r.upsertGate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return errDown
	}
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserted = append(r.upserted, g)
	for i := range r.live {
		if r.live[i].ID == g.ID {
			r.live[i] = g
			return nil
		}
	}
	r.live = append(r.live, g)
	return nil
}

func (r *fakeRemote) DeleteLive(_ context.Context, uid, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropLive(uid, id)
}

func (r *fakeRemote) dropLive(uid, id uuid.UUID) error {
	for i := range r.live {
		if r.live[i].ID == id && r.live[i].UserID == uid {
			r.live = slices.Delete(r.live, i, i+1)
			return nil
		}
	}
	return errs.ErrNotFound
}

func (r *fakeRemote) MoveToBackup(_ context.Context, b model.BackupGoal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return errDown
	}
	if r.moveErr != nil {
		return r.moveErr
	}
	r.backup = append(r.backup, b)
	if !r.keepLive {
		_ = r.dropLive(b.UserID, b.ID)
	}
	return nil
}

func (r *fakeRemote) takeBackup(b model.BackupGoal) (model.BackupGoal, bool) {
	for i := range r.backup {
		if r.backup[i].ID == b.ID && r.backup[i].UserID == b.UserID {
			out := r.backup[i]
			r.backup = slices.Delete(r.backup, i, i+1)
			return out, true
		}
	}
	return model.BackupGoal{}, false
}

func (r *fakeRemote) MoveToArchiveAndDeleteBackup(_ context.Context, b model.BackupGoal) (model.ArchivedGoal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return model.ArchivedGoal{}, errDown
	}
	if r.archiveFail[b.ID] {
		return model.ArchivedGoal{}, errDown
	}
	got, ok := r.takeBackup(b)
	if !ok {
		return model.ArchivedGoal{}, errs.ErrNotFound
	}
	a := model.ArchivedGoal{
		ID: uuid.Must(uuid.NewV4()), UserID: got.UserID, Text: got.Text, Completed: got.Completed,
		OriginallyDeletedAt: got.DeletedAt, PermanentlyDeletedAt: r.tick(),
	}
	r.archive = append(r.archive, a)
	return a, nil
}

func (r *fakeRemote) RestoreFromBackup(_ context.Context, b model.BackupGoal) (model.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return model.Goal{}, errDown
	}
	if r.restoreFail[b.ID] {
		return model.Goal{}, errDown
	}
	got, ok := r.takeBackup(b)
	if !ok {
		return model.Goal{}, errs.ErrNotFound
	}
	g := got.Goal
	g.CreatedAt = r.tick()
	r.live = append(r.live, g)
	return g, nil
}
