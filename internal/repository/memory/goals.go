// Package memory holds process-local repositories used when the server runs without a database.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/and161185/goalkeeper/internal/errs"
	"github.com/and161185/goalkeeper/internal/model"
	"github.com/and161185/goalkeeper/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// GoalRepo keeps the three goal collections in slices guarded by one mutex,
// so every move between them is atomic.
type GoalRepo struct {
	mu      sync.Mutex
	live    []model.Goal
	backup  []model.BackupGoal
	archive []model.ArchivedGoal
}

var _ repository.GoalRepository = (*GoalRepo)(nil)

func NewGoalRepo() *GoalRepo { return &GoalRepo{} }

func (r *GoalRepo) ListLive(_ context.Context, userID uuid.UUID) ([]model.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Goal, 0)
	for _, g := range r.live {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

// ListBackup returns backups most recent first.
func (r *GoalRepo) ListBackup(_ context.Context, userID uuid.UUID) ([]model.BackupGoal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.BackupGoal, 0)
	for i := len(r.backup) - 1; i >= 0; i-- {
		if r.backup[i].UserID == userID {
			out = append(out, r.backup[i])
		}
	}
	return out, nil
}

func (r *GoalRepo) TextExists(_ context.Context, userID uuid.UUID, text string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.live {
		if g.UserID == userID && strings.EqualFold(g.Text, text) {
			return true, nil
		}
	}
	return false, nil
}

func (r *GoalRepo) Insert(_ context.Context, g model.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.liveIndex(g.ID) >= 0 {
		return errs.ErrAlreadyExists
	}
	r.live = append(r.live, g)
	return nil
}

// Upsert never brings back a goal that sits in the backup collection.
func (r *GoalRepo) Upsert(_ context.Context, g model.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.ContainsFunc(r.backup, func(b model.BackupGoal) bool { return b.ID == g.ID }) {
		return errs.ErrNotFound
	}
	if i := r.liveIndex(g.ID); i >= 0 {
		if r.live[i].UserID != g.UserID {
			return errs.ErrPermissionDenied
		}
		g.CreatedAt = r.live[i].CreatedAt
		r.live[i] = g
		return nil
	}
	r.live = append(r.live, g)
	return nil
}

func (r *GoalRepo) DeleteLive(_ context.Context, userID, goalID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropLive(userID, goalID)
}

func (r *GoalRepo) MoveToBackup(_ context.Context, b model.BackupGoal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.backupIndex(b.UserID, b.ID); i >= 0 {
		r.backup = append(r.backup[:i], r.backup[i+1:]...)
	}
	r.backup = append(r.backup, b)
	_ = r.dropLive(b.UserID, b.ID)
	return nil
}

func (r *GoalRepo) Restore(_ context.Context, userID, goalID uuid.UUID, now time.Time) (model.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.takeBackup(userID, goalID)
	if !ok {
		return model.Goal{}, errs.ErrNotFound
	}
	g := b.Goal
	g.CreatedAt = now
	if i := r.liveIndex(g.ID); i >= 0 {
		r.live[i] = g
	} else {
		r.live = append(r.live, g)
	}
	return g, nil
}

func (r *GoalRepo) Archive(_ context.Context, userID, goalID, archiveID uuid.UUID, now time.Time) (model.ArchivedGoal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.takeBackup(userID, goalID)
	if !ok {
		return model.ArchivedGoal{}, errs.ErrNotFound
	}
	orig := b.DeletedAt
	if orig.IsZero() {
		orig = now
	}
	a := model.ArchivedGoal{
		ID:                   archiveID,
		UserID:               userID,
		Text:                 b.Text,
		Completed:            b.Completed,
		OriginallyDeletedAt:  orig,
		PermanentlyDeletedAt: now,
	}
	r.archive = append(r.archive, a)
	return a, nil
}

// Archived returns a copy of the audit records.
func (r *GoalRepo) Archived() []model.ArchivedGoal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ArchivedGoal(nil), r.archive...)
}

func (r *GoalRepo) liveIndex(id uuid.UUID) int {
	for i := range r.live {
		if r.live[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *GoalRepo) backupIndex(userID, id uuid.UUID) int {
	for i := range r.backup {
		if r.backup[i].ID == id && r.backup[i].UserID == userID {
			return i
		}
	}
	return -1
}

func (r *GoalRepo) dropLive(userID, id uuid.UUID) error {
	for i := range r.live {
		if r.live[i].ID == id && r.live[i].UserID == userID {
			r.live = append(r.live[:i], r.live[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}

func (r *GoalRepo) takeBackup(userID, id uuid.UUID) (model.BackupGoal, bool) {
	i := r.backupIndex(userID, id)
	if i < 0 {
		return model.BackupGoal{}, false
	}
	b := r.backup[i]
	r.backup = append(r.backup[:i], r.backup[i+1:]...)
	return b, true
}
