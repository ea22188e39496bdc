// Package goals reconciles the locally cached goal list with the remote store
// and drives the goal lifecycle: create, toggle, edit, soft delete, restore
// and permanent delete.
package goals

import (
	"context"

	"github.com/and161185/goalkeeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// Cache is the per-user local copy of the live goal list.
//
// Get reports ok=false when nothing was stored for the user yet.
type Cache interface {
	Get(ctx context.Context, userID uuid.UUID) (goals []model.Goal, ok bool, err error)
	Set(ctx context.Context, userID uuid.UUID, goals []model.Goal) error
}

// RemoteStore is the authoritative goal store. Implementations return
// errs.ErrRemoteUnavailable when the store cannot be reached.
type RemoteStore interface {
	ListLive(ctx context.Context, userID uuid.UUID) ([]model.Goal, error)
	ListBackup(ctx context.Context, userID uuid.UUID) ([]model.BackupGoal, error)

	// CreateLive fails with errs.ErrDuplicateGoal when text collides with current.
	CreateLive(ctx context.Context, userID uuid.UUID, text string, current []model.Goal) (model.Goal, error)
	UpsertLive(ctx context.Context, g model.Goal) error
	DeleteLive(ctx context.Context, userID, goalID uuid.UUID) error

	// MoveToBackup commits once the backup record is written.
	MoveToBackup(ctx context.Context, b model.BackupGoal) error
	MoveToArchiveAndDeleteBackup(ctx context.Context, b model.BackupGoal) (model.ArchivedGoal, error)
	RestoreFromBackup(ctx context.Context, b model.BackupGoal) (model.Goal, error)
}

// AuthProvider reports the signed-in user.
type AuthProvider interface {
	CurrentUserID() (uuid.UUID, bool)
}
