package repository

import (
	"context"
	"time"

	"github.com/and161185/goalkeeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// GoalRepository provides per-user access to the goals, backup_goals and all_goals collections.
type GoalRepository interface {
	// ListLive returns the user's live goals in store order.
	ListLive(ctx context.Context, userID uuid.UUID) ([]model.Goal, error)

	// ListBackup returns the user's soft-deleted goals.
	ListBackup(ctx context.Context, userID uuid.UUID) ([]model.BackupGoal, error)

	// TextExists reports whether a live goal with the same text (case-insensitive) exists.
	TextExists(ctx context.Context, userID uuid.UUID, text string) (bool, error)

	// Insert stores a new live goal.
	Insert(ctx context.Context, g model.Goal) error

	// Upsert creates or replaces a live goal owned by g.UserID.
	Upsert(ctx context.Context, g model.Goal) error

	// DeleteLive removes a live goal.
	DeleteLive(ctx context.Context, userID, goalID uuid.UUID) error

	// MoveToBackup writes the backup record and removes the live one atomically.
	MoveToBackup(ctx context.Context, b model.BackupGoal) error

	// Restore re-creates the live goal from its backup and removes the backup atomically.
	Restore(ctx context.Context, userID, goalID uuid.UUID, now time.Time) (model.Goal, error)

	// Archive writes an audit record and removes the backup atomically.
	Archive(ctx context.Context, userID, goalID, archiveID uuid.UUID, now time.Time) (model.ArchivedGoal, error)
}
