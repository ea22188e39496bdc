package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/and161185/goalkeeper/internal/errs"
	"github.com/and161185/goalkeeper/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// GoalRepo implements GoalRepository using PostgreSQL.
type GoalRepo struct{ db *DB }

// NewGoalRepo constructs a goal repository.
func NewGoalRepo(db *DB) *GoalRepo { return &GoalRepo{db: db} }

// ListLive returns live goals ordered by creation time.
func (r *GoalRepo) ListLive(ctx context.Context, userID uuid.UUID) ([]model.Goal, error) {
	const q = `
SELECT id, uid, text, completed, created_at
FROM goals WHERE uid=$1
ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Goal{}
	for rows.Next() {
		var g model.Goal
		if err = rows.Scan(&g.ID, &g.UserID, &g.Text, &g.Completed, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ListBackup returns soft-deleted goals, most recently deleted first.
func (r *GoalRepo) ListBackup(ctx context.Context, userID uuid.UUID) ([]model.BackupGoal, error) {
	const q = `
SELECT id, uid, text, completed, created_at, deleted_at
FROM backup_goals WHERE uid=$1
ORDER BY deleted_at DESC, id ASC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.BackupGoal{}
	for rows.Next() {
		var b model.BackupGoal
		if err = rows.Scan(&b.ID, &b.UserID, &b.Text, &b.Completed, &b.CreatedAt, &b.DeletedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// TextExists checks for a case-insensitive text collision among live goals.
func (r *GoalRepo) TextExists(ctx context.Context, userID uuid.UUID, text string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM goals WHERE uid=$1 AND lower(text)=lower($2))`
	var ok bool
	if err := r.db.Pool.QueryRow(ctx, q, userID, text).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// Insert stores a new live goal.
func (r *GoalRepo) Insert(ctx context.Context, g model.Goal) error {
	const q = `INSERT INTO goals (id, uid, text, completed, created_at) VALUES ($1,$2,$3,$4,$5)`
	_, err := r.db.Pool.Exec(ctx, q, g.ID, g.UserID, g.Text, g.Completed, g.CreatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// Upsert inserts or updates a live goal. Rows owned by another user are left
// untouched, and a goal sitting in backup_goals is never brought back live.
func (r *GoalRepo) Upsert(ctx context.Context, g model.Goal) error {
	const q = `
INSERT INTO goals (id, uid, text, completed, created_at)
SELECT $1,$2,$3,$4,$5 WHERE NOT EXISTS (SELECT 1 FROM backup_goals WHERE id=$1)
ON CONFLICT (id) DO UPDATE SET text=EXCLUDED.text, completed=EXCLUDED.completed
WHERE goals.uid=EXCLUDED.uid`
	tag, err := r.db.Pool.Exec(ctx, q, g.ID, g.UserID, g.Text, g.Completed, g.CreatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var backedUp bool
	if err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM backup_goals WHERE id=$1)`, g.ID).Scan(&backedUp); err != nil {
		return err
	}
	if backedUp {
		return fmt.Errorf("goal %s is deleted: %w", g.ID, errs.ErrNotFound)
	}
	return errs.ErrPermissionDenied
}

// DeleteLive removes a live goal by id.
func (r *GoalRepo) DeleteLive(ctx context.Context, userID, goalID uuid.UUID) error {
	const q = `DELETE FROM goals WHERE id=$1 AND uid=$2`
	tag, err := r.db.Pool.Exec(ctx, q, goalID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// MoveToBackup writes the backup row and deletes the live row in one transaction.
// A missing live row is not an error: the goal may never have reached the store.
func (r *GoalRepo) MoveToBackup(ctx context.Context, b model.BackupGoal) error {
	const ins = `
INSERT INTO backup_goals (id, uid, text, completed, created_at, deleted_at) VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET text=EXCLUDED.text, completed=EXCLUDED.completed, deleted_at=EXCLUDED.deleted_at
WHERE backup_goals.uid=EXCLUDED.uid`
	const del = `DELETE FROM goals WHERE id=$1 AND uid=$2`

	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, ins, b.ID, b.UserID, b.Text, b.Completed, b.CreatedAt, b.DeletedAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrPermissionDenied
		}
		_, err = tx.Exec(ctx, del, b.ID, b.UserID)
		return err
	})
}

const selBackupForUpdate = `
SELECT id, uid, text, completed, created_at, deleted_at
FROM backup_goals WHERE id=$1 AND uid=$2 FOR UPDATE`

func scanBackup(row pgx.Row) (model.BackupGoal, error) {
	var b model.BackupGoal
	err := row.Scan(&b.ID, &b.UserID, &b.Text, &b.Completed, &b.CreatedAt, &b.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.BackupGoal{}, errs.ErrNotFound
	}
	return b, err
}

// Restore moves a backup goal back to the live collection with a fresh created_at.
func (r *GoalRepo) Restore(ctx context.Context, userID, goalID uuid.UUID, now time.Time) (model.Goal, error) {
	const ins = `
INSERT INTO goals (id, uid, text, completed, created_at) VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET text=EXCLUDED.text, completed=EXCLUDED.completed, created_at=EXCLUDED.created_at`
	const del = `DELETE FROM backup_goals WHERE id=$1 AND uid=$2`

	var g model.Goal
	err := r.db.inTx(ctx, func(tx pgx.Tx) error {
		b, err := scanBackup(tx.QueryRow(ctx, selBackupForUpdate, goalID, userID))
		if err != nil {
			return err
		}
		g = model.Goal{ID: b.ID, UserID: b.UserID, Text: b.Text, Completed: b.Completed, CreatedAt: now}
		if _, err = tx.Exec(ctx, ins, g.ID, g.UserID, g.Text, g.Completed, g.CreatedAt); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, del, goalID, userID)
		return err
	})
	if err != nil {
		return model.Goal{}, err
	}
	return g, nil
}

// Archive writes an all_goals audit row for the backup and deletes the backup.
func (r *GoalRepo) Archive(ctx context.Context, userID, goalID, archiveID uuid.UUID, now time.Time) (model.ArchivedGoal, error) {
	const ins = `
INSERT INTO all_goals (id, uid, text, completed, originally_deleted_at, permanently_deleted_at)
VALUES ($1,$2,$3,$4,$5,$6)`
	const del = `DELETE FROM backup_goals WHERE id=$1 AND uid=$2`

	var a model.ArchivedGoal
	err := r.db.inTx(ctx, func(tx pgx.Tx) error {
		b, err := scanBackup(tx.QueryRow(ctx, selBackupForUpdate, goalID, userID))
		if err != nil {
			return err
		}
		deletedAt := b.DeletedAt
		if deletedAt.IsZero() {
			deletedAt = now
		}
		a = model.ArchivedGoal{
			ID:                   archiveID,
			UserID:               userID,
			Text:                 b.Text,
			Completed:            b.Completed,
			OriginallyDeletedAt:  deletedAt,
			PermanentlyDeletedAt: now,
		}
		if _, err = tx.Exec(ctx, ins, a.ID, a.UserID, a.Text, a.Completed, a.OriginallyDeletedAt, a.PermanentlyDeletedAt); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, del, goalID, userID)
		return err
	})
	if err != nil {
		return model.ArchivedGoal{}, err
	}
	return a, nil
}
