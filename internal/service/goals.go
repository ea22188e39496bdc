package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/goalkeeper/internal/errs"
	"github.com/and161185/goalkeeper/internal/model"
	"github.com/and161185/goalkeeper/internal/repository"
)

// GoalService is the remote store as seen by the transport layer. Every call is scoped to userID.
type GoalService interface {
	List(ctx context.Context, userID uuid.UUID) ([]model.Goal, error)
	ListDeleted(ctx context.Context, userID uuid.UUID) ([]model.BackupGoal, error)
	// Create trims text and rejects blanks and case-insensitive duplicates.
	Create(ctx context.Context, userID uuid.UUID, text string) (model.Goal, error)
	// Upsert writes a live goal idempotently (toggle, edit).
	Upsert(ctx context.Context, userID uuid.UUID, g model.Goal) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// SoftDelete moves the goal into the backup collection.
	SoftDelete(ctx context.Context, userID uuid.UUID, g model.Goal, deletedAt time.Time) (model.BackupGoal, error)
	// Restore moves a backup goal back to the live collection with a fresh creation time.
	Restore(ctx context.Context, userID, id uuid.UUID) (model.Goal, error)
	// Purge archives a backup goal and removes it from the backup collection.
	Purge(ctx context.Context, userID, id uuid.UUID) (model.ArchivedGoal, error)
}

type GoalServiceImpl struct {
	repo repository.GoalRepository
	now  func() time.Time
}

// NewGoalService constructs GoalService over a goal repository.
func NewGoalService(repo repository.GoalRepository) *GoalServiceImpl {
	return &GoalServiceImpl{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func requireUser(userID uuid.UUID) error {
	if userID == uuid.Nil {
		return errs.ErrUnauthenticated
	}
	return nil
}

// List returns the user's live goals.
func (s *GoalServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]model.Goal, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.repo.ListLive(ctx, userID)
}

// ListDeleted returns the user's backup goals.
func (s *GoalServiceImpl) ListDeleted(ctx context.Context, userID uuid.UUID) ([]model.BackupGoal, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.repo.ListBackup(ctx, userID)
}

// Create validates text and inserts a new goal with a server-assigned id.
func (s *GoalServiceImpl) Create(ctx context.Context, userID uuid.UUID, text string) (model.Goal, error) {
	if err := requireUser(userID); err != nil {
		return model.Goal{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Goal{}, errs.ErrEmptyInput
	}
	dup, err := s.repo.TextExists(ctx, userID, text)
	if err != nil {
		return model.Goal{}, err
	}
	if dup {
		return model.Goal{}, fmt.Errorf("%q: %w", text, errs.ErrDuplicateGoal)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return model.Goal{}, err
	}
	g := model.Goal{ID: id, UserID: userID, Text: text, CreatedAt: s.now()}
	if err := s.repo.Insert(ctx, g); err != nil {
		return model.Goal{}, err
	}
	return g, nil
}

// Upsert validates and writes a live goal owned by userID.
func (s *GoalServiceImpl) Upsert(ctx context.Context, userID uuid.UUID, g model.Goal) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if g.ID == uuid.Nil {
		return fmt.Errorf("empty goal id: %w", errs.ErrInvalidArgument)
	}
	g.Text = strings.TrimSpace(g.Text)
	if g.Text == "" {
		return errs.ErrEmptyInput
	}
	g.UserID = userID
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now()
	}
	return s.repo.Upsert(ctx, g)
}

// Delete removes a live goal without keeping a backup.
func (s *GoalServiceImpl) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if id == uuid.Nil {
		return fmt.Errorf("empty goal id: %w", errs.ErrInvalidArgument)
	}
	return s.repo.DeleteLive(ctx, userID, id)
}

// SoftDelete stamps deletedAt (now when zero) and moves the goal to backup in one transaction.
func (s *GoalServiceImpl) SoftDelete(ctx context.Context, userID uuid.UUID, g model.Goal, deletedAt time.Time) (model.BackupGoal, error) {
	if err := requireUser(userID); err != nil {
		return model.BackupGoal{}, err
	}
	if g.ID == uuid.Nil {
		return model.BackupGoal{}, fmt.Errorf("empty goal id: %w", errs.ErrInvalidArgument)
	}
	if deletedAt.IsZero() {
		deletedAt = s.now()
	}
	g.UserID = userID
	if g.CreatedAt.IsZero() {
		g.CreatedAt = deletedAt
	}
	b := model.BackupGoal{Goal: g, DeletedAt: deletedAt}
	if err := s.repo.MoveToBackup(ctx, b); err != nil {
		return model.BackupGoal{}, err
	}
	return b, nil
}

// Restore re-creates the live goal from its backup.
func (s *GoalServiceImpl) Restore(ctx context.Context, userID, id uuid.UUID) (model.Goal, error) {
	if err := requireUser(userID); err != nil {
		return model.Goal{}, err
	}
	return s.repo.Restore(ctx, userID, id, s.now())
}

// Purge writes the audit record and drops the backup.
func (s *GoalServiceImpl) Purge(ctx context.Context, userID, id uuid.UUID) (model.ArchivedGoal, error) {
	if err := requireUser(userID); err != nil {
		return model.ArchivedGoal{}, err
	}
	archiveID, err := uuid.NewV4()
	if err != nil {
		return model.ArchivedGoal{}, err
	}
	return s.repo.Archive(ctx, userID, id, archiveID, s.now())
}
