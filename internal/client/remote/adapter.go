// Package remote talks to the goalkeeper server on behalf of the signed-in user.
package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"google.golang.org/grpc/metadata"

	"github.com/and161185/goalkeeper/internal/api/goalv1"
	"github.com/and161185/goalkeeper/internal/convert"
	"github.com/and161185/goalkeeper/internal/errs"
	"github.com/and161185/goalkeeper/internal/goals"
	"github.com/and161185/goalkeeper/internal/model"
)

// Credentials supplies the bearer token and the user it was issued to.
type Credentials interface {
	Token() (string, bool)
	CurrentUserID() (uuid.UUID, bool)
}

// DefaultCallTimeout bounds a single RPC when the caller set no deadline.
const DefaultCallTimeout = 30 * time.Second

// Adapter implements goals.RemoteStore over the GoalKeeper gRPC client.
type Adapter struct {
	cl      goalv1.GoalKeeperClient
	creds   Credentials
	timeout time.Duration
}

var _ goals.RemoteStore = (*Adapter)(nil)

// NewAdapter returns an adapter; a non-positive timeout selects DefaultCallTimeout.
func NewAdapter(cl goalv1.GoalKeeperClient, creds Credentials, timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Adapter{cl: cl, creds: creds, timeout: timeout}
}

// call attaches the bearer token and a deadline. The session must belong to userID.
func (a *Adapter) call(ctx context.Context, userID uuid.UUID) (context.Context, context.CancelFunc, error) {
	tok, ok := a.creds.Token()
	if !ok {
		return nil, nil, errs.ErrUnauthenticated
	}
	if cur, _ := a.creds.CurrentUserID(); cur != userID {
		return nil, nil, fmt.Errorf("session user %s, goal user %s: %w", cur, userID, errs.ErrPermissionDenied)
	}
	ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+tok)
	if _, has := ctx.Deadline(); has {
		return ctx, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	return ctx, cancel, nil
}

func (a *Adapter) ListLive(ctx context.Context, userID uuid.UUID) ([]model.Goal, error) {
	ctx, cancel, err := a.call(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer cancel()
	resp, err := a.cl.ListGoals(ctx, &goalv1.Empty{})
	if err != nil {
		return nil, fromStatus("list goals", err)
	}
	gs, err := convert.FromWireGoals(resp.Goals)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return gs, nil
}

func (a *Adapter) ListBackup(ctx context.Context, userID uuid.UUID) ([]model.BackupGoal, error) {
	ctx, cancel, err := a.call(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer cancel()
	resp, err := a.cl.ListBackupGoals(ctx, &goalv1.Empty{})
	if err != nil {
		return nil, fromStatus("list backup goals", err)
	}
	bs, err := convert.FromWireBackupGoals(resp.Goals)
	if err != nil {
		return nil, fmt.Errorf("list backup goals: %w", err)
	}
	return bs, nil
}

// CreateLive rejects a text already in current before calling the server,
// which checks again against its own live rows.
func (a *Adapter) CreateLive(ctx context.Context, userID uuid.UUID, text string, current []model.Goal) (model.Goal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Goal{}, errs.ErrEmptyInput
	}
	if goals.ContainsText(current, text) {
		return model.Goal{}, fmt.Errorf("%q: %w", text, errs.ErrDuplicateGoal)
	}
	ctx, cancel, err := a.call(ctx, userID)
	if err != nil {
		return model.Goal{}, err
	}
	defer cancel()
	resp, err := a.cl.CreateGoal(ctx, &goalv1.CreateGoalRequest{Text: text})
	if err != nil {
		return model.Goal{}, fromStatus("create goal", err)
	}
	return convert.FromWireGoal(resp.Goal)
}

func (a *Adapter) UpsertLive(ctx context.Context, g model.Goal) error {
	if !g.HasID() {
		return fmt.Errorf("upsert goal: %w: missing id", errs.ErrInvalidArgument)
	}
	ctx, cancel, err := a.call(ctx, g.UserID)
	if err != nil {
		return err
	}
	defer cancel()
	_, err = a.cl.UpsertGoal(ctx, &goalv1.UpsertGoalRequest{Goal: convert.ToWireGoal(g)})
	return fromStatus("upsert goal", err)
}

func (a *Adapter) DeleteLive(ctx context.Context, userID, goalID uuid.UUID) error {
	ctx, cancel, err := a.call(ctx, userID)
	if err != nil {
		return err
	}
	defer cancel()
	_, err = a.cl.DeleteGoal(ctx, &goalv1.GoalIDRequest{ID: goalID.String()})
	return fromStatus("delete goal", err)
}

// MoveToBackup is a single server-side transaction: backup row written, live row removed.
func (a *Adapter) MoveToBackup(ctx context.Context, b model.BackupGoal) error {
	ctx, cancel, err := a.call(ctx, b.UserID)
	if err != nil {
		return err
	}
	defer cancel()
	_, err = a.cl.SoftDeleteGoal(ctx, &goalv1.SoftDeleteGoalRequest{
		Goal:      convert.ToWireGoal(b.Goal),
		DeletedAt: convert.Timestamp(b.DeletedAt),
	})
	return fromStatus("soft delete goal", err)
}

func (a *Adapter) MoveToArchiveAndDeleteBackup(ctx context.Context, b model.BackupGoal) (model.ArchivedGoal, error) {
	ctx, cancel, err := a.call(ctx, b.UserID)
	if err != nil {
		return model.ArchivedGoal{}, err
	}
	defer cancel()
	resp, err := a.cl.PurgeGoal(ctx, &goalv1.GoalIDRequest{ID: b.ID.String()})
	if err != nil {
		return model.ArchivedGoal{}, fromStatus("purge goal", err)
	}
	return convert.FromWireArchivedGoal(resp.Archived)
}

func (a *Adapter) RestoreFromBackup(ctx context.Context, b model.BackupGoal) (model.Goal, error) {
	ctx, cancel, err := a.call(ctx, b.UserID)
	if err != nil {
		return model.Goal{}, err
	}
	defer cancel()
	resp, err := a.cl.RestoreGoal(ctx, &goalv1.GoalIDRequest{ID: b.ID.String()})
	if err != nil {
		return model.Goal{}, fromStatus("restore goal", err)
	}
	return convert.FromWireGoal(resp.Goal)
}
