package convert

import (
	"fmt"
	"time"

	"github.com/and161185/goalkeeper/internal/api/goalv1"
	model "github.com/and161185/goalkeeper/internal/model"
	u "github.com/gofrs/uuid/v5"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// --- helpers ---

func idString(id u.UUID) string {
	if id.IsNil() {
		return ""
	}
	return id.String()
}

// Timestamp converts t to its wire form. The zero time becomes nil.
func Timestamp(t time.Time) *timestamppb.Timestamp {
	if t.IsZero() {
		return nil
	}
	return timestamppb.New(t)
}

// Time converts a wire timestamp back. Nil yields the zero time.
func Time(ts *timestamppb.Timestamp) time.Time {
	if ts == nil {
		return time.Time{}
	}
	return ts.AsTime()
}

// ParseID parses a wire id. Empty input yields uuid.Nil.
func ParseID(s string) (u.UUID, error) {
	if s == "" {
		return u.Nil, nil
	}
	id, err := u.FromString(s)
	if err != nil {
		return u.Nil, fmt.Errorf("invalid id: %w", err)
	}
	return id, nil
}

// --- Goal ---

// ToWireGoal converts a domain goal to its wire form.
func ToWireGoal(g model.Goal) goalv1.Goal {
	return goalv1.Goal{
		ID:        idString(g.ID),
		UID:       idString(g.UserID),
		Text:      g.Text,
		Completed: g.Completed,
		CreatedAt: Timestamp(g.CreatedAt),
	}
}

// FromWireGoal converts a wire goal into the domain struct.
func FromWireGoal(in goalv1.Goal) (model.Goal, error) {
	id, err := ParseID(in.ID)
	if err != nil {
		return model.Goal{}, err
	}
	uid, err := ParseID(in.UID)
	if err != nil {
		return model.Goal{}, fmt.Errorf("uid: %w", err)
	}
	return model.Goal{
		ID:        id,
		UserID:    uid,
		Text:      in.Text,
		Completed: in.Completed,
		CreatedAt: Time(in.CreatedAt),
	}, nil
}

// ToWireGoals converts a slice of goals.
func ToWireGoals(gs []model.Goal) []goalv1.Goal {
	out := make([]goalv1.Goal, 0, len(gs))
	for _, g := range gs {
		out = append(out, ToWireGoal(g))
	}
	return out
}

// FromWireGoals converts a slice of wire goals, stopping at the first bad entry.
func FromWireGoals(in []goalv1.Goal) ([]model.Goal, error) {
	out := make([]model.Goal, 0, len(in))
	for i, g := range in {
		m, err := FromWireGoal(g)
		if err != nil {
			return nil, fmt.Errorf("goal[%d]: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// --- BackupGoal ---

func ToWireBackupGoal(b model.BackupGoal) goalv1.BackupGoal {
	return goalv1.BackupGoal{Goal: ToWireGoal(b.Goal), DeletedAt: Timestamp(b.DeletedAt)}
}

func FromWireBackupGoal(in goalv1.BackupGoal) (model.BackupGoal, error) {
	g, err := FromWireGoal(in.Goal)
	if err != nil {
		return model.BackupGoal{}, err
	}
	return model.BackupGoal{Goal: g, DeletedAt: Time(in.DeletedAt)}, nil
}

func ToWireBackupGoals(bs []model.BackupGoal) []goalv1.BackupGoal {
	out := make([]goalv1.BackupGoal, 0, len(bs))
	for _, b := range bs {
		out = append(out, ToWireBackupGoal(b))
	}
	return out
}

func FromWireBackupGoals(in []goalv1.BackupGoal) ([]model.BackupGoal, error) {
	out := make([]model.BackupGoal, 0, len(in))
	for i, b := range in {
		m, err := FromWireBackupGoal(b)
		if err != nil {
			return nil, fmt.Errorf("backup[%d]: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// --- ArchivedGoal ---

func ToWireArchivedGoal(a model.ArchivedGoal) goalv1.ArchivedGoal {
	return goalv1.ArchivedGoal{
		ID:                   idString(a.ID),
		UID:                  idString(a.UserID),
		Text:                 a.Text,
		Completed:            a.Completed,
		OriginallyDeletedAt:  Timestamp(a.OriginallyDeletedAt),
		PermanentlyDeletedAt: Timestamp(a.PermanentlyDeletedAt),
	}
}

func FromWireArchivedGoal(in goalv1.ArchivedGoal) (model.ArchivedGoal, error) {
	id, err := ParseID(in.ID)
	if err != nil {
		return model.ArchivedGoal{}, err
	}
	uid, err := ParseID(in.UID)
	if err != nil {
		return model.ArchivedGoal{}, fmt.Errorf("uid: %w", err)
	}
	return model.ArchivedGoal{
		ID:                   id,
		UserID:               uid,
		Text:                 in.Text,
		Completed:            in.Completed,
		OriginallyDeletedAt:  Time(in.OriginallyDeletedAt),
		PermanentlyDeletedAt: Time(in.PermanentlyDeletedAt),
	}, nil
}

// --- Profile ---

// ToWireProfile converts a user to the public profile message.
func ToWireProfile(usr model.User) goalv1.Profile {
	return goalv1.Profile{
		UserID:      idString(usr.ID),
		Email:       usr.Email,
		DisplayName: usr.DisplayName,
	}
}
