// Package goalv1 is the wire contract of the goalkeeper.v1.GoalKeeper gRPC service.
//
// Messages travel as JSON through the codec registered in codec.go.
// Timestamps use the well-known protobuf Timestamp type.
package goalv1

import "google.golang.org/protobuf/types/known/timestamppb"

// Goal is a live goal on the wire.
type Goal struct {
	ID        string                 `json:"id"`
	UID       string                 `json:"uid"`
	Text      string                 `json:"text"`
	Completed bool                   `json:"completed"`
	CreatedAt *timestamppb.Timestamp `json:"createdAt"`
}

// BackupGoal is a soft-deleted goal on the wire.
type BackupGoal struct {
	Goal
	DeletedAt *timestamppb.Timestamp `json:"deletedAt"`
}

// ArchivedGoal is the audit record produced by PurgeGoal.
type ArchivedGoal struct {
	ID                   string                 `json:"id"`
	UID                  string                 `json:"uid"`
	Text                 string                 `json:"text"`
	Completed            bool                   `json:"completed"`
	OriginallyDeletedAt  *timestamppb.Timestamp `json:"originallyDeletedAt"`
	PermanentlyDeletedAt *timestamppb.Timestamp `json:"permanentlyDeletedAt"`
}

// Profile is the public part of an account.
type Profile struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type Empty struct{}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type RegisterResponse struct {
	UserID string `json:"user_id"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string                 `json:"access_token"`
	ExpiresAt   *timestamppb.Timestamp `json:"expires_at"`
	Profile     Profile                `json:"profile"`
}

type UpdateProfileRequest struct {
	DisplayName string `json:"display_name"`
}

type ListGoalsResponse struct {
	Goals []Goal `json:"goals"`
}

type ListBackupGoalsResponse struct {
	Goals []BackupGoal `json:"goals"`
}

type CreateGoalRequest struct {
	Text string `json:"text"`
}

type GoalResponse struct {
	Goal Goal `json:"goal"`
}

type UpsertGoalRequest struct {
	Goal Goal `json:"goal"`
}

type GoalIDRequest struct {
	ID string `json:"id"`
}

type SoftDeleteGoalRequest struct {
	Goal      Goal                   `json:"goal"`
	DeletedAt *timestamppb.Timestamp `json:"deletedAt"`
}

type SoftDeleteGoalResponse struct {
	Backup BackupGoal `json:"backup"`
}

type PurgeGoalResponse struct {
	Archived ArchivedGoal `json:"archived"`
}
