// Package model defines domain entities used by services, repositories and the client core.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Tokens collects issued access tokens.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry
}

// Goal is a live, user-visible goal.
//
// A zero ID means the goal has not been written to the remote store yet.
type Goal struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"uid"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasID reports whether the goal carries a store-assigned or locally generated id.
func (g Goal) HasID() bool { return g.ID != uuid.Nil }

// BackupGoal is a soft-deleted goal, recoverable until permanently deleted.
type BackupGoal struct {
	Goal
	DeletedAt time.Time `json:"deletedAt"`
}

// ArchivedGoal is the audit record left behind by a permanent delete. It is never read back.
type ArchivedGoal struct {
	ID                   uuid.UUID `json:"id"`
	UserID               uuid.UUID `json:"uid"`
	Text                 string    `json:"text"`
	Completed            bool      `json:"completed"`
	OriginallyDeletedAt  time.Time `json:"originallyDeletedAt"`
	PermanentlyDeletedAt time.Time `json:"permanentlyDeletedAt"`
}

// User represents an account stored on the server. Passwords are never stored in plaintext.
type User struct {
	ID          uuid.UUID // PK
	Email       string    // unique
	DisplayName string
	PwdHash     []byte // Argon2id(password, SaltAuth)
	SaltAuth    []byte // per-user auth salt
	CreatedAt   time.Time
}

// SyncState is the remote synchronization state of a locally mutated goal.
type SyncState string

// Sync states reported by the lifecycle manager.
const (
	SyncUnknown SyncState = ""
	SyncPending SyncState = "pending"
	SyncSynced  SyncState = "synced"
	SyncFailed  SyncState = "failed"
)
