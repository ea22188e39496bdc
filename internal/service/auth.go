// Package service contains server-side application services for accounts and goals.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	pkgcrypto "github.com/and161185/goalkeeper/internal/crypto"
	"github.com/and161185/goalkeeper/internal/errs"
	"github.com/and161185/goalkeeper/internal/limiter"
	"github.com/and161185/goalkeeper/internal/model"
	"github.com/and161185/goalkeeper/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

// AuthService defines account operations.
type AuthService interface {
	// Register creates a new account and returns its id.
	Register(ctx context.Context, email, password, displayName string) (userID uuid.UUID, err error)
	// LoginWithIP applies rate-limiting and authenticates the user.
	LoginWithIP(ctx context.Context, email, password, ip string) (model.Tokens, model.User, error)
	// Profile returns the account of the given user.
	Profile(ctx context.Context, userID uuid.UUID) (model.User, error)
	// UpdateDisplayName renames the user.
	UpdateDisplayName(ctx context.Context, userID uuid.UUID, name string) error
}

type AuthServiceImpl struct {
	users     repository.UserRepository
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, signKey []byte, accessTTL time.Duration, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, signKey: signKey, accessTTL: accessTTL, lim: lim}
}

// Register validates the email and password and stores a salted Argon2id hash.
func (s *AuthServiceImpl) Register(ctx context.Context, email, password, displayName string) (uuid.UUID, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return uuid.Nil, fmt.Errorf("email/password: %w", errs.ErrEmptyInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return uuid.Nil, fmt.Errorf("bad email %q: %w", email, errs.ErrInvalidArgument)
	}
	hash, salt, err := pkgcrypto.NewCredentials(password)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", errs.ErrInvalidArgument, err)
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}
	u := &model.User{
		ID:          uid,
		Email:       email,
		DisplayName: strings.TrimSpace(displayName),
		PwdHash:     hash,
		SaltAuth:    salt,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return uuid.Nil, err
	}
	return uid, nil
}

// LoginWithIP authenticates with rate limiting by (email, ip).
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, email, password, ip string) (model.Tokens, model.User, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	if !allowed {
		return model.Tokens{}, model.User{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil || !pkgcrypto.VerifyPassword([]byte(password), u.SaltAuth, u.PwdHash) {
		if err != nil && !errors.Is(err, errs.ErrNotFound) {
			return model.Tokens{}, model.User{}, err
		}
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return model.Tokens{}, model.User{}, errs.ErrRateLimited
		}
		// unknown email and wrong password look the same
		return model.Tokens{}, model.User{}, errs.ErrUnauthenticated
	}

	_ = s.lim.Success(ctx, email, ipHash)

	access, exp, err := s.issueAccessToken(u.ID)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	return model.Tokens{AccessToken: access, ExpiresAt: exp}, *u, nil
}

// issueAccessToken creates a signed HS256 JWT for the given subject.
func (s *AuthServiceImpl) issueAccessToken(userID uuid.UUID) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.accessTTL)
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	return signed, exp, err
}

// Profile loads the user without credential material.
func (s *AuthServiceImpl) Profile(ctx context.Context, userID uuid.UUID) (model.User, error) {
	if userID == uuid.Nil {
		return model.User{}, errs.ErrUnauthenticated
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	out := *u
	out.PwdHash, out.SaltAuth = nil, nil
	return out, nil
}

// UpdateDisplayName trims and stores a new display name.
func (s *AuthServiceImpl) UpdateDisplayName(ctx context.Context, userID uuid.UUID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("display name: %w", errs.ErrEmptyInput)
	}
	return s.users.UpdateDisplayName(ctx, userID, name)
}
