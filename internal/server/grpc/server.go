// Package grpcserver exposes the GoalKeeper gRPC API handlers.
package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/and161185/goalkeeper/internal/api/goalv1"
	"github.com/and161185/goalkeeper/internal/convert"
	pkgcrypto "github.com/and161185/goalkeeper/internal/crypto"
	"github.com/and161185/goalkeeper/internal/errs"
	"github.com/and161185/goalkeeper/internal/service"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// Server wires services into gRPC handlers.
type Server struct {
	goalv1.UnimplementedGoalKeeperServer
	auth    service.AuthService
	goals   service.GoalService
	signKey []byte
}

// New constructs a gRPC server with injected services.
func New(auth service.AuthService, goals service.GoalService, signKey []byte) *Server {
	return &Server{auth: auth, goals: goals, signKey: signKey}
}

// toStatus maps domain sentinels onto gRPC codes.
func toStatus(op string, err error) error {
	switch {
	case errors.Is(err, errs.ErrEmptyInput),
		errors.Is(err, errs.ErrInvalidArgument),
		errors.Is(err, pkgcrypto.ErrWeakPassword):
		return status.Errorf(codes.InvalidArgument, "%s: %v", op, err)
	case errors.Is(err, errs.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, errs.ErrDuplicateGoal), errors.Is(err, errs.ErrAlreadyExists):
		return status.Errorf(codes.AlreadyExists, "%s: %v", op, err)
	case errors.Is(err, errs.ErrPermissionDenied):
		return status.Error(codes.PermissionDenied, "permission denied")
	case errors.Is(err, errs.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, "bad credentials")
	case errors.Is(err, errs.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, "rate limited")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, op)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, op)
	default:
		return status.Errorf(codes.Internal, "%s: %v", op, err)
	}
}

func parseGoalID(s string) (uuid.UUID, error) {
	id, err := uuid.FromString(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, status.Error(codes.InvalidArgument, "bad id")
	}
	return id, nil
}

// --- Auth ---

// Register creates a new user account.
func (s *Server) Register(ctx context.Context, req *goalv1.RegisterRequest) (*goalv1.RegisterResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "empty email/password")
	}
	userID, err := s.auth.Register(ctx, req.Email, req.Password, req.DisplayName)
	if err != nil {
		return nil, toStatus("register", err)
	}
	return &goalv1.RegisterResponse{UserID: userID.String()}, nil
}

func remoteIP(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return ""
}

// Login authenticates a user and returns an access token with the profile.
func (s *Server) Login(ctx context.Context, req *goalv1.LoginRequest) (*goalv1.LoginResponse, error) {
	tok, u, err := s.auth.LoginWithIP(ctx, req.Email, req.Password, remoteIP(ctx))
	if err != nil {
		return nil, toStatus("login", err)
	}
	return &goalv1.LoginResponse{
		AccessToken: tok.AccessToken,
		ExpiresAt:   convert.Timestamp(tok.ExpiresAt),
		Profile:     convert.ToWireProfile(u),
	}, nil
}

// GetProfile returns the caller's profile.
func (s *Server) GetProfile(ctx context.Context, _ *goalv1.Empty) (*goalv1.Profile, error) {
	userID, err := s.callerID(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.auth.Profile(ctx, userID)
	if err != nil {
		return nil, toStatus("profile", err)
	}
	p := convert.ToWireProfile(u)
	return &p, nil
}

// UpdateProfile changes the caller's display name.
func (s *Server) UpdateProfile(ctx context.Context, req *goalv1.UpdateProfileRequest) (*goalv1.Profile, error) {
	userID, err := s.callerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.auth.UpdateDisplayName(ctx, userID, req.DisplayName); err != nil {
		return nil, toStatus("update profile", err)
	}
	u, err := s.auth.Profile(ctx, userID)
	if err != nil {
		return nil, toStatus("profile", err)
	}
	p := convert.ToWireProfile(u)
	return &p, nil
}

// --- Goals ---

// ListGoals returns the caller's live goals.
func (s *Server) ListGoals(ctx context.Context, _ *goalv1.Empty) (*goalv1.ListGoalsResponse, error) {
	userID, err := s.callerID(ctx)
	if err != nil {
		return nil, err
	}
	gs, err := s.goals.List(ctx, userID)
	if err != nil {
		return nil, toStatus("list goals", err)
	}
	return &goalv1.ListGoalsResponse{Goals: convert.ToWireGoals(gs)}, nil
}

// ListBackupGoals returns the caller's soft-deleted goals, most recent first.
func (s *Server) ListBackupGoals(ctx context.Context, _ *goalv1.Empty) (*goalv1.ListBackupGoalsResponse, error) {
	userID, err := s.callerID(ctx)
	if err != nil {
		return nil, err
	}
	bs, err := s.goals.ListDeleted(ctx, userID)
	if err != nil {
		return nil, toStatus("list backup", err)
	}
	return &goalv1.ListBackupGoalsResponse{Goals: convert.ToWireBackupGoals(bs)}, nil
}

// CreateGoal inserts a goal with a server-assigned id.
func (s *Server) CreateGoal(ctx context.Context, req *goalv1.CreateGoalRequest) (*goalv1.GoalResponse, error) {
	userID, err := s.callerID(ctx)
	if err != nil {
		return nil, err
	}
	g, err := s.goals.Create(ctx, userID, req.Text)
	if err != nil {
		return nil, toStatus("create goal", err)
	}
	return &goalv1.GoalResponse{Goal: convert.ToWireGoal(g)}, nil
}

// UpsertGoal writes a goal at a known id.
func (s *Server) UpsertGoal(ctx context.Context, req *goalv1.UpsertGoalRequest) (*goalv1.Empty, error) {
	userID, err := s.callerID(ctx)
	if err != nil {
		return nil, err
	}
	g, err := convert.FromWireGoal(req.Goal)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad goal: %v", err)
	}
	if err := s.goals.Upsert(ctx, userID, g); err != nil {
		return nil, toStatus("upsert goal", err)
	}
	return &goalv1.Empty{}, nil
}

// DeleteGoal removes a live goal without a backup.
func (s *Server) DeleteGoal(ctx context.Context, req *goalv1.GoalIDRequest) (*goalv1.Empty, error) {
	userID, err := s.callerID(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseGoalID(req.ID)
	if err != nil {
		return nil, err
	}
	if err := s.goals.Delete(ctx, userID, id); err != nil {
		return nil, toStatus("delete goal", err)
	}
	return &goalv1.Empty{}, nil
}

// SoftDeleteGoal moves a goal into the backup collection.
func (s *Server) SoftDeleteGoal(ctx context.Context, req *goalv1.SoftDeleteGoalRequest) (*goalv1.SoftDeleteGoalResponse, error) {
	userID, err := s.callerID(ctx)
	if err != nil {
		return nil, err
	}
	g, err := convert.FromWireGoal(req.Goal)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad goal: %v", err)
	}
	b, err := s.goals.SoftDelete(ctx, userID, g, convert.Time(req.DeletedAt))
	if err != nil {
		return nil, toStatus("soft delete", err)
	}
	return &goalv1.SoftDeleteGoalResponse{Backup: convert.ToWireBackupGoal(b)}, nil
}

// RestoreGoal moves a backup goal back to the live collection.
func (s *Server) RestoreGoal(ctx context.Context, req *goalv1.GoalIDRequest) (*goalv1.GoalResponse, error) {
	userID, err := s.callerID(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseGoalID(req.ID)
	if err != nil {
		return nil, err
	}
	g, err := s.goals.Restore(ctx, userID, id)
	if err != nil {
		return nil, toStatus("restore", err)
	}
	return &goalv1.GoalResponse{Goal: convert.ToWireGoal(g)}, nil
}

// PurgeGoal archives a backup goal and removes it.
func (s *Server) PurgeGoal(ctx context.Context, req *goalv1.GoalIDRequest) (*goalv1.PurgeGoalResponse, error) {
	userID, err := s.callerID(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseGoalID(req.ID)
	if err != nil {
		return nil, err
	}
	a, err := s.goals.Purge(ctx, userID, id)
	if err != nil {
		return nil, toStatus("purge", err)
	}
	return &goalv1.PurgeGoalResponse{Archived: convert.ToWireArchivedGoal(a)}, nil
}

// callerID prefers the id stored by AuthUnary and falls back to parsing the token.
func (s *Server) callerID(ctx context.Context) (uuid.UUID, error) {
	if id, ok := UserIDFromCtx(ctx); ok {
		return id, nil
	}
	id, err := s.userIDFromCtx(ctx)
	if err != nil {
		return uuid.Nil, status.Error(codes.Unauthenticated, "no auth")
	}
	return id, nil
}

// userIDFromCtx verifies the HS256 bearer token and returns its subject.
// Every failure wraps errs.ErrUnauthenticated.
func (s *Server) userIDFromCtx(ctx context.Context) (uuid.UUID, error) {
	tok, err := bearerTokenFromMD(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", errs.ErrUnauthenticated, err)
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(tok, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.signKey, nil
	}, jwt.WithLeeway(30*time.Second))
	if err != nil || !parsed.Valid {
		return uuid.Nil, fmt.Errorf("%w: invalid token", errs.ErrUnauthenticated)
	}

	id, err := uuid.FromString(claims.Subject)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", errs.ErrUnauthenticated)
	}
	return id, nil
}

func bearerTokenFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", errors.New("no metadata")
	}
	for _, v := range md.Get("authorization") {
		v = strings.TrimSpace(v)
		if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
			t := strings.TrimSpace(v[7:])
			if t != "" {
				return t, nil
			}
		}
	}
	return "", errors.New("no bearer token")
}
