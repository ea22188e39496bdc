package remote

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
	"google.golang.org/grpc/metadata"

	"github.com/and161185/goalkeeper/internal/api/goalv1"
	"github.com/and161185/goalkeeper/internal/client/session"
	"github.com/and161185/goalkeeper/internal/convert"
	"github.com/and161185/goalkeeper/internal/errs"
)

// Account wraps the auth and profile RPCs and keeps the session store current.
type Account struct {
	cl    goalv1.GoalKeeperClient
	store *session.Store
}

func NewAccount(cl goalv1.GoalKeeperClient, store *session.Store) *Account {
	return &Account{cl: cl, store: store}
}

// Register creates an account. It does not sign in.
func (a *Account) Register(ctx context.Context, email, password, displayName string) (uuid.UUID, error) {
	resp, err := a.cl.Register(ctx, &goalv1.RegisterRequest{
		Email:       strings.TrimSpace(email),
		Password:    password,
		DisplayName: strings.TrimSpace(displayName),
	})
	if err != nil {
		return uuid.Nil, fromStatus("register", err)
	}
	return convert.ParseID(resp.UserID)
}

// Login authenticates and stores the resulting session, which notifies subscribers.
func (a *Account) Login(ctx context.Context, email, password string) (session.Session, error) {
	resp, err := a.cl.Login(ctx, &goalv1.LoginRequest{Email: strings.TrimSpace(email), Password: password})
	if err != nil {
		return session.Session{}, fromStatus("login", err)
	}
	uid, err := convert.ParseID(resp.Profile.UserID)
	if err != nil {
		return session.Session{}, fmt.Errorf("login: %w", err)
	}
	sess := session.Session{
		AccessToken: resp.AccessToken,
		ExpiresAt:   convert.Time(resp.ExpiresAt),
		UserID:      uid,
		Email:       resp.Profile.Email,
		DisplayName: resp.Profile.DisplayName,
	}
	if err := a.store.SignIn(sess); err != nil {
		return session.Session{}, err
	}
	return sess, nil
}

// Logout drops the stored session.
func (a *Account) Logout() error { return a.store.SignOut() }

func (a *Account) authed(ctx context.Context) (context.Context, error) {
	tok, ok := a.store.Token()
	if !ok {
		return nil, errs.ErrUnauthenticated
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+tok), nil
}

func (a *Account) Profile(ctx context.Context) (goalv1.Profile, error) {
	ctx, err := a.authed(ctx)
	if err != nil {
		return goalv1.Profile{}, err
	}
	p, err := a.cl.GetProfile(ctx, &goalv1.Empty{})
	if err != nil {
		return goalv1.Profile{}, fromStatus("get profile", err)
	}
	return *p, nil
}

// UpdateProfile changes the display name remotely, then in the stored session.
func (a *Account) UpdateProfile(ctx context.Context, displayName string) (goalv1.Profile, error) {
	ctx, err := a.authed(ctx)
	if err != nil {
		return goalv1.Profile{}, err
	}
	p, err := a.cl.UpdateProfile(ctx, &goalv1.UpdateProfileRequest{DisplayName: strings.TrimSpace(displayName)})
	if err != nil {
		return goalv1.Profile{}, fromStatus("update profile", err)
	}
	if err := a.store.UpdateProfile(p.DisplayName); err != nil {
		return goalv1.Profile{}, err
	}
	return *p, nil
}
