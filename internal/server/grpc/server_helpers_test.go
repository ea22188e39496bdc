package grpcserver

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"

	"github.com/and161185/goalkeeper/internal/errs"
)

var jwtHS256 = jwt.SigningMethodHS256

func makeJWT(t *testing.T, sub string, key []byte, method jwt.SigningMethod, iat time.Time, ttl time.Duration) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, jwt.RegisteredClaims{
		Subject:   sub,
		IssuedAt:  jwt.NewNumericDate(iat),
		NotBefore: jwt.NewNumericDate(iat),
		ExpiresAt: jwt.NewNumericDate(iat.Add(ttl)),
	}).SignedString(key)
	require.NoError(t, err)
	return s
}

func ctxWithAuth(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
}

func TestBearerTokenFromMD(t *testing.T) {
	t.Parallel()

	tok, err := bearerTokenFromMD(ctxWithAuth("abc.def.ghi"))
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", tok)

	bad := map[string]context.Context{
		"basic scheme": metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Basic foo")),
		"empty token":  metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer   ")),
		"no metadata":  context.Background(),
	}
	for name, ctx := range bad {
		_, err := bearerTokenFromMD(ctx)
		assert.Error(t, err, name)
	}
}

func TestUserIDFromCtx(t *testing.T) {
	t.Parallel()

	s := &Server{signKey: []byte("goal-secret")}
	sub := uuid.Must(uuid.NewV4())
	now := time.Now().UTC()

	id, err := s.userIDFromCtx(ctxWithAuth(makeJWT(t, sub.String(), s.signKey, jwtHS256, now.Add(-time.Minute), 10*time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, sub, id)

	rejected := map[string]context.Context{
		"no metadata": context.Background(),
		"expired":     ctxWithAuth(makeJWT(t, sub.String(), s.signKey, jwtHS256, now.Add(-2*time.Hour), -time.Hour)),
		"bad subject": ctxWithAuth(makeJWT(t, "not-a-uuid", s.signKey, jwtHS256, now, time.Hour)),
		"nil subject": ctxWithAuth(makeJWT(t, uuid.Nil.String(), s.signKey, jwtHS256, now, time.Hour)),
		"wrong alg":   ctxWithAuth(makeJWT(t, sub.String(), s.signKey, jwt.SigningMethodHS384, now, time.Hour)),
		"garbage":     ctxWithAuth("this-is-not-a-jwt"),
	}
	for name, ctx := range rejected {
		t.Run(name, func(t *testing.T) {
			_, err := s.userIDFromCtx(ctx)
			require.ErrorIs(t, err, errs.ErrUnauthenticated)
		})
	}
}
