package grpcserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/and161185/goalkeeper/internal/api/goalv1"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type fakeAddr struct{}

func (fakeAddr) Network() string { return "tcp" }
func (fakeAddr) String() string  { return "127.0.0.1:12345" }

func TestLoggingUnary_Passthrough(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	ic := LoggingUnary(zap.New(core))

	uid := uuid.Must(uuid.NewV4())
	ctx := peer.NewContext(WithUserID(context.Background(), uid), &peer.Peer{Addr: fakeAddr{}})
	info := &grpc.UnaryServerInfo{FullMethod: goalv1.FullMethod("ListGoals")}

	resp, err := ic(ctx, "req", info, func(context.Context, any) (any, error) { return "ok", nil })
	require.NoError(t, err)
	require.Equal(t, "ok", resp)

	wantErr := errors.New("boom")
	_, err = ic(ctx, "req", info, func(context.Context, any) (any, error) { return nil, wantErr })
	require.ErrorIs(t, err, wantErr)

	entries := logs.All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	require.Equal(t, info.FullMethod, fields["method"])
	require.Equal(t, "OK", fields["code"])
	require.Equal(t, "127.0.0.1:12345", fields["peer"])
	require.Equal(t, uid.String(), fields["uid"])
}

func TestRecoverUnary_CatchesPanic(t *testing.T) {
	t.Parallel()

	ic := RecoverUnary(zaptest.NewLogger(t))
	info := &grpc.UnaryServerInfo{FullMethod: "/goalkeeper.v1.GoalKeeper/Panic"}

	_, err := ic(context.Background(), "req", info, func(context.Context, any) (any, error) {
		panic("oh no")
	})
	require.Equal(t, codes.Internal, status.Code(err))
}

func TestRecoverUnary_NoPanicPassThrough(t *testing.T) {
	t.Parallel()

	ic := RecoverUnary(zaptest.NewLogger(t))
	info := &grpc.UnaryServerInfo{FullMethod: "/goalkeeper.v1.GoalKeeper/Ok"}

	resp, err := ic(context.Background(), "req", info, func(context.Context, any) (any, error) { return 42, nil })
	require.NoError(t, err)
	require.Equal(t, 42, resp)
}

func TestLoggingUnary_DurationReflectsHandler(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	ic := LoggingUnary(zap.New(core))
	info := &grpc.UnaryServerInfo{FullMethod: "/goalkeeper.v1.GoalKeeper/Sleep"}

	_, err := ic(context.Background(), "req", info, func(context.Context, any) (any, error) {
		time.Sleep(5 * time.Millisecond)
		return "done", nil
	})
	require.NoError(t, err)
	require.Len(t, logs.All(), 1)
	dur, ok := logs.All()[0].ContextMap()["dur"].(time.Duration)
	require.True(t, ok)
	require.GreaterOrEqual(t, dur, 5*time.Millisecond)
}

func TestAuthUnary(t *testing.T) {
	t.Parallel()

	s := &Server{signKey: []byte("secret")}
	ic := AuthUnary(s)
	sub := uuid.Must(uuid.NewV4())

	var seen uuid.UUID
	h := func(ctx context.Context, _ any) (any, error) {
		seen, _ = UserIDFromCtx(ctx)
		return "ok", nil
	}

	// public method without token
	_, err := ic(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: goalv1.FullMethod("Login")}, h)
	require.NoError(t, err)
	require.Equal(t, uuid.Nil, seen)

	// protected method without token
	_, err = ic(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: goalv1.FullMethod("ListGoals")}, h)
	require.Equal(t, codes.Unauthenticated, status.Code(err))

	// protected method with a valid token
	tok := makeJWT(t, sub.String(), s.signKey, jwtHS256, time.Now().UTC().Add(-time.Minute), 10*time.Minute)
	_, err = ic(ctxWithAuth(tok), nil, &grpc.UnaryServerInfo{FullMethod: goalv1.FullMethod("ListGoals")}, h)
	require.NoError(t, err)
	require.Equal(t, sub, seen)
}
