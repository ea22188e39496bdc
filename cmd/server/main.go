// Command gk-goals-server serves goals, the recycle bin and accounts over gRPC.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/and161185/goalkeeper/internal/api/goalv1"
	"github.com/and161185/goalkeeper/internal/limiter"
	"github.com/and161185/goalkeeper/internal/migrate"
	"github.com/and161185/goalkeeper/internal/repository"
	"github.com/and161185/goalkeeper/internal/repository/memory"
	"github.com/and161185/goalkeeper/internal/repository/postgres"
	"github.com/and161185/goalkeeper/internal/server/config"
	grpcserver "github.com/and161185/goalkeeper/internal/server/grpc"
	"github.com/and161185/goalkeeper/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// stores bundles the repositories and limiter chosen by configuration.
type stores struct {
	users   repository.UserRepository
	goals   repository.GoalRepository
	limiter limiter.Limiter
	close   func()
}

func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*stores, error) {
	policy := limiter.Policy{Window: cfg.Limiter.Window, MaxFails: cfg.Limiter.MaxFails, BlockFor: cfg.Limiter.BlockFor}

	if cfg.DatabaseDSN == "" {
		log.Warn("no database dsn, using in-memory store")
		return &stores{
			users:   memory.NewUserRepo(),
			goals:   memory.NewGoalRepo(),
			limiter: limiter.NewMemory(policy),
			close:   func() {},
		}, nil
	}

	if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
		return nil, fmt.Errorf("migrate up: %w", err)
	}
	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	return &stores{
		users:   postgres.NewUserRepo(db),
		goals:   postgres.NewGoalRepo(db),
		limiter: limiter.NewPG(db.Pool, policy),
		close:   db.Close,
	}, nil
}

func serverCreds(cfg *config.Config) (grpc.ServerOption, bool, error) {
	if cfg.TLSCert == "" {
		return nil, false, nil
	}
	creds, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
	if err != nil {
		return nil, false, fmt.Errorf("load TLS cert/key: %w", err)
	}
	return grpc.Creds(creds), true, nil
}

// main loads configuration, opens the store and serves until SIGINT/SIGTERM.
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	authSvc := service.NewAuthService(st.users, []byte(cfg.JWTKey), cfg.AccessTTL, st.limiter)
	goalSvc := service.NewGoalService(st.goals)
	app := grpcserver.New(authSvc, goalSvc, []byte(cfg.JWTKey))

	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			grpcserver.RecoverUnary(logger),
			grpcserver.AuthUnary(app),
			grpcserver.LoggingUnary(logger),
		),
	}
	credsOpt, tlsOn, err := serverCreds(cfg)
	if err != nil {
		return err
	}
	if tlsOn {
		opts = append(opts, credsOpt)
	} else {
		logger.Warn("TLS disabled, serving plaintext")
	}
	s := grpc.NewServer(opts...)
	goalv1.RegisterGoalKeeperServer(s, app)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus(goalv1.ServiceName, healthpb.HealthCheckResponse_SERVING)
	if cfg.Dev {
		reflection.Register(s)
	}

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", lis.Addr().String()), zap.Bool("tls", tlsOn))
		errCh <- s.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		hs.Shutdown()
		done := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			s.Stop()
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}
