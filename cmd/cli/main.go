// Command gk-goals is the goals client: account, goal list, recycle bin and dashboard.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/and161185/goalkeeper/internal/api/goalv1"
	"github.com/and161185/goalkeeper/internal/client/cache"
	"github.com/and161185/goalkeeper/internal/client/config"
	"github.com/and161185/goalkeeper/internal/client/dashboard"
	"github.com/and161185/goalkeeper/internal/client/remote"
	"github.com/and161185/goalkeeper/internal/client/session"
	"github.com/and161185/goalkeeper/internal/goals"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const usageText = `gk-goals CLI
Usage:
  gk-goals [-config file] [-addr HOST:PORT] [-cacert file | -insecure | -plaintext] [-cache file|memory] [-v] <cmd> [args]

Account:
  version
  register  -email <email> [-name <display name>] [-p <password>]
  login     -email <email> [-p <password>]       (password prompted when omitted)
  logout
  whoami
  profile   [-name <display name>]

Goals:
  list
  add       -text <text>
  toggle    -id <uuid>
  edit      -id <uuid> -text <text>
  rm        -id <uuid> | -text <text>

Recycle bin:
  deleted
  restore   -id <uuid>
  restore-all
  purge     -id <uuid>
  purge-all

  dashboard
`

// errUsage makes run print usage and exit with 2.
var errUsage = errors.New("usage")

type cacheStore interface {
	goals.Cache
	Close() error
}

// app holds everything one CLI invocation needs.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
	store   *session.Store
	account *remote.Account
	mgr     *goals.Manager
	dash    *dashboard.Service
	cache   cacheStore
	unsub   func()
}

func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func openCache(ctx context.Context, cfg *config.Config) (cacheStore, error) {
	if cfg.CachePath == config.CacheMemory {
		return cache.NewMemory(), nil
	}
	return cache.OpenSQLite(ctx, cfg.CacheFile())
}

// newApp wires the session, cache, remote adapter and goal manager over cc.
func newApp(ctx context.Context, cfg *config.Config, cc grpc.ClientConnInterface, log *zap.Logger) (*app, error) {
	store, err := session.Open(cfg.ConfigDir)
	if err != nil {
		return nil, err
	}
	c, err := openCache(ctx, cfg)
	if err != nil {
		return nil, err
	}

	cl := goalv1.NewGoalKeeperClient(cc)
	adapter := remote.NewAdapter(cl, store, cfg.RPCTimeout)
	mgr := goals.NewManager(store, adapter, c, log, goals.WithSyncTimeout(cfg.SyncTimeout))
	unsub := store.Subscribe(func(s session.Session, signedIn bool) {
		mgr.OnAuthChange(s.UserID, signedIn)
	})
	quotes := dashboard.NewQuoteFetcher(cfg.QuoteURL, http.DefaultClient, cfg.QuoteTimeout)

	return &app{
		cfg:     cfg,
		log:     log,
		in:      os.Stdin,
		out:     os.Stdout,
		errOut:  os.Stderr,
		store:   store,
		account: remote.NewAccount(cl, store),
		mgr:     mgr,
		dash:    dashboard.NewService(store, mgr, quotes, cfg.Upcoming, log),
		cache:   c,
		unsub:   unsub,
	}, nil
}

// close lets queued remote writes finish before the process exits.
func (a *app) close() {
	a.unsub()
	a.mgr.Flush()
	a.mgr.Close()
	if err := a.cache.Close(); err != nil {
		a.log.Warn("close cache", zap.Error(err))
	}
}

func (a *app) printJSON(v any) {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// main parses global flags and dispatches the subcommand.
func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, rest, err := config.Load(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprint(os.Stderr, usageText)
			return 2
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if len(rest) < 1 {
		fmt.Fprint(os.Stderr, usageText)
		return 2
	}
	if rest[0] == "version" {
		fmt.Printf("gk-goals %s (%s)\n", version, buildDate)
		return 0
	}

	log := newLogger(cfg.Verbose)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.RPCTimeout)
	defer cancel()

	cc, err := dial(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cc.Close()

	a, err := newApp(ctx, cfg, cc, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer a.close()

	if err := a.exec(ctx, rest); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usageText)
			return 2
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
