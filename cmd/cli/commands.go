package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/goalkeeper/internal/errs"
	"github.com/and161185/goalkeeper/internal/goals"
	"github.com/and161185/goalkeeper/internal/model"
)

// exec runs one subcommand; args[0] is its name.
func (a *app) exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "register":
		return a.cmdRegister(ctx, rest)
	case "login":
		return a.cmdLogin(ctx, rest)
	case "logout":
		if err := a.account.Logout(); err != nil {
			return err
		}
		a.printJSON(map[string]string{"status": "signed out"})
		return nil
	case "whoami":
		return a.cmdWhoami()
	case "profile":
		return a.cmdProfile(ctx, rest)
	case "list":
		return a.cmdList(ctx)
	case "add":
		return a.cmdAdd(ctx, rest)
	case "toggle":
		return a.cmdToggle(ctx, rest)
	case "edit":
		return a.cmdEdit(ctx, rest)
	case "rm":
		return a.cmdRemove(ctx, rest)
	case "deleted":
		bs, err := a.mgr.Backup(ctx)
		if err != nil {
			return err
		}
		if bs == nil {
			bs = []model.BackupGoal{}
		}
		a.printJSON(bs)
		return nil
	case "restore":
		return a.cmdRestore(ctx, rest)
	case "restore-all":
		res, err := a.mgr.RestoreAll(ctx)
		if err != nil {
			return err
		}
		a.printJSON(res)
		return nil
	case "purge":
		return a.cmdPurge(ctx, rest)
	case "purge-all":
		res, err := a.mgr.PermanentlyDeleteAll(ctx)
		if err != nil {
			return err
		}
		a.printJSON(res)
		return nil
	case "dashboard":
		sum, err := a.dash.Summary(ctx)
		if err != nil {
			return err
		}
		a.printJSON(sum)
		return nil
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, fmt.Errorf("need -id: %w", errUsage)
	}
	id, err := uuid.FromString(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("bad -id %q: %w", s, errs.ErrInvalidArgument)
	}
	return id, nil
}

func (a *app) password(given string) (string, error) {
	if given != "" {
		return given, nil
	}
	return readPassword(a.in, a.errOut, "password")
}

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	fs := newFlagSet("register")
	email := fs.String("email", "", "email")
	name := fs.String("name", "", "display name")
	pass := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%v: %w", err, errUsage)
	}
	if *email == "" {
		return fmt.Errorf("need -email: %w", errUsage)
	}
	pw, err := a.password(*pass)
	if err != nil {
		return err
	}
	uid, err := a.account.Register(ctx, *email, pw, *name)
	if err != nil {
		return err
	}
	a.printJSON(map[string]string{"user_id": uid.String()})
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "email")
	pass := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%v: %w", err, errUsage)
	}
	if *email == "" {
		return fmt.Errorf("need -email: %w", errUsage)
	}
	pw, err := a.password(*pass)
	if err != nil {
		return err
	}
	sess, err := a.account.Login(ctx, *email, pw)
	if err != nil {
		return err
	}
	a.printJSON(whoami{UserID: sess.UserID.String(), Email: sess.Email, DisplayName: sess.DisplayName, ExpiresAt: sess.ExpiresAt})
	return nil
}

type whoami struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (a *app) cmdWhoami() error {
	sess, ok := a.store.Current()
	if !ok {
		return errs.ErrUnauthenticated
	}
	a.printJSON(whoami{UserID: sess.UserID.String(), Email: sess.Email, DisplayName: sess.DisplayName, ExpiresAt: sess.ExpiresAt})
	return nil
}

func (a *app) cmdProfile(ctx context.Context, args []string) error {
	fs := newFlagSet("profile")
	name := fs.String("name", "", "new display name")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%v: %w", err, errUsage)
	}
	if *name == "" {
		p, err := a.account.Profile(ctx)
		if err != nil {
			return err
		}
		a.printJSON(p)
		return nil
	}
	p, err := a.account.UpdateProfile(ctx, *name)
	if err != nil {
		return err
	}
	a.printJSON(p)
	return nil
}

type goalList struct {
	Online   bool         `json:"online"`
	Progress int          `json:"progress"`
	Goals    []model.Goal `json:"goals"`
}

func (a *app) cmdList(ctx context.Context) error {
	snap, err := a.mgr.Snapshot(ctx)
	if err != nil {
		return err
	}
	gs := snap.Goals
	if gs == nil {
		gs = []model.Goal{}
	}
	a.printJSON(goalList{Online: snap.Online, Progress: goals.Progress(gs), Goals: gs})
	return nil
}

func (a *app) cmdAdd(ctx context.Context, args []string) error {
	fs := newFlagSet("add")
	text := fs.String("text", "", "goal text")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%v: %w", err, errUsage)
	}
	if *text == "" && fs.NArg() > 0 {
		*text = strings.Join(fs.Args(), " ")
	}
	g, err := a.mgr.Create(ctx, *text)
	if err != nil {
		return err
	}
	a.printJSON(g)
	return nil
}

// synced is a mutated goal plus the outcome of its background write.
type synced struct {
	Goal model.Goal      `json:"goal"`
	Sync model.SyncState `json:"sync,omitempty"`
}

func (a *app) cmdToggle(ctx context.Context, args []string) error {
	fs := newFlagSet("toggle")
	id := fs.String("id", "", "goal id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%v: %w", err, errUsage)
	}
	gid, err := parseID(*id)
	if err != nil {
		return err
	}
	g, err := a.mgr.ToggleCompleted(ctx, gid)
	if err != nil {
		return err
	}
	a.mgr.Flush()
	a.printJSON(synced{Goal: g, Sync: a.mgr.SyncStatus(g.ID)})
	return nil
}

func (a *app) cmdEdit(ctx context.Context, args []string) error {
	fs := newFlagSet("edit")
	id := fs.String("id", "", "goal id")
	text := fs.String("text", "", "new text")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%v: %w", err, errUsage)
	}
	gid, err := parseID(*id)
	if err != nil {
		return err
	}
	g, err := a.mgr.EditText(ctx, gid, *text)
	if err != nil {
		return err
	}
	a.mgr.Flush()
	a.printJSON(synced{Goal: g, Sync: a.mgr.SyncStatus(g.ID)})
	return nil
}

func (a *app) cmdRemove(ctx context.Context, args []string) error {
	fs := newFlagSet("rm")
	id := fs.String("id", "", "goal id")
	text := fs.String("text", "", "goal text, for goals that never reached the server")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%v: %w", err, errUsage)
	}
	var (
		b   model.BackupGoal
		err error
	)
	switch {
	case *id != "":
		gid, perr := parseID(*id)
		if perr != nil {
			return perr
		}
		b, err = a.mgr.SoftDelete(ctx, gid)
	case *text != "":
		b, err = a.mgr.SoftDeleteText(ctx, *text)
	default:
		return fmt.Errorf("need -id or -text: %w", errUsage)
	}
	if err != nil {
		return err
	}
	a.printJSON(b)
	return nil
}

func (a *app) cmdRestore(ctx context.Context, args []string) error {
	fs := newFlagSet("restore")
	id := fs.String("id", "", "backup goal id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%v: %w", err, errUsage)
	}
	gid, err := parseID(*id)
	if err != nil {
		return err
	}
	g, err := a.mgr.Restore(ctx, gid)
	if err != nil {
		return err
	}
	a.printJSON(g)
	return nil
}

func (a *app) cmdPurge(ctx context.Context, args []string) error {
	fs := newFlagSet("purge")
	id := fs.String("id", "", "backup goal id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%v: %w", err, errUsage)
	}
	gid, err := parseID(*id)
	if err != nil {
		return err
	}
	arch, err := a.mgr.PermanentlyDelete(ctx, gid)
	if err != nil {
		return err
	}
	a.printJSON(arch)
	return nil
}
