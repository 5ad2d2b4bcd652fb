// psico is the clinic client: a local navigation UI plus a few session
// commands for scripting and troubleshooting.
//
// Usage:
//
//	psico [-config path] serve
//	psico [-config path] login -username ana [-password ...]
//	psico [-config path] logout
//	psico [-config path] whoami
//	psico [-config path] check /admin/buildings
//	psico [-config path] history [-action login] [-limit 20]
//
// The password may also come from PSICO_PASSWORD.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/psico-client/migrations"

	"github.com/nerrad567/psico-client/internal/access"
	"github.com/nerrad567/psico-client/internal/audit"
	"github.com/nerrad567/psico-client/internal/gateway"
	"github.com/nerrad567/psico-client/internal/infrastructure/config"
	"github.com/nerrad567/psico-client/internal/infrastructure/database"
	"github.com/nerrad567/psico-client/internal/infrastructure/logging"
	"github.com/nerrad567/psico-client/internal/navigation"
	"github.com/nerrad567/psico-client/internal/session"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// errUsage is returned for a missing or unknown command.
var errUsage = errors.New("usage: psico [-config path] serve|login|logout|whoami|check <path>|history")

// run parses args and executes one command, writing results to out.
func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("psico", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", getConfigPath(), "path to the YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	command, rest := fs.Arg(0), fs.Args()[1:]
	switch command {
	case "serve", "login", "logout", "whoami", "check", "history":
	default:
		return fmt.Errorf("unknown command %q: %w", command, errUsage)
	}

	a, err := newApp(ctx, *configPath)
	if err != nil {
		return err
	}
	defer a.close()

	switch command {
	case "serve":
		return a.serve(ctx, out)
	case "login":
		return a.login(ctx, rest, out)
	case "logout":
		a.gateway.Logout()
		fmt.Fprintln(out, "logged out")
		return nil
	case "whoami":
		a.whoami(out)
		return nil
	case "history":
		return a.history(ctx, rest, out)
	default:
		return a.check(rest, out)
	}
}

func getConfigPath() string {
	if path := os.Getenv("PSICO_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// app holds the wired components shared by every command.
type app struct {
	cfg     *config.Config
	log     *logging.Logger
	db      *database.DB
	session *session.Session
	gateway *gateway.Client
	guard   *access.Guard
	events  *audit.SQLiteRepository
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(cfg.Logging, version)
	log.Debug("configuration loaded", "path", configPath, "commit", commit)

	a := &app{cfg: cfg, log: log}

	// nil keeps the session in memory only
	var storage session.Storage
	var opts []gateway.Option
	if cfg.Storage.Enabled {
		db, err := database.Open(database.ConfigFrom(cfg.Storage))
		if err != nil {
			a.close()
			return nil, fmt.Errorf("opening database: %w", err)
		}
		a.db = db

		if err := db.Migrate(ctx); err != nil {
			a.close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		storage = session.NewSQLiteStorage(db)
		a.events = audit.NewSQLiteRepository(db.DB)
		opts = append(opts, gateway.WithAudit(a.events))
	}

	store := session.NewTokenStore(ctx, storage, log)
	a.session = session.New(store, log)
	a.gateway = gateway.New(cfg.API, store, log, opts...)
	a.guard = access.NewGuard(a.session, log)
	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Error("error closing database", "error", err)
		}
	}
	if err := a.log.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error closing log: %v\n", err)
	}
}

// serve runs the navigation UI until ctx is cancelled.
func (a *app) serve(ctx context.Context, out io.Writer) error {
	srv, err := navigation.New(navigation.Deps{
		Config:  a.cfg.UI,
		Session: a.session,
		Guard:   a.guard,
		Gateway: a.gateway,
		Logger:  a.log,
	})
	if err != nil {
		return fmt.Errorf("creating UI server: %w", err)
	}

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting UI server: %w", err)
	}
	fmt.Fprintf(out, "psico %s listening on http://%s\n", version, srv.Addr())

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return srv.Close()
}

func (a *app) login(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	username := fs.String("username", os.Getenv("PSICO_USERNAME"), "account username")
	password := fs.String("password", os.Getenv("PSICO_PASSWORD"), "account password")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing login flags: %w", err)
	}

	_, err := a.gateway.Authenticate(ctx, gateway.Credentials{
		Username: *username,
		Password: *password,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", gateway.UserMessage(err), err)
	}

	role, ok := a.session.Role()
	if !ok {
		fmt.Fprintln(out, "logged in without a recognised role")
		return nil
	}
	fmt.Fprintf(out, "logged in as %s, home %s\n", role, access.HomePath(role, ok))
	return nil
}

func (a *app) whoami(out io.Writer) {
	if !a.session.IsLoggedIn() {
		fmt.Fprintln(out, "logged in: no")
		return
	}
	fmt.Fprintln(out, "logged in: yes")

	if role, ok := a.session.Role(); ok {
		fmt.Fprintf(out, "role: %s\n", role)
	} else {
		fmt.Fprintln(out, "role: none")
	}
	claims, ok := a.session.Claims()
	if !ok {
		return
	}
	if sub, ok := session.Subject(claims); ok {
		fmt.Fprintf(out, "subject: %s\n", sub)
	}
	if exp, ok := session.ExpiresAt(claims); ok {
		fmt.Fprintf(out, "expires: %s\n", exp.UTC().Format("2006-01-02T15:04:05Z"))
	}
}

// check prints the navigation decision for a path under the current session.
func (a *app) check(args []string, out io.Writer) error {
	if len(args) != 1 {
		return errUsage
	}
	path := args[0]

	var decision access.Decision
	switch route, ok := access.Lookup(path); {
	case access.IsPublic(path):
		decision = access.Allow()
	case ok:
		decision = a.guard.Evaluate(route.Roles)
	default:
		decision = access.RedirectTo(access.TargetLogin)
	}

	fmt.Fprintf(out, "%s: %s\n", path, decision)
	return nil
}

// history prints recorded session activity, newest first.
func (a *app) history(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	action := fs.String("action", "", "only show this action (login, login_failed, logout, register)")
	limit := fs.Int("limit", 20, "maximum number of events")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing history flags: %w", err)
	}

	if a.events == nil {
		return errors.New("history requires storage to be enabled")
	}

	result, err := a.events.List(ctx, audit.Filter{Action: audit.Action(*action), Limit: *limit})
	if err != nil {
		return fmt.Errorf("listing session events: %w", err)
	}

	for _, e := range result.Events {
		line := e.CreatedAt.Local().Format(time.DateTime) + " " + string(e.Action)
		if e.Username != "" {
			line += " " + e.Username
		}
		if e.Role != "" {
			line += " (" + e.Role + ")"
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "%d of %d events\n", len(result.Events), result.Total)
	return nil
}
