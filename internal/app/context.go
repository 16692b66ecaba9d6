package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"taskboard/internal/config"
	"taskboard/internal/db"
	"taskboard/internal/domain"
	"taskboard/internal/events"
	"taskboard/internal/idgen"
	"taskboard/internal/kv"
	"taskboard/internal/migrate"
	"taskboard/internal/persist"
	"taskboard/internal/store"
	"taskboard/internal/view"
)

// Options tune Open beyond what the config file carries.
type Options struct {
	Logger *log.Logger
	Now    func() time.Time
	IDs    idgen.Generator
	// Store replaces the configured storage backend; the journal is off.
	Store kv.Store
}

// App is the wired set of stores for one workspace.
type App struct {
	Projects *store.Projects
	Tasks    *store.Tasks
	Auth     *store.Auth
	Adapter  *persist.Adapter
	// Journal is nil unless the sqlite backend is used with journal.enabled.
	Journal  *events.Writer
	Location *time.Location
	Logger   *log.Logger

	now    func() time.Time
	closer func() error
}

// Open builds the configured key-value backend and rehydrates every store from it.
func Open(ctx context.Context, workspace string, cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("display timezone: %w", err)
	}
	ids := opts.IDs
	if ids == nil {
		if ids, err = idgen.New(cfg.IDs.Generator, cfg.IDs.Length); err != nil {
			return nil, err
		}
	}
	issuer, err := tokenIssuer(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{Location: loc, Logger: logger, now: now, closer: func() error { return nil }}
	var backend kv.Store
	switch {
	case opts.Store != nil:
		backend = opts.Store
	case cfg.Storage.Backend == "memory":
		backend = kv.NewMemory()
	case cfg.Storage.Backend == "redis":
		r, err := kv.NewRedis(ctx, kv.RedisOptions{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
			Prefix:   cfg.Storage.Redis.Prefix,
		})
		if err != nil {
			return nil, err
		}
		backend = r
		a.closer = r.Close
	case cfg.Storage.Backend == "sqlite", cfg.Storage.Backend == "":
		conn, err := openSQLite(ctx, workspace)
		if err != nil {
			return nil, err
		}
		backend = kv.SQLite{DB: conn, Now: now}
		if cfg.Journal.Enabled {
			a.Journal = &events.Writer{DB: conn, Now: now}
		}
		a.closer = conn.Close
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	a.Adapter = persist.New(backend, logger)
	if err := a.Adapter.Readable(ctx); err != nil {
		a.closer()
		return nil, err
	}
	deps := store.Deps{Adapter: a.Adapter, IDs: ids, Now: now, Logger: logger}
	if a.Journal != nil {
		deps.Observer = a.Journal
	}
	a.Projects = store.OpenProjects(ctx, deps)
	a.Tasks = store.OpenTasks(ctx, deps)
	a.Auth = store.OpenAuth(ctx, deps, issuer)
	return a, nil
}

func openSQLite(ctx context.Context, workspace string) (*sql.DB, error) {
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		return nil, err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, err
	}
	if _, err := migrate.Apply(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return conn, nil
}

func tokenIssuer(cfg *config.Config) (store.TokenIssuer, error) {
	switch cfg.Auth.Token {
	case "", "mock":
		return store.MockIssuer{}, nil
	case "jwt":
		if cfg.Auth.JWTSecret == "" {
			return nil, errors.New("auth.jwt_secret is required for jwt tokens")
		}
		return store.JWTIssuer{Secret: []byte(cfg.Auth.JWTSecret)}, nil
	default:
		return nil, fmt.Errorf("unknown token kind %q", cfg.Auth.Token)
	}
}

func (a *App) Close() error {
	return a.closer()
}

// Now returns the current time in the display timezone.
func (a *App) Now() time.Time {
	return a.now().In(a.Location)
}

// DeleteProject removes the project and then every task assigned to it.
func (a *App) DeleteProject(ctx context.Context, id string) error {
	if err := a.Projects.Delete(ctx, id); err != nil {
		return err
	}
	return a.Tasks.DeleteByProject(ctx, id)
}

// ListTasks applies f to the current tasks using the display timezone.
func (a *App) ListTasks(f view.Filter) []domain.Task {
	return view.Apply(a.Tasks.Items(), f, a.Now())
}

// Login rejects blank credentials before handing off to the auth store.
func (a *App) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrCredentialsRequired
	}
	return a.Auth.Login(ctx, email, password)
}

// ErrCredentialsRequired is returned when email or password is blank.
var ErrCredentialsRequired = errors.New("email and password are required")

// ErrNotAuthenticated is returned by callers gating on an active session.
var ErrNotAuthenticated = errors.New("not logged in; run `tb login`")

// RequireLogin reports ErrNotAuthenticated when no session is active.
func (a *App) RequireLogin() error {
	if !a.Auth.Authenticated() {
		return ErrNotAuthenticated
	}
	return nil
}

// ParseDueDate accepts YYYY-MM-DD (midnight in loc) or an RFC3339 instant and
// returns the UTC instant.
func ParseDueDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("due date is required")
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q (want YYYY-MM-DD or RFC3339)", s)
	}
	return t.UTC(), nil
}

// NewTaskInput fills the defaults of the task form: pending status and the
// selected project when none is given.
func NewTaskInput(in domain.TaskInput, selectedProject string) domain.TaskInput {
	if in.Status == "" {
		in.Status = domain.StatusPending
	}
	if in.ProjectID == "" {
		in.ProjectID = selectedProject
	}
	return in
}
