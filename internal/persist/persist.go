// Package persist mirrors whole-domain snapshots into a kv.Store as JSON text.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"taskboard/internal/kv"
)

type Domain string

const (
	Auth     Domain = "auth"
	Projects Domain = "projects"
	Tasks    Domain = "tasks"
)

var keys = map[Domain]string{
	Auth:     "tm_auth",
	Projects: "tm_projects",
	Tasks:    "tm_tasks",
}

// Domains lists every persisted domain.
var Domains = []Domain{Auth, Projects, Tasks}

// Key returns the storage key for a domain.
func Key(d Domain) string {
	if k, ok := keys[d]; ok {
		return k
	}
	return "tm_" + string(d)
}

// Adapter owns no state; it only serializes snapshots to and from the store.
type Adapter struct {
	Store  kv.Store
	Logger *log.Logger
}

func New(store kv.Store, logger *log.Logger) *Adapter {
	return &Adapter{Store: store, Logger: logger}
}

func (a *Adapter) logger() *log.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return log.New(io.Discard, "", 0)
}

// Save writes the full snapshot for d.
func (a *Adapter) Save(ctx context.Context, d Domain, snapshot any) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode %s snapshot: %w", d, err)
	}
	if err := a.Store.Set(ctx, Key(d), data); err != nil {
		return fmt.Errorf("write %s snapshot: %w", d, err)
	}
	return nil
}

// Load reads the snapshot for d. Absent, unreadable or corrupt data yields fallback.
func Load[T any](ctx context.Context, a *Adapter, d Domain, fallback T) T {
	raw, err := a.Store.Get(ctx, Key(d))
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			a.logger().Printf("WARNING: read %s snapshot: %v; using defaults", d, err)
		}
		return fallback
	}
	if len(raw) == 0 {
		return fallback
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		a.logger().Printf("WARNING: decode %s snapshot: %v; using defaults", d, err)
		return fallback
	}
	return out
}

// Readable reports the first backend read failure across all domains. Missing
// entries are not failures. Load masks read errors, so callers that go on to
// write snapshots should check this first.
func (a *Adapter) Readable(ctx context.Context) error {
	for _, d := range Domains {
		if _, err := a.Store.Get(ctx, Key(d)); err != nil && !errors.Is(err, kv.ErrNotFound) {
			return fmt.Errorf("read %s snapshot: %w", d, err)
		}
	}
	return nil
}

// Clear removes every domain's entry.
func (a *Adapter) Clear(ctx context.Context) error {
	var errs []error
	for _, d := range Domains {
		if err := a.Store.Remove(ctx, Key(d)); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", d, err))
		}
	}
	return errors.Join(errs...)
}
