package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/events"
	"taskboard/internal/idgen"
	"taskboard/internal/kv"
	"taskboard/internal/persist"
	"taskboard/internal/store"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type recorder struct{ events []events.Event }

func (r *recorder) Append(_ context.Context, evt events.Event) error {
	r.events = append(r.events, evt)
	return nil
}

type testEnv struct {
	Ctx   context.Context
	KV    *kv.Memory
	Clock *clock
	Rec   *recorder
	Deps  store.Deps
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	mem := kv.NewMemory()
	c := &clock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	rec := &recorder{}
	return testEnv{
		Ctx:   context.Background(),
		KV:    mem,
		Clock: c,
		Rec:   rec,
		Deps: store.Deps{
			Adapter:  persist.New(mem, nil),
			IDs:      idgen.Sequence("id"),
			Now:      c.Now,
			Observer: rec,
		},
	}
}

// failingKV accepts reads but refuses writes.
type failingKV struct{ kv.Memory }

func (f *failingKV) Set(context.Context, string, []byte) error { return errors.New("disk full") }

func TestSnapshotWriteFailureIsReturned(t *testing.T) {
	env := newTestEnv(t)
	env.Deps.Adapter = persist.New(&failingKV{}, nil)
	projects := store.OpenProjects(env.Ctx, env.Deps)
	_, err := projects.Add(env.Ctx, "Home")
	require.Error(t, err)
	assert.Len(t, projects.Items(), 1, "memory is updated before the write")
	assert.Empty(t, env.Rec.events, "observer is only told about persisted mutations")
}
