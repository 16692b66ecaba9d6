// Package store holds the three client-local state containers (projects, tasks,
// auth). Each mutation updates memory, then writes the domain's full snapshot
// through the persistence adapter before returning.
//
// Operations never report "not found": unknown ids are silent no-ops. The only
// error a mutation returns is a failed snapshot write, in which case the
// in-memory change has already been applied.
package store

import (
	"context"
	"io"
	"log"
	"time"

	"taskboard/internal/events"
	"taskboard/internal/idgen"
	"taskboard/internal/persist"
)

// Observer is notified after each successful mutation.
type Observer interface {
	Append(ctx context.Context, evt events.Event) error
}

// Deps are the collaborators shared by every store.
type Deps struct {
	Adapter  *persist.Adapter
	IDs      idgen.Generator
	Now      func() time.Time
	Observer Observer
	Logger   *log.Logger
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

func (d Deps) newID() string {
	if d.IDs == nil {
		return idgen.UUID().NewID()
	}
	return d.IDs.NewID()
}

func (d Deps) logger() *log.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return log.New(io.Discard, "", 0)
}

// commit persists the snapshot and then notifies the observer. Observer
// failures are logged, never returned.
func (d Deps) commit(ctx context.Context, dom persist.Domain, snapshot any, evt events.Event) error {
	if err := d.Adapter.Save(ctx, dom, snapshot); err != nil {
		d.logger().Printf("ERROR: %v", err)
		return err
	}
	if d.Observer != nil {
		evt.Domain = string(dom)
		if err := d.Observer.Append(ctx, evt); err != nil {
			d.logger().Printf("WARNING: journal %s.%s: %v", dom, evt.Op, err)
		}
	}
	return nil
}
