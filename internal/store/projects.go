package store

import (
	"context"
	"strings"
	"sync"

	"taskboard/internal/domain"
	"taskboard/internal/events"
	"taskboard/internal/persist"
)

// Projects is the ordered project collection; insertion order is preserved.
type Projects struct {
	mu    sync.Mutex
	deps  Deps
	state domain.ProjectsState
}

// OpenProjects rehydrates the collection from its persisted snapshot.
func OpenProjects(ctx context.Context, deps Deps) *Projects {
	state := persist.Load(ctx, deps.Adapter, persist.Projects, domain.ProjectsState{Items: []domain.Project{}})
	if state.Items == nil {
		state.Items = []domain.Project{}
	}
	return &Projects{deps: deps, state: state}
}

// Items returns a copy of the current projects.
func (p *Projects) Items() []domain.Project {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Project(nil), p.state.Items...)
}

func (p *Projects) Get(id string) (domain.Project, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i := p.index(id); i >= 0 {
		return p.state.Items[i], true
	}
	return domain.Project{}, false
}

// Add appends a project named after the trimmed name. Empty names are not
// rejected here; callers skip the call instead.
func (p *Projects) Add(ctx context.Context, name string) (domain.Project, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	project := domain.Project{
		ID:        p.deps.newID(),
		Name:      strings.TrimSpace(name),
		CreatedAt: p.deps.now(),
	}
	p.state.Items = append(p.state.Items, project)
	err := p.deps.commit(ctx, persist.Projects, p.state, events.Event{
		Op: "add", EntityID: project.ID, Payload: events.EventPayload{"name": project.Name},
	})
	return project, err
}

// Rename sets the name verbatim. Unknown ids are ignored and nothing is written.
func (p *Projects) Rename(ctx context.Context, id, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.index(id)
	if i < 0 {
		return nil
	}
	p.state.Items[i].Name = name
	return p.deps.commit(ctx, persist.Projects, p.state, events.Event{
		Op: "rename", EntityID: id, Payload: events.EventPayload{"name": name},
	})
}

// Delete removes the project. The snapshot is written even when nothing matched.
// Tasks of the project are left alone; see Tasks.DeleteByProject.
func (p *Projects) Delete(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := make([]domain.Project, 0, len(p.state.Items))
	for _, item := range p.state.Items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	p.state.Items = kept
	return p.deps.commit(ctx, persist.Projects, p.state, events.Event{Op: "delete", EntityID: id})
}

func (p *Projects) index(id string) int {
	for i, item := range p.state.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
