package store

import (
	"context"
	"sync"

	"taskboard/internal/domain"
	"taskboard/internal/events"
	"taskboard/internal/persist"
)

// Tasks is the ordered task collection, in creation order.
type Tasks struct {
	mu    sync.Mutex
	deps  Deps
	state domain.TasksState
}

// OpenTasks rehydrates the collection from its persisted snapshot.
func OpenTasks(ctx context.Context, deps Deps) *Tasks {
	state := persist.Load(ctx, deps.Adapter, persist.Tasks, domain.TasksState{Items: []domain.Task{}})
	if state.Items == nil {
		state.Items = []domain.Task{}
	}
	return &Tasks{deps: deps, state: state}
}

// Items returns a copy of the current tasks.
func (t *Tasks) Items() []domain.Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.Task(nil), t.state.Items...)
}

func (t *Tasks) Get(id string) (domain.Task, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i := t.index(id); i >= 0 {
		return t.state.Items[i], true
	}
	return domain.Task{}, false
}

// Add appends a new task. No field is validated; an empty title is accepted.
func (t *Tasks) Add(ctx context.Context, in domain.TaskInput) (domain.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.deps.now()
	task := domain.Task{
		ID:          t.deps.newID(),
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate.UTC(),
		Status:      in.Status,
		ProjectID:   in.ProjectID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	t.state.Items = append(t.state.Items, task)
	err := t.deps.commit(ctx, persist.Tasks, t.state, events.Event{
		Op: "add", EntityID: task.ID, Payload: events.EventPayload{"title": task.Title, "project_id": task.ProjectID},
	})
	return task, err
}

// Update overwrites the fields set in patch and refreshes UpdatedAt.
// Unknown ids are ignored and nothing is written.
func (t *Tasks) Update(ctx context.Context, id string, patch domain.TaskPatch) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.index(id)
	if i < 0 {
		return nil
	}
	task := &t.state.Items[i]
	changed := []string{}
	if patch.Title != nil {
		task.Title = *patch.Title
		changed = append(changed, "title")
	}
	if patch.Description != nil {
		task.Description = *patch.Description
		changed = append(changed, "description")
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate.UTC()
		changed = append(changed, "dueDate")
	}
	if patch.Status != nil {
		task.Status = *patch.Status
		changed = append(changed, "status")
	}
	if patch.ProjectID != nil {
		task.ProjectID = *patch.ProjectID
		changed = append(changed, "projectId")
	}
	task.UpdatedAt = t.deps.now()
	return t.deps.commit(ctx, persist.Tasks, t.state, events.Event{
		Op: "update", EntityID: id, Payload: events.EventPayload{"fields": changed},
	})
}

// Delete removes the task. The snapshot is written even when nothing matched.
func (t *Tasks) Delete(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Items = t.keep(func(task domain.Task) bool { return task.ID != id })
	return t.deps.commit(ctx, persist.Tasks, t.state, events.Event{Op: "delete", EntityID: id})
}

// DeleteByProject removes every task whose ProjectID equals projectID, keeping
// the rest in order. The snapshot is written even when nothing matched.
func (t *Tasks) DeleteByProject(ctx context.Context, projectID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	before := len(t.state.Items)
	t.state.Items = t.keep(func(task domain.Task) bool { return task.ProjectID != projectID })
	return t.deps.commit(ctx, persist.Tasks, t.state, events.Event{
		Op: "delete_by_project", EntityID: projectID, Payload: events.EventPayload{"removed": before - len(t.state.Items)},
	})
}

// SetStatus sets the status and refreshes UpdatedAt. Unknown ids are ignored.
func (t *Tasks) SetStatus(ctx context.Context, id string, status domain.TaskStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.setStatus(ctx, id, func(domain.TaskStatus) domain.TaskStatus { return status })
}

// Toggle flips completed tasks back to pending and everything else to completed.
func (t *Tasks) Toggle(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.setStatus(ctx, id, func(cur domain.TaskStatus) domain.TaskStatus {
		if cur == domain.StatusCompleted {
			return domain.StatusPending
		}
		return domain.StatusCompleted
	})
}

func (t *Tasks) setStatus(ctx context.Context, id string, next func(domain.TaskStatus) domain.TaskStatus) error {
	i := t.index(id)
	if i < 0 {
		return nil
	}
	task := &t.state.Items[i]
	from := task.Status
	task.Status = next(from)
	task.UpdatedAt = t.deps.now()
	return t.deps.commit(ctx, persist.Tasks, t.state, events.Event{
		Op: "set_status", EntityID: id, Payload: events.EventPayload{"from": string(from), "to": string(task.Status)},
	})
}

func (t *Tasks) keep(pred func(domain.Task) bool) []domain.Task {
	kept := make([]domain.Task, 0, len(t.state.Items))
	for _, task := range t.state.Items {
		if pred(task) {
			kept = append(kept, task)
		}
	}
	return kept
}

func (t *Tasks) index(id string) int {
	for i, task := range t.state.Items {
		if task.ID == id {
			return i
		}
	}
	return -1
}
