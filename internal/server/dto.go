package server

import (
	"taskboard/internal/app"
	"taskboard/internal/domain"
	"taskboard/internal/events"
)

// Request payloads

type LoginRequest struct {
	Email    string `json:"email" example:"ann@example.com"`
	Password string `json:"password"`
}

type CreateProjectRequest struct {
	Name string `json:"name" example:"Home"`
}

type RenameProjectRequest struct {
	Name string `json:"name"`
}

type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	DueDate     string  `json:"dueDate" example:"2024-03-15" doc:"YYYY-MM-DD in the display timezone, or RFC3339"`
	Status      string  `json:"status,omitempty" enum:"pending,in-progress,completed"`
	ProjectID   *string `json:"projectId,omitempty"`
}

func (r CreateTaskRequest) toInput(a *app.App) (domain.TaskInput, error) {
	due, err := app.ParseDueDate(r.DueDate, a.Location)
	if err != nil {
		return domain.TaskInput{}, err
	}
	in := domain.TaskInput{Title: r.Title, Description: r.Description, DueDate: due}
	if r.Status != "" {
		if in.Status, err = domain.ParseStatus(r.Status); err != nil {
			return domain.TaskInput{}, err
		}
	}
	if r.ProjectID != nil {
		in.ProjectID = *r.ProjectID
	}
	return in, nil
}

type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
	Status      *string `json:"status,omitempty" enum:"pending,in-progress,completed"`
	ProjectID   *string `json:"projectId,omitempty" doc:"Empty string unassigns the task"`
}

func (r UpdateTaskRequest) toPatch(a *app.App) (domain.TaskPatch, error) {
	patch := domain.TaskPatch{Title: r.Title, Description: r.Description, ProjectID: r.ProjectID}
	if r.DueDate != nil {
		due, err := app.ParseDueDate(*r.DueDate, a.Location)
		if err != nil {
			return domain.TaskPatch{}, err
		}
		patch.DueDate = &due
	}
	if r.Status != nil {
		st, err := domain.ParseStatus(*r.Status)
		if err != nil {
			return domain.TaskPatch{}, err
		}
		patch.Status = &st
	}
	return patch, nil
}

type SetTaskStatusRequest struct {
	Status string `json:"status" enum:"pending,in-progress,completed"`
}

// Responses

type SessionResponse struct {
	User  domain.AuthUser `json:"user"`
	Token string          `json:"token"`
}

type EventResponse struct {
	ID       int64          `json:"id"`
	TS       string         `json:"ts" format:"date-time"`
	Domain   string         `json:"domain"`
	Op       string         `json:"op"`
	EntityID string         `json:"entity_id,omitempty"`
	Payload  map[string]any `json:"payload,omitempty"`
}

func sessionResponse(s domain.AuthState) SessionResponse {
	var out SessionResponse
	if s.User != nil {
		out.User = *s.User
	}
	if s.Token != nil {
		out.Token = *s.Token
	}
	return out
}

func mapEvents(items []events.Event) []EventResponse {
	out := make([]EventResponse, 0, len(items))
	for _, e := range items {
		out = append(out, EventResponse{
			ID:       e.ID,
			TS:       e.TS,
			Domain:   e.Domain,
			Op:       e.Op,
			EntityID: e.EntityID,
			Payload:  e.Payload,
		})
	}
	return out
}
