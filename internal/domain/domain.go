package domain

import (
	"fmt"
	"time"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

// Statuses lists every task status in display order.
var Statuses = []TaskStatus{StatusPending, StatusInProgress, StatusCompleted}

// ParseStatus accepts one of the concrete task statuses.
func ParseStatus(s string) (TaskStatus, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid status %q (want pending, in-progress or completed)", s)
}

type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt" format:"date-time"`
}

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     time.Time  `json:"dueDate" format:"date-time"`
	Status      TaskStatus `json:"status" enum:"pending,in-progress,completed"`
	// ProjectID is empty for unassigned tasks and may point at a deleted project.
	ProjectID string    `json:"projectId"`
	CreatedAt time.Time `json:"createdAt" format:"date-time"`
	UpdatedAt time.Time `json:"updatedAt" format:"date-time"`
}

// TaskInput carries the caller-supplied fields of a new task.
type TaskInput struct {
	Title       string
	Description string
	DueDate     time.Time
	Status      TaskStatus
	ProjectID   string
}

// TaskPatch is a shallow partial update; nil fields keep their prior value.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Status      *TaskStatus
	ProjectID   *string
}

type AuthUser struct {
	Email string `json:"email"`
}

// AuthState is the persisted auth snapshot; a nil User means anonymous.
type AuthState struct {
	User  *AuthUser `json:"user"`
	Token *string   `json:"token"`
}

type ProjectsState struct {
	Items []Project `json:"items"`
}

type TasksState struct {
	Items []Task `json:"items"`
}
