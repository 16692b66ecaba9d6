package taskboardsdk_test

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/app"
	"taskboard/internal/config"
	"taskboard/internal/server"
	taskboardsdk "taskboard/sdk/go"
)

func newClient(t *testing.T) *taskboardsdk.Client {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Backend = "memory"
	cfg.Display.Timezone = "UTC"
	now := func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }
	a, err := app.Open(context.Background(), t.TempDir(), cfg, app.Options{Now: now})
	require.NoError(t, err)
	handler, err := server.New(server.Config{App: a, Logger: log.New(io.Discard, "", 0)})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		srv.Close()
		a.Close()
	})
	return taskboardsdk.New(srv.URL)
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	_, err := c.ListTasks(ctx, taskboardsdk.TaskQuery{})
	var apiErr *taskboardsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	session, err := c.Login(ctx, "ann@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", session.User.Email)

	work, err := c.CreateProject(ctx, "Work")
	require.NoError(t, err)
	c.SelectedProject = work.ID

	task, err := c.CreateTask(ctx, taskboardsdk.NewTask{Title: "Write report", Description: "Q1 numbers", DueDate: "2024-03-14"})
	require.NoError(t, err)
	assert.Equal(t, work.ID, task.ProjectID)
	assert.Equal(t, "pending", task.Status)

	task, err = c.SetTaskStatus(ctx, task.ID, "in-progress")
	require.NoError(t, err)
	assert.Equal(t, "in-progress", task.Status)

	overdue, err := c.ListTasks(ctx, taskboardsdk.TaskQuery{Due: "overdue", Query: "q1"})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, task.ID, overdue[0].ID)

	renamed, err := c.RenameProject(ctx, work.ID, "Office")
	require.NoError(t, err)
	assert.Equal(t, "Office", renamed.Name)

	require.NoError(t, c.DeleteProject(ctx, work.ID))
	all, err := c.ListTasks(ctx, taskboardsdk.TaskQuery{})
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = c.Events(ctx, "", 5)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	require.NoError(t, c.Logout(ctx))
	_, err = c.ListProjects(ctx)
	assert.Error(t, err)
}
