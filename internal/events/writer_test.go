package events_test

import (
	"context"
	"testing"
	"time"

	"taskboard/internal/db"
	"taskboard/internal/events"
	"taskboard/internal/migrate"
)

func TestAppendAndLatest(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	w := events.Writer{DB: conn, Now: func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }}
	ctx := context.Background()
	for _, evt := range []events.Event{
		{Domain: "projects", Op: "add", EntityID: "p1", Payload: events.EventPayload{"name": "Home"}},
		{Domain: "tasks", Op: "add", EntityID: "t1"},
		{Domain: "tasks", Op: "delete_by_project", EntityID: "p1"},
	} {
		if err := w.Append(ctx, evt); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	all, err := w.Latest(ctx, 10, "")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(all) != 3 || all[0].Op != "delete_by_project" {
		t.Fatalf("unexpected events: %+v", all)
	}
	tasks, err := w.Latest(ctx, 1, "tasks")
	if err != nil {
		t.Fatalf("latest tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].EntityID != "p1" {
		t.Fatalf("unexpected task events: %+v", tasks)
	}
	projects, err := w.Latest(ctx, 0, "projects")
	if err != nil {
		t.Fatalf("latest projects: %v", err)
	}
	if len(projects) != 1 || projects[0].Payload["name"] != "Home" {
		t.Fatalf("unexpected project events: %+v", projects)
	}
}
