package view_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/domain"
	"taskboard/internal/view"
)

func date(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func ids(tasks []domain.Task) []string {
	out := []string{}
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestProjectFilterScenario(t *testing.T) {
	tasks := []domain.Task{
		{ID: "a", Status: domain.StatusPending, DueDate: date(2024, 1, 1, 0), ProjectID: "p1"},
		{ID: "b", Status: domain.StatusCompleted, DueDate: date(2024, 1, 10, 0), ProjectID: "p2"},
	}
	got := view.Apply(tasks, view.Filter{ProjectID: "p1", Status: view.StatusAll, Due: view.DueAll}, date(2024, 1, 5, 12))
	assert.Equal(t, []string{"a"}, ids(got))
}

func TestFilterCriteria(t *testing.T) {
	now := date(2024, 3, 15, 12)
	tasks := []domain.Task{
		{ID: "yesterday", Title: "Pay rent", Status: domain.StatusPending, DueDate: date(2024, 3, 14, 23), ProjectID: "home"},
		{ID: "this-morning", Title: "Standup", Description: "Daily SYNC", Status: domain.StatusInProgress, DueDate: date(2024, 3, 15, 8), ProjectID: "work"},
		{ID: "tonight", Title: "Dinner", Status: domain.StatusCompleted, DueDate: date(2024, 3, 15, 20), ProjectID: "home"},
		{ID: "tomorrow", Title: "Review", Description: "sync with team", Status: domain.StatusPending, DueDate: date(2024, 3, 16, 0), ProjectID: "work"},
		{ID: "unassigned", Title: "Misc", Status: domain.StatusPending, DueDate: date(2023, 12, 1, 0)},
	}
	cases := []struct {
		name   string
		filter view.Filter
		want   []string
	}{
		{"zero filter matches all", view.Filter{}, []string{"yesterday", "this-morning", "tonight", "tomorrow", "unassigned"}},
		{"project", view.Filter{ProjectID: "home"}, []string{"yesterday", "tonight"}},
		{"status", view.Filter{Status: "pending"}, []string{"yesterday", "tomorrow", "unassigned"}},
		{"query matches title or description case-insensitively", view.Filter{Query: "sYnC"}, []string{"this-morning", "tomorrow"}},
		{"query no match", view.Filter{Query: "zzz"}, []string{}},
		{"today includes earlier and later today", view.Filter{Due: view.DueToday}, []string{"this-morning", "tonight"}},
		{"overdue excludes earlier today", view.Filter{Due: view.DueOverdue}, []string{"yesterday", "unassigned"}},
		{"upcoming excludes later today", view.Filter{Due: view.DueUpcoming}, []string{"tomorrow"}},
		{"conjunctive", view.Filter{ProjectID: "work", Status: "pending", Query: "sync", Due: view.DueUpcoming}, []string{"tomorrow"}},
		{"conjunctive empty", view.Filter{ProjectID: "home", Due: view.DueUpcoming}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(view.Apply(tasks, tc.filter, now)))
		})
	}
}

func TestFilterIsIdempotentAndDoesNotMutate(t *testing.T) {
	now := date(2024, 3, 15, 12)
	tasks := []domain.Task{
		{ID: "1", Title: "alpha", Status: domain.StatusPending, DueDate: date(2024, 3, 20, 0)},
		{ID: "2", Title: "beta", Status: domain.StatusCompleted, DueDate: date(2024, 3, 1, 0)},
		{ID: "3", Title: "alphabet", Status: domain.StatusPending, DueDate: date(2024, 3, 15, 0)},
	}
	snapshot := append([]domain.Task(nil), tasks...)
	f := view.Filter{Query: "alpha", Status: "pending"}
	once := view.Apply(tasks, f, now)
	twice := view.Apply(once, f, now)
	assert.Equal(t, once, twice)
	assert.Equal(t, snapshot, tasks)
}

func TestDueBucketsUseNowLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 2024-03-15 20:00 UTC is already 2024-03-16 in Tokyo.
	tasks := []domain.Task{{ID: "x", DueDate: date(2024, 3, 15, 20)}}
	now := time.Date(2024, 3, 16, 10, 0, 0, 0, tokyo)
	assert.Equal(t, []string{"x"}, ids(view.Apply(tasks, view.Filter{Due: view.DueToday}, now)))
	assert.Empty(t, view.Apply(tasks, view.Filter{Due: view.DueToday}, now.In(time.UTC).Add(24*time.Hour)))
}

func TestParse(t *testing.T) {
	b, err := view.ParseDue("")
	require.NoError(t, err)
	assert.Equal(t, view.DueAll, b)
	b, err = view.ParseDue("Overdue")
	require.NoError(t, err)
	assert.Equal(t, view.DueOverdue, b)
	_, err = view.ParseDue("soon")
	assert.Error(t, err)

	s, err := view.ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, view.StatusAll, s)
	s, err = view.ParseStatus("in-progress")
	require.NoError(t, err)
	assert.Equal(t, "in-progress", s)
	_, err = view.ParseStatus("done")
	assert.Error(t, err)
}
