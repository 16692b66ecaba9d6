// Package view derives read-only task listings from the task store.
package view

import (
	"fmt"
	"strings"
	"time"

	"taskboard/internal/domain"
)

// StatusAll disables the status filter.
const StatusAll = "all"

type DueBucket string

const (
	DueAll      DueBucket = "all"
	DueOverdue  DueBucket = "overdue"
	DueToday    DueBucket = "today"
	DueUpcoming DueBucket = "upcoming"
)

// Filter selects tasks. Zero values match everything.
type Filter struct {
	ProjectID string
	Query     string
	// Status is StatusAll (or empty) or one concrete task status.
	Status string
	Due    DueBucket
}

// ParseDue accepts all, overdue, today or upcoming; empty means all.
func ParseDue(s string) (DueBucket, error) {
	switch b := DueBucket(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return DueAll, nil
	case DueAll, DueOverdue, DueToday, DueUpcoming:
		return b, nil
	default:
		return "", fmt.Errorf("invalid due filter %q (want all, overdue, today or upcoming)", s)
	}
}

// ParseStatus accepts "all" or a concrete status; empty means all.
func ParseStatus(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == StatusAll {
		return StatusAll, nil
	}
	st, err := domain.ParseStatus(s)
	if err != nil {
		return "", err
	}
	return string(st), nil
}

// Apply returns the tasks matching every criterion of f, in their original
// order. Due buckets compare calendar dates in now's location.
func Apply(tasks []domain.Task, f Filter, now time.Time) []domain.Task {
	query := strings.ToLower(f.Query)
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.ProjectID != "" && t.ProjectID != f.ProjectID {
			continue
		}
		if f.Status != "" && f.Status != StatusAll && string(t.Status) != f.Status {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(t.Title), query) &&
			!strings.Contains(strings.ToLower(t.Description), query) {
			continue
		}
		if !inBucket(t.DueDate, f.Due, now) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func inBucket(due time.Time, bucket DueBucket, now time.Time) bool {
	if bucket == "" || bucket == DueAll {
		return true
	}
	cmp := compareDates(due.In(now.Location()), now)
	switch bucket {
	case DueToday:
		return cmp == 0
	case DueOverdue:
		return cmp < 0
	case DueUpcoming:
		return cmp > 0
	default:
		return true
	}
}

func compareDates(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	switch {
	case ay != by:
		return sign(ay - by)
	case am != bm:
		return sign(int(am) - int(bm))
	default:
		return sign(ad - bd)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
