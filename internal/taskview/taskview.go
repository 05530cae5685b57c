// Package taskview holds the task-to-geometry mapping shared by the kanban,
// calendar, and timeline views, so the three views cannot drift apart.
package taskview

import (
	"time"

	"nova-cli/internal/model"
)

// FallbackSpanDays is the fabricated due-date offset when a task has no due
// date: the span ends FallbackSpanDays days after its start. Presentation
// default only, not a backend contract.
const FallbackSpanDays = 3

// Buckets partitions tasks by status. Every task lands in exactly one bucket;
// an unknown or empty status falls back to Pending and is counted in Unknown.
type Buckets struct {
	Pending    []model.Task
	InProgress []model.Task
	Completed  []model.Task

	// Unknown counts tasks whose status matched no bucket and were defaulted
	// into Pending. Callers may log it; the backend should never produce it.
	Unknown int
}

func Partition(tasks []model.Task) Buckets {
	var b Buckets
	for _, t := range tasks {
		switch t.Status {
		case model.StatusPending:
			b.Pending = append(b.Pending, t)
		case model.StatusInProgress:
			b.InProgress = append(b.InProgress, t)
		case model.StatusCompleted:
			b.Completed = append(b.Completed, t)
		default:
			b.Unknown++
			b.Pending = append(b.Pending, t)
		}
	}
	return b
}

func (b Buckets) Total() int {
	return len(b.Pending) + len(b.InProgress) + len(b.Completed)
}

// Span is an inclusive day range [Start, End] at local midnight.
type Span struct {
	Start time.Time
	End   time.Time
}

// Days is the inclusive day count (Jan 1..Jan 5 = 5).
func (s Span) Days() int {
	return int(s.End.Sub(s.Start).Hours()/24) + 1
}

// Contains reports whether day falls inside the span (by calendar day).
func (s Span) Contains(day time.Time) bool {
	d := atMidnight(day)
	return !d.Before(s.Start) && !d.After(s.End)
}

// SpanOf places a task on a date axis: start at the creation day (or today
// when absent), end at the due day. A missing due date fabricates one
// FallbackSpanDays days after the start; a due date before the start clamps
// to the start day.
func SpanOf(t model.Task, now time.Time) Span {
	start := atMidnight(now)
	if !t.CreatedAt.IsZero() {
		start = atMidnight(t.CreatedAt)
	}
	end := start.AddDate(0, 0, FallbackSpanDays)
	if t.DueDate != nil {
		end = atMidnight(*t.DueDate)
		if end.Before(start) {
			end = start
		}
	}
	return Span{Start: start, End: end}
}

func atMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StatusColor returns the one stable per-status color used by every task
// view (the web client's emerald/indigo/amber triple).
func StatusColor(s model.TaskStatus) string {
	switch s {
	case model.StatusCompleted:
		return "#059669"
	case model.StatusInProgress:
		return "#4f46e5"
	default:
		return "#f59e0b"
	}
}

// Card is the full visual mapping for one task.
type Card struct {
	Task   model.Task
	Status model.TaskStatus
	Span   Span
	Color  string
}

func CardOf(t model.Task, now time.Time) Card {
	status := t.Status
	switch status {
	case model.StatusPending, model.StatusInProgress, model.StatusCompleted:
	default:
		status = model.StatusPending
	}
	return Card{
		Task:   t,
		Status: status,
		Span:   SpanOf(t, now),
		Color:  StatusColor(status),
	}
}
