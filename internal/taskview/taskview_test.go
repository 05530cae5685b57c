package taskview

import (
	"testing"
	"time"

	"nova-cli/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestPartitionEveryTaskLandsExactlyOnce(t *testing.T) {
	t.Parallel()

	tasks := []model.Task{
		{ID: "1", Status: model.StatusPending},
		{ID: "2", Status: model.StatusInProgress},
		{ID: "3", Status: model.StatusCompleted},
		{ID: "4", Status: model.StatusPending},
		{ID: "5", Status: "archived"}, // unknown
		{ID: "6", Status: ""},         // empty
	}

	b := Partition(tasks)
	if b.Total() != len(tasks) {
		t.Fatalf("Total() = %d, want %d", b.Total(), len(tasks))
	}
	if len(b.Pending) != 4 {
		t.Fatalf("pending = %d, want 4 (two real + two defaulted)", len(b.Pending))
	}
	if len(b.InProgress) != 1 || len(b.Completed) != 1 {
		t.Fatalf("in_progress = %d completed = %d, want 1/1", len(b.InProgress), len(b.Completed))
	}
	if b.Unknown != 2 {
		t.Fatalf("unknown counter = %d, want 2", b.Unknown)
	}
}

func TestSpanOfCreationThroughDue(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 9, 1, 14, 30, 0, 0, time.Local)
	due := time.Date(2026, 9, 5, 9, 0, 0, 0, time.Local)
	task := model.Task{CreatedAt: created, DueDate: &due}

	s := SpanOf(task, day(2026, 9, 20))
	if !s.Start.Equal(day(2026, 9, 1)) {
		t.Fatalf("start = %v, want Sep 1 midnight", s.Start)
	}
	if !s.End.Equal(day(2026, 9, 5)) {
		t.Fatalf("end = %v, want Sep 5 midnight", s.End)
	}
	if s.Days() != 5 {
		t.Fatalf("Days() = %d, want 5 (inclusive)", s.Days())
	}
}

func TestSpanOfMissingDueFabricatesFallback(t *testing.T) {
	t.Parallel()

	task := model.Task{CreatedAt: day(2026, 9, 1)}
	s := SpanOf(task, day(2026, 9, 20))
	// The fabricated due date is FallbackSpanDays after the start, so the
	// inclusive span is one day longer.
	if s.Days() != FallbackSpanDays+1 {
		t.Fatalf("fallback span = %d days, want %d", s.Days(), FallbackSpanDays+1)
	}
	if !s.Start.Equal(day(2026, 9, 1)) || !s.End.Equal(day(2026, 9, 4)) {
		t.Fatalf("fallback span = [%v, %v], want Sep 1..Sep 4", s.Start, s.End)
	}
}

func TestSpanOfMissingCreatedAnchorsAtNow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 9, 20, 17, 45, 0, 0, time.Local)
	s := SpanOf(model.Task{}, now)
	if !s.Start.Equal(day(2026, 9, 20)) {
		t.Fatalf("start = %v, want today at midnight", s.Start)
	}
}

func TestSpanOfDueBeforeCreatedClamps(t *testing.T) {
	t.Parallel()

	due := day(2026, 8, 20)
	task := model.Task{CreatedAt: day(2026, 9, 1), DueDate: &due}
	s := SpanOf(task, day(2026, 9, 20))
	if !s.End.Equal(s.Start) {
		t.Fatalf("end-before-start must clamp to the start day, got [%v, %v]", s.Start, s.End)
	}
	if s.Days() != 1 {
		t.Fatalf("clamped span = %d days, want 1", s.Days())
	}
}

func TestSpanContains(t *testing.T) {
	t.Parallel()

	s := Span{Start: day(2026, 9, 1), End: day(2026, 9, 5)}

	if !s.Contains(day(2026, 9, 1)) || !s.Contains(day(2026, 9, 5)) {
		t.Fatalf("span must include both endpoints")
	}
	// Any time of day inside an included day counts.
	if !s.Contains(time.Date(2026, 9, 3, 23, 59, 0, 0, time.Local)) {
		t.Fatalf("late evening inside the span must count")
	}
	if s.Contains(day(2026, 8, 31)) || s.Contains(day(2026, 9, 6)) {
		t.Fatalf("days outside the span must not count")
	}
}

func TestStatusColorStablePerStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status model.TaskStatus
		want   string
	}{
		{model.StatusCompleted, "#059669"},
		{model.StatusInProgress, "#4f46e5"},
		{model.StatusPending, "#f59e0b"},
		{"archived", "#f59e0b"}, // unknown renders as pending
	}
	for _, tt := range tests {
		if got := StatusColor(tt.status); got != tt.want {
			t.Fatalf("StatusColor(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestCardOfConsistentAcrossViews(t *testing.T) {
	t.Parallel()

	// One task, one card: whatever view consumes it sees the same status,
	// span and color.
	due := day(2026, 9, 10)
	task := model.Task{ID: "t", Status: "bogus", CreatedAt: day(2026, 9, 8), DueDate: &due}

	card := CardOf(task, day(2026, 9, 9))
	if card.Status != model.StatusPending {
		t.Fatalf("unknown status must normalize to pending, got %q", card.Status)
	}
	if card.Color != StatusColor(model.StatusPending) {
		t.Fatalf("card color %q does not match status color", card.Color)
	}
	if card.Span.Days() != 3 {
		t.Fatalf("span = %d days, want 3", card.Span.Days())
	}
}
