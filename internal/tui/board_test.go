package tui

import (
	"testing"

	"nova-cli/internal/model"
)

func boardTasks() []model.Task {
	return []model.Task{
		{ID: "t1", Title: "Draft proposal", Status: model.StatusPending},
		{ID: "t2", Title: "Review contract", Status: model.StatusPending},
		{ID: "t3", Title: "Build deck", Status: model.StatusInProgress},
		{ID: "t4", Title: "Ship report", Status: model.StatusCompleted},
	}
}

func TestBoardRebuildPartitionsIntoThreeColumns(t *testing.T) {
	t.Parallel()

	b := boardState{}.rebuild(boardTasks())
	if len(b.cols) != 3 {
		t.Fatalf("cols = %d, want 3", len(b.cols))
	}
	if got := len(b.cols[0].cards); got != 2 {
		t.Fatalf("pending cards = %d, want 2", got)
	}
	if got := len(b.cols[1].cards); got != 1 {
		t.Fatalf("in-progress cards = %d, want 1", got)
	}
	if got := len(b.cols[2].cards); got != 1 {
		t.Fatalf("completed cards = %d, want 1", got)
	}
	if b.cardCount() != 4 {
		t.Fatalf("cardCount = %d, want 4", b.cardCount())
	}
}

func TestBoardSelectionFollowsTaskAcrossStatusMove(t *testing.T) {
	t.Parallel()

	b := boardState{}.rebuild(boardTasks())
	b.sel = boardSelection{TaskID: "t2"}

	// t2 moves from pending to in-progress; the refetched list re-partitions.
	moved := boardTasks()
	moved[1].Status = model.StatusInProgress
	b = b.rebuild(moved)

	sel := b.clamp(b.sel)
	if sel.Col != 1 {
		t.Fatalf("Col = %d, want 1 (in progress)", sel.Col)
	}
	if sel.TaskID != "t2" {
		t.Fatalf("TaskID = %q, want t2", sel.TaskID)
	}
	card, ok := b.selected()
	if !ok || card.Task.ID != "t2" {
		t.Fatalf("selected = %+v ok=%v", card, ok)
	}
}

func TestBoardSelectionReanchorsWhenTaskDeleted(t *testing.T) {
	t.Parallel()

	b := boardState{}.rebuild(boardTasks())
	b.sel = boardSelection{Col: 0, Row: 1, TaskID: "t2"}

	remaining := []model.Task{
		{ID: "t1", Title: "Draft proposal", Status: model.StatusPending},
		{ID: "t3", Title: "Build deck", Status: model.StatusInProgress},
	}
	b = b.rebuild(remaining)

	sel := b.clamp(b.sel)
	if sel.Col != 0 || sel.Row != 0 {
		t.Fatalf("sel = %+v, want row clamped into column 0", sel)
	}
	if sel.TaskID != "t1" {
		t.Fatalf("TaskID = %q, want re-anchored to t1", sel.TaskID)
	}
}

func TestBoardMoveClampsAtEdges(t *testing.T) {
	t.Parallel()

	b := boardState{}.rebuild(boardTasks())
	b.sel = b.clamp(boardSelection{})

	b = b.move(-1, 0)
	if b.sel.Col != 0 {
		t.Fatalf("Col = %d after left at edge, want 0", b.sel.Col)
	}
	b = b.move(1, 0).move(1, 0).move(1, 0)
	if b.sel.Col != 2 {
		t.Fatalf("Col = %d after right past edge, want 2", b.sel.Col)
	}
	b = b.move(0, 5)
	if b.sel.Row != 0 {
		t.Fatalf("Row = %d in single-card column, want 0", b.sel.Row)
	}
}

func TestBoardEmptyColumnHasNoSelection(t *testing.T) {
	t.Parallel()

	b := boardState{}.rebuild([]model.Task{
		{ID: "t1", Title: "Only one", Status: model.StatusCompleted},
	})
	b.sel = b.clamp(boardSelection{Col: 0})
	if b.sel.Row != -1 {
		t.Fatalf("Row = %d in empty column, want -1", b.sel.Row)
	}
	if _, ok := b.selected(); ok {
		t.Fatal("selected() should report no card in an empty column")
	}
}

func TestShiftStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		s     model.TaskStatus
		delta int
		want  model.TaskStatus
	}{
		{"pending right", model.StatusPending, 1, model.StatusInProgress},
		{"in progress right", model.StatusInProgress, 1, model.StatusCompleted},
		{"in progress left", model.StatusInProgress, -1, model.StatusPending},
		{"completed right hits edge", model.StatusCompleted, 1, ""},
		{"pending left hits edge", model.StatusPending, -1, ""},
		{"unknown status right acts as pending", model.TaskStatus("archived"), 1, model.StatusInProgress},
		{"unknown status left hits edge", model.TaskStatus("archived"), -1, ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := shiftStatus(tt.s, tt.delta); got != tt.want {
				t.Fatalf("shiftStatus(%q, %d) = %q, want %q", tt.s, tt.delta, got, tt.want)
			}
		})
	}
}
