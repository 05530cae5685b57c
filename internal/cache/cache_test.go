package cache

import (
	"context"
	"errors"
	"testing"

	"nova-cli/internal/model"
)

func TestGetFetchesOnceThenServesCached(t *testing.T) {
	t.Parallel()

	c := New()
	ctx := context.Background()
	calls := 0
	fetch := func(context.Context) ([]model.Task, error) {
		calls++
		return []model.Task{{ID: "t1"}}, nil
	}

	for i := 0; i < 3; i++ {
		tasks, err := Get(ctx, c, Key(KeyTasks, "client-1"), fetch)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if len(tasks) != 1 || tasks[0].ID != "t1" {
			t.Fatalf("unexpected tasks: %+v", tasks)
		}
	}
	if calls != 1 {
		t.Fatalf("fetch ran %d times, want 1", calls)
	}
}

func TestGetErrorIsNotCached(t *testing.T) {
	t.Parallel()

	c := New()
	ctx := context.Background()
	calls := 0
	fetch := func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("boom")
		}
		return 42, nil
	}

	if _, err := Get(ctx, c, "k", fetch); err == nil {
		t.Fatalf("expected first fetch error")
	}
	got, err := Get(ctx, c, "k", fetch)
	if err != nil || got != 42 {
		t.Fatalf("retry after error: got %d, %v", got, err)
	}
	if c.Len() != 1 {
		t.Fatalf("cache holds %d entries, want 1", c.Len())
	}
}

func TestInvalidatePrefixSemantics(t *testing.T) {
	t.Parallel()

	c := New()
	c.store(KeyTasks, 1)
	c.store(Key(KeyTasks, "client-1"), 2)
	c.store(KeyTasksOutlook, 3)
	c.store("tasksother", 4)
	c.store(KeyFolders, 5)

	c.Invalidate(KeyTasks)

	if _, ok := c.lookup(KeyTasks); ok {
		t.Fatalf("exact key must be discarded")
	}
	if _, ok := c.lookup(Key(KeyTasks, "client-1")); ok {
		t.Fatalf("segmented child key must be discarded")
	}
	if _, ok := c.lookup(KeyTasksOutlook); ok {
		t.Fatalf("tasks/outlook sits under tasks and must be discarded")
	}
	if _, ok := c.lookup("tasksother"); !ok {
		t.Fatalf("non-segment prefix match must survive")
	}
	if _, ok := c.lookup(KeyFolders); !ok {
		t.Fatalf("unrelated key must survive")
	}
}

// The mutation contract: after a task mutation invalidates the task keys, the
// next read refetches instead of serving the stale value.
func TestMutateInvalidateRefetchCycle(t *testing.T) {
	t.Parallel()

	c := New()
	ctx := context.Background()
	version := 0
	fetch := func(context.Context) (int, error) {
		version++
		return version, nil
	}
	key := Key(KeyTasks, "client-1")

	if v, _ := Get(ctx, c, key, fetch); v != 1 {
		t.Fatalf("first read = %d, want 1", v)
	}
	if v, _ := Get(ctx, c, key, fetch); v != 1 {
		t.Fatalf("cached read = %d, want 1", v)
	}

	// A task mutation elsewhere invalidates both task projections.
	c.Invalidate(KeyTasks, KeyTasksOutlook)

	if v, _ := Get(ctx, c, key, fetch); v != 2 {
		t.Fatalf("read after invalidation = %d, want refetched 2", v)
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	c := New()
	c.store("a", 1)
	c.store("b", 2)
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("Clear left %d entries", c.Len())
	}
}
