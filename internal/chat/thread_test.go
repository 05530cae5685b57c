package chat

import (
	"strings"
	"testing"
	"time"

	"nova-cli/internal/model"
)

func at(min int) time.Time {
	return time.Date(2026, 9, 1, 12, min, 0, 0, time.UTC)
}

func TestSendAppendsPendingWithTempID(t *testing.T) {
	t.Parallel()

	th := NewThread("me", "them")
	m := th.Send("hello", at(0))

	if !strings.HasPrefix(m.ID, "tmp-") {
		t.Fatalf("temp id = %q, want tmp- prefix", m.ID)
	}
	if th.PendingCount() != 1 {
		t.Fatalf("pending = %d, want 1", th.PendingCount())
	}
	entries := th.Entries()
	if len(entries) != 1 || entries[0].State != Pending {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestReceiveConfirmsPendingInsteadOfDuplicating(t *testing.T) {
	t.Parallel()

	th := NewThread("me", "them")
	th.Send("hello", at(0))

	echo := model.Message{
		ID:        "srv-1",
		Content:   "hello",
		Sender:    "me",
		Receiver:  "them",
		CreatedAt: at(1),
	}
	if !th.Receive(echo) {
		t.Fatalf("echo must change the thread")
	}

	entries := th.Entries()
	if len(entries) != 1 {
		t.Fatalf("echo duplicated the message: %d entries", len(entries))
	}
	if entries[0].State != Confirmed || entries[0].Message.ID != "srv-1" {
		t.Fatalf("pending entry was not replaced: %+v", entries[0])
	}
	if th.PendingCount() != 0 {
		t.Fatalf("pending = %d after confirmation", th.PendingCount())
	}
}

func TestReceiveDropsKnownServerID(t *testing.T) {
	t.Parallel()

	th := NewThread("me", "them")
	msg := model.Message{ID: "srv-1", Content: "hi", Sender: "them", Receiver: "me", CreatedAt: at(0)}

	if !th.Receive(msg) {
		t.Fatalf("first delivery must append")
	}
	if th.Receive(msg) {
		t.Fatalf("double delivery must be dropped")
	}
	if n := len(th.Entries()); n != 1 {
		t.Fatalf("entries = %d, want 1", n)
	}
}

func TestReceiveIgnoresOtherConversations(t *testing.T) {
	t.Parallel()

	th := NewThread("me", "them")
	other := model.Message{ID: "srv-9", Content: "x", Sender: "someone", Receiver: "else", CreatedAt: at(0)}
	if th.Receive(other) {
		t.Fatalf("foreign conversation must be ignored")
	}
	if n := len(th.Entries()); n != 0 {
		t.Fatalf("entries = %d, want 0", n)
	}
}

func TestSeedHistoryKeepsPendingAtTail(t *testing.T) {
	t.Parallel()

	th := NewThread("me", "them")
	th.Send("unconfirmed", at(10))

	history := []model.Message{
		{ID: "srv-2", Content: "second", Sender: "them", Receiver: "me", CreatedAt: at(2)},
		{ID: "srv-1", Content: "first", Sender: "me", Receiver: "them", CreatedAt: at(1)},
	}
	th.SeedHistory(history)

	entries := th.Entries()
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 2 history + 1 pending", len(entries))
	}
	if entries[0].Message.ID != "srv-1" || entries[1].Message.ID != "srv-2" {
		t.Fatalf("history not sorted by CreatedAt: %+v", entries)
	}
	last := entries[2]
	if last.State != Pending || last.Message.Content != "unconfirmed" {
		t.Fatalf("pending send lost during seed: %+v", last)
	}
}

func TestHistoryThenLiveEchoDoesNotDouble(t *testing.T) {
	t.Parallel()

	// The same message can arrive through the history fetch and the live
	// channel; the thread must keep exactly one copy.
	th := NewThread("me", "them")
	msg := model.Message{ID: "srv-5", Content: "hey", Sender: "them", Receiver: "me", CreatedAt: at(3)}

	th.SeedHistory([]model.Message{msg})
	if th.Receive(msg) {
		t.Fatalf("live echo of a history message must be dropped")
	}
	if n := len(th.Entries()); n != 1 {
		t.Fatalf("entries = %d, want 1", n)
	}
}

func TestReceiveContactMessageAppends(t *testing.T) {
	t.Parallel()

	th := NewThread("me", "them")
	th.Send("mine", at(0))

	// Same content from the contact is a distinct message, not a pending
	// match (reconciliation only matches own sends).
	theirs := model.Message{ID: "srv-7", Content: "mine", Sender: "them", Receiver: "me", CreatedAt: at(1)}
	if !th.Receive(theirs) {
		t.Fatalf("contact message must append")
	}
	if n := len(th.Entries()); n != 2 {
		t.Fatalf("entries = %d, want 2", n)
	}
	if th.PendingCount() != 1 {
		t.Fatalf("own pending send must survive, pending = %d", th.PendingCount())
	}
}
