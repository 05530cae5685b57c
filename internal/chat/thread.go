// Package chat models one conversation as a thread of tagged messages:
// Pending (local optimistic append with a client-generated temp id) vs
// Confirmed (carries a server id). Reconciliation on server echo replaces the
// matching pending entry instead of duplicating it.
package chat

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"nova-cli/internal/model"
)

type State int

const (
	Pending State = iota
	Confirmed
)

type Entry struct {
	State   State
	Message model.Message
}

// Thread is the message list for one (self, contact) pair. Not concurrency
// safe; all access happens on the UI loop.
type Thread struct {
	SelfID    string
	ContactID string

	entries []Entry
}

func NewThread(selfID, contactID string) *Thread {
	return &Thread{SelfID: selfID, ContactID: contactID}
}

// SeedHistory replaces the thread with a fetched history, keeping any pending
// sends that have not been confirmed yet.
func (t *Thread) SeedHistory(history []model.Message) {
	var pending []Entry
	for _, e := range t.entries {
		if e.State == Pending {
			pending = append(pending, e)
		}
	}
	t.entries = t.entries[:0]
	for _, m := range history {
		t.entries = append(t.entries, Entry{State: Confirmed, Message: m})
	}
	sort.SliceStable(t.entries, func(i, j int) bool {
		return t.entries[i].Message.CreatedAt.Before(t.entries[j].Message.CreatedAt)
	})
	// Pending messages are always newest; keep them at the tail.
	t.entries = append(t.entries, pending...)
}

// Send appends an optimistic pending message and returns it. The temp id is
// never shown to the server; it only keys the local entry until the echo
// arrives.
func (t *Thread) Send(content string, now time.Time) model.Message {
	m := model.Message{
		ID:        "tmp-" + uuid.NewString(),
		Content:   content,
		Sender:    t.SelfID,
		Receiver:  t.ContactID,
		Type:      "text",
		CreatedAt: now,
	}
	t.entries = append(t.entries, Entry{State: Pending, Message: m})
	return m
}

// Receive reconciles a server-confirmed message into the thread:
//   - already present by server id -> dropped (history/live double delivery)
//   - matches a pending entry (same sender, same content) -> replaces it
//   - otherwise -> appended
//
// Messages belonging to other conversations are ignored.
func (t *Thread) Receive(m model.Message) bool {
	if !t.inConversation(m) {
		return false
	}
	for _, e := range t.entries {
		if e.State == Confirmed && e.Message.ID == m.ID {
			return false
		}
	}
	if m.Sender == t.SelfID {
		for i, e := range t.entries {
			if e.State == Pending && e.Message.Content == m.Content {
				t.entries[i] = Entry{State: Confirmed, Message: m}
				return true
			}
		}
	}
	t.entries = append(t.entries, Entry{State: Confirmed, Message: m})
	return true
}

func (t *Thread) inConversation(m model.Message) bool {
	a, b := strings.TrimSpace(m.Sender), strings.TrimSpace(m.Receiver)
	return (a == t.SelfID && b == t.ContactID) || (a == t.ContactID && b == t.SelfID)
}

// Entries returns the thread in display order.
func (t *Thread) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// PendingCount reports how many sends still await confirmation.
func (t *Thread) PendingCount() int {
	n := 0
	for _, e := range t.entries {
		if e.State == Pending {
			n++
		}
	}
	return n
}
