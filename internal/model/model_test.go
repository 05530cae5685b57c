package model

import (
	"testing"
	"time"
)

func TestSubscriptionLive(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	margin := 2 * time.Minute

	tests := []struct {
		name string
		exp  string
		want bool
	}{
		{name: "well before expiry", exp: now.Add(time.Hour).Format(time.RFC3339), want: true},
		{name: "just over margin", exp: now.Add(3 * time.Minute).Format(time.RFC3339), want: true},
		{name: "inside margin", exp: now.Add(time.Minute).Format(time.RFC3339), want: false},
		{name: "exactly at margin", exp: now.Add(margin).Format(time.RFC3339), want: false},
		{name: "expired", exp: now.Add(-time.Minute).Format(time.RFC3339), want: false},
		{name: "unparseable", exp: "soon", want: false},
		{name: "empty", exp: "", want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := Subscription{ExpirationDateTime: tt.exp}
			if got := s.Live(now, margin); got != tt.want {
				t.Fatalf("Live(%q) = %v, want %v", tt.exp, got, tt.want)
			}
		})
	}
}

func TestLatestEmailReceivedTimePrefersCanonicalField(t *testing.T) {
	t.Parallel()

	canonical := "2026-02-01T10:00:00Z"
	legacy := "2026-01-01T10:00:00Z"

	e := LatestEmail{ReceivedAt: canonical, Received: legacy}
	got, ok := e.ReceivedTime()
	if !ok || got.Format(time.RFC3339) != canonical {
		t.Fatalf("ReceivedTime = %v ok=%v, want canonical field", got, ok)
	}

	e = LatestEmail{Received: legacy}
	got, ok = e.ReceivedTime()
	if !ok || got.Format(time.RFC3339) != legacy {
		t.Fatalf("ReceivedTime = %v ok=%v, want legacy fallback", got, ok)
	}

	if _, ok := (LatestEmail{}).ReceivedTime(); ok {
		t.Fatal("empty email should have no received time")
	}
	if _, ok := (LatestEmail{ReceivedAt: "yesterday"}).ReceivedTime(); ok {
		t.Fatal("unparseable timestamp should report no time")
	}
}

func TestFileIsReadBy(t *testing.T) {
	t.Parallel()

	f := File{ReadBy: []string{"user-1", "user-2"}}
	if !f.IsReadBy("user-1") {
		t.Fatal("user-1 should be marked read")
	}
	if f.IsReadBy("user-3") {
		t.Fatal("user-3 should be unread")
	}
	if (File{}).IsReadBy("user-1") {
		t.Fatal("empty ReadBy means unread for everyone")
	}
}

func TestTaskPatchIsEmpty(t *testing.T) {
	t.Parallel()

	if !(TaskPatch{}).IsEmpty() {
		t.Fatal("zero patch should be empty")
	}
	title := "x"
	if (TaskPatch{Title: &title}).IsEmpty() {
		t.Fatal("patch with a set field must not be empty")
	}
}
