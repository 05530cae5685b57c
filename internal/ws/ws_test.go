package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

// echoServer upgrades the connection, records the handshake auth header, and
// answers every message event with a server-stamped echo.
func echoServer(t *testing.T, gotAuth *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotAuth != nil {
			*gotAuth = r.Header.Get("Authorization")
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer ws.Close()
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			var env struct {
				Event string   `json:"event"`
				Data  Outgoing `json:"data"`
			}
			if err := json.Unmarshal(data, &env); err != nil || env.Event != EventMessage {
				continue
			}
			echo := map[string]any{
				"event": EventMessage,
				"data": map[string]any{
					"_id":       "msg-1",
					"sender":    env.Data.Sender,
					"receiver":  env.Data.Receiver,
					"content":   env.Data.Content,
					"type":      env.Data.Type,
					"createdAt": time.Now().UTC().Format(time.RFC3339),
				},
			}
			if err := ws.WriteJSON(echo); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDialSendsBearerInHandshake(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := echoServer(t, &gotAuth)
	defer srv.Close()

	conn, err := Dial(context.Background(), wsURL(srv), "tok-1")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if gotAuth != "Bearer tok-1" {
		t.Fatalf("handshake Authorization = %q", gotAuth)
	}
}

func TestSendAndReceiveEcho(t *testing.T) {
	t.Parallel()

	srv := echoServer(t, nil)
	defer srv.Close()

	conn, err := Dial(context.Background(), wsURL(srv), "")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	out := Outgoing{Sender: "me", Receiver: "you", Content: "hi", Type: "text"}
	if err := conn.Send(out); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case m, ok := <-conn.Incoming():
		if !ok {
			t.Fatalf("incoming closed early: %v", conn.Err())
		}
		if m.ID != "msg-1" || m.Sender != "me" || m.Receiver != "you" || m.Content != "hi" {
			t.Fatalf("echo = %+v", m)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for echo")
	}
}

func TestNonMessageEventsAreSkipped(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		ws.WriteJSON(map[string]any{"event": "presence", "data": map[string]any{"online": true}})
		ws.WriteJSON(map[string]any{"event": EventMessage, "data": map[string]any{
			"_id": "msg-2", "sender": "a", "receiver": "b", "content": "real",
			"createdAt": time.Now().UTC().Format(time.RFC3339),
		}})
		// Hold the connection open until the client hangs up.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	conn, err := Dial(context.Background(), wsURL(srv), "")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	select {
	case m := <-conn.Incoming():
		if m.ID != "msg-2" {
			t.Fatalf("first delivered message = %+v, want the message event only", m)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message event")
	}
}

func TestIncomingClosesWhenServerHangsUp(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ws.Close()
	}))
	defer srv.Close()

	conn, err := Dial(context.Background(), wsURL(srv), "")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	select {
	case _, ok := <-conn.Incoming():
		if ok {
			t.Fatal("expected channel close, got a message")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for close")
	}
	if conn.Err() == nil {
		t.Fatal("Err() should report why the connection died")
	}
}

func TestCloseUnblocksUndrainedReadPump(t *testing.T) {
	t.Parallel()

	// Push well past the incoming buffer without the client draining any of
	// it, so the read pump is parked on the channel send when Close arrives.
	const flood = 64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for i := 0; i < flood; i++ {
			if err := ws.WriteJSON(map[string]any{"event": EventMessage, "data": map[string]any{
				"_id": "msg", "sender": "a", "receiver": "b", "content": "x",
				"createdAt": time.Now().UTC().Format(time.RFC3339),
			}}); err != nil {
				return
			}
		}
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	conn, err := Dial(context.Background(), wsURL(srv), "")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	// Give the pump time to fill the buffer and block.
	time.Sleep(200 * time.Millisecond)
	if err := conn.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// The pump must exit and close the channel rather than stay parked.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-conn.Incoming():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("incoming channel never closed after Close")
		}
	}
}

func TestSendAfterCloseFails(t *testing.T) {
	t.Parallel()

	srv := echoServer(t, nil)
	defer srv.Close()

	conn, err := Dial(context.Background(), wsURL(srv), "")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := conn.Send(Outgoing{Content: "late"}); err == nil {
		t.Fatal("Send after Close should fail")
	}
	// Closing twice is fine.
	if err := conn.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
