package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestLive_ReceivesPushesAndBackfillsAfterReconnect(t *testing.T) {
	var connections int32
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if atomic.AddInt32(&connections, 1) == 1 {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"pong"}`))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"notification","data":{"id":"n1","type":"Comment","message":"hey","is_seen":false,"created_at":"2026-03-01T12:00:05Z"}}`))
			// Drop the connection to force a reconnect.
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	backend := &fakeBackend{unseen: 1}
	feed := NewFeed(backend)
	backend.listFn = staticPage([]Item{item("n1", 5, false)}, false)

	live := NewLive("ws"+strings.TrimPrefix(srv.URL, "http"), "tok", feed, WithReconnectLimit(0, 1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- live.Run(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(&connections) >= 2 && backend.listCalls() >= 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if backend.listCalls() < 1 {
		t.Fatal("reconnect did not trigger a backfill")
	}
	assertIDs(t, feed.Items(), "n1")
	if feed.Unseen() != 1 {
		t.Errorf("Unseen = %d, want 1", feed.Unseen())
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not stop")
	}
}
