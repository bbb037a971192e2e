package realtime

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"socialhub/services"
	"socialhub/utils"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

func init() {
	utils.InitLogger("error", "json", io.Discard)
}

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.ServeWS(w, r, r.URL.Query().Get("user")); err != nil {
			t.Logf("upgrade failed: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + user
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestHub_ConnectRegistersPresence(t *testing.T) {
	registry := services.NewPresenceRegistry()
	hub := NewHub(registry, nil)
	srv := newTestServer(t, hub)

	conn := dial(t, srv, "alice")
	defer conn.Close()

	waitFor(t, "alice online", func() bool { return registry.IsOnline("alice") })
	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount = %d, want 1", hub.ClientCount())
	}
}

func TestHub_EmitReachesSocket(t *testing.T) {
	registry := services.NewPresenceRegistry()
	hub := NewHub(registry, nil)
	srv := newTestServer(t, hub)

	conn := dial(t, srv, "bob")
	defer conn.Close()
	waitFor(t, "bob online", func() bool { return registry.IsOnline("bob") })

	sessions := registry.SessionsFor("bob")
	if len(sessions) != 1 {
		t.Fatalf("SessionsFor(bob) = %d sessions, want 1", len(sessions))
	}
	if err := sessions[0].Emit("notification", map[string]string{"message": "hello"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	var got struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if got.Type != "notification" || got.Data["message"] != "hello" {
		t.Errorf("frame = %+v", got)
	}
}

func TestHub_PingGetsPong(t *testing.T) {
	registry := services.NewPresenceRegistry()
	hub := NewHub(registry, nil)
	srv := newTestServer(t, hub)

	conn := dial(t, srv, "carol")
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if !strings.Contains(string(data), `"pong"`) {
		t.Errorf("reply = %s, want pong", data)
	}
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	registry := services.NewPresenceRegistry()
	hub := NewHub(registry, nil)
	srv := newTestServer(t, hub)

	conn := dial(t, srv, "dave")
	waitFor(t, "dave online", func() bool { return registry.IsOnline("dave") })

	session := registry.SessionsFor("dave")[0]
	_ = conn.Close()

	waitFor(t, "dave offline", func() bool { return !registry.IsOnline("dave") })
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", hub.ClientCount())
	}
	if err := session.Emit("notification", nil); err != services.ErrSessionClosed {
		t.Errorf("Emit after disconnect = %v, want ErrSessionClosed", err)
	}
}

func TestHub_MultipleSessionsPerUser(t *testing.T) {
	registry := services.NewPresenceRegistry()
	hub := NewHub(registry, nil)
	srv := newTestServer(t, hub)

	first := dial(t, srv, "erin")
	defer first.Close()
	second := dial(t, srv, "erin")
	defer second.Close()

	waitFor(t, "two sessions", func() bool { return len(registry.SessionsFor("erin")) == 2 })

	_ = first.Close()
	waitFor(t, "one session left", func() bool { return len(registry.SessionsFor("erin")) == 1 })
	if !registry.IsOnline("erin") {
		t.Error("erin should still be online")
	}
}

func TestHub_RunWithContextClosesClients(t *testing.T) {
	registry := services.NewPresenceRegistry()
	hub := NewHub(registry, nil)
	srv := newTestServer(t, hub)

	conn := dial(t, srv, "frank")
	defer conn.Close()
	waitFor(t, "frank online", func() bool { return registry.IsOnline("frank") })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("RunWithContext = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RunWithContext did not return")
	}

	if registry.Count() != 0 {
		t.Errorf("registry.Count = %d, want 0", registry.Count())
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example.com"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://app.example.com", true},
		{"https://evil.example.com", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := check(r); got != tt.want {
			t.Errorf("origin %q: got %v, want %v", tt.origin, got, tt.want)
		}
	}

	if !originChecker(nil)(httptest.NewRequest(http.MethodGet, "/ws", nil)) {
		t.Error("empty allow list should accept requests")
	}
}

func TestClient_EmitAfterCloseFails(t *testing.T) {
	hub := NewHub(services.NewPresenceRegistry(), nil)
	c := newClient(hub, nil, "gina")
	c.close()
	c.close()

	if err := c.Emit("notification", nil); err != services.ErrSessionClosed {
		t.Errorf("Emit = %v, want ErrSessionClosed", err)
	}
}
