package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"socialhub/models"
	"socialhub/services"
	"socialhub/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.InitLogger("error", "json", io.Discard)
}

type stubVerifier map[string]*services.Principal

func (s stubVerifier) Verify(token string) (*services.Principal, error) {
	if p, ok := s[token]; ok {
		return p, nil
	}
	return nil, services.ErrInvalidToken
}

func newAuthedRouter(v TokenVerifier, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddleware(v)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, p.UserName)
	})
	r.GET("/x", handlers...)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	alice := &services.Principal{UserID: primitive.NewObjectID(), UserName: "alice", Role: models.RoleUser}
	router := newAuthedRouter(stubVerifier{"good": alice})

	tests := []struct {
		name   string
		header string
		query  string
		ws     bool
		want   int
	}{
		{"no token", "", "", false, http.StatusUnauthorized},
		{"not bearer", "Basic abc", "", false, http.StatusUnauthorized},
		{"bad token", "Bearer nope", "", false, http.StatusUnauthorized},
		{"good header", "Bearer good", "", false, http.StatusOK},
		{"query token ignored for plain requests", "", "good", false, http.StatusUnauthorized},
		{"query token on websocket upgrade", "", "good", true, http.StatusOK},
	}

	for _, tt := range tests {
		url := "/x"
		if tt.query != "" {
			url += "?token=" + tt.query
		}
		req := httptest.NewRequest(http.MethodGet, url, nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if tt.ws {
			req.Header.Set("Upgrade", "websocket")
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.name, w.Code, tt.want)
		}
		if tt.want == http.StatusOK && w.Body.String() != "alice" {
			t.Errorf("%s: body = %q", tt.name, w.Body.String())
		}
	}
}

func TestRequireRole(t *testing.T) {
	admin := &services.Principal{UserID: primitive.NewObjectID(), UserName: "root", Role: models.RoleAdmin}
	user := &services.Principal{UserID: primitive.NewObjectID(), UserName: "joe", Role: models.RoleUser}
	router := newAuthedRouter(stubVerifier{"admin": admin, "user": user}, RequireRole(models.RoleAdmin))

	for token, want := range map[string]int{"admin": http.StatusOK, "user": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != want {
			t.Errorf("%s: status = %d, want %d", token, w.Code, want)
		}
	}
}

func TestObjectIDParams(t *testing.T) {
	r := gin.New()
	r.GET("/posts/:id", ObjectIDParams("id"), func(c *gin.Context) {
		id := c.MustGet("id").(primitive.ObjectID)
		c.String(http.StatusOK, id.Hex())
	})

	valid := primitive.NewObjectID().Hex()
	for path, want := range map[string]int{
		"/posts/" + valid: http.StatusOK,
		"/posts/zzz":      http.StatusBadRequest,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != want {
			t.Errorf("%s: status = %d, want %d", path, w.Code, want)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("burst should be allowed")
	}
	if rl.Allow("a") {
		t.Error("third request within window should be throttled")
	}
	if !rl.Allow("b") {
		t.Error("limits are per key")
	}

	if removed := rl.Cleanup(time.Now().Add(time.Minute)); removed != 2 {
		t.Errorf("Cleanup removed %d, want 2", removed)
	}
	if !rl.Allow("a") {
		t.Error("a fresh limiter should allow again")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	alice := &services.Principal{UserID: primitive.NewObjectID(), UserName: "alice"}
	rl := NewRateLimiter(1, time.Hour)
	router := newAuthedRouter(stubVerifier{"good": alice}, rl.Middleware())

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 429]", codes)
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://app.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("allowed origin header = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unknown origin got header %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
}
