package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-tasks/internal/events"
	"github.com/adanyl0v/go-tasks/internal/query"
	"github.com/adanyl0v/go-tasks/internal/services"
	"github.com/adanyl0v/go-tasks/internal/storage/memory"
)

const (
	testIssuer = "go-tasks-test"
	testSecret = "test-signing-key"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error {
	return p.err
}

type testServer struct {
	router *gin.Engine
	hub    *events.Hub
}

func newTestServer(t *testing.T, pinger Pinger) *testServer {
	t.Helper()

	store := memory.New()
	if pinger == nil {
		pinger = store
	}
	hub := events.NewHub()
	t.Cleanup(hub.Close)

	engine := query.NewEngine(store, query.DefaultPageSize, query.DefaultMaxSize)
	h := New(
		zerolog.Nop(),
		services.NewAuthService(zerolog.Nop(), testIssuer, []byte(testSecret)),
		services.NewTaskService(zerolog.Nop(), store, engine, hub),
		hub,
		pinger,
	)

	router := gin.New()
	router.Use(h.HandleRequestID, h.HandleMetrics)
	RegisterRoutes(router, h, NewRateLimiter(zerolog.Nop(), nil, 1, time.Minute))
	return &testServer{router: router, hub: hub}
}

func signTestToken(t *testing.T, userID string) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    testIssuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func (s *testServer) do(t *testing.T, userID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+signTestToken(t, userID))
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	err := json.Unmarshal(w.Body.Bytes(), &v)
	if err != nil {
		t.Fatalf("failed to decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d, body = %s", w.Code, want, w.Body.String())
	}
}

func TestUnauthorized(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, "", http.MethodGet, "/api/v1/tasks", nil)
	expectStatus(t, w, http.StatusUnauthorized)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	expectStatus(t, w, http.StatusUnauthorized)

	if body := decode[map[string]string](t, w); body["error"] == "" {
		t.Fatalf("expected an error message, got %v", body)
	}

	// Query tokens are reserved for websocket upgrades.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/tasks?access_token="+signTestToken(t, "alice"), nil)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	expectStatus(t, w, http.StatusUnauthorized)
}

func TestCreateTaskValidation(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, "alice", http.MethodPost, "/api/v1/tasks", map[string]any{"title": "   "})
	expectStatus(t, w, http.StatusBadRequest)

	w = s.do(t, "alice", http.MethodPost, "/api/v1/tasks", map[string]any{"title": "x", "status": "DONE"})
	expectStatus(t, w, http.StatusBadRequest)

	w = s.do(t, "alice", http.MethodGet, "/api/v1/tasks", nil)
	expectStatus(t, w, http.StatusOK)
	if tasks := decode[[]getTaskResponse](t, w); len(tasks) != 0 {
		t.Fatalf("rejected creates must not store anything, got %d tasks", len(tasks))
	}
}

func TestTaskLifecycle(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, "alice", http.MethodPost, "/api/v1/tasks", map[string]any{
		"title":       "  Write report  ",
		"description": "quarterly",
		"priority":    "high",
	})
	expectStatus(t, w, http.StatusCreated)
	created := decode[getTaskResponse](t, w)
	if created.Title != "Write report" || created.Status != "TODO" || created.Priority != "HIGH" {
		t.Fatalf("created = %+v", created)
	}
	if created.StatusLabel != "To Do" || created.PriorityLabel != "High" {
		t.Fatalf("labels = %q, %q", created.StatusLabel, created.PriorityLabel)
	}
	path := "/api/v1/tasks/" + jsonID(created.ID)

	w = s.do(t, "bob", http.MethodGet, path, nil)
	expectStatus(t, w, http.StatusNotFound)

	w = s.do(t, "alice", http.MethodPatch, path+"/status", map[string]any{"status": "IN_PROGRESS"})
	expectStatus(t, w, http.StatusOK)
	if got := decode[getTaskResponse](t, w); got.Status != "IN_PROGRESS" || got.StatusLabel != "In Progress" {
		t.Fatalf("status update = %+v", got)
	}

	w = s.do(t, "alice", http.MethodPatch, path+"/archive", nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[getTaskResponse](t, w); !got.Archived {
		t.Fatal("task must be archived")
	}

	w = s.do(t, "alice", http.MethodGet, "/api/v1/tasks/archived", nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[[]getTaskResponse](t, w); len(got) != 1 || got[0].ID != created.ID {
		t.Fatalf("archived view = %+v", got)
	}

	w = s.do(t, "alice", http.MethodDelete, path, nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[getTaskResponse](t, w); got.DeletedAt == nil {
		t.Fatal("deleted task must carry deleted_at")
	}

	w = s.do(t, "alice", http.MethodGet, "/api/v1/tasks?view=deleted", nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[[]getTaskResponse](t, w); len(got) != 1 {
		t.Fatalf("deleted view = %+v", got)
	}

	w = s.do(t, "alice", http.MethodPatch, path+"/restore", nil)
	expectStatus(t, w, http.StatusOK)
	restored := decode[getTaskResponse](t, w)
	if restored.DeletedAt != nil || !restored.Archived {
		t.Fatalf("restored = %+v, want archived and not deleted", restored)
	}

	w = s.do(t, "alice", http.MethodPut, path, map[string]any{"title": "Rewritten"})
	expectStatus(t, w, http.StatusOK)
	updated := decode[getTaskResponse](t, w)
	if updated.Title != "Rewritten" || updated.Description != "" || updated.Priority != "MEDIUM" {
		t.Fatalf("update must replace every field, got %+v", updated)
	}
	if !updated.UpdatedAt.After(restored.UpdatedAt) {
		t.Fatal("updated_at must advance")
	}

	w = s.do(t, "alice", http.MethodDelete, path+"/permanent", nil)
	expectStatus(t, w, http.StatusNoContent)

	w = s.do(t, "alice", http.MethodGet, path, nil)
	expectStatus(t, w, http.StatusNotFound)
}

func TestFilterPagination(t *testing.T) {
	s := newTestServer(t, nil)

	for i, status := range []string{"TODO", "IN_PROGRESS", "IN_PROGRESS", "COMPLETED", "IN_PROGRESS"} {
		w := s.do(t, "alice", http.MethodPost, "/api/v1/tasks", map[string]any{
			"title":  "task " + jsonID(int64(i)),
			"status": status,
		})
		expectStatus(t, w, http.StatusCreated)
	}

	w := s.do(t, "alice", http.MethodGet, "/api/v1/tasks/filter?status=in_progress&size=2&page=1&sortBy=id&sortDir=asc", nil)
	expectStatus(t, w, http.StatusOK)
	page := decode[getTasksPageResponse](t, w)
	if page.TotalElements != 3 || page.TotalPages != 2 || page.Number != 1 || page.Size != 2 {
		t.Fatalf("page = %+v", page)
	}
	if len(page.Content) != 1 || page.Content[0].ID != 5 {
		t.Fatalf("content = %+v", page.Content)
	}

	w = s.do(t, "alice", http.MethodGet, "/api/v1/tasks/filter?page=abc&size=-3", nil)
	expectStatus(t, w, http.StatusOK)
	page = decode[getTasksPageResponse](t, w)
	if page.Size != query.DefaultPageSize || page.Number != 0 || page.TotalElements != 5 {
		t.Fatalf("malformed paging must fall back to defaults, got %+v", page)
	}

	w = s.do(t, "alice", http.MethodGet, "/api/v1/tasks/filter?status=DONE", nil)
	expectStatus(t, w, http.StatusBadRequest)

	w = s.do(t, "alice", http.MethodGet, "/api/v1/tasks?paginate=true&size=2", nil)
	expectStatus(t, w, http.StatusOK)
	if page = decode[getTasksPageResponse](t, w); page.TotalPages != 3 {
		t.Fatalf("paginated list = %+v", page)
	}

	w = s.do(t, "alice", http.MethodGet, "/api/v1/tasks/stats", nil)
	expectStatus(t, w, http.StatusOK)
	stats := decode[getTaskStatsResponse](t, w)
	if stats.Total != 5 || stats.Counts["IN_PROGRESS"] != 3 {
		t.Fatalf("stats = %+v", stats)
	}

	w = s.do(t, "alice", http.MethodDelete, "/api/v1/tasks", nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[map[string]int64](t, w); got["affected"] != 5 {
		t.Fatalf("delete all = %v", got)
	}
}

func TestInvalidTaskID(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, "alice", http.MethodGet, "/api/v1/tasks/abc", nil)
	expectStatus(t, w, http.StatusBadRequest)

	w = s.do(t, "alice", http.MethodPatch, "/api/v1/tasks/999/archive", nil)
	expectStatus(t, w, http.StatusNotFound)
}

func TestMutationsArePublished(t *testing.T) {
	s := newTestServer(t, nil)
	feed, cancel := s.hub.Subscribe("alice")
	defer cancel()

	w := s.do(t, "alice", http.MethodPost, "/api/v1/tasks", map[string]any{"title": "watch me"})
	expectStatus(t, w, http.StatusCreated)

	select {
	case e := <-feed:
		if e.Type != events.TaskCreated || e.Task == nil || e.Task.Title != "watch me" {
			t.Fatalf("event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestHealthChecks(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, "", http.MethodGet, "/healthz", nil)
	expectStatus(t, w, http.StatusOK)
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatal("responses must carry a request id")
	}

	w = s.do(t, "", http.MethodGet, "/readyz", nil)
	expectStatus(t, w, http.StatusOK)

	down := newTestServer(t, fakePinger{err: errors.New("connection refused")})
	w = down.do(t, "", http.MethodGet, "/readyz", nil)
	expectStatus(t, w, http.StatusServiceUnavailable)
}

func TestRateLimiterFailsOpen(t *testing.T) {
	s := newTestServer(t, nil)

	// The limiter allows a single request per window, but has no redis
	// client, so every request must pass.
	for i := 0; i < 3; i++ {
		w := s.do(t, "alice", http.MethodGet, "/api/v1/tasks", nil)
		expectStatus(t, w, http.StatusOK)
	}
}

func jsonID(id int64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}
