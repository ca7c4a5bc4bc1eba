package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpserver "todo_webapp/internal/http"
	"todo_webapp/internal/http/handlers"
	"todo_webapp/internal/repository/memstore"
	"todo_webapp/internal/service"
	"todo_webapp/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	router *gin.Engine
	hub    *ws.Hub
}

func newTestServer(t *testing.T, checks map[string]handlers.Pinger) *testServer {
	t.Helper()
	return newTestServerWithOrigin(t, checks, "")
}

func newTestServerWithOrigin(t *testing.T, checks map[string]handlers.Pinger, origin string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := memstore.New()
	users := memstore.NewUserRepository(mem)
	hub := ws.NewHub()
	tokens := service.NewTokenService("test-secret", time.Hour)
	auth := service.NewAuthService(users, service.NewBcryptHasher(bcrypt.MinCost), tokens,
		service.NewAuditService(memstore.NewAuditRepository(mem)))
	tasks := service.NewTaskService(memstore.NewTaskRepository(mem), nil, hub)

	h := handlers.NewHandler(auth, tasks, tokens, users, hub, origin)
	health := handlers.NewHealthHandler("test", checks)
	return &testServer{router: httpserver.NewRouter(h, health), hub: hub}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("x-access-token", token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) registerAndLogin(t *testing.T, username, password string) string {
	t.Helper()
	creds := map[string]string{"username": username, "password": password}
	if w := s.do(t, http.MethodPost, "/api/register", "", creds); w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", username, w.Code, w.Body.String())
	}
	w := s.do(t, http.MethodPost, "/api/login", "", creds)
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, w.Code, w.Body.String())
	}
	var out struct {
		Token string `json:"token"`
	}
	decode(t, w, &out)
	if out.Token == "" {
		t.Fatalf("login %s: empty token", username)
	}
	return out.Token
}

type todoJSON struct {
	ID        int64  `json:"id"`
	Task      string `json:"task"`
	Completed bool   `json:"completed"`
	UserID    int64  `json:"user_id"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func expectMessage(t *testing.T, w *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d; want %d (body %s)", w.Code, status, w.Body.String())
	}
	var out struct {
		Message string `json:"message"`
	}
	decode(t, w, &out)
	if out.Message != msg {
		t.Fatalf("message = %q; want %q", out.Message, msg)
	}
}

func TestTodoFlow(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPost, "/api/register", "", map[string]string{"username": "alice", "password": "pw1"})
	expectMessage(t, w, http.StatusCreated, "User registered successfully!")

	w = s.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "pw1"})
	if w.Code != http.StatusOK {
		t.Fatalf("login status %d", w.Code)
	}
	var login struct {
		Token string `json:"token"`
	}
	decode(t, w, &login)
	token := login.Token

	w = s.do(t, http.MethodPost, "/api/todos", "", map[string]string{"task": "buy milk"})
	expectMessage(t, w, http.StatusUnauthorized, "Unauthorized")

	w = s.do(t, http.MethodPost, "/api/todos", token, map[string]string{"task": "buy milk"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status %d body %s", w.Code, w.Body.String())
	}
	var created todoJSON
	decode(t, w, &created)
	if created.ID <= 0 || created.Task != "buy milk" || created.Completed {
		t.Fatalf("unexpected created todo: %+v", created)
	}

	w = s.do(t, http.MethodGet, "/api/todos", token, nil)
	var list []todoJSON
	decode(t, w, &list)
	if len(list) != 1 || list[0] != created {
		t.Fatalf("list = %+v; want [%+v]", list, created)
	}

	path := "/api/todos/" + jsonNumber(created.ID)
	w = s.do(t, http.MethodPut, path, token, map[string]bool{"completed": true})
	if w.Code != http.StatusOK {
		t.Fatalf("update status %d body %s", w.Code, w.Body.String())
	}
	var updated todoJSON
	decode(t, w, &updated)
	if !updated.Completed || updated.ID != created.ID {
		t.Fatalf("unexpected updated todo: %+v", updated)
	}

	w = s.do(t, http.MethodDelete, path, token, nil)
	expectMessage(t, w, http.StatusOK, "Todo deleted successfully!")

	w = s.do(t, http.MethodGet, "/api/todos", token, nil)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("list after delete: status %d body %s", w.Code, w.Body.String())
	}
}

func TestTodosAreIsolatedBetweenUsers(t *testing.T) {
	s := newTestServer(t, nil)
	tokenA := s.registerAndLogin(t, "alice", "pw1")
	tokenB := s.registerAndLogin(t, "bob", "pw2")

	w := s.do(t, http.MethodPost, "/api/todos", tokenA, map[string]string{"task": "secret"})
	var todo todoJSON
	decode(t, w, &todo)
	path := "/api/todos/" + jsonNumber(todo.ID)

	w = s.do(t, http.MethodGet, "/api/todos", tokenB, nil)
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("bob sees %s", w.Body.String())
	}

	w = s.do(t, http.MethodPut, path, tokenB, map[string]bool{"completed": true})
	expectMessage(t, w, http.StatusNotFound, "Todo not found or you do not have permission to edit it")

	w = s.do(t, http.MethodDelete, path, tokenB, nil)
	expectMessage(t, w, http.StatusNotFound, "Todo not found or you do not have permission to delete it")

	// a missing id answers exactly like a foreign one
	w = s.do(t, http.MethodDelete, "/api/todos/999999", tokenB, nil)
	expectMessage(t, w, http.StatusNotFound, "Todo not found or you do not have permission to delete it")

	w = s.do(t, http.MethodGet, "/api/todos", tokenA, nil)
	var list []todoJSON
	decode(t, w, &list)
	if len(list) != 1 || list[0].Completed {
		t.Fatalf("alice's todo was touched: %+v", list)
	}
}

func TestRegisterErrors(t *testing.T) {
	s := newTestServer(t, nil)
	creds := map[string]string{"username": "alice", "password": "pw1"}

	expectMessage(t, s.do(t, http.MethodPost, "/api/register", "", creds), http.StatusCreated, "User registered successfully!")
	expectMessage(t, s.do(t, http.MethodPost, "/api/register", "", creds), http.StatusConflict, "Username already exists!")

	cases := []any{
		map[string]string{"username": "carol"},
		map[string]string{"password": "pw"},
		map[string]string{"username": "   ", "password": "pw"},
	}
	for _, body := range cases {
		w := s.do(t, http.MethodPost, "/api/register", "", body)
		expectMessage(t, w, http.StatusBadRequest, "Username and password are required!")
	}

	w := s.do(t, http.MethodPost, "/api/register", "", "{not json")
	expectMessage(t, w, http.StatusBadRequest, "Invalid request body")

	long := map[string]string{"username": strings.Repeat("u", 81), "password": "pw"}
	if w := s.do(t, http.MethodPost, "/api/register", "", long); w.Code != http.StatusBadRequest {
		t.Fatalf("long username: status %d", w.Code)
	}

	// the limit counts characters, not bytes
	wide := map[string]string{"username": strings.Repeat("ü", 80), "password": "pw"}
	expectMessage(t, s.do(t, http.MethodPost, "/api/register", "", wide), http.StatusCreated, "User registered successfully!")
}

func TestLoginErrors(t *testing.T) {
	s := newTestServer(t, nil)
	s.registerAndLogin(t, "alice", "pw1")

	wrongPassword := s.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "nope"})
	unknownUser := s.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "mallory", "password": "pw1"})
	expectMessage(t, wrongPassword, http.StatusUnauthorized, "Invalid username or password")
	expectMessage(t, unknownUser, http.StatusUnauthorized, "Invalid username or password")

	w := s.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "alice"})
	expectMessage(t, w, http.StatusUnauthorized, "Could not verify")
	if got := w.Header().Get("WWW-Authenticate"); got != `Basic realm="Login required!"` {
		t.Fatalf("WWW-Authenticate = %q", got)
	}
}

func TestProtectedRoutesRejectBadTokens(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.registerAndLogin(t, "alice", "pw1")
	tampered := token + "x"

	for _, tok := range []string{"", "garbage", tampered} {
		for _, route := range []struct{ method, path string }{
			{http.MethodGet, "/api/todos"},
			{http.MethodPost, "/api/todos"},
			{http.MethodPut, "/api/todos/1"},
			{http.MethodDelete, "/api/todos/1"},
			{http.MethodGet, "/api/me"},
		} {
			w := s.do(t, route.method, route.path, tok, nil)
			expectMessage(t, w, http.StatusUnauthorized, "Unauthorized")
		}
	}
}

func TestCreateTodoValidation(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.registerAndLogin(t, "alice", "pw1")

	w := s.do(t, http.MethodPost, "/api/todos", token, map[string]string{"task": ""})
	expectMessage(t, w, http.StatusBadRequest, "Task content is required")

	w = s.do(t, http.MethodPost, "/api/todos", token, map[string]string{})
	expectMessage(t, w, http.StatusBadRequest, "Task content is required")

	// text is stored as sent
	w = s.do(t, http.MethodPost, "/api/todos", token, map[string]string{"task": "  "})
	var blank todoJSON
	decode(t, w, &blank)
	if w.Code != http.StatusCreated || blank.Task != "  " {
		t.Fatalf("whitespace task: status %d todo %+v", w.Code, blank)
	}

	w = s.do(t, http.MethodPost, "/api/todos", token, map[string]string{"task": strings.Repeat("x", 201)})
	expectMessage(t, w, http.StatusBadRequest, "Task longer than 200 characters")

	w = s.do(t, http.MethodPost, "/api/todos", token, map[string]string{"task": strings.Repeat("x", 200)})
	if w.Code != http.StatusCreated {
		t.Fatalf("200-char task: status %d", w.Code)
	}
}

func TestUpdateWithoutCompletedKeepsTodo(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.registerAndLogin(t, "alice", "pw1")

	w := s.do(t, http.MethodPost, "/api/todos", token, map[string]string{"task": "a"})
	var todo todoJSON
	decode(t, w, &todo)

	w = s.do(t, http.MethodPut, "/api/todos/"+jsonNumber(todo.ID), token, map[string]string{})
	var got todoJSON
	decode(t, w, &got)
	if w.Code != http.StatusOK || got != todo {
		t.Fatalf("status %d todo %+v; want %+v", w.Code, got, todo)
	}

	w = s.do(t, http.MethodPut, "/api/todos/abc", token, map[string]bool{"completed": true})
	expectMessage(t, w, http.StatusNotFound, "Todo not found or you do not have permission to edit it")
}

func TestDeleteAccount(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.registerAndLogin(t, "alice", "pw1")
	s.do(t, http.MethodPost, "/api/todos", token, map[string]string{"task": "a"})

	w := s.do(t, http.MethodGet, "/api/me", token, nil)
	var me struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	}
	decode(t, w, &me)
	if me.Username != "alice" || me.ID <= 0 {
		t.Fatalf("me = %+v", me)
	}

	expectMessage(t, s.do(t, http.MethodDelete, "/api/me", token, nil), http.StatusOK, "Account deleted successfully!")
	expectMessage(t, s.do(t, http.MethodGet, "/api/todos", token, nil), http.StatusUnauthorized, "Unauthorized")

	// the name is free again
	s.registerAndLogin(t, "alice", "pw2")
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, map[string]handlers.Pinger{"database": nil})
	if w := s.do(t, http.MethodGet, "/healthz", "", nil); w.Code != http.StatusOK {
		t.Fatalf("healthz: %d", w.Code)
	}
	w := s.do(t, http.MethodGet, "/readyz", "", nil)
	var out handlers.HealthResponse
	decode(t, w, &out)
	if w.Code != http.StatusOK || out.Checks["database"] != "disabled" {
		t.Fatalf("readyz: status %d checks %v", w.Code, out.Checks)
	}

	down := newTestServer(t, map[string]handlers.Pinger{
		"redis": handlers.PingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})
	if w := down.do(t, http.MethodGet, "/readyz", "", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with failing check: %d", w.Code)
	}
	if w := down.do(t, http.MethodGet, "/health", "", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("health with failing check: %d", w.Code)
	}
}

func TestEventsStream(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.registerAndLogin(t, "alice", "pw1")

	if w := s.do(t, http.MethodGet, "/api/events", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("events without token: %d", w.Code)
	}

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() map[string]any {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var obj map[string]any
		if err := json.Unmarshal(msg, &obj); err != nil {
			t.Fatalf("decode %s: %v", msg, err)
		}
		return obj
	}

	if msg := read(); msg["type"] != "ready" {
		t.Fatalf("first message = %v; want ready", msg)
	}

	s.do(t, http.MethodPost, "/api/todos", token, map[string]string{"task": "live"})
	msg := read()
	event, _ := msg["event"].(map[string]any)
	if msg["type"] != "event" || event["type"] != "todo_created" {
		t.Fatalf("unexpected event: %v", msg)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"hello"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if msg := read(); msg["type"] != "error" {
		t.Fatalf("expected error reply, got %v", msg)
	}
}

func jsonNumber(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestAllowedOriginAppliesToCORSAndEvents(t *testing.T) {
	const allowed = "https://app.example"
	s := newTestServerWithOrigin(t, nil, allowed)
	token := s.registerAndLogin(t, "alice", "pw1")

	for origin, want := range map[string]string{allowed: allowed, "https://evil.example": ""} {
		req := httptest.NewRequest(http.MethodOptions, "/api/todos", nil)
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != want {
			t.Fatalf("CORS for %s = %q; want %q", origin, got, want)
		}
	}

	srv := httptest.NewServer(s.router)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events?token=" + token

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {allowed}})
	if err != nil {
		t.Fatalf("dial with allowed origin: %v", err)
	}
	conn.Close()

	if conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}}); err == nil {
		conn.Close()
		t.Fatalf("handshake from a foreign origin succeeded")
	}
}

func TestActivity(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.registerAndLogin(t, "alice", "pw1")
	s.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "bad"})

	w := s.do(t, http.MethodGet, "/api/me/activity", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("activity: status %d body %s", w.Code, w.Body.String())
	}
	var logs []struct {
		Action string `json:"action"`
	}
	decode(t, w, &logs)
	want := []string{"login_failed", "login", "register"}
	if len(logs) != len(want) {
		t.Fatalf("activity = %+v; want %v", logs, want)
	}
	for i := range want {
		if logs[i].Action != want[i] {
			t.Fatalf("entry %d = %s; want %s", i, logs[i].Action, want[i])
		}
	}

	w = s.do(t, http.MethodGet, "/api/me/activity?limit=1", token, nil)
	decode(t, w, &logs)
	if len(logs) != 1 {
		t.Fatalf("limit=1 returned %d entries", len(logs))
	}

	expectMessage(t, s.do(t, http.MethodGet, "/api/me/activity?limit=x", token, nil), http.StatusBadRequest, "Invalid limit")
	expectMessage(t, s.do(t, http.MethodGet, "/api/me/activity", "", nil), http.StatusUnauthorized, "Unauthorized")
}
