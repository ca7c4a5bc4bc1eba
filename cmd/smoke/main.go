package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

var client = &http.Client{Timeout: 5 * time.Second}

func main() {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	base := fmt.Sprintf("http://127.0.0.1:%s", port)
	suffix := time.Now().UnixNano()

	userA := fmt.Sprintf("smokeA_%d", suffix)
	userB := fmt.Sprintf("smokeB_%d", suffix)
	tokenA := registerAndLogin(base, userA)
	tokenB := registerAndLogin(base, userB)

	wsURL := fmt.Sprintf("ws://127.0.0.1:%s/api/events?token=%s", port, tokenA)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("dial events: %v", err)
	}
	defer conn.Close()
	readEvent(conn, "ready")

	var created struct {
		ID   int64  `json:"id"`
		Task string `json:"task"`
	}
	expect(call(base, http.MethodPost, "/api/todos", tokenA, map[string]any{"task": "buy milk"}, &created), http.StatusCreated, "create todo")
	readEvent(conn, "event")

	var list []map[string]any
	expect(call(base, http.MethodGet, "/api/todos", tokenA, nil, &list), http.StatusOK, "list A")
	if len(list) != 1 {
		log.Fatalf("list A: got %d todos; want 1", len(list))
	}
	expect(call(base, http.MethodGet, "/api/todos", tokenB, nil, &list), http.StatusOK, "list B")
	if len(list) != 0 {
		log.Fatalf("list B: got %d todos; want 0", len(list))
	}

	path := fmt.Sprintf("/api/todos/%d", created.ID)
	expect(call(base, http.MethodPut, path, tokenB, map[string]any{"completed": true}, nil), http.StatusNotFound, "B updates A's todo")
	expect(call(base, http.MethodDelete, path, tokenB, nil, nil), http.StatusNotFound, "B deletes A's todo")

	expect(call(base, http.MethodPut, path, tokenA, map[string]any{"completed": true}, nil), http.StatusOK, "complete todo")
	readEvent(conn, "event")
	expect(call(base, http.MethodDelete, path, tokenA, nil, nil), http.StatusOK, "delete todo")
	readEvent(conn, "event")

	expect(call(base, http.MethodDelete, "/api/me", tokenA, nil, nil), http.StatusOK, "delete A")
	expect(call(base, http.MethodDelete, "/api/me", tokenB, nil, nil), http.StatusOK, "delete B")
	expect(call(base, http.MethodGet, "/api/todos", tokenA, nil, nil), http.StatusUnauthorized, "token of deleted user")

	log.Println("smoke test finished")
}

func registerAndLogin(base, username string) string {
	creds := map[string]string{"username": username, "password": "smoke-pass"}
	expect(call(base, http.MethodPost, "/api/register", "", creds, nil), http.StatusCreated, "register "+username)

	var out struct {
		Token string `json:"token"`
	}
	expect(call(base, http.MethodPost, "/api/login", "", creds, &out), http.StatusOK, "login "+username)
	if out.Token == "" {
		log.Fatalf("login %s: empty token", username)
	}
	return out.Token
}

func call(base, method, path, token string, body, out any) int {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			log.Fatalf("encode body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, base+path, r)
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("x-access-token", token)
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			log.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func expect(got, want int, step string) {
	if got != want {
		log.Fatalf("%s: status %d; want %d", step, got, want)
	}
	log.Printf("%s: ok", step)
}

func readEvent(conn *websocket.Conn, want string) {
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		log.Fatalf("read %s: %v", want, err)
	}
	var obj map[string]any
	_ = json.Unmarshal(msg, &obj)
	if t, _ := obj["type"].(string); t != want {
		log.Fatalf("got %s; want type %s", string(msg), want)
	}
	log.Printf("ws got: %s", string(msg))
}
