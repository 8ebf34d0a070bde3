package walletrpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestJSONRPCClient_Call(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Method != "get_height" {
			t.Fatalf("method = %q, want get_height", req.Method)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      "0",
			"result":  map[string]any{"height": 12345},
		})
	}))
	defer srv.Close()

	c := newJSONRPCClient(srv.URL, "", "")
	var res heightResult
	if err := c.call(context.Background(), "get_height", nil, &res); err != nil {
		t.Fatalf("call: %v", err)
	}
	if res.Height != 12345 {
		t.Fatalf("Height = %d, want 12345", res.Height)
	}
}

func TestJSONRPCClient_CallError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      "0",
			"error":   map[string]any{"code": -1, "message": "nope"},
		})
	}))
	defer srv.Close()

	c := newJSONRPCClient(srv.URL, "", "")
	err := c.call(context.Background(), "transfer", nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestJSONRPCClient_DigestAuthChallengeThenRetry(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		auth := r.Header.Get("Authorization")
		if auth == "" {
			w.Header().Set("WWW-Authenticate", `Digest realm="monero-rpc", nonce="abc123", qop="auth"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(auth, "Digest ") || !strings.Contains(auth, `username="user"`) {
			t.Fatalf("unexpected Authorization header: %q", auth)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      "0",
			"result":  map[string]any{"height": 99},
		})
	}))
	defer srv.Close()

	c := newJSONRPCClient(srv.URL, "user", "pass")
	var res heightResult
	if err := c.call(context.Background(), "get_height", nil, &res); err != nil {
		t.Fatalf("call: %v", err)
	}
	if res.Height != 99 {
		t.Fatalf("Height = %d, want 99", res.Height)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2 (challenge then authenticated retry)", calls)
	}
}

func TestJSONRPCClient_DigestAuthReusesChallengeAcrossCalls(t *testing.T) {
	var unauthenticatedCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			unauthenticatedCalls++
			w.Header().Set("WWW-Authenticate", `Digest realm="monero-rpc", nonce="abc123", qop="auth"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      "0",
			"result":  map[string]any{"height": 1},
		})
	}))
	defer srv.Close()

	c := newJSONRPCClient(srv.URL, "user", "pass")
	for i := 0; i < 3; i++ {
		var res heightResult
		if err := c.call(context.Background(), "get_height", nil, &res); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if unauthenticatedCalls != 1 {
		t.Fatalf("unauthenticatedCalls = %d, want 1 (challenge cached after first call)", unauthenticatedCalls)
	}
}
