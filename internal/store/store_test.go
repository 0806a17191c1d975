package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestStores_RoundTrip(t *testing.T) {
	stores := map[string]TokenStore{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(t.TempDir()),
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, ok, err := s.Get(ctx, RefreshTokenKey); err != nil || ok {
				t.Fatalf("Get on empty store = ok %v, err %v; want absent", ok, err)
			}

			if err := s.Set(ctx, RefreshTokenKey, "first"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := s.Set(ctx, RefreshTokenKey, "second"); err != nil {
				t.Fatalf("Set: %v", err)
			}

			v, ok, err := s.Get(ctx, RefreshTokenKey)
			if err != nil || !ok {
				t.Fatalf("Get = ok %v, err %v", ok, err)
			}
			if v != "second" {
				t.Errorf("Get = %q, want %q", v, "second")
			}
		})
	}
}

func TestFileStore_RejectsPathKeys(t *testing.T) {
	s := NewFileStore(t.TempDir())
	for _, key := range []string{"", "..", "a/b", `a\b`} {
		if err := s.Set(context.Background(), key, "v"); err == nil {
			t.Errorf("Set(%q) expected error", key)
		}
	}
}

// fakeUpstash mimics the subset of the Upstash REST API the store uses.
func fakeUpstash(t *testing.T, token string) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	data := map[string]string{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"WRONGPASS invalid password"}`))
			return
		}

		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
		mu.Lock()
		defer mu.Unlock()
		switch {
		case len(parts) == 2 && parts[0] == "get":
			v, ok := data[parts[1]]
			if !ok {
				w.Write([]byte(`{"result":null}`))
				return
			}
			w.Write([]byte(`{"result":"` + v + `"}`))
		case len(parts) == 3 && parts[0] == "set":
			data[parts[1]] = parts[2]
			w.Write([]byte(`{"result":"OK"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"unknown command"}`))
		}
	}))
}

func TestUpstashStore(t *testing.T) {
	ts := fakeUpstash(t, "kv-token")
	defer ts.Close()

	s := NewUpstashStore(ts.URL+"/", "kv-token", ts.Client())
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, RefreshTokenKey); err != nil || ok {
		t.Fatalf("Get on empty store = ok %v, err %v; want absent", ok, err)
	}
	if err := s.Set(ctx, RefreshTokenKey, "rt-123"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := s.Get(ctx, RefreshTokenKey)
	if err != nil || !ok || v != "rt-123" {
		t.Errorf("Get = %q, %v, %v; want rt-123", v, ok, err)
	}
}

func TestUpstashStore_Unauthorized(t *testing.T) {
	ts := fakeUpstash(t, "kv-token")
	defer ts.Close()

	s := NewUpstashStore(ts.URL, "wrong", ts.Client())
	_, _, err := s.Get(context.Background(), RefreshTokenKey)
	if err == nil {
		t.Fatal("expected error for wrong token")
	}
	if !strings.Contains(err.Error(), "WRONGPASS") {
		t.Errorf("error should carry provider message, got %v", err)
	}
	if err := s.Set(context.Background(), RefreshTokenKey, "x"); err == nil {
		t.Error("expected Set error for wrong token")
	}
}
