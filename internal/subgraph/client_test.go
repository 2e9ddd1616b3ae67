package subgraph

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPClient_QuerySubgraph(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/opiumprotocol/opium-v2" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}

		var req graphQLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Query != "{ deposits { user } }" {
			t.Errorf("unexpected query %q", req.Query)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"deposits":[]}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL + "/")
	body, err := client.QuerySubgraph(context.Background(), "opiumprotocol", "opium-v2", "{ deposits { user } }")
	if err != nil {
		t.Fatalf("QuerySubgraph: %v", err)
	}

	if string(body) != `{"data":{"deposits":[]}}` {
		t.Errorf("unexpected body %s", body)
	}
}

func TestHTTPClient_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	_, err := client.QuerySubgraph(context.Background(), "a", "b", "{}")
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestHTTPClient_RetryOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithMaxRetries(3), WithRetryDelay(10*time.Millisecond))
	if _, err := client.QuerySubgraph(context.Background(), "a", "b", "{}"); err != nil {
		t.Fatalf("QuerySubgraph: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}
