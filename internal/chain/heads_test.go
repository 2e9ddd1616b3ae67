package chain

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

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func TestHeadWatcher_Watch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer c.Close()

		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}
		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			t.Errorf("unmarshal request: %v", err)
			return
		}
		if req.Method != "eth_subscribe" {
			t.Errorf("expected eth_subscribe, got %s", req.Method)
		}

		c.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": "0xsub"})
		for _, n := range []string{"0x10", "0x11"} {
			c.WriteJSON(map[string]interface{}{
				"jsonrpc": "2.0",
				"method":  "eth_subscription",
				"params": map[string]interface{}{
					"subscription": "0xsub",
					"result": map[string]interface{}{
						"number":    n,
						"hash":      "0x00000000000000000000000000000000000000000000000000000000000000ff",
						"timestamp": "0x6553f100",
					},
				},
			})
		}

		// Keep connection open until the client goes away
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	w := NewHeadWatcher(wsURL, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	heads := make(chan Head, 4)
	errCh := make(chan error, 1)
	go func() { errCh <- w.Watch(ctx, heads) }()

	for _, want := range []uint64{16, 17} {
		select {
		case h := <-heads:
			if h.Number != want {
				t.Errorf("expected head %d, got %d", want, h.Number)
			}
			if h.Timestamp != 1700000000 {
				t.Errorf("expected timestamp 1700000000, got %d", h.Timestamp)
			}
		case <-ctx.Done():
			t.Fatal("timed out waiting for head")
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestParseHead_Invalid(t *testing.T) {
	if _, err := parseHead(wsHeader{Number: "16", Timestamp: "0x1"}); err == nil {
		t.Error("expected error for non-hex number")
	}
	if _, err := parseHead(wsHeader{Number: "0x1", Timestamp: ""}); err == nil {
		t.Error("expected error for empty timestamp")
	}
}
