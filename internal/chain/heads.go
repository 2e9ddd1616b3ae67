package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Head is a new chain head notification.
type Head struct {
	Number    uint64
	Hash      common.Hash
	Timestamp int64
}

// HeadWatcherConfig configures websocket behavior.
type HeadWatcherConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// ReadTimeout bounds the silence between two messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultHeadWatcherConfig returns default websocket configuration.
func DefaultHeadWatcherConfig() HeadWatcherConfig {
	return HeadWatcherConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// HeadWatcher subscribes to newHeads over a JSON-RPC websocket.
type HeadWatcher struct {
	endpoint  string
	config    HeadWatcherConfig
	logger    *zap.Logger
	requestID atomic.Uint64
}

// NewHeadWatcher creates a HeadWatcher. A nil config uses the defaults.
func NewHeadWatcher(endpoint string, config *HeadWatcherConfig, logger *zap.Logger) *HeadWatcher {
	cfg := DefaultHeadWatcherConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HeadWatcher{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger,
	}
}

// wsRequest is a JSON-RPC 2.0 request.
type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// wsMessage covers both subscription responses and notifications.
type wsMessage struct {
	ID     *uint64         `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *wsError        `json:"error"`
	Method string          `json:"method"`
	Params *struct {
		Subscription string   `json:"subscription"`
		Result       wsHeader `json:"result"`
	} `json:"params"`
}

type wsError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *wsError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

type wsHeader struct {
	Number    string      `json:"number"`
	Hash      common.Hash `json:"hash"`
	Timestamp string      `json:"timestamp"`
}

// Watch delivers heads to out until ctx is canceled, reconnecting with
// capped exponential backoff whenever the connection drops.
func (w *HeadWatcher) Watch(ctx context.Context, out chan<- Head) error {
	delay := w.config.ReconnectDelay

	for {
		subscribed, err := w.session(ctx, out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if subscribed {
			delay = w.config.ReconnectDelay
		}
		w.logger.Warn("head subscription dropped, reconnecting",
			zap.Error(err),
			zap.Duration("delay", delay),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > w.config.MaxReconnectDelay {
			delay = w.config.MaxReconnectDelay
		}
	}
}

// session runs one connection. It reports whether the subscription was confirmed.
func (w *HeadWatcher) session(ctx context.Context, out chan<- Head) (bool, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("websocket dial: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
			conn.Close()
		}
	}()

	reqID := w.requestID.Add(1)
	conn.SetWriteDeadline(time.Now().Add(w.config.WriteTimeout))
	if err := conn.WriteJSON(wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "eth_subscribe",
		Params:  []interface{}{"newHeads"},
	}); err != nil {
		return false, fmt.Errorf("write subscribe: %w", err)
	}

	subscribed := false
	for {
		conn.SetReadDeadline(time.Now().Add(w.config.ReadTimeout))
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return subscribed, fmt.Errorf("read: %w", err)
		}

		switch {
		case msg.ID != nil && *msg.ID == reqID:
			if msg.Error != nil {
				return false, msg.Error
			}
			subscribed = true
			w.logger.Info("subscribed to new heads", zap.String("endpoint", w.endpoint))

		case msg.Method == "eth_subscription" && msg.Params != nil:
			head, err := parseHead(msg.Params.Result)
			if err != nil {
				w.logger.Warn("skipping malformed head", zap.Error(err))
				continue
			}
			select {
			case out <- head:
			case <-ctx.Done():
				return subscribed, ctx.Err()
			}
		}
	}
}

func parseHead(h wsHeader) (Head, error) {
	number, err := hexutil.DecodeUint64(h.Number)
	if err != nil {
		return Head{}, fmt.Errorf("head number %q: %w", h.Number, err)
	}
	ts, err := hexutil.DecodeUint64(h.Timestamp)
	if err != nil {
		return Head{}, fmt.Errorf("head timestamp %q: %w", h.Timestamp, err)
	}
	return Head{Number: number, Hash: h.Hash, Timestamp: int64(ts)}, nil
}
