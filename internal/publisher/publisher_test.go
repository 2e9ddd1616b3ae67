package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opium-checker/internal/domain"
)

func TestPublishDecision(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, DefaultTopic)
	require.NoError(t, err)

	p := NewWithPublisher(pubSub, "", nil)
	assert.Equal(t, DefaultTopic, p.Topic())

	d := &domain.Decision{
		RunID:     "run-1",
		Mode:      domain.ModeDeposit,
		Scheduler: "0x5C4E000000000000000000000000000000000001",
		CanExec:   true,
		ExecData:  "0x252dba42",
		CreatedAt: time.Unix(1700000000, 0).UTC(),
	}
	require.NoError(t, p.PublishDecision(ctx, d))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, "run-1", msg.Metadata.Get("run_id"))
		assert.Equal(t, "deposit", msg.Metadata.Get("mode"))

		var got domain.Decision
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, *d, got)
	case <-ctx.Done():
		t.Fatal("timed out waiting for decision")
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(string, ...*message.Message) error {
	return errors.New("redis unavailable")
}

func (failingPublisher) Close() error { return nil }

func TestPublishDecision_Error(t *testing.T) {
	p := NewWithPublisher(failingPublisher{}, "decisions", nil)

	err := p.PublishDecision(context.Background(), &domain.Decision{RunID: "run-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run-1")
}
