package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"quest-server/internal/messaging"
	"quest-server/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeChannel struct {
	mu          sync.Mutex
	declared    []string
	declareErr  error
	failures    int
	published   []amqp.Publishing
	routingKeys []string
	ctxAlive    []bool
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	if f.declareErr != nil {
		return amqp.Queue{}, f.declareErr
	}
	f.declared = append(f.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxAlive = append(f.ctxAlive, ctx.Err() == nil)
	if f.failures > 0 {
		f.failures--
		return errors.New("channel closed")
	}
	f.routingKeys = append(f.routingKeys, key)
	f.published = append(f.published, msg)
	return nil
}

func TestSelectionPublisher_Record(t *testing.T) {
	ch := &fakeChannel{}
	pub, err := messaging.NewSelectionPublisher(ch, "selection_stats", nil, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"selection_stats"}, ch.declared)

	event := models.SelectionEvent{UserID: "42", StoryID: "s1", NodeID: "a", OptionText: "opt1", SelectedAt: time.Now().UTC()}
	pub.Record(context.Background(), event)

	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, "selection_stats", ch.routingKeys[0])
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)

	var got models.SelectionEvent
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, event.StoryID, got.StoryID)
	assert.Equal(t, event.OptionText, got.OptionText)
	assert.True(t, event.SelectedAt.Equal(got.SelectedAt))
}

func TestSelectionPublisher_RetriesAndIgnoresCancelledRequest(t *testing.T) {
	ch := &fakeChannel{failures: 2}
	pub, err := messaging.NewSelectionPublisher(ch, "q", nil, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pub.Record(ctx, models.SelectionEvent{StoryID: "s1", NodeID: "a", OptionText: "opt1"})

	assert.Len(t, ch.published, 1)
	assert.Equal(t, []bool{true, true, true}, ch.ctxAlive)
}

func TestSelectionPublisher_GivesUpSilently(t *testing.T) {
	ch := &fakeChannel{failures: 10}
	pub, err := messaging.NewSelectionPublisher(ch, "q", nil, zap.NewNop())
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		pub.Record(context.Background(), models.SelectionEvent{StoryID: "s1", NodeID: "a", OptionText: "opt1"})
	})
	assert.Empty(t, ch.published)
	assert.Len(t, ch.ctxAlive, 3)
}

func TestNewSelectionPublisher_DeclareFailure(t *testing.T) {
	_, err := messaging.NewSelectionPublisher(&fakeChannel{declareErr: errors.New("access refused")}, "q", nil, zap.NewNop())
	assert.Error(t, err)

	_, err = messaging.NewSelectionPublisher(nil, "q", nil, zap.NewNop())
	assert.Error(t, err)
}
