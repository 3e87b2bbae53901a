package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/train-ticket-booking/internal/model"
)

type fakeOutboxStore struct {
	pending []model.OutboxMessage
	sent    []uint64
}

func (f *fakeOutboxStore) Pending(_ context.Context, limit int) ([]model.OutboxMessage, error) {
	if limit > len(f.pending) {
		limit = len(f.pending)
	}
	return f.pending[:limit], nil
}

func (f *fakeOutboxStore) MarkSent(_ context.Context, id uint64) error {
	f.sent = append(f.sent, id)
	return nil
}

type fakePublisher struct {
	published []string // queue names in publish order
	failAfter int      // publishes to allow before failing; -1 = never fail
}

func (f *fakePublisher) Publish(_ context.Context, queueName string, _ []byte) error {
	if f.failAfter >= 0 && len(f.published) >= f.failAfter {
		return errors.New("broker unreachable")
	}
	f.published = append(f.published, queueName)
	return nil
}

func outboxRow(id uint64) model.OutboxMessage {
	return model.OutboxMessage{
		ID:        id,
		QueueName: PaymentEventsQueue,
		Payload:   json.RawMessage(`{"event_type":"payment.completed","payload":{}}`),
	}
}

func TestRelayPublishesAndMarksPendingRows(t *testing.T) {
	store := &fakeOutboxStore{pending: []model.OutboxMessage{outboxRow(1), outboxRow(2)}}
	pub := &fakePublisher{failAfter: -1}
	relay := NewRelay(store, pub, time.Second, 50)

	sent, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, []string{PaymentEventsQueue, PaymentEventsQueue}, pub.published)
	assert.Equal(t, []uint64{1, 2}, store.sent)
}

func TestRelayLeavesRowsPendingOnPublishFailure(t *testing.T) {
	store := &fakeOutboxStore{pending: []model.OutboxMessage{outboxRow(1), outboxRow(2), outboxRow(3)}}
	pub := &fakePublisher{failAfter: 1} // first publish succeeds, second fails
	relay := NewRelay(store, pub, time.Second, 50)

	sent, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []uint64{1}, store.sent,
		"rows after the first failure stay pending for the next tick")
}

func TestRelayRespectsBatchLimit(t *testing.T) {
	store := &fakeOutboxStore{pending: []model.OutboxMessage{outboxRow(1), outboxRow(2), outboxRow(3)}}
	pub := &fakePublisher{failAfter: -1}
	relay := NewRelay(store, pub, time.Second, 2)

	sent, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
}
