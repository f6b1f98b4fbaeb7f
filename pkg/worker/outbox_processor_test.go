package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/messaging"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

type statusUpdate struct {
	status model.OutboxStatus
	errMsg *string
}

type mockOutboxRepo struct {
	events  []*model.OutboxEvent
	updates map[uuid.UUID]statusUpdate
}

func (m *mockOutboxRepo) GetPendingEventsWithLock(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	if len(m.events) < limit {
		limit = len(m.events)
	}
	return m.events[:limit], nil
}

func (m *mockOutboxRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error {
	if m.updates == nil {
		m.updates = make(map[uuid.UUID]statusUpdate)
	}
	m.updates[id] = statusUpdate{status: status, errMsg: errMsg}
	return nil
}

type published struct {
	channel string
	msg     messaging.Message
}

type mockBroker struct {
	failFor  map[string]int
	attempts map[string]int
	sent     []published
}

func (b *mockBroker) Publish(_ context.Context, channel string, message interface{}) error {
	msg := message.(messaging.Message)
	if b.attempts == nil {
		b.attempts = make(map[string]int)
	}
	b.attempts[msg.ID]++
	if b.attempts[msg.ID] <= b.failFor[msg.ID] {
		return errors.New("redis unavailable")
	}
	b.sent = append(b.sent, published{channel: channel, msg: msg})
	return nil
}

func (b *mockBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not supported")
}

func (b *mockBroker) Close() error { return nil }

func newEvent(t *testing.T) *model.OutboxEvent {
	t.Helper()
	e, err := model.NewOutboxEvent(model.EventAppointmentScheduled, map[string]string{"appointment_id": uuid.NewString()}, time.Now())
	require.NoError(t, err)
	return e
}

func testConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	}
}

func TestNewOutboxProcessorValidatesConfig(t *testing.T) {
	cfg := testConfig()
	cfg.BatchSize = 0
	_, err := NewOutboxProcessor(&mockOutboxRepo{}, &mockBroker{}, cfg, logger.Nop(), metrics.NewMetrics("test", "", nil))
	assert.Error(t, err)
}

func TestProcessBatch(t *testing.T) {
	ok, flaky, broken := newEvent(t), newEvent(t), newEvent(t)
	repo := &mockOutboxRepo{events: []*model.OutboxEvent{ok, flaky, broken}}
	broker := &mockBroker{failFor: map[string]int{
		flaky.ID.String():  2,
		broken.ID.String(): 10,
	}}

	p, err := NewOutboxProcessor(repo, broker, testConfig(), logger.Nop(), metrics.NewMetrics("test", "", nil))
	require.NoError(t, err)

	n, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, model.OutboxStatusProcessed, repo.updates[ok.ID].status)
	assert.Equal(t, model.OutboxStatusProcessed, repo.updates[flaky.ID].status)
	assert.Equal(t, 3, broker.attempts[flaky.ID.String()])

	failed := repo.updates[broken.ID]
	assert.Equal(t, model.OutboxStatusFailed, failed.status)
	require.NotNil(t, failed.errMsg)
	assert.Contains(t, *failed.errMsg, "redis unavailable")
	assert.Equal(t, 3, broker.attempts[broken.ID.String()])

	require.Len(t, broker.sent, 2)
	assert.Equal(t, model.EventAppointmentScheduled, broker.sent[0].channel)
	assert.Equal(t, ok.ID.String(), broker.sent[0].msg.ID)

	raw, err := json.Marshal(broker.sent[0].msg)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"appointment.scheduled"`)
	assert.Contains(t, string(raw), `"appointment_id"`)
}

func TestProcessBatchUsesConfiguredChannel(t *testing.T) {
	repo := &mockOutboxRepo{events: []*model.OutboxEvent{newEvent(t)}}
	broker := &mockBroker{}
	cfg := testConfig()
	cfg.Channel = "clinic-events"

	p, err := NewOutboxProcessor(repo, broker, cfg, logger.Nop(), metrics.NewMetrics("test", "", nil))
	require.NoError(t, err)

	_, err = p.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, broker.sent, 1)
	assert.Equal(t, "clinic-events", broker.sent[0].channel)
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retry(ctx, 5, time.Hour, func() error {
		calls++
		cancel()
		return errors.New("fail")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
