package services

import (
	"context"
	"errors"
	"standbot/internal/models"
	"standbot/internal/structures"
	"standbot/internal/testutil"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu     sync.Mutex
	seen   map[int64][]int64
	count  int
	failOn int64
	panics bool
	done   chan struct{}
	want   int
}

func newRecordingHandler(want int) *recordingHandler {
	return &recordingHandler{seen: map[int64][]int64{}, done: make(chan struct{}), want: want}
}

func (h *recordingHandler) Handle(_ context.Context, event models.Event) error {
	meta := event.Meta()
	h.mu.Lock()
	h.seen[meta.ConversationID] = append(h.seen[meta.ConversationID], meta.Timestamp)
	h.count++
	if h.count == h.want {
		close(h.done)
	}
	h.mu.Unlock()

	if meta.Timestamp == h.failOn {
		if h.panics {
			panic("boom")
		}
		return models.NewStorageError("apply session", errors.New("disk full"))
	}
	return nil
}

func (h *recordingHandler) ResumeLive(context.Context) error { return nil }

func runDispatcher(t *testing.T, d *Dispatcher) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("dispatcher did not stop")
		}
	})
	return cancel
}

func dispatcherConfig(workers int) *structures.Config {
	return &structures.Config{Telegram: structures.TelegramConfig{Workers: workers, QueueSize: 8}}
}

func TestDispatcher_PreservesPerConversationOrder(t *testing.T) {
	convs := []int64{-1001, -1002, 501, 502, -7}
	const perConv = 50
	h := newRecordingHandler(len(convs) * perConv)
	d := NewDispatcher(dispatcherConfig(3), h, &testutil.MockLogger{})
	runDispatcher(t, d)

	ctx := context.Background()
	for i := int64(1); i <= perConv; i++ {
		for _, c := range convs {
			require.NoError(t, d.Submit(ctx, models.TextEvent{EventMeta: models.EventMeta{ConversationID: c, Timestamp: i}}))
		}
	}

	select {
	case <-h.done:
	case <-time.After(5 * time.Second):
		t.Fatal("events were not handled")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range convs {
		require.Len(t, h.seen[c], perConv)
		for i, ts := range h.seen[c] {
			assert.Equal(t, int64(i+1), ts, "conversation %d out of order", c)
		}
	}
}

func TestDispatcher_HandlerErrorsDoNotStopWorkers(t *testing.T) {
	h := newRecordingHandler(2)
	h.failOn = 1
	logger := &testutil.MockLogger{}
	d := NewDispatcher(dispatcherConfig(1), h, logger)
	runDispatcher(t, d)

	ctx := context.Background()
	require.NoError(t, d.Submit(ctx, models.TextEvent{EventMeta: models.EventMeta{ConversationID: 1, Timestamp: 1}}))
	require.NoError(t, d.Submit(ctx, models.TextEvent{EventMeta: models.EventMeta{ConversationID: 1, Timestamp: 2}}))

	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("second event was not handled")
	}
	assert.Eventually(t, func() bool { return logger.Contains("error", "disk full") }, time.Second, 10*time.Millisecond)
}

func TestDispatcher_RecoversFromPanic(t *testing.T) {
	h := newRecordingHandler(2)
	h.failOn = 1
	h.panics = true
	logger := &testutil.MockLogger{}
	d := NewDispatcher(dispatcherConfig(1), h, logger)
	runDispatcher(t, d)

	ctx := context.Background()
	require.NoError(t, d.Submit(ctx, models.TextEvent{EventMeta: models.EventMeta{ConversationID: 1, Timestamp: 1}}))
	require.NoError(t, d.Submit(ctx, models.TextEvent{EventMeta: models.EventMeta{ConversationID: 1, Timestamp: 2}}))

	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker died after panic")
	}
	assert.Eventually(t, func() bool { return logger.Contains("error", "recovered from panic") }, time.Second, 10*time.Millisecond)
}

func TestDispatcher_SubmitAfterStop(t *testing.T) {
	d := NewDispatcher(&structures.Config{Telegram: structures.TelegramConfig{Workers: 1, QueueSize: 1}}, newRecordingHandler(-1), &testutil.MockLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = d.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	err := d.Submit(context.Background(), models.TextEvent{EventMeta: models.EventMeta{ConversationID: 1}})
	assert.ErrorIs(t, err, ErrDispatcherStopped)
}

func TestDispatcher_NegativeIDsRouteConsistently(t *testing.T) {
	d := NewDispatcher(dispatcherConfig(4), newRecordingHandler(-1), &testutil.MockLogger{})
	assert.Equal(t, d.queueFor(-1001), d.queueFor(-1001))
	assert.NotPanics(t, func() { d.queueFor(-9223372036854775808) })
}
