package testutil

import (
	"context"
	"errors"
	"fmt"
	"standbot/internal/models"
	"standbot/internal/providers"
	"strings"
	"sync"
	"time"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (e LogEntry) Message() string {
	return fmt.Sprintf(e.Format, e.Args...)
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many entries were logged at level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Logs {
		if e.Level == level {
			n++
		}
	}
	return n
}

// Contains reports whether any entry at level has a message containing substr.
func (m *MockLogger) Contains(level, substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Logs {
		if e.Level == level && strings.Contains(e.Message(), substr) {
			return true
		}
	}
	return false
}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu                sync.Mutex
	Requests          int
	CacheHits         int
	CacheMisses       int
	Persisted         int
	Dialogues         int
	Sessions          map[string]int
	Live              bool
	BroadcastEdits    map[string]int
	Classifier        map[string]int
	TransportFailures map[string]int
	Upserts           int
}

func (m *MockMetrics) inc(target *map[string]int, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if *target == nil {
		*target = make(map[string]int)
	}
	(*target)[key]++
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits(_ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}
func (m *MockMetrics) IncCacheMisses(_ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}
func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Persisted++
}
func (m *MockMetrics) SetDialoguesTotal(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Dialogues = count
}
func (m *MockMetrics) IncSessions(event string) { m.inc(&m.Sessions, event) }
func (m *MockMetrics) SetLiveSession(active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Live = active
}
func (m *MockMetrics) IncBroadcastEdits(result string)  { m.inc(&m.BroadcastEdits, result) }
func (m *MockMetrics) IncClassifier(result string)      { m.inc(&m.Classifier, result) }
func (m *MockMetrics) IncTransportFailures(op string)   { m.inc(&m.TransportFailures, op) }
func (m *MockMetrics) ObserveUpsertDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Upserts++
}

// SessionCount returns the number of IncSessions calls for event.
func (m *MockMetrics) SessionCount(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Sessions[event]
}

func (m *MockMetrics) FailureCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.TransportFailures[op]
}

func (m *MockMetrics) ClassifierCount(result string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Classifier[result]
}

func (m *MockMetrics) BroadcastCount(result string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.BroadcastEdits[result]
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

func (m *MockCache) Del(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Data, key)
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
	Closed       bool
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() { m.Closed = true }

// SentMessage is one call recorded by MockTransport.
type SentMessage struct {
	ChatID   int64
	Text     string
	Keyboard *models.Keyboard
	Ref      models.MessageRef
}

type Edit struct {
	Ref  models.MessageRef
	Text string
}

// MockTransport implements interfaces.Transport and interfaces.NameResolver.
// Calls are recorded; the *Err fields make the matching operation fail.
type MockTransport struct {
	mu       sync.Mutex
	nextID   int64
	Messages []SentMessage
	Edits    []Edit
	Pins     []models.MessageRef
	Unpins   []models.MessageRef
	Media    []SentMessage
	Titles   map[int64]string

	SendErr   error
	EditErr   error
	PinErr    error
	UnpinErr  error
	MediaErr  error
	TitleErr  error
	TitleHits int
}

func (m *MockTransport) ref(chatID int64) models.MessageRef {
	m.nextID++
	return models.MessageRef{ChatID: chatID, MessageID: m.nextID}
}

func (m *MockTransport) SendMessage(_ context.Context, chatID int64, text string, keyboard *models.Keyboard) (models.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return models.MessageRef{}, models.NewTransportError("sendMessage", m.SendErr)
	}
	r := m.ref(chatID)
	m.Messages = append(m.Messages, SentMessage{ChatID: chatID, Text: text, Keyboard: keyboard, Ref: r})
	return r, nil
}

func (m *MockTransport) EditMessage(_ context.Context, ref models.MessageRef, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EditErr != nil {
		return models.NewTransportError("editMessageText", m.EditErr)
	}
	m.Edits = append(m.Edits, Edit{Ref: ref, Text: text})
	return nil
}

func (m *MockTransport) PinMessage(_ context.Context, ref models.MessageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PinErr != nil {
		return models.NewTransportError("pinChatMessage", m.PinErr)
	}
	m.Pins = append(m.Pins, ref)
	return nil
}

func (m *MockTransport) UnpinMessage(_ context.Context, ref models.MessageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UnpinErr != nil {
		return models.NewTransportError("unpinChatMessage", m.UnpinErr)
	}
	m.Unpins = append(m.Unpins, ref)
	return nil
}

func (m *MockTransport) SendMedia(_ context.Context, chatID int64, mediaID string) (models.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MediaErr != nil {
		return models.MessageRef{}, models.NewTransportError("sendSticker", m.MediaErr)
	}
	r := m.ref(chatID)
	m.Media = append(m.Media, SentMessage{ChatID: chatID, Text: mediaID, Ref: r})
	return r, nil
}

func (m *MockTransport) ConversationTitle(_ context.Context, chatID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TitleHits++
	if m.TitleErr != nil {
		return "", models.NewTransportError("getChat", m.TitleErr)
	}
	if title, ok := m.Titles[chatID]; ok {
		return title, nil
	}
	return "", models.NewTransportError("getChat", errors.New("chat not found"))
}

// TextsTo returns the texts sent to chatID in order.
func (m *MockTransport) TextsTo(chatID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, msg := range m.Messages {
		if msg.ChatID == chatID {
			out = append(out, msg.Text)
		}
	}
	return out
}

func (m *MockTransport) LastMessage() (SentMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Messages) == 0 {
		return SentMessage{}, false
	}
	return m.Messages[len(m.Messages)-1], true
}

func (m *MockTransport) EditCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Edits)
}

// MockClassifier implements interfaces.IntentClassifier.
type MockClassifier struct {
	mu     sync.Mutex
	Result bool
	Err    error
	Calls  []string
}

func (m *MockClassifier) ClassifyEndIntent(_ context.Context, text string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, text)
	if m.Err != nil {
		return false, &models.ClassifierError{Err: m.Err}
	}
	return m.Result, nil
}
