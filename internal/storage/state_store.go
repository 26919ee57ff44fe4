package storage

import (
	"context"
	"sort"
	"standbot/internal/models"
	"standbot/internal/providers"
	"standbot/internal/storage/interfaces"
	"sync"
	"time"
)

const snapshotVersion = 1

type dialogueSnapshot struct {
	Version   int                                `json:"version"`
	Dialogues map[int64]models.ConversationState `json:"dialogues"`
}

// MemoryStateStore keeps dialogue states in memory and snapshots them to
// Persistence.FilePath on Persist.
type MemoryStateStore struct {
	mu          sync.RWMutex
	states      map[int64]models.ConversationState
	fileManager *FileManager
	path        string
	logger      providers.Logger
	metrics     providers.MetricsProviderInterface
}

func NewMemoryStateStore(fileManager *FileManager, path string, logger providers.Logger, metrics providers.MetricsProviderInterface) *MemoryStateStore {
	return &MemoryStateStore{
		states:      make(map[int64]models.ConversationState),
		fileManager: fileManager,
		path:        path,
		logger:      logger,
		metrics:     metrics,
	}
}

func (s *MemoryStateStore) Get(_ context.Context, conversationID int64) (models.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[conversationID]
	if !ok {
		return models.IdleState(), nil
	}
	return state, nil
}

func (s *MemoryStateStore) Set(_ context.Context, conversationID int64, state models.ConversationState) error {
	s.mu.Lock()
	s.states[conversationID] = state
	count := len(s.states)
	s.mu.Unlock()

	s.metrics.SetDialoguesTotal(count)
	return nil
}

// Range visits states in conversation id order on a copy, so fn may call Set.
func (s *MemoryStateStore) Range(ctx context.Context, fn func(conversationID int64, state models.ConversationState) bool) error {
	snapshot := s.snapshot()

	ids := make([]int64, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(id, snapshot[id]) {
			return nil
		}
	}
	return nil
}

func (s *MemoryStateStore) snapshot() map[int64]models.ConversationState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]models.ConversationState, len(s.states))
	for id, state := range s.states {
		out[id] = state
	}
	return out
}

func (s *MemoryStateStore) Restore() error {
	var snap dialogueSnapshot
	found, err := s.fileManager.LoadFromFile(s.path, &snap)
	if err != nil {
		return models.NewStorageError("restore dialogues", err)
	}
	if !found {
		s.logger.Infof(providers.TypeStorage, "No dialogue snapshot at %s, starting empty", s.path)
		return nil
	}

	restored := 0
	s.mu.Lock()
	for id, state := range snap.Dialogues {
		if !state.Valid() {
			s.logger.Warnf(providers.TypeStorage, "Dropping inconsistent dialogue state for %d (%s)", id, state.Phase)
			continue
		}
		s.states[id] = state
		restored++
	}
	count := len(s.states)
	s.mu.Unlock()

	s.metrics.SetDialoguesTotal(count)
	s.logger.Infof(providers.TypeStorage, "Restored %d dialogue states from %s", restored, s.path)
	return nil
}

func (s *MemoryStateStore) Persist() error {
	start := time.Now()
	snap := dialogueSnapshot{
		Version:   snapshotVersion,
		Dialogues: s.snapshot(),
	}

	if err := s.fileManager.SaveToFile(s.path, snap); err != nil {
		s.logger.Errorf(providers.TypeStorage, "Error while persisting dialogues: %s", err)
		return models.NewStorageError("persist dialogues", err)
	}

	s.metrics.ObservePersistenceDuration(time.Since(start))
	s.logger.Debugf(providers.TypeStorage, "Persisted %d dialogue states to %s", len(snap.Dialogues), s.path)
	return nil
}

var _ interfaces.StateStoreInterface = (*MemoryStateStore)(nil)
