package scheduler

import (
	"context"
	"fmt"
	"standbot/internal/live"
	"standbot/internal/providers"
	"standbot/internal/scheduler/interfaces"
	"standbot/internal/services"
	storage "standbot/internal/storage/interfaces"
	"standbot/internal/structures"
	"sync"

	"github.com/robfig/cron/v3"
)

// cronLogger routes cron's own messages into the app log.
type cronLogger struct {
	logger providers.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugf(providers.TypeApp, "cron: %s %v", msg, keysAndValues)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorf(providers.TypeApp, "cron: %s %v: %v", msg, keysAndValues, err)
}

type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	states      storage.StateStoreInterface
	sessions    services.SessionServiceInterface
	broadcaster *live.Broadcaster
	cron        *cron.Cron
	opsMu       sync.Mutex
}

func (s *Scheduler) Init() {
	cl := cronLogger{logger: s.logger}
	s.cron = cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))

	s.cron.Schedule(cron.Every(s.config.Session.BroadcastInterval), cron.FuncJob(s.broadcast))
	s.cron.Schedule(cron.Every(s.config.Persistence.SaveInterval), cron.FuncJob(func() {
		if err := s.Persist(); err == nil {
			s.logger.Debugf(providers.TypeApp, "Persisted dialogue states")
		}
	}))

	s.cron.Start()
}

func (s *Scheduler) broadcast() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Session.BroadcastInterval)
	defer cancel()
	s.broadcaster.Tick(ctx)
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Restore loads dialogue states and puts an open session back on air.
func (s *Scheduler) Restore() error {
	if err := s.states.Restore(); err != nil {
		return err
	}
	if err := s.sessions.ResumeLive(context.Background()); err != nil {
		return fmt.Errorf("resume live session: %w", err)
	}
	return nil
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	err := s.states.Persist()
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting dialogue states: %s", err)
		return err
	}
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, states storage.StateStoreInterface, sessions services.SessionServiceInterface, broadcaster *live.Broadcaster) interfaces.SchedulerInterface {
	return &Scheduler{
		config:      config,
		logger:      logger,
		states:      states,
		sessions:    sessions,
		broadcaster: broadcaster,
	}
}

