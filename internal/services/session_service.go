package services

import (
	"context"
	"errors"
	"fmt"
	"standbot/internal/clock"
	"standbot/internal/live"
	"standbot/internal/models"
	"standbot/internal/providers"
	"standbot/internal/services/interfaces"
	storage "standbot/internal/storage/interfaces"
	"standbot/internal/structures"
	"standbot/internal/timeutil"
)

type SessionServiceInterface interface {
	interfaces.EventHandler
	// ResumeLive reinstalls the live slot from persisted dialogue states.
	ResumeLive(ctx context.Context) error
}

// SessionService is the per-conversation session state machine.
type SessionService struct {
	conf         structures.SessionConfig
	closeMarkers map[string]struct{}
	states       storage.StateStoreInterface
	totals       storage.TotalsStoreInterface
	slot         *live.Slot
	transport    interfaces.Transport
	classifier   interfaces.IntentClassifier
	ranking      RankingServiceInterface
	clock        clock.Clock
	logger       providers.Logger
	metrics      providers.MetricsProviderInterface
}

func NewSessionService(
	conf *structures.Config,
	states storage.StateStoreInterface,
	totals storage.TotalsStoreInterface,
	slot *live.Slot,
	transport interfaces.Transport,
	classifier interfaces.IntentClassifier,
	ranking RankingServiceInterface,
	clk clock.Clock,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
) *SessionService {
	markers := make(map[string]struct{}, len(conf.Session.CloseMarkers))
	for _, id := range conf.Session.CloseMarkers {
		markers[id] = struct{}{}
	}
	return &SessionService{
		conf:         conf.Session,
		closeMarkers: markers,
		states:       states,
		totals:       totals,
		slot:         slot,
		transport:    transport,
		classifier:   classifier,
		ranking:      ranking,
		clock:        clk,
		logger:       logger,
		metrics:      metrics,
	}
}

func (s *SessionService) Handle(ctx context.Context, event models.Event) error {
	meta := event.Meta()
	state, err := s.states.Get(ctx, meta.ConversationID)
	if err != nil {
		return err
	}

	switch e := event.(type) {
	case models.CommandEvent:
		return s.onCommand(ctx, meta, state, e)
	case models.ConversationSelectedEvent:
		return s.onSelected(ctx, meta, state, e.Target)
	case models.TextEvent:
		return s.onText(ctx, meta, state, e.Text)
	case models.MediaEvent:
		return s.onMedia(ctx, meta, state, e.UniqueID)
	default:
		return fmt.Errorf("unsupported event %T", event)
	}
}

func (s *SessionService) onCommand(ctx context.Context, meta models.EventMeta, state models.ConversationState, cmd models.CommandEvent) error {
	switch cmd.Name {
	case "start":
		if state.Phase == models.PhaseSessionOpen {
			s.reply(ctx, meta.ConversationID, live.StatusText(state.Start(), s.now(meta)), nil)
			return nil
		}
		s.reply(ctx, meta.ConversationID, msgChooseConversation, shareKeyboard())
		return nil
	case "help":
		s.reply(ctx, meta.ConversationID, helpText(s.conf.OpenPhrase, s.conf.ClosePhrase), nil)
		return nil
	case "cancel":
		return s.cancel(ctx, meta, state)
	case "stats":
		return s.stats(ctx, meta, cmd.Args)
	default:
		return s.unrecognized(ctx, meta, state)
	}
}

func (s *SessionService) onSelected(ctx context.Context, meta models.EventMeta, state models.ConversationState, target int64) error {
	if state.Phase == models.PhaseSessionOpen {
		s.logger.Debugf(providers.TypeSession, "Conversation %d selected %d while a session is open, ignoring", meta.ConversationID, target)
		return nil
	}

	if err := s.states.Set(ctx, meta.ConversationID, models.AwaitingTargetState(target)); err != nil {
		return err
	}
	s.logger.Infof(providers.TypeSession, "Conversation %d now targets %d", meta.ConversationID, target)
	s.reply(ctx, meta.ConversationID, fmt.Sprintf(msgCurrentConversation, target), phraseKeyboard(s.conf.OpenPhrase))
	return nil
}

func (s *SessionService) onText(ctx context.Context, meta models.EventMeta, state models.ConversationState, text string) error {
	switch state.Phase {
	case models.PhaseAwaitingTarget, models.PhaseChoosingNext:
		if text == s.conf.OpenPhrase {
			return s.open(ctx, meta, state.Target)
		}
		return nil
	case models.PhaseSessionOpen:
		if text == s.conf.OpenPhrase {
			return nil
		}
		if text == s.conf.ClosePhrase || s.classifyClose(ctx, meta, text) {
			return s.close(ctx, meta, state)
		}
		return nil
	default:
		return s.unrecognized(ctx, meta, state)
	}
}

// classifyClose asks the classifier whether free text ends the session.
// A failed classification counts as "no".
func (s *SessionService) classifyClose(ctx context.Context, meta models.EventMeta, text string) bool {
	ok, err := s.classifier.ClassifyEndIntent(ctx, text)
	if err != nil {
		s.metrics.IncClassifier("error")
		s.logger.Warnf(providers.TypeSession, "Classifier failed for conversation %d, keeping session open: %v", meta.ConversationID, err)
		return false
	}
	if ok {
		s.metrics.IncClassifier("close")
	} else {
		s.metrics.IncClassifier("keep")
	}
	return ok
}

func (s *SessionService) isOpenMarker(uniqueID string) bool {
	return s.conf.OpenMarker.UniqueID != "" && uniqueID == s.conf.OpenMarker.UniqueID
}

func (s *SessionService) isCloseMarker(uniqueID string) bool {
	_, ok := s.closeMarkers[uniqueID]
	return ok
}

func (s *SessionService) onMedia(ctx context.Context, meta models.EventMeta, state models.ConversationState, uniqueID string) error {
	switch state.Phase {
	case models.PhaseSessionOpen:
		if s.isCloseMarker(uniqueID) {
			return s.close(ctx, meta, state)
		}
		s.reply(ctx, meta.ConversationID, live.StatusText(state.Start(), s.now(meta)), nil)
		return nil
	case models.PhaseAwaitingTarget, models.PhaseChoosingNext:
		if s.isOpenMarker(uniqueID) {
			return s.open(ctx, meta, state.Target)
		}
		if state.Phase == models.PhaseChoosingNext {
			s.reply(ctx, meta.ConversationID, reopenPrompt(s.conf.OpenPhrase), phraseKeyboard(s.conf.OpenPhrase))
		}
		return nil
	default:
		if s.isOpenMarker(uniqueID) {
			return s.open(ctx, meta, meta.ConversationID)
		}
		return nil
	}
}

// open posts the notice to target, records the session and installs it in
// the live slot. Without a notice there is nothing to broadcast, so a failed
// send leaves the state untouched.
func (s *SessionService) open(ctx context.Context, meta models.EventMeta, target int64) error {
	start := s.now(meta)

	ref, err := s.transport.SendMessage(ctx, target, s.conf.OpenPhrase, nil)
	if err != nil {
		s.transportFailed("sendMessage", err)
		return err
	}

	if err := s.states.Set(ctx, meta.ConversationID, models.SessionOpenState(target, start, &ref)); err != nil {
		s.logger.Errorf(providers.TypeSession, "Unable to record session of %d: %v", meta.ConversationID, err)
		return err
	}
	s.slot.Install(models.LiveSession{Ref: &ref, Start: start, Owner: meta.ConversationID})
	s.metrics.IncSessions(providers.SessionOpened)
	s.logger.Infof(providers.TypeSession, "Session opened by %d in %d at %d", meta.ConversationID, target, start)

	if err := s.transport.PinMessage(ctx, ref); err != nil {
		s.transportFailed("pinChatMessage", err)
	}
	if s.conf.OpenMarker.FileID != "" {
		if _, err := s.transport.SendMedia(ctx, target, s.conf.OpenMarker.FileID); err != nil {
			s.transportFailed("sendSticker", err)
		}
	}
	if meta.ConversationID != target {
		s.reply(ctx, meta.ConversationID, s.conf.OpenPhrase, phraseKeyboard(s.conf.ClosePhrase))
	}
	return nil
}

// close records the elapsed time before anything is said in the chat. A
// storage failure aborts with state and slot unchanged so the close can be
// retried; the ledger keeps a retry from counting twice.
func (s *SessionService) close(ctx context.Context, meta models.EventMeta, state models.ConversationState) error {
	start := state.Start()
	end := s.now(meta)

	secs, err := timeutil.ElapsedSeconds(start, end)
	if err != nil {
		s.logger.Warnf(providers.TypeSession, "Counting zero seconds for %d: %v", meta.ConversationID, err)
		secs = 0
	}

	bucket := s.totals.BucketOf(start)
	applied, err := s.totals.ApplySession(ctx, models.SessionClose{
		OwnerID:        meta.ConversationID,
		ConversationID: state.Target,
		Start:          start,
		End:            end,
		Seconds:        secs,
		Bucket:         bucket,
	})
	if err != nil {
		s.logger.Errorf(providers.TypeStorage, "Unable to record %ds for %d: %v", secs, state.Target, err)
		return err
	}
	if applied {
		s.ranking.InvalidateBoards()
	} else {
		s.logger.Warnf(providers.TypeSession, "Session %d/%d was already counted", state.Target, start)
	}

	if err := s.states.Set(ctx, meta.ConversationID, models.ChoosingNextState(state.Target)); err != nil {
		s.logger.Errorf(providers.TypeSession, "Unable to store closed state of %d: %v", meta.ConversationID, err)
		return err
	}
	s.slot.ClearIf(meta.ConversationID, start)
	s.metrics.IncSessions(providers.SessionClosed)
	s.logger.Infof(providers.TypeSession, "Session of %d in %d closed after %ds", meta.ConversationID, state.Target, secs)

	if state.StatusMessage != nil {
		if err := s.transport.UnpinMessage(ctx, *state.StatusMessage); err != nil {
			s.transportFailed("unpinChatMessage", err)
		}
	}
	s.reply(ctx, state.Target, fmt.Sprintf(msgStoodFor, timeutil.FormatMinutes(secs)), nil)

	total, _, err := s.totals.GetBucketTotal(ctx, state.Target, bucket)
	if err != nil {
		s.logger.Warnf(providers.TypeStorage, "Unable to read total of %d for %s: %v", state.Target, bucket, err)
	} else {
		s.reply(ctx, state.Target, fmt.Sprintf(msgTotalToday, timeutil.FormatTotal(total)), nil)
	}

	s.reply(ctx, meta.ConversationID, s.conf.ClosePhrase, phraseKeyboard(s.conf.OpenPhrase))
	return nil
}

// cancel abandons an open session without counting it and resets to idle.
func (s *SessionService) cancel(ctx context.Context, meta models.EventMeta, state models.ConversationState) error {
	if err := s.states.Set(ctx, meta.ConversationID, models.IdleState()); err != nil {
		return err
	}

	if state.Phase == models.PhaseSessionOpen {
		s.slot.ClearIf(meta.ConversationID, state.Start())
		s.metrics.IncSessions(providers.SessionCancelled)
		s.logger.Infof(providers.TypeSession, "Session of %d in %d cancelled", meta.ConversationID, state.Target)
		if state.StatusMessage != nil {
			if err := s.transport.UnpinMessage(ctx, *state.StatusMessage); err != nil {
				s.transportFailed("unpinChatMessage", err)
			}
		}
	}

	s.reply(ctx, meta.ConversationID, msgCancel, nil)
	return nil
}

func (s *SessionService) stats(ctx context.Context, meta models.EventMeta, args []string) error {
	queries, err := parseStatsArgs(args)
	if err != nil {
		s.reply(ctx, meta.ConversationID, msgStatsUsage, nil)
		return nil
	}

	report, err := s.ranking.Report(ctx, queries...)
	if err != nil {
		s.reply(ctx, meta.ConversationID, msgStatsFailed, nil)
		return err
	}
	s.reply(ctx, meta.ConversationID, report, nil)
	return nil
}

func parseStatsArgs(args []string) ([]models.BoardQuery, error) {
	if len(args) == 0 {
		return nil, nil
	}
	if len(args) > 2 {
		return nil, errors.New("too many arguments")
	}
	window, err := models.ParseWindow(args[0])
	if err != nil {
		return nil, err
	}
	reducer := models.ReducerSum
	if len(args) == 2 {
		if reducer, err = models.ParseReducer(args[1]); err != nil {
			return nil, err
		}
	}
	return []models.BoardQuery{{Window: window, Reducer: reducer}}, nil
}

// unrecognized answers only at the top level; mid-dialogue input is ignored.
func (s *SessionService) unrecognized(ctx context.Context, meta models.EventMeta, state models.ConversationState) error {
	if state.Phase == models.PhaseIdle {
		s.reply(ctx, meta.ConversationID, msgUnknown, nil)
	}
	return nil
}

func (s *SessionService) ResumeLive(ctx context.Context) error {
	var resumed *models.LiveSession
	err := s.states.Range(ctx, func(id int64, st models.ConversationState) bool {
		if st.Phase != models.PhaseSessionOpen || st.StatusMessage == nil {
			return true
		}
		if resumed == nil || st.Start() > resumed.Start {
			resumed = &models.LiveSession{Ref: st.StatusMessage, Start: st.Start(), Owner: id}
		}
		return true
	})
	if err != nil {
		return err
	}
	if resumed != nil {
		s.slot.Install(*resumed)
		s.logger.Infof(providers.TypeSession, "Resumed live session of %d started at %d", resumed.Owner, resumed.Start)
	}
	return nil
}

// reply sends a best-effort message; failures are logged and counted.
func (s *SessionService) reply(ctx context.Context, chatID int64, text string, keyboard *models.Keyboard) {
	if _, err := s.transport.SendMessage(ctx, chatID, text, keyboard); err != nil {
		s.transportFailed("sendMessage", err)
	}
}

func (s *SessionService) transportFailed(op string, err error) {
	s.metrics.IncTransportFailures(op)
	s.logger.Warnf(providers.TypeTransport, "%s failed: %v", op, err)
}

func (s *SessionService) now(meta models.EventMeta) int64 {
	if meta.Timestamp > 0 {
		return meta.Timestamp
	}
	return s.clock.Now().Unix()
}

var _ SessionServiceInterface = (*SessionService)(nil)
