package models

import (
	"fmt"

	json "github.com/goccy/go-json"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingTarget
	PhaseSessionOpen
	PhaseChoosingNext
)

var phaseNames = map[Phase]string{
	PhaseIdle:           "idle",
	PhaseAwaitingTarget: "awaiting_target",
	PhaseSessionOpen:    "session_open",
	PhaseChoosingNext:   "choosing_next",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

func ParsePhase(s string) (Phase, error) {
	for p, name := range phaseNames {
		if name == s {
			return p, nil
		}
	}
	return PhaseIdle, fmt.Errorf("unknown phase %q", s)
}

func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Phase) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePhase(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ConversationState is the dialogue state of one conversation.
// SessionStart and StatusMessage are set if and only if Phase is PhaseSessionOpen.
type ConversationState struct {
	Phase         Phase       `json:"phase"`
	Target        int64       `json:"target,omitempty"`
	SessionStart  *int64      `json:"session_start,omitempty"`
	StatusMessage *MessageRef `json:"status_message,omitempty"`
}

func IdleState() ConversationState {
	return ConversationState{Phase: PhaseIdle}
}

func AwaitingTargetState(target int64) ConversationState {
	return ConversationState{Phase: PhaseAwaitingTarget, Target: target}
}

func ChoosingNextState(target int64) ConversationState {
	return ConversationState{Phase: PhaseChoosingNext, Target: target}
}

func SessionOpenState(target, start int64, status *MessageRef) ConversationState {
	return ConversationState{
		Phase:         PhaseSessionOpen,
		Target:        target,
		SessionStart:  &start,
		StatusMessage: status,
	}
}

func (s ConversationState) Valid() bool {
	if s.Phase == PhaseSessionOpen {
		return s.SessionStart != nil
	}
	return s.SessionStart == nil && s.StatusMessage == nil
}

// ReadyToOpen reports whether an open trigger is accepted in this phase.
func (s ConversationState) ReadyToOpen() bool {
	return s.Phase == PhaseAwaitingTarget || s.Phase == PhaseChoosingNext
}

func (s ConversationState) Start() int64 {
	if s.SessionStart == nil {
		return 0
	}
	return *s.SessionStart
}
