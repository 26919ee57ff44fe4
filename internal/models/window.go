package models

import "fmt"

type Window string

const (
	WindowDay   Window = "day"
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
	WindowYear  Window = "year"
	WindowAll   Window = "all"
)

var Windows = []Window{WindowDay, WindowWeek, WindowMonth, WindowYear, WindowAll}

func ParseWindow(s string) (Window, error) {
	for _, w := range Windows {
		if string(w) == s {
			return w, nil
		}
	}
	return "", fmt.Errorf("unknown window %q", s)
}

type Reducer string

const (
	ReducerSum Reducer = "sum"
	ReducerAvg Reducer = "avg"
)

var Reducers = []Reducer{ReducerSum, ReducerAvg}

func ParseReducer(s string) (Reducer, error) {
	switch Reducer(s) {
	case ReducerSum, ReducerAvg:
		return Reducer(s), nil
	}
	return "", fmt.Errorf("unknown reducer %q", s)
}

// Aggregate is one row of a windowed query.
type Aggregate struct {
	ConversationID int64 `json:"conversation_id"`
	Value          int64 `json:"value"`
}

type BoardQuery struct {
	Window  Window
	Reducer Reducer
}

type BoardLine struct {
	ConversationID int64  `json:"conversation_id"`
	Name           string `json:"name"`
	Value          int64  `json:"value"`
	Formatted      string `json:"formatted"`
}

type Leaderboard struct {
	Window  Window      `json:"window"`
	Reducer Reducer     `json:"reducer"`
	Lines   []BoardLine `json:"lines"`
	Winner  *BoardLine  `json:"winner,omitempty"`
}
