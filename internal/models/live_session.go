package models

// LiveSession is the value held by the live slot: the status message being
// kept up to date and the start of the session it reports on.
type LiveSession struct {
	Ref   *MessageRef
	Start int64
	// Owner is the conversation whose state installed this value.
	Owner int64
}

func (l *LiveSession) Active() bool {
	return l != nil && l.Ref != nil
}
