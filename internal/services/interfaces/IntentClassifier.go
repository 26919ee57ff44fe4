package interfaces

import "context"

// IntentClassifier decides whether free text means the session should end.
// Errors are *models.ClassifierError and callers treat them as false.
type IntentClassifier interface {
	ClassifyEndIntent(ctx context.Context, text string) (bool, error)
}
