package interfaces

import (
	"context"
	"standbot/internal/models"
)

type TotalsStoreInterface interface {
	// UpsertAdd adds delta seconds to the conversation's bucket, creating it if needed.
	UpsertAdd(ctx context.Context, conversationID int64, bucket models.DateBucket, delta int64) error
	// ApplySession folds a finished session into the totals at most once per
	// (owner, conversation, start). It reports false when the close was already applied.
	ApplySession(ctx context.Context, close models.SessionClose) (bool, error)
	GetBucketTotal(ctx context.Context, conversationID int64, bucket models.DateBucket) (int64, bool, error)
	AggregateByWindow(ctx context.Context, window models.Window, reducer models.Reducer) ([]models.Aggregate, error)
	// BucketOf is the date bucket a session started at ts is attributed to.
	BucketOf(ts int64) models.DateBucket
}
