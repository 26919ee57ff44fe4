package storage

import (
	"context"
	"errors"
	"fmt"
	"standbot/internal/clock"
	"standbot/internal/models"
	"standbot/internal/providers"
	"standbot/internal/storage/interfaces"
	"standbot/internal/structures"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday maps a lowercase weekday name to time.Weekday.
// An empty name means Monday.
func ParseWeekday(name string) (time.Weekday, error) {
	if name == "" {
		return time.Monday, nil
	}
	day, ok := weekdays[strings.ToLower(name)]
	if !ok {
		return time.Monday, fmt.Errorf("unknown weekday %q", name)
	}
	return day, nil
}

// LoadLocation resolves the configured time zone. An empty name means UTC.
func LoadLocation(name string) (*time.Location, error) {
	return time.LoadLocation(name)
}

// TotalsStore accumulates standing seconds per conversation and day.
// Date buckets and window cutoffs are computed in loc from clock.
type TotalsStore struct {
	db        *gorm.DB
	clock     clock.Clock
	loc       *time.Location
	weekStart time.Weekday
	metrics   providers.MetricsProviderInterface
}

func NewTotalsStore(db *gorm.DB, conf *structures.Config, clk clock.Clock, metrics providers.MetricsProviderInterface) (*TotalsStore, error) {
	loc, err := LoadLocation(conf.Session.Timezone)
	if err != nil {
		return nil, err
	}
	weekStart, err := ParseWeekday(conf.Session.WeekStart)
	if err != nil {
		return nil, err
	}
	return &TotalsStore{
		db:        db,
		clock:     clk,
		loc:       loc,
		weekStart: weekStart,
		metrics:   metrics,
	}, nil
}

func (s *TotalsStore) BucketOf(ts int64) models.DateBucket {
	return models.BucketOfTimestamp(ts, s.loc)
}

func upsertAdd(tx *gorm.DB, conversationID int64, bucket models.DateBucket, delta int64) error {
	record := models.TotalRecord{
		ConversationID: conversationID,
		DateBucket:     bucket,
		TotalSeconds:   delta,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "conversation_id"}, {Name: "date_bucket"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_seconds": gorm.Expr("total.total_seconds + excluded.total_seconds"),
		}),
	}).Create(&record).Error
}

func (s *TotalsStore) UpsertAdd(ctx context.Context, conversationID int64, bucket models.DateBucket, delta int64) error {
	if delta < 0 {
		return models.NewStorageError("upsert total", fmt.Errorf("negative delta %d", delta))
	}
	start := time.Now()
	err := upsertAdd(s.db.WithContext(ctx), conversationID, bucket, delta)
	s.metrics.ObserveUpsertDuration(time.Since(start))
	return models.NewStorageError("upsert total", err)
}

func (s *TotalsStore) ApplySession(ctx context.Context, sc models.SessionClose) (bool, error) {
	if sc.Seconds < 0 {
		return false, models.NewStorageError("apply session", fmt.Errorf("negative duration %d", sc.Seconds))
	}

	applied := false
	start := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := models.SessionLedger{
			OwnerID:        sc.OwnerID,
			ConversationID: sc.ConversationID,
			SessionStart:   sc.Start,
			DateBucket:     sc.Bucket,
			Seconds:        sc.Seconds,
			ClosedAt:       sc.End,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true
		return upsertAdd(tx, sc.ConversationID, sc.Bucket, sc.Seconds)
	})
	s.metrics.ObserveUpsertDuration(time.Since(start))
	if err != nil {
		return false, models.NewStorageError("apply session", err)
	}
	return applied, nil
}

// Ping checks that the totals database answers.
func (s *TotalsStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return models.NewStorageError("ping", err)
	}
	return models.NewStorageError("ping", sqlDB.PingContext(ctx))
}

func (s *TotalsStore) GetBucketTotal(ctx context.Context, conversationID int64, bucket models.DateBucket) (int64, bool, error) {
	var record models.TotalRecord
	err := s.db.WithContext(ctx).
		Where("conversation_id = ? AND date_bucket = ?", conversationID, bucket).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, models.NewStorageError("get bucket total", err)
	}
	return record.TotalSeconds, true, nil
}

// windowStart is the first bucket inside window, relative to the clock.
// WindowAll has no lower bound.
func (s *TotalsStore) windowStart(window models.Window) (models.DateBucket, bool, error) {
	now := s.clock.Now().In(s.loc)
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, s.loc)

	switch window {
	case models.WindowDay:
		return models.BucketOf(today), true, nil
	case models.WindowWeek:
		offset := (int(today.Weekday()) - int(s.weekStart) + 7) % 7
		return models.BucketOf(today.AddDate(0, 0, -offset)), true, nil
	case models.WindowMonth:
		return models.BucketOf(time.Date(y, m, 1, 0, 0, 0, 0, s.loc)), true, nil
	case models.WindowYear:
		return models.BucketOf(time.Date(y, time.January, 1, 0, 0, 0, 0, s.loc)), true, nil
	case models.WindowAll:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("unknown window %q", window)
	}
}

type aggregateRow struct {
	ConversationID int64
	Value          float64
}

func (s *TotalsStore) AggregateByWindow(ctx context.Context, window models.Window, reducer models.Reducer) ([]models.Aggregate, error) {
	var fn string
	switch reducer {
	case models.ReducerSum:
		fn = "SUM"
	case models.ReducerAvg:
		fn = "AVG"
	default:
		return nil, models.NewStorageError("aggregate", fmt.Errorf("unknown reducer %q", reducer))
	}

	from, bounded, err := s.windowStart(window)
	if err != nil {
		return nil, models.NewStorageError("aggregate", err)
	}

	q := s.db.WithContext(ctx).
		Model(&models.TotalRecord{}).
		Select(fmt.Sprintf("conversation_id, CAST(%s(total_seconds) AS DOUBLE PRECISION) AS value", fn))
	if bounded {
		q = q.Where("date_bucket >= ?", from)
	}

	var rows []aggregateRow
	err = q.Group("conversation_id").Order("conversation_id").Scan(&rows).Error
	if err != nil {
		return nil, models.NewStorageError("aggregate", err)
	}

	out := make([]models.Aggregate, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Aggregate{
			ConversationID: r.ConversationID,
			Value:          int64(r.Value),
		})
	}
	return out, nil
}

var _ interfaces.TotalsStoreInterface = (*TotalsStore)(nil)
