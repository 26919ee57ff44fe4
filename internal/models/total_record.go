package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// DateBucket is the calendar day session time is attributed to, "YYYY-MM-DD".
type DateBucket string

func BucketOf(t time.Time) DateBucket {
	return DateBucket(t.Format(dateLayout))
}

// BucketOfTimestamp derives the bucket from a unix timestamp in loc.
func BucketOfTimestamp(ts int64, loc *time.Location) DateBucket {
	return BucketOf(time.Unix(ts, 0).In(loc))
}

func ParseDateBucket(s string) (DateBucket, error) {
	if _, err := time.Parse(dateLayout, s); err != nil {
		return "", fmt.Errorf("invalid date bucket %q: %w", s, err)
	}
	return DateBucket(s), nil
}

func (d DateBucket) String() string { return string(d) }

func (d DateBucket) Value() (driver.Value, error) {
	return string(d), nil
}

func (d *DateBucket) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = BucketOf(v.UTC())
	case string:
		*d = DateBucket(trimDate(v))
	case []byte:
		*d = DateBucket(trimDate(string(v)))
	case nil:
		*d = ""
	default:
		return fmt.Errorf("cannot scan %T into DateBucket", src)
	}
	return nil
}

// trimDate drops a time part some drivers append to DATE columns.
func trimDate(s string) string {
	if len(s) > len(dateLayout) {
		return s[:len(dateLayout)]
	}
	return s
}

// TotalRecord accumulates the seconds a conversation stood on one day.
type TotalRecord struct {
	ConversationID int64      `gorm:"column:conversation_id;not null;uniqueIndex:idx_total_conversation_date"`
	DateBucket     DateBucket `gorm:"column:date_bucket;type:date;not null;uniqueIndex:idx_total_conversation_date"`
	TotalSeconds   int64      `gorm:"column:total_seconds;not null"`
}

func (TotalRecord) TableName() string { return "total" }

// SessionLedger remembers which closes were already folded into the totals,
// so a retried close does not count twice. A session is identified by the
// conversation that opened it, its target and its start second.
type SessionLedger struct {
	OwnerID        int64      `gorm:"column:owner_id;primaryKey;autoIncrement:false;default:0"`
	ConversationID int64      `gorm:"column:conversation_id;primaryKey;autoIncrement:false"`
	SessionStart   int64      `gorm:"column:session_start;primaryKey;autoIncrement:false"`
	DateBucket     DateBucket `gorm:"column:date_bucket;type:date;not null"`
	Seconds        int64      `gorm:"column:seconds;not null"`
	ClosedAt       int64      `gorm:"column:closed_at;not null"`
}

func (SessionLedger) TableName() string { return "session_ledger" }

// SessionClose describes one finished session.
type SessionClose struct {
	// OwnerID is the conversation whose state held the session.
	OwnerID        int64
	ConversationID int64
	Start          int64
	End            int64
	Seconds        int64
	Bucket         DateBucket
}
