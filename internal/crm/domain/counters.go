package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	dayWindow  = 24 * time.Hour
	weekWindow = 7 * 24 * time.Hour
)

// TimeLog is an ordered list of send timestamps persisted as a JSON column.
type TimeLog []time.Time

func (l TimeLog) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *TimeLog) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return fmt.Errorf("cannot scan %T into TimeLog", value)
}

// since returns the entries strictly after cutoff.
func (l TimeLog) since(cutoff time.Time) TimeLog {
	var out TimeLog
	for _, ts := range l {
		if ts.After(cutoff) {
			out = append(out, ts)
		}
	}
	return out
}

// ContactCounters is the per-user contact aggregate the rate-limit policy
// reads. SentLog holds the timestamps of sent contacts of any type; NudgeLog
// holds sent nudges. Counts are taken over the trailing 24h and 7-day
// windows ending at the moment of the query, so a burst right before a
// window boundary still counts right after it. Entries that left their
// window are pruned lazily on read and write.
type ContactCounters struct {
	UserID        string     `json:"user_id" gorm:"primaryKey"`
	SentLog       TimeLog    `json:"sent_log" gorm:"type:text"`
	NudgeLog      TimeLog    `json:"nudge_log" gorm:"type:text"`
	LastContactAt *time.Time `json:"last_contact_at,omitempty"`
}

func (ContactCounters) TableName() string {
	return "contact_counters"
}

// Rolled returns a copy pruned to the trailing windows ending at now.
func (c ContactCounters) Rolled(now time.Time) ContactCounters {
	c.SentLog = c.SentLog.since(now.Add(-dayWindow))
	c.NudgeLog = c.NudgeLog.since(now.Add(-weekWindow))
	return c
}

// DayCount is the number of contacts sent in the 24 hours preceding now.
func (c ContactCounters) DayCount(now time.Time) int {
	return len(c.SentLog.since(now.Add(-dayWindow)))
}

// WeekCount is the number of nudges sent in the 7 days preceding now.
func (c ContactCounters) WeekCount(now time.Time) int {
	return len(c.NudgeLog.since(now.Add(-weekWindow)))
}

// RecordSent applies one successful send at sentAt: prunes entries that have
// left their trailing windows, logs the send (nudges in both logs), and
// advances the last-contact timestamp.
func (c *ContactCounters) RecordSent(taskType TaskType, sentAt time.Time) {
	*c = c.Rolled(sentAt)
	c.SentLog = append(c.SentLog, sentAt)
	if taskType == TaskTypeNudge {
		c.NudgeLog = append(c.NudgeLog, sentAt)
	}
	t := sentAt
	c.LastContactAt = &t
}
