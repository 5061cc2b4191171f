package core

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Timestamp scans DATETIME columns regardless of whether the driver hands
// back a time.Time or the stored text.
type Timestamp struct {
	time.Time
}

// Scan implements sql.Scanner
func (t *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v
	case string:
		parsed, err := ParseTimeFlexible(v)
		if err != nil {
			return err
		}
		t.Time = parsed
	case []byte:
		parsed, err := ParseTimeFlexible(string(v))
		if err != nil {
			return err
		}
		t.Time = parsed
	case nil:
		t.Time = time.Time{}
	default:
		return fmt.Errorf("cannot scan %T into Timestamp", src)
	}
	return nil
}

// Value implements driver.Valuer
func (t Timestamp) Value() (driver.Value, error) {
	return t.Time, nil
}

// ParseTimeFlexible tries to parse a datetime string using the layouts SQLite
// and the driver are known to produce
func ParseTimeFlexible(timeStr string) (time.Time, error) {
	formats := []string{
		"2006-01-02 15:04:05.999999999-07:00", // 2025-08-03 17:46:37.91092+01:00
		time.RFC3339Nano,                      // 2025-08-03T18:04:25.926402+01:00
		"2006-01-02T15:04:05.999999999",       // 2025-08-03T18:04:25.926402
		"2006-01-02 15:04:05.999999999",       // 2025-08-03 17:46:37.91092
		"2006-01-02 15:04:05",                 // 2025-08-03 17:46:37
		"2006-01-02 15:04:05.999999999 -0700 MST",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, timeStr); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse time string: %s", timeStr)
}
