package persistence

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// millisTime is a time column stored as epoch milliseconds. The zero time is
// stored as 0 and non-positive values read back as the zero time.
type millisTime time.Time

func (m millisTime) Time() time.Time {
	return time.Time(m)
}

func (m millisTime) Value() (driver.Value, error) {
	t := time.Time(m)
	if t.IsZero() {
		return int64(0), nil
	}

	return t.UnixMilli(), nil
}

func (m *millisTime) Scan(src any) error {
	var v int64
	switch x := src.(type) {
	case nil:
	case int64:
		v = x
	default:
		return fmt.Errorf("scan millis time: unsupported column type %T", src)
	}
	if v <= 0 {
		*m = millisTime{}

		return nil
	}
	*m = millisTime(time.UnixMilli(v))

	return nil
}
