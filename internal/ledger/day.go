package ledger

import (
	"fmt"
	"time"
)

const DayLayout = "2006-01-02"

// DayClock computes the operational day. With BoundaryHour 2 a dispatch
// made at 01:30 still belongs to the previous day.
type DayClock struct {
	Location     *time.Location
	BoundaryHour int
	Now          func() time.Time
}

func NewDayClock(loc *time.Location, boundaryHour int) (DayClock, error) {
	if boundaryHour < 0 || boundaryHour > 23 {
		return DayClock{}, fmt.Errorf("day boundary hour must be 0-23, got %d", boundaryHour)
	}
	if loc == nil {
		loc = time.Local
	}
	return DayClock{Location: loc, BoundaryHour: boundaryHour, Now: time.Now}, nil
}

func (c DayClock) now() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc)
}

// Today returns the current day as YYYY-MM-DD.
func (c DayClock) Today() string {
	return c.DayOf(c.now())
}

// DayOf maps an instant to its operational day.
func (c DayClock) DayOf(t time.Time) string {
	if c.Location != nil {
		t = t.In(c.Location)
	}
	return t.Add(-time.Duration(c.BoundaryHour) * time.Hour).Format(DayLayout)
}

// Instant is the wall-clock time used to stamp new entries.
func (c DayClock) Instant() time.Time {
	return c.now()
}

// ValidDay reports whether s is a YYYY-MM-DD day.
func ValidDay(s string) bool {
	_, err := time.Parse(DayLayout, s)
	return err == nil
}
