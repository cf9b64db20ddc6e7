package clock

import (
	"time"
)

// DefaultZone is the reference zone every notification timestamp and
// "today" window is computed in.
const DefaultZone = "Asia/Kolkata"

type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type zonedClock struct {
	loc *time.Location
	now func() time.Time
}

// IST is UTC+5:30. Used when the tz database has no entry for DefaultZone.
func IST() *time.Location {
	return time.FixedZone("IST", 5*60*60+30*60)
}

// LoadLocation resolves name, falling back to IST.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return IST()
	}
	return loc
}

func New(loc *time.Location) Clock {
	if loc == nil {
		loc = IST()
	}
	return &zonedClock{loc: loc, now: time.Now}
}

// Fixed returns a clock frozen at t, expressed in loc.
func Fixed(t time.Time, loc *time.Location) Clock {
	if loc == nil {
		loc = IST()
	}
	return &zonedClock{loc: loc, now: func() time.Time { return t }}
}

func (c *zonedClock) Now() time.Time {
	return c.now().In(c.loc)
}

func (c *zonedClock) Location() *time.Location {
	return c.loc
}

// Today returns midnight of the current day in the clock's zone.
func Today(c Clock) time.Time {
	return StartOfDay(c.Now())
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysUntil counts calendar days from now, read in loc, to date. date is a
// calendar value such as a DATE column and keeps the day of its own location.
func DaysUntil(now, date time.Time, loc *time.Location) int {
	ay, am, ad := now.In(loc).Date()
	by, bm, bd := date.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
