package time

import (
	"encoding/json"
	"errors"
	"time"
)

const (
	// Day is the length of a calendar day bucket.
	Day = 24 * time.Hour
	// EOMDays is the number of calendar days at the end of each month considered as end-of-month.
	EOMDays = 5
	// AvgMonthDays is the average length of a gregorian month.
	AvgMonthDays = 30.4375
	// NightStart is the first hour considered late at night.
	NightStart = 22
	// NightEnd is the first hour no longer considered late at night.
	NightEnd = 5
)

// Range is a span of time.
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Extend extends the range so that it includes the given time.
func (r Range) Extend(t time.Time) Range {
	if r.From.IsZero() || t.Before(r.From) {
		r.From = t
	}
	if r.To.IsZero() || t.After(r.To) {
		r.To = t
	}
	return r
}

// Hash is a time hash helper
type Hash struct {
	duration int64
}

// NewHash creates a new time hash for the given duration.
func NewHash(duration time.Duration) Hash {
	return Hash{duration: int64(duration.Seconds())}
}

// Do converts the time to the hash.
func (h Hash) Do(t time.Time) int64 {
	u := t.Unix()
	// floor division so that times before the epoch end up in the right bucket
	if u < 0 && u%h.duration != 0 {
		return u/h.duration - 1
	}
	return u / h.duration
}

// Undo converts back the hash to the time.
func (h Hash) Undo(t int64) time.Time {
	return time.Unix(t*h.duration, 0).UTC()
}

// DaysIn returns the number of days in the month of the given time.
func DaysIn(t time.Time) int {
	t = t.UTC()
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// IsEOM checks if the time falls in the last EOMDays calendar days of its month.
func IsEOM(t time.Time) bool {
	t = t.UTC()
	return t.Day() > DaysIn(t)-EOMDays
}

// IsNight checks if the time falls between 22:00 and 04:59.
func IsNight(t time.Time) bool {
	h := t.UTC().Hour()
	return h >= NightStart || h < NightEnd
}

// IsWeekend checks if the time falls on a saturday or sunday.
func IsWeekend(t time.Time) bool {
	d := t.UTC().Weekday()
	return d == time.Saturday || d == time.Sunday
}

// Duration is a json friendly duration.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		var err error
		d.Duration, err = time.ParseDuration(value)
		if err != nil {
			return err
		}
		return nil
	default:
		return errors.New("invalid duration")
	}
}
