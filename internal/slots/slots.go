// Package slots turns a tutor's weekly availability, blocked intervals and
// existing bookings into the start times still open on a given date.
//
// Compute is a pure function of its inputs. It does not reserve anything:
// a slot it returns can be taken by a concurrent booking before the caller
// writes its own.
package slots

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"tutorslot/internal/api"
)

var ErrInvalidInput = fmt.Errorf("slots: %w", api.ErrInvalidInput)

// Clock is a time of day in minutes since midnight.
type Clock int

// ParseClock accepts "HH:MM" or "HH:MM:SS". Seconds must be zero.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: malformed time %q", ErrInvalidInput, s)
	}
	for _, p := range parts {
		if !twoDigits(p) {
			return 0, fmt.Errorf("%w: malformed time %q", ErrInvalidInput, s)
		}
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 || len(parts[0]) != 2 {
		return 0, fmt.Errorf("%w: malformed time %q", ErrInvalidInput, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: malformed time %q", ErrInvalidInput, s)
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec != 0 {
			return 0, fmt.Errorf("%w: malformed time %q", ErrInvalidInput, s)
		}
	}
	// 24:00 is only meaningful as the end of a window.
	if h == 24 && m != 0 {
		return 0, fmt.Errorf("%w: malformed time %q", ErrInvalidInput, s)
	}
	return Clock(h*60 + m), nil
}

// twoDigits rejects the signs strconv.Atoi would otherwise accept.
func twoDigits(p string) bool {
	return len(p) == 2 && p[0] >= '0' && p[0] <= '9' && p[1] >= '0' && p[1] <= '9'
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Rule is a recurring weekly window.
type Rule struct {
	DayOfWeek   int
	Start       string
	End         string
	IsAvailable bool
}

// Interval is an absolute half-open exclusion [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Commitment is an existing, non-cancelled booking on the queried date.
type Commitment struct {
	LessonTime      string
	DurationMinutes int
}

type Computer struct {
	// Step is the enumeration granularity in minutes.
	Step int
	// Location is the zone rule times and lesson times are expressed in.
	Location *time.Location
}

func New(stepMinutes int, loc *time.Location) *Computer {
	if loc == nil {
		loc = time.UTC
	}
	return &Computer{Step: stepMinutes, Location: loc}
}

// ParseDate reads a YYYY-MM-DD civil date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: malformed date %q", ErrInvalidInput, s)
	}
	return d, nil
}

// Compute returns the bookable start times on date, ascending and
// deduplicated, rendered as "HH:MM".
func (c *Computer) Compute(rules []Rule, blocked []Interval, commitments []Commitment, date time.Time, durationMinutes int) ([]string, error) {
	starts, err := c.compute(rules, blocked, commitments, date, durationMinutes)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(starts))
	for i, s := range starts {
		out[i] = s.String()
	}
	return out, nil
}

// Fits reports whether lessonTime would be among the slots Compute returns.
func (c *Computer) Fits(rules []Rule, blocked []Interval, commitments []Commitment, date time.Time, lessonTime string, durationMinutes int) (bool, error) {
	want, err := ParseClock(lessonTime)
	if err != nil {
		return false, err
	}
	starts, err := c.compute(rules, blocked, commitments, date, durationMinutes)
	if err != nil {
		return false, err
	}
	i := sort.Search(len(starts), func(i int) bool { return starts[i] >= want })
	return i < len(starts) && starts[i] == want, nil
}

func (c *Computer) compute(rules []Rule, blocked []Interval, commitments []Commitment, date time.Time, durationMinutes int) ([]Clock, error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}
	if c.Step <= 0 {
		return nil, fmt.Errorf("%w: step must be positive", ErrInvalidInput)
	}

	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	weekday := int(day.Weekday())

	busy := make([]Interval, 0, len(blocked)+len(commitments))
	busy = append(busy, blocked...)
	for _, cm := range commitments {
		start, err := ParseClock(cm.LessonTime)
		if err != nil {
			return nil, err
		}
		if cm.DurationMinutes <= 0 {
			return nil, fmt.Errorf("%w: booking duration must be positive", ErrInvalidInput)
		}
		s := at(day, start)
		busy = append(busy, Interval{Start: s, End: s.Add(time.Duration(cm.DurationMinutes) * time.Minute)})
	}

	seen := make(map[Clock]struct{})
	var starts []Clock
	for _, r := range rules {
		if r.DayOfWeek != weekday || !r.IsAvailable {
			continue
		}
		from, err := ParseClock(r.Start)
		if err != nil {
			return nil, err
		}
		to, err := ParseClock(r.End)
		if err != nil {
			return nil, err
		}

		for off := from; off+Clock(durationMinutes) <= to; off += Clock(c.Step) {
			if _, dup := seen[off]; dup {
				continue
			}
			slotStart := at(day, off)
			slotEnd := slotStart.Add(time.Duration(durationMinutes) * time.Minute)
			if overlapsAny(slotStart, slotEnd, busy) {
				continue
			}
			seen[off] = struct{}{}
			starts = append(starts, off)
		}
	}

	// Overlapping rules interleave their enumerations.
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })
	return starts, nil
}

func at(day time.Time, c Clock) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), int(c)/60, int(c)%60, 0, 0, day.Location())
}

func overlapsAny(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		if start.Before(b.End) && end.After(b.Start) {
			return true
		}
	}
	return false
}
