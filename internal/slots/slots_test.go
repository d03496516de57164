package slots

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"tutorslot/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-03-10 is a Monday.
var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func mondayMorning() []Rule {
	return []Rule{{DayOfWeek: int(time.Monday), Start: "09:00", End: "12:00", IsAvailable: true}}
}

func TestCompute_Scenarios(t *testing.T) {
	c := New(60, time.UTC)

	t.Run("open morning", func(t *testing.T) {
		got, err := c.Compute(mondayMorning(), nil, nil, monday, 60)
		require.NoError(t, err)
		assert.Equal(t, []string{"09:00", "10:00", "11:00"}, got)
	})

	t.Run("existing booking at ten", func(t *testing.T) {
		got, err := c.Compute(mondayMorning(), nil, []Commitment{{LessonTime: "10:00:00", DurationMinutes: 60}}, monday, 60)
		require.NoError(t, err)
		assert.Equal(t, []string{"09:00", "11:00"}, got)
	})

	t.Run("blocked half hour", func(t *testing.T) {
		blocked := []Interval{{
			Start: time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 3, 10, 11, 30, 0, 0, time.UTC),
		}}
		got, err := c.Compute(mondayMorning(), blocked, nil, monday, 60)
		require.NoError(t, err)
		assert.Equal(t, []string{"09:00", "10:00"}, got)
	})

	t.Run("no rules at all", func(t *testing.T) {
		for d := 0; d < 7; d++ {
			got, err := c.Compute(nil, nil, nil, monday.AddDate(0, 0, d), 60)
			require.NoError(t, err)
			assert.Empty(t, got)
		}
	})

	t.Run("rule on another weekday", func(t *testing.T) {
		rules := []Rule{{DayOfWeek: int(time.Tuesday), Start: "09:00", End: "12:00", IsAvailable: true}}
		got, err := c.Compute(rules, nil, nil, monday, 60)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestCompute_FifteenMinuteStep(t *testing.T) {
	c := New(15, time.UTC)
	rules := []Rule{{DayOfWeek: 1, Start: "09:00", End: "10:30", IsAvailable: true}}

	got, err := c.Compute(rules, nil, []Commitment{{LessonTime: "09:30", DurationMinutes: 30}}, monday, 30)
	require.NoError(t, err)
	// 09:15 would end at 09:45 and overlap; 09:00 ends exactly at 09:30.
	assert.Equal(t, []string{"09:00", "10:00"}, got)
}

func TestCompute_UnavailableRulesIgnored(t *testing.T) {
	c := New(60, time.UTC)
	rules := []Rule{{DayOfWeek: 1, Start: "09:00", End: "12:00", IsAvailable: false}}

	got, err := c.Compute(rules, nil, nil, monday, 60)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCompute_OverlappingRulesUnioned(t *testing.T) {
	c := New(30, time.UTC)
	rules := []Rule{
		{DayOfWeek: 1, Start: "10:00", End: "12:00", IsAvailable: true},
		{DayOfWeek: 1, Start: "09:00", End: "11:00", IsAvailable: true},
	}

	got, err := c.Compute(rules, nil, nil, monday, 60)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30", "11:00"}, got)
}

func TestCompute_DurationLongerThanWindow(t *testing.T) {
	c := New(15, time.UTC)
	got, err := c.Compute(mondayMorning(), nil, nil, monday, 240)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCompute_LocationShiftsBlockedIntervals(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	c := New(60, berlin)

	// 09:00-10:00 UTC is 10:00-11:00 in Berlin (CET, UTC+1 in March).
	blocked := []Interval{{
		Start: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
	}}
	got, err := c.Compute(mondayMorning(), blocked, nil, monday, 60)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "11:00"}, got)
}

func TestCompute_InvalidInput(t *testing.T) {
	c := New(15, time.UTC)

	_, err := c.Compute(mondayMorning(), nil, nil, monday, 0)
	assert.True(t, errors.Is(err, api.ErrInvalidInput))

	_, err = c.Compute([]Rule{{DayOfWeek: 1, Start: "9am", End: "12:00", IsAvailable: true}}, nil, nil, monday, 60)
	assert.True(t, errors.Is(err, api.ErrInvalidInput))

	_, err = c.Compute(mondayMorning(), nil, []Commitment{{LessonTime: "10:00", DurationMinutes: -5}}, monday, 60)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = New(0, nil).Compute(mondayMorning(), nil, nil, monday, 60)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestFits(t *testing.T) {
	c := New(15, time.UTC)
	commitments := []Commitment{{LessonTime: "10:00", DurationMinutes: 60}}

	ok, err := c.Fits(mondayMorning(), nil, commitments, monday, "09:00", 60)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Fits(mondayMorning(), nil, commitments, monday, "10:30", 60)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.Fits(mondayMorning(), nil, commitments, monday, "09:10", 30)
	require.NoError(t, err)
	assert.False(t, ok, "off-step start times are never offered")

	_, err = c.Fits(mondayMorning(), nil, nil, monday, "nine", 60)
	assert.Error(t, err)
}

func TestParseClock(t *testing.T) {
	for in, want := range map[string]Clock{"00:00": 0, "09:30": 570, "23:59": 1439, "24:00": 1440, "10:15:00": 615} {
		got, err := ParseClock(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "9:30", "09:60", "24:30", "10:15:30", "ab:cd", "10"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
	assert.Equal(t, "07:05", Clock(425).String())
}

func TestParseClock_RejectsSigns(t *testing.T) {
	for _, bad := range []string{"+9:00", "-0:00", "09:+5", "10:15:+0", "10:15:-0", " +9:00"} {
		_, err := ParseClock(bad)
		assert.ErrorIs(t, err, api.ErrInvalidInput, bad)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d.Weekday())

	_, err = ParseDate("10/03/2025")
	assert.True(t, errors.Is(err, api.ErrInvalidInput))
}

// randomSnapshot builds a random but valid input for the property checks.
func randomSnapshot(r *rand.Rand) ([]Rule, []Interval, []Commitment, time.Time, int) {
	date := monday.AddDate(0, 0, r.Intn(14))

	var rules []Rule
	for i := r.Intn(4); i > 0; i-- {
		start := Clock(r.Intn(20) * 30)
		end := start + Clock(30+r.Intn(12)*30)
		if end > 24*60 {
			end = 24 * 60
		}
		rules = append(rules, Rule{DayOfWeek: r.Intn(7), Start: start.String(), End: end.String(), IsAvailable: r.Intn(5) > 0})
	}

	var blocked []Interval
	for i := r.Intn(3); i > 0; i-- {
		s := date.Add(time.Duration(r.Intn(24*60)) * time.Minute)
		blocked = append(blocked, Interval{Start: s, End: s.Add(time.Duration(15+r.Intn(120)) * time.Minute)})
	}

	var commitments []Commitment
	for i := r.Intn(3); i > 0; i-- {
		commitments = append(commitments, Commitment{LessonTime: Clock(r.Intn(23*4) * 15).String(), DurationMinutes: 15 + r.Intn(8)*15})
	}

	durations := []int{15, 30, 45, 60, 90}
	return rules, blocked, commitments, date, durations[r.Intn(len(durations))]
}

func TestCompute_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	c := New(15, time.UTC)

	for i := 0; i < 500; i++ {
		rules, blocked, commitments, date, duration := randomSnapshot(r)

		got, err := c.Compute(rules, blocked, commitments, date, duration)
		require.NoError(t, err)

		// Determinism.
		again, err := c.Compute(rules, blocked, commitments, date, duration)
		require.NoError(t, err)
		require.Equal(t, got, again)

		matching := 0
		for _, rule := range rules {
			if rule.DayOfWeek == int(date.Weekday()) && rule.IsAvailable {
				matching++
			}
		}
		if matching == 0 {
			require.Empty(t, got)
			continue
		}

		prev := Clock(-1)
		for _, s := range got {
			start, err := ParseClock(s)
			require.NoError(t, err)

			// Strictly ascending means no duplicates.
			require.Greater(t, int(start), int(prev))
			prev = start

			// Inside some matching rule's [start, end-duration].
			inside := false
			for _, rule := range rules {
				if rule.DayOfWeek != int(date.Weekday()) || !rule.IsAvailable {
					continue
				}
				from, _ := ParseClock(rule.Start)
				to, _ := ParseClock(rule.End)
				if start >= from && start <= to-Clock(duration) {
					inside = true
				}
			}
			require.True(t, inside, "slot %s outside every rule", s)

			slotStart := at(date, start)
			slotEnd := slotStart.Add(time.Duration(duration) * time.Minute)
			for _, b := range blocked {
				require.False(t, slotStart.Before(b.End) && slotEnd.After(b.Start), "slot %s overlaps blocked interval", s)
			}
			for _, cm := range commitments {
				cs, _ := ParseClock(cm.LessonTime)
				bStart := at(date, cs)
				bEnd := bStart.Add(time.Duration(cm.DurationMinutes) * time.Minute)
				require.False(t, slotStart.Before(bEnd) && slotEnd.After(bStart), "slot %s overlaps booking at %s", s, cm.LessonTime)
			}
		}
	}
}
