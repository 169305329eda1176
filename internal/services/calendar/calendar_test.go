package calendar

import (
	"testing"
	"time"

	"TradePilot/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ist(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, IST)
}

func newCalendar(t *testing.T, opts ...Option) *MarketCalendar {
	t.Helper()
	c, err := New(opts...)
	require.NoError(t, err)
	return c
}

func TestStatusHolidayAllDay(t *testing.T) {
	c := newCalendar(t)
	for _, hh := range []int{0, 8, 10, 12, 15, 23} {
		assert.Equal(t, models.StatusClosedHoliday, c.Status(ist(2025, time.January, 26, hh, 0)), "hour %d", hh)
	}
}

func TestStatusWeekend(t *testing.T) {
	c := newCalendar(t)
	assert.Equal(t, models.StatusClosedWeekend, c.Status(ist(2025, time.February, 1, 11, 0))) // Saturday
	assert.Equal(t, models.StatusClosedWeekend, c.Status(ist(2025, time.February, 2, 11, 0))) // Sunday
	assert.Equal(t, models.StatusClosedWeekend, c.Status(ist(2025, time.February, 8, 3, 0)))  // Saturday, outside hours too
}

func TestStatusHours(t *testing.T) {
	c := newCalendar(t)
	tuesday := func(hh, mm int) time.Time { return ist(2025, time.January, 28, hh, mm) }

	assert.Equal(t, models.StatusOpen, c.Status(tuesday(10, 0)))
	assert.Equal(t, models.StatusClosedHours, c.Status(tuesday(8, 0)))
	assert.Equal(t, models.StatusClosedHours, c.Status(tuesday(16, 0)))

	// both boundaries are inclusive
	assert.Equal(t, models.StatusClosedHours, c.Status(tuesday(9, 14)))
	assert.Equal(t, models.StatusOpen, c.Status(tuesday(9, 15)))
	assert.Equal(t, models.StatusOpen, c.Status(tuesday(15, 30)))
	assert.Equal(t, models.StatusClosedHours, c.Status(tuesday(15, 31)))
}

func TestStatusConvertsToIST(t *testing.T) {
	c := newCalendar(t)
	// 04:30 UTC is 10:00 IST on a regular Tuesday
	utc := time.Date(2025, time.January, 28, 4, 30, 0, 0, time.UTC)
	assert.True(t, c.IsOpen(utc))

	// 20:00 UTC on Friday 2025-01-31 is already Saturday in IST
	lateFriday := time.Date(2025, time.January, 31, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, models.StatusClosedWeekend, c.Status(lateFriday))
}

func TestHolidayTakesPriorityOverWeekend(t *testing.T) {
	// 2025-01-26 is a Sunday
	c := newCalendar(t)
	require.Equal(t, time.Sunday, ist(2025, time.January, 26, 10, 0).Weekday())
	assert.Equal(t, models.StatusClosedHoliday, c.Status(ist(2025, time.January, 26, 10, 0)))
}

func TestCustomHolidays(t *testing.T) {
	c := newCalendar(t, WithHolidays([]string{"2026-01-26"}))
	assert.Equal(t, models.StatusClosedHoliday, c.Status(ist(2026, time.January, 26, 10, 0)))
	// replaced, not merged
	assert.Equal(t, models.StatusOpen, c.Status(ist(2025, time.August, 15, 10, 0)))
}

func TestInvalidOptions(t *testing.T) {
	_, err := New(WithHolidays([]string{"26/01/2025"}))
	assert.Error(t, err)

	_, err = New(WithSessionMinutes(930, 555))
	assert.Error(t, err)

	_, err = New(WithLocation(nil))
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	c := newCalendar(t)
	got := c.Describe(ist(2025, time.January, 28, 10, 0))
	assert.True(t, got.IsOpen)
	assert.Equal(t, "NSE/BSE LIVE", got.Text)

	got = c.Describe(ist(2025, time.January, 26, 10, 0))
	assert.False(t, got.IsOpen)
	assert.Equal(t, "MARKET CLOSED (Holiday)", got.Text)
}
