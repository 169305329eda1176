package calendar

import (
	"fmt"
	"time"

	"TradePilot/internal/domain/models"
)

const (
	// DefaultOpenMinute is 09:15 IST.
	DefaultOpenMinute = 9*60 + 15
	// DefaultCloseMinute is 15:30 IST.
	DefaultCloseMinute = 15*60 + 30

	dateLayout = "2006-01-02"
)

// IST is India Standard Time. India observes no daylight saving so a fixed zone is exact.
var IST = time.FixedZone("IST", 5*3600+30*60)

// NSEHolidays2025 are the trading holidays of the 2025 calendar year.
var NSEHolidays2025 = []string{
	"2025-01-26", // Republic Day
	"2025-02-26", // Mahashivratri
	"2025-03-14", // Holi
	"2025-03-31", // Id-ul-Fitr
	"2025-04-10", // Mahavir Jayanti
	"2025-04-14", // Dr. Baba Saheb Ambedkar Jayanti
	"2025-04-18", // Good Friday
	"2025-05-01", // Maharashtra Day
	"2025-05-12", // Buddha Purnima
	"2025-08-15", // Independence Day
	"2025-08-27", // Ganesh Chaturthi
	"2025-10-02", // Mahatma Gandhi Jayanti
	"2025-10-20", // Diwali-Laxmi Pujan
	"2025-10-22", // Diwali-Balipratipada
	"2025-11-05", // Guru Nanak Jayanti
	"2025-12-25", // Christmas
}

// Option configures MarketCalendar.
type Option func(*MarketCalendar) error

// WithLocation sets the reference timezone.
func WithLocation(loc *time.Location) Option {
	return func(c *MarketCalendar) error {
		if loc == nil {
			return fmt.Errorf("location is nil")
		}
		c.loc = loc
		return nil
	}
}

// WithHolidays replaces the holiday set. Dates use the YYYY-MM-DD layout.
func WithHolidays(dates []string) Option {
	return func(c *MarketCalendar) error {
		set := make(map[string]struct{}, len(dates))
		for _, d := range dates {
			if _, err := time.Parse(dateLayout, d); err != nil {
				return fmt.Errorf("holiday %q: %w", d, err)
			}
			set[d] = struct{}{}
		}
		c.holidays = set
		return nil
	}
}

// WithSessionMinutes sets the open and close minute-of-day, both inclusive.
func WithSessionMinutes(open, close int) Option {
	return func(c *MarketCalendar) error {
		if open < 0 || close >= 24*60 || open >= close {
			return fmt.Errorf("invalid session minutes %d-%d", open, close)
		}
		c.openMinute = open
		c.closeMinute = close
		return nil
	}
}

// MarketCalendar decides whether the exchange session is open. It holds no mutable state
// after construction and is safe for concurrent use.
type MarketCalendar struct {
	loc         *time.Location
	holidays    map[string]struct{}
	openMinute  int
	closeMinute int
}

// New creates a calendar with NSE defaults overridden by opts.
func New(opts ...Option) (*MarketCalendar, error) {
	c := &MarketCalendar{
		loc:         IST,
		openMinute:  DefaultOpenMinute,
		closeMinute: DefaultCloseMinute,
	}
	if err := WithHolidays(NSEHolidays2025)(c); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("calendar: %w", err)
		}
	}
	return c, nil
}

// Status evaluates holiday, weekend and trading hours in that order.
func (c *MarketCalendar) Status(t time.Time) models.SessionStatus {
	local := t.In(c.loc)
	if _, ok := c.holidays[local.Format(dateLayout)]; ok {
		return models.StatusClosedHoliday
	}
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return models.StatusClosedWeekend
	}
	minute := local.Hour()*60 + local.Minute()
	if minute < c.openMinute || minute > c.closeMinute {
		return models.StatusClosedHours
	}
	return models.StatusOpen
}

// IsOpen is shorthand for Status(t) == OPEN.
func (c *MarketCalendar) IsOpen(t time.Time) bool {
	return c.Status(t).IsOpen()
}

// Describe returns the API view of Status.
func (c *MarketCalendar) Describe(t time.Time) models.MarketStatus {
	s := c.Status(t)
	return models.MarketStatus{
		Status: s,
		IsOpen: s.IsOpen(),
		Text:   s.Text(),
		AsOf:   t.In(c.loc).Format(time.RFC3339),
	}
}

// Location returns the reference timezone.
func (c *MarketCalendar) Location() *time.Location { return c.loc }
