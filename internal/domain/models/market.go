package models

// SessionStatus describes whether the simulated exchange accepts trades.
type SessionStatus string

const (
	StatusOpen          SessionStatus = "OPEN"
	StatusClosedHoliday SessionStatus = "CLOSED_HOLIDAY"
	StatusClosedWeekend SessionStatus = "CLOSED_WEEKEND"
	StatusClosedHours   SessionStatus = "CLOSED_HOURS"
)

// IsOpen reports whether trading is allowed.
func (s SessionStatus) IsOpen() bool { return s == StatusOpen }

// Text is the banner shown to the trader.
func (s SessionStatus) Text() string {
	switch s {
	case StatusOpen:
		return "NSE/BSE LIVE"
	case StatusClosedHoliday:
		return "MARKET CLOSED (Holiday)"
	case StatusClosedWeekend:
		return "MARKET CLOSED (Weekend)"
	default:
		return "MARKET CLOSED"
	}
}

// MarketStatus is the API view of the calendar at an instant.
type MarketStatus struct {
	Status SessionStatus `json:"status"`
	IsOpen bool          `json:"isOpen"`
	Text   string        `json:"text"`
	AsOf   string        `json:"asOf"`
}
