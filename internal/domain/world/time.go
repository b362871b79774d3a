package world

// Time is the simulation calendar. One tick is one in-game hour.
type Time struct {
	Tick  uint64 `json:"tick"`
	Day   int    `json:"day"`
	Hour  int    `json:"hour"` // 0-23
	Week  int    `json:"week"`
	Month int    `json:"month"`
}

const (
	startHour   = 8
	daysPerWeek = 7
	daysPerMon  = 30
)

// NewTime returns the calendar before the first tick.
func NewTime() Time {
	return Time{Tick: 0, Day: 1, Hour: startHour, Week: 1, Month: 1}
}

// Advance moves the calendar forward by one tick.
func (t Time) Advance() Time {
	t.Tick++
	t.Hour++
	if t.Hour >= 24 {
		t.Hour = 0
		t.Day++
		if (t.Day-1)%daysPerWeek == 0 {
			t.Week++
		}
		if (t.Day-1)%daysPerMon == 0 {
			t.Month++
		}
	}
	return t
}

// IsDay reports whether the current hour is in daylight (06:00-17:59).
func (t Time) IsDay() bool {
	return t.Hour >= 6 && t.Hour < 18
}
