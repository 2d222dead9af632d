package domain

import "time"

// Measurement is a single weather observation as persisted by the loader.
// Values are never mutated once saved.
type Measurement struct {
	SourceID    string  `json:"source_id"    db:"source_id"`
	Timestamp   int64   `json:"timestamp"    db:"observed_at"` // unix seconds, as reported upstream
	Temperature float64 `json:"temperature"  db:"temperature"`
	Humidity    float64 `json:"humidity"     db:"humidity"`
	Pressure    float64 `json:"pressure"     db:"pressure"`
}

// Time returns the observation time.
func (m Measurement) Time() time.Time {
	return time.Unix(m.Timestamp, 0).UTC()
}

// Window is a rolling averaging window.
type Window string

const (
	WindowDay  Window = "day"
	WindowWeek Window = "week"
)

// Duration returns the length of the window, or 0 for unknown windows.
func (w Window) Duration() time.Duration {
	switch w {
	case WindowDay:
		return 24 * time.Hour
	case WindowWeek:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}

// Valid reports whether w is a supported window.
func (w Window) Valid() bool {
	return w.Duration() > 0
}
