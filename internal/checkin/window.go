package checkin

import "time"

// Window is the daily interval during which attendance may be marked.
// The open hour is inclusive, the close hour exclusive.
type Window struct {
	OpenHour  int
	CloseHour int
}

// DefaultWindow is the 07:00-17:00 local working window.
func DefaultWindow() Window {
	return Window{OpenHour: 7, CloseHour: 17}
}

// Contains reports whether the given local time falls in the window.
func (w Window) Contains(t time.Time) bool {
	return w.ContainsHour(t.Hour())
}

// ContainsHour reports whether the given hour falls in the window.
func (w Window) ContainsHour(hour int) bool {
	return hour >= w.OpenHour && hour < w.CloseHour
}
