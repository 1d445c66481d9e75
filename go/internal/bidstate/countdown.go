package bidstate

import (
	"fmt"
	"time"
)

const (
	msPerSecond = int64(1000)
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
)

// Countdown is the time remaining until an auction's end, broken into display
// fields. All fields are non-negative.
type Countdown struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// DeriveCountdown computes the countdown from now to end by successive
// integer division of the remaining milliseconds. A past deadline yields the
// all-zero countdown; reaching zero says nothing about the auction's status,
// which only the server decides.
func DeriveCountdown(now, end time.Time) Countdown {
	ms := end.UTC().Sub(now.UTC()).Milliseconds()
	if ms < 0 {
		ms = 0
	}

	days := ms / msPerDay
	ms -= days * msPerDay
	hours := ms / msPerHour
	ms -= hours * msPerHour
	minutes := ms / msPerMinute
	ms -= minutes * msPerMinute
	seconds := ms / msPerSecond

	return Countdown{
		Days:    int(days),
		Hours:   int(hours),
		Minutes: int(minutes),
		Seconds: int(seconds),
	}
}

// IsZero reports whether no time remains.
func (c Countdown) IsZero() bool {
	return c.Days == 0 && c.Hours == 0 && c.Minutes == 0 && c.Seconds == 0
}

func (c Countdown) String() string {
	return fmt.Sprintf("%dd %dh %dm %ds", c.Days, c.Hours, c.Minutes, c.Seconds)
}
