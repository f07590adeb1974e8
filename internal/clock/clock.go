// Package clock centralizes time for the session runtime. All deadlines are
// absolute timestamps so missed ticks and scheduling jitter never shorten or
// extend a turn.
package clock

import "time"

// Now returns the current time.
func Now() time.Time {
	return time.Now()
}

// NowMs returns the current wall-clock time in milliseconds.
func NowMs() int64 {
	return time.Now().UnixMilli()
}

// DeadlineIn returns an absolute deadline the given number of seconds from now.
func DeadlineIn(secs int) time.Time {
	return time.Now().Add(time.Duration(secs) * time.Second)
}

// TimeLeft returns the seconds remaining until the deadline, floored at zero.
func TimeLeft(deadline time.Time) float64 {
	left := time.Until(deadline).Seconds()
	if left < 0 {
		return 0
	}
	return left
}

// NewTicker returns the 1 Hz ticker that drives session tick frames.
func NewTicker() *time.Ticker {
	return time.NewTicker(time.Second)
}
