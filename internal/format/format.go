// Package format renders times and durations for API responses and the CLI.
package format

import (
	"fmt"
	"time"
)

// Clock renders an epoch-millisecond instant as HH:MM in UTC.
func Clock(epochMs int64) string {
	return time.UnixMilli(epochMs).UTC().Format("15:04")
}

// Duration renders whole minutes as "45m", "2h" or "2h 5m".
func Duration(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}
