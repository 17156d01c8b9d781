package core

import (
	"fmt"
	"os"
	"time"
)

// FixedTimeEnv is the environment variable that overrides NowUTC for
// deterministic tests and replays.
const FixedTimeEnv = "BF_FIXED_TIME"

// NowUTC returns the current instant in UTC, honoring BF_FIXED_TIME when
// set. A BF_FIXED_TIME that is not valid RFC 3339 is silently ignored in
// favor of the real clock.
func NowUTC() time.Time {
	if raw := os.Getenv(FixedTimeEnv); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}

// RunWindow is a half-open time interval [Start, End).
type RunWindow struct {
	Start time.Time
	End   time.Time
}

// ParseWindow parses a trend window string: one of "7d", "30d", "90d".
// Any other value is a Parse error.
func ParseWindow(raw string) (time.Duration, error) {
	switch raw {
	case "7d":
		return 7 * 24 * time.Hour, nil
	case "30d":
		return 30 * 24 * time.Hour, nil
	case "90d":
		return 90 * 24 * time.Hour, nil
	default:
		return 0, NewError(ErrorKindParse, fmt.Sprintf("invalid trend window %q: must be one of 7d|30d|90d", raw), nil)
	}
}
