package activities

import "fmt"

// humanOffset renders a duration, in seconds, rounded down to its largest whole unit, matching
// the exact wording required for personal reminder messages: "1 day", "2 hours", "15 minutes",
// "45 seconds". Only one unit is ever shown; there is no minutes-and-seconds combination.
func humanOffset(seconds int64) string {
	switch {
	case seconds >= 86400:
		return plural(seconds/86400, "day")
	case seconds >= 3600:
		return plural(seconds/3600, "hour")
	case seconds >= 60:
		return plural(seconds/60, "minute")
	default:
		return plural(seconds, "second")
	}
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
