// utils/dates.go
package utils

import (
	"math"
	"strconv"
	"time"
)

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// DaysBetween counts calendar days from start to end, ignoring time of day.
func DaysBetween(start, end time.Time) int {
	start = BeginningOfDay(start)
	end = BeginningOfDay(end.In(start.Location()))
	return int(math.Round(end.Sub(start).Hours() / 24))
}

// RelativeDay renders a day offset the way the dashboard shows it.
func RelativeDay(days int) string {
	switch {
	case days == 0:
		return "Hoy"
	case days == 1:
		return "Mañana"
	case days == -1:
		return "Ayer"
	case days > 1:
		return "En " + strconv.Itoa(days) + " días"
	default:
		return "Hace " + strconv.Itoa(-days) + " días"
	}
}
