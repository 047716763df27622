package reminder

import (
	"time"

	"github.com/Hamza-235/Smart-study-Planner/internal/models"
)

// NextOccurrence returns the fire time that follows at for a repeating reminder.
// Monthly repeats clamp to the last day of the target month, so Jan 31 is
// followed by Feb 28 (or 29). ok is false for RepeatNone and unknown modes.
func NextOccurrence(at time.Time, mode models.RepeatMode) (next time.Time, ok bool) {
	switch mode {
	case models.RepeatDaily:
		return at.AddDate(0, 0, 1), true
	case models.RepeatWeekly:
		return at.AddDate(0, 0, 7), true
	case models.RepeatMonthly:
		return addMonthClamped(at), true
	default:
		return time.Time{}, false
	}
}

func addMonthClamped(at time.Time) time.Time {
	year, month, day := at.Date()
	hour, min, sec := at.Clock()

	firstOfTarget := time.Date(year, month+1, 1, 0, 0, 0, 0, at.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, min, sec, at.Nanosecond(), at.Location())
}
