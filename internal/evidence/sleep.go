package evidence

import (
	"fmt"
	"time"

	"github.com/TbrosN/clarity/domain/core"
	"github.com/TbrosN/clarity/domain/survey"
)

const (
	minPlausibleSleepHours = 1.0
	maxPlausibleSleepHours = 18.0
)

// sleepDurationOf derives hours slept from a log's bedtime and wake time.
// A wake time at or before the bedtime is treated as crossing midnight.
// Durations outside the plausible range are discarded rather than clamped.
func sleepDurationOf(log survey.DailyLog) *float64 {
	sleepAt := clockValueOf(log, "actualSleepTime")
	wakeAt := clockValueOf(log, "wakeTime")
	if sleepAt == "" || wakeAt == "" {
		return nil
	}

	startMinutes, err := clockMinutes(sleepAt)
	if err != nil {
		return nil
	}
	endMinutes, err := clockMinutes(wakeAt)
	if err != nil {
		return nil
	}

	if endMinutes <= startMinutes {
		endMinutes += 24 * 60
	}

	hours := float64(endMinutes-startMinutes) / 60.0
	if hours < minPlausibleSleepHours || hours > maxPlausibleSleepHours {
		return nil
	}
	return &hours
}

func clockMinutes(s string) (int, error) {
	normalized, err := survey.ParseClock(s)
	if err != nil {
		return 0, err
	}
	t, err := time.Parse("15:04:05", normalized)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func clockValueOf(log survey.DailyLog, key core.MetricKey) string {
	entry, ok := log.Responses[key]
	if !ok || entry.Value == nil {
		return ""
	}
	if s, ok := entry.Value.(string); ok {
		return s
	}
	return fmt.Sprint(entry.Value)
}
