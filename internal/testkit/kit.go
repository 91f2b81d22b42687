package testkit

import (
	"fmt"
	"time"

	"github.com/TbrosN/clarity/domain/core"
	"github.com/TbrosN/clarity/domain/survey"
)

// SampleLogs builds n daily logs alternating good and poor days, most
// recent date first. Good days pair favorable evening habits with high
// sleep quality and energy; poor days invert everything, so comparison
// buckets separate cleanly.
func SampleLogs(n int) []survey.DailyLog {
	catalog := survey.DefaultCatalog()
	base := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	logs := make([]survey.DailyLog, 0, n)
	for i := 0; i < n; i++ {
		date := core.CivilDateOf(base.AddDate(0, 0, -i))
		answers := goodDay()
		if i%2 == 1 {
			answers = poorDay()
		}
		logs = append(logs, buildLog(catalog, date, answers))
	}
	return logs
}

func goodDay() map[core.MetricKey]any {
	return map[core.MetricKey]any{
		"sleepQuality":    4,
		"energy":          4,
		"sleepiness":      4,
		"stress":          2,
		"screensOff":      "2+hours",
		"caffeine":        "before12",
		"lastMeal":        "3+hours",
		"snooze":          "no",
		"actualSleepTime": "23:00",
		"wakeTime":        "07:00",
	}
}

func poorDay() map[core.MetricKey]any {
	return map[core.MetricKey]any{
		"sleepQuality":    2,
		"energy":          2,
		"sleepiness":      2,
		"stress":          4,
		"screensOff":      "stillUsing",
		"caffeine":        "after6pm",
		"lastMeal":        "justAte",
		"snooze":          "3+times",
		"actualSleepTime": "01:00",
		"wakeTime":        "06:30",
	}
}

func buildLog(catalog *survey.Catalog, date core.CivilDate, answers map[core.MetricKey]any) survey.DailyLog {
	log := survey.NewDailyLog(date)
	var id int64
	for key, raw := range answers {
		id++
		response := survey.Response{
			ID:         id,
			UserID:     "user-sample",
			QuestionID: id,
			LocalDate:  date,
			RecordedAt: date.Time(),
		}
		response.Apply(survey.Classify(catalog.SpecOrDefault(key), raw))
		log.Set(key, response)
	}
	return log
}

// LogWithAnswers builds a single log for ad-hoc cases.
func LogWithAnswers(date core.CivilDate, answers map[core.MetricKey]any) survey.DailyLog {
	return buildLog(survey.DefaultCatalog(), date, answers)
}

// DateDaysAgo is a convenience for fixture dates.
func DateDaysAgo(n int) core.CivilDate {
	return core.CivilDateOf(time.Now().UTC().AddDate(0, 0, -n))
}

// Describe prints a compact one-line view of a log, used when a test wants
// readable failure output.
func Describe(log survey.DailyLog) string {
	return fmt.Sprintf("%s (%d responses)", log.Date, len(log.Responses))
}
