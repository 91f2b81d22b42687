package evidence

import (
	"math"

	"github.com/TbrosN/clarity/domain/core"
	"github.com/TbrosN/clarity/domain/survey"
)

// maxDailyEfficiencyPoints is the sum of every component at its best value
const maxDailyEfficiencyPoints = 8.5

// EfficiencyScore is a 0-100 composite of sleep and evening habits over a
// window, with a traffic-light color for the UI.
type EfficiencyScore struct {
	Score      float64 `json:"score"`
	Color      string  `json:"color"`
	WindowDays int     `json:"window_days"`
	LogsCount  int     `json:"logs_count"`
}

// ComputeEfficiency scores a window of logs. Days contribute points per
// metric; missing metrics simply contribute nothing that day. An empty
// window yields the neutral midpoint rather than zero.
func ComputeEfficiency(logs []survey.DailyLog, windowDays int) EfficiencyScore {
	if len(logs) == 0 {
		return EfficiencyScore{Score: 50, Color: "#F39C12", WindowDays: windowDays}
	}

	total := 0.0
	for _, log := range logs {
		total += dailyEfficiencyPoints(log)
	}
	pct := math.Round(total / (float64(len(logs)) * maxDailyEfficiencyPoints) * 100)
	pct = math.Max(0, math.Min(100, pct))

	return EfficiencyScore{
		Score:      pct,
		Color:      efficiencyColor(pct),
		WindowDays: windowDays,
		LogsCount:  len(logs),
	}
}

func dailyEfficiencyPoints(log survey.DailyLog) float64 {
	points := 0.0
	add := func(key core.MetricKey, weight func(v float64) float64) {
		if v := log.Numeric(key); v != nil {
			points += weight(*v)
		}
	}

	add("sleepQuality", func(v float64) float64 { return (v - 1) * 0.5 })
	add("energy", func(v float64) float64 { return (v - 1) * 0.375 })
	add("sleepiness", func(v float64) float64 { return (v - 1) * 0.25 })
	add("screensOff", func(v float64) float64 { return (v - 1) * 0.25 })
	add("caffeine", func(v float64) float64 { return (v - 1) * 0.25 })
	add("lastMeal", func(v float64) float64 { return (v - 1) * 0.125 })
	add("stress", func(v float64) float64 { return (5 - v) * 0.25 })
	add("snooze", func(v float64) float64 { return (v - 1) * (0.5 / 3) })

	return points
}

func efficiencyColor(pct float64) string {
	switch {
	case pct >= 75:
		return "#27AE60"
	case pct >= 50:
		return "#F39C12"
	case pct >= 25:
		return "#E67E22"
	default:
		return "#E74C3C"
	}
}
