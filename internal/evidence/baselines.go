package evidence

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/TbrosN/clarity/domain/core"
	"github.com/TbrosN/clarity/domain/survey"
)

// BaselineMetric summarizes one metric's distribution over the window.
type BaselineMetric struct {
	MetricKey core.MetricKey `json:"metric_key"`
	Label     string         `json:"label"`
	Mean      float64        `json:"mean"`
	StdDev    float64        `json:"std_dev"`
	Min       float64        `json:"min"`
	Max       float64        `json:"max"`
	N         int            `json:"n"`
}

// BaselineReport is the per-metric baseline view behind the baselines
// endpoint. Metrics with fewer than two samples are omitted since a
// standard deviation needs at least two points.
type BaselineReport struct {
	WindowDays int              `json:"window_days"`
	LogsCount  int              `json:"logs_count"`
	Metrics    []BaselineMetric `json:"metrics"`
}

// ComputeBaselines builds distribution summaries for every scalar metric in
// the catalog plus derived sleep duration.
func (b *Builder) ComputeBaselines(logs []survey.DailyLog, windowDays int) BaselineReport {
	report := BaselineReport{WindowDays: windowDays, LogsCount: len(logs)}

	samples := map[core.MetricKey][]float64{}
	durations := []float64{}
	for _, log := range logs {
		for _, key := range b.summaryMetricKeys() {
			if v := log.Numeric(key); v != nil {
				samples[key] = append(samples[key], *v)
			}
		}
		if d := sleepDurationOf(log); d != nil {
			durations = append(durations, *d)
		}
	}

	for _, key := range b.summaryMetricKeys() {
		if m, ok := baselineOf(key, b.metricLabel(key), samples[key]); ok {
			report.Metrics = append(report.Metrics, m)
		}
	}
	if m, ok := baselineOf("sleepDuration", "sleep duration", durations); ok {
		report.Metrics = append(report.Metrics, m)
	}

	sort.Slice(report.Metrics, func(i, j int) bool {
		return report.Metrics[i].MetricKey < report.Metrics[j].MetricKey
	})
	return report
}

func baselineOf(key core.MetricKey, label string, values []float64) (BaselineMetric, bool) {
	if len(values) < 2 {
		return BaselineMetric{}, false
	}

	mean, std := stat.MeanStdDev(values, nil)
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	return BaselineMetric{
		MetricKey: key,
		Label:     label,
		Mean:      round2(mean),
		StdDev:    round2(std),
		Min:       min,
		Max:       max,
		N:         len(values),
	}, true
}
