package survey

import (
	"github.com/TbrosN/clarity/domain/core"
)

// Entry is one question's current answer inside a DailyLog, in display form.
// NumericScore is the raw numeric slot: the ordinal/likert score when the
// display value is a text label.
type Entry struct {
	ResponseID   int64    `json:"id"`
	Value        any      `json:"value"`
	ValueType    string   `json:"value_type"`
	NumericScore *float64 `json:"value_numeric"`
}

// DailyLog is the set of all current responses for one user on one local
// date, keyed by question key. Derived and read-only: reconstructed from
// responses on each history query, never stored.
type DailyLog struct {
	Date      core.CivilDate           `json:"date"`
	Responses map[core.MetricKey]Entry `json:"responses"`
}

// NewDailyLog creates an empty log for a date
func NewDailyLog(date core.CivilDate) DailyLog {
	return DailyLog{Date: date, Responses: map[core.MetricKey]Entry{}}
}

// Set records a response under its question key
func (l DailyLog) Set(key core.MetricKey, r Response) {
	l.Responses[key] = Entry{
		ResponseID:   r.ID,
		Value:        r.ExtractValue(),
		ValueType:    r.ExtractValueType(),
		NumericScore: r.Numeric,
	}
}

// Numeric safely extracts a numeric reading for a question key. The numeric
// slot wins (covers both ordinal scores and likert values); a numeric display
// value is the fallback. Text is never parsed.
func (l DailyLog) Numeric(key core.MetricKey) *float64 {
	entry, ok := l.Responses[key]
	if !ok {
		return nil
	}
	if entry.NumericScore != nil {
		v := *entry.NumericScore
		return &v
	}
	switch v := entry.Value.(type) {
	case float64:
		return &v
	case int64:
		f := float64(v)
		return &f
	case int:
		f := float64(v)
		return &f
	}
	return nil
}

// Text returns the display value as a string when it is one
func (l DailyLog) Text(key core.MetricKey) (string, bool) {
	entry, ok := l.Responses[key]
	if !ok {
		return "", false
	}
	s, ok := entry.Value.(string)
	return s, ok
}
