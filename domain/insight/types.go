package insight

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/TbrosN/clarity/domain/core"
)

// FactValue holds a fact's value: a number for computed statistics, or text
// for raw responses. Numbers render canonically (integers without decimals,
// otherwise up to two decimals) so the same token appears in fact registries,
// generated messages, and validator checks.
type FactValue struct {
	number float64
	text   string
	isText bool
}

// NumberValue creates a numeric fact value
func NumberValue(v float64) FactValue {
	return FactValue{number: v}
}

// TextValue creates a textual fact value
func TextValue(s string) FactValue {
	return FactValue{text: s, isText: true}
}

// IsNumber reports whether the value is numeric
func (v FactValue) IsNumber() bool {
	return !v.isText
}

// Number returns the numeric value (zero for text values)
func (v FactValue) Number() float64 {
	return v.number
}

// Text returns the text value
func (v FactValue) Text() string {
	return v.text
}

// String renders the canonical token for this value
func (v FactValue) String() string {
	if v.isText {
		return v.text
	}
	return RenderNumber(v.number)
}

// RenderNumber formats a statistic the way facts and messages quote it:
// rounded to two decimals, trailing zeros trimmed, integers bare.
func RenderNumber(f float64) string {
	rounded := math.Round(f*100) / 100
	if rounded == math.Trunc(rounded) {
		return strconv.FormatInt(int64(rounded), 10)
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// MarshalJSON emits a bare number or string
func (v FactValue) MarshalJSON() ([]byte, error) {
	if v.isText {
		return json.Marshal(v.text)
	}
	return json.Marshal(v.number)
}

// UnmarshalJSON accepts a number or string
func (v *FactValue) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = NumberValue(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = TextValue(s)
		return nil
	}
	return fmt.Errorf("fact value must be a number or string")
}

// Fact is an atomic, independently citable claim derived from daily logs.
// Its value must be reproducible by recomputing the stated method over the
// stated provenance window; it is the unit of truth the validator checks.
type Fact struct {
	FactID           core.FactID      `json:"fact_id"`
	Label            string           `json:"label"`
	Value            FactValue        `json:"value"`
	Unit             string           `json:"unit,omitempty"`
	WindowDays       int              `json:"window_days"`
	SampleSize       *int             `json:"sample_size,omitempty"`
	NGood            *int             `json:"n_good,omitempty"`
	NPoor            *int             `json:"n_poor,omitempty"`
	Method           string           `json:"method"`
	Provenance       string           `json:"provenance"`
	SourceMetricKeys []core.MetricKey `json:"source_metric_keys"`
}

// CandidateInsight is a ranked behavior -> outcome comparison. Materialized
// only when both buckets clear the minimum sample size and the absolute mean
// difference clears the minimum effect size; its fact ids always exist in the
// registry of the payload that carries it.
type CandidateInsight struct {
	InsightID  string        `json:"insight_id"`
	Type       string        `json:"type"`
	Title      string        `json:"title"`
	Behavior   string        `json:"behavior"`
	Outcome    string        `json:"outcome"`
	Direction  string        `json:"direction"` // "better" | "worse"
	Magnitude  float64       `json:"magnitude"`
	Summary    string        `json:"summary"`
	FactIDs    []core.FactID `json:"fact_ids"`
	Score      float64       `json:"score"`
	ActionHint string        `json:"action_hint"`
}

// StatsPayload is the bundle handed to the generator: the sole source of
// truth it and the validator may draw numbers from. Recomputed fresh on each
// insight request, never persisted.
type StatsPayload struct {
	WindowDays     int                  `json:"window_days"`
	LogsCount      int                  `json:"logs_count"`
	DateStart      core.CivilDate       `json:"date_start,omitempty"`
	DateEnd        core.CivilDate       `json:"date_end,omitempty"`
	CompletionRate float64              `json:"completion_rate"`
	SummaryFactIDs []core.FactID        `json:"summary_fact_ids"`
	Candidates     []CandidateInsight   `json:"candidate_insights"`
	FactRegistry   map[core.FactID]Fact `json:"fact_registry"`
}

// Fact looks up a fact by id
func (p StatsPayload) Fact(id core.FactID) (Fact, bool) {
	f, ok := p.FactRegistry[id]
	return f, ok
}

// Draft is one generated insight before validation
type Draft struct {
	Type                 string        `json:"type"`
	MessageWithCitations string        `json:"message_with_citations"`
	Action               string        `json:"action,omitempty"`
	FactIDsUsed          []core.FactID `json:"fact_ids_used"`
}

// DraftResponse is the generator's full output before validation
type DraftResponse struct {
	Insights []Draft `json:"insights"`
}

// Insight is the validated, user-visible output. Citations are copies of the
// cited facts so the caller can display provenance without another lookup.
type Insight struct {
	Type             string           `json:"type"`
	Message          string           `json:"message"`
	Confidence       string           `json:"confidence,omitempty"`
	Impact           string           `json:"impact,omitempty"`
	Action           string           `json:"action,omitempty"`
	Citations        []Fact           `json:"citations,omitempty"`
	SourceMetricKeys []core.MetricKey `json:"source_metric_keys,omitempty"`
}
