package survey

import (
	"fmt"
	"time"
)

// ValueKind tags the closed set of typed value slots a response can occupy
type ValueKind string

const (
	ValueNumeric   ValueKind = "numeric"
	ValueBool      ValueKind = "bool"
	ValueText      ValueKind = "text"
	ValueTimeOfDay ValueKind = "time"
	ValueTimestamp ValueKind = "timestamp"
)

// ResponseValue is the tagged union built once at the write boundary. Exactly
// one slot (per Kind) is meaningful; ordinal answers additionally carry both
// the original text label and the derived score so the label stays available
// for display while the score feeds computation.
type ResponseValue struct {
	Kind      ValueKind
	Number    float64
	Flag      bool
	Text      string
	TimeOfDay string // canonical "HH:MM:SS"
	Instant   time.Time
	Score     *float64 // ordinal score, set alongside Text for ordinal questions
}

// Classify dispatches a raw submitted value into a ResponseValue according to
// the question spec. It never fails: malformed time strings degrade to
// text-only storage, unknown ordinal labels store the label with no score.
func Classify(spec QuestionSpec, raw any) ResponseValue {
	if label, ok := raw.(string); ok && spec.IsOrdinal() {
		v := ResponseValue{Kind: ValueText, Text: label}
		if score, ok := spec.OrdinalScale[label]; ok {
			s := float64(score)
			v.Score = &s
		}
		return v
	}

	switch val := raw.(type) {
	case bool:
		return ResponseValue{Kind: ValueBool, Flag: val}
	case int:
		return ResponseValue{Kind: ValueNumeric, Number: float64(val)}
	case int64:
		return ResponseValue{Kind: ValueNumeric, Number: float64(val)}
	case float64:
		return ResponseValue{Kind: ValueNumeric, Number: val}
	case float32:
		return ResponseValue{Kind: ValueNumeric, Number: float64(val)}
	case time.Time:
		return ResponseValue{Kind: ValueTimestamp, Instant: val}
	case string:
		if spec.Kind == KindTime {
			if clock, err := ParseClock(val); err == nil {
				return ResponseValue{Kind: ValueTimeOfDay, TimeOfDay: clock, Text: val}
			}
			// keep as text only if parsing fails
		}
		return ResponseValue{Kind: ValueText, Text: val}
	default:
		return ResponseValue{Kind: ValueText, Text: fmt.Sprint(raw)}
	}
}

// ParseClock normalizes an "HH:MM" or "HH:MM:SS" string to "HH:MM:SS"
func ParseClock(s string) (string, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05"), nil
		}
	}
	return "", fmt.Errorf("not a time of day: %q", s)
}
