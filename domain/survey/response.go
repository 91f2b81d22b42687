package survey

import (
	"time"

	"github.com/TbrosN/clarity/domain/core"
)

// Response is one user's current answer to one question on one local date.
// The five nullable slots mirror the storage columns; Apply populates them
// from a classified ResponseValue.
type Response struct {
	ID         int64          `db:"id" json:"id"`
	UserID     core.UserID    `db:"user_id" json:"user_id"`
	QuestionID int64          `db:"question_id" json:"question_id"`
	LocalDate  core.CivilDate `db:"local_date" json:"local_date"`
	RecordedAt time.Time      `db:"recorded_at" json:"recorded_at"`

	Numeric   *float64   `db:"response_numeric" json:"response_numeric"`
	Text      *string    `db:"response_text" json:"response_text"`
	Bool      *bool      `db:"response_bool" json:"response_bool"`
	TimeOfDay *string    `db:"response_time" json:"response_time"`
	Timestamp *time.Time `db:"response_timestamp" json:"response_timestamp"`
}

// Apply clears all slots and sets the ones the value occupies
func (r *Response) Apply(v ResponseValue) {
	r.Numeric = nil
	r.Text = nil
	r.Bool = nil
	r.TimeOfDay = nil
	r.Timestamp = nil

	switch v.Kind {
	case ValueNumeric:
		n := v.Number
		r.Numeric = &n
	case ValueBool:
		b := v.Flag
		r.Bool = &b
	case ValueTimestamp:
		t := v.Instant
		r.Timestamp = &t
	case ValueTimeOfDay:
		clock := v.TimeOfDay
		r.TimeOfDay = &clock
		if v.Text != "" {
			text := v.Text
			r.Text = &text
		}
	default: // ValueText, including the ordinal case
		text := v.Text
		r.Text = &text
		r.Numeric = v.Score
	}
}

// ExtractValue returns the most appropriate display value for a response.
//
// Precedence: timestamp > time > text (covers ordinal display) > numeric >
// bool. For ordinal responses that have both text and numeric, the text label
// is preferred for display while the score is exposed separately.
func (r Response) ExtractValue() any {
	switch {
	case r.Timestamp != nil:
		return *r.Timestamp
	case r.TimeOfDay != nil:
		return *r.TimeOfDay
	case r.Text != nil:
		return *r.Text
	case r.Numeric != nil:
		if n := *r.Numeric; n == float64(int64(n)) {
			return int64(n)
		}
		return *r.Numeric
	case r.Bool != nil:
		return *r.Bool
	default:
		return nil
	}
}

// ExtractValueType returns the value-type tag matching ExtractValue's choice
func (r Response) ExtractValueType() string {
	switch {
	case r.Timestamp != nil:
		return "timestamp"
	case r.TimeOfDay != nil:
		return "time"
	case r.Text != nil && r.Numeric != nil:
		// Ordinal: both text label and numeric score are stored
		return "ordinal"
	case r.Text == nil && r.Numeric != nil:
		return "numeric"
	case r.Text == nil && r.Bool != nil:
		return "bool"
	default:
		return "text"
	}
}
