package survey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TbrosN/clarity/domain/core"
)

func TestClassifyOrdinalKeepsLabelAndScore(t *testing.T) {
	catalog := DefaultCatalog()
	spec, ok := catalog.Spec("screensOff")
	require.True(t, ok)

	v := Classify(spec, "2+hours")
	assert.Equal(t, ValueText, v.Kind)
	assert.Equal(t, "2+hours", v.Text)
	require.NotNil(t, v.Score)
	assert.Equal(t, 5.0, *v.Score)
}

func TestClassifyUnknownOrdinalLabelHasNoScore(t *testing.T) {
	catalog := DefaultCatalog()
	spec, _ := catalog.Spec("caffeine")

	v := Classify(spec, "espresso-at-midnight")
	assert.Equal(t, ValueText, v.Kind)
	assert.Nil(t, v.Score)
}

func TestClassifyTimeOfDayNormalizes(t *testing.T) {
	catalog := DefaultCatalog()
	spec, _ := catalog.Spec("wakeTime")

	v := Classify(spec, "7:30")
	if assert.Equal(t, ValueTimeOfDay, v.Kind) {
		assert.Equal(t, "07:30:00", v.TimeOfDay)
	}

	// Unparseable clock strings fall back to plain text
	v = Classify(spec, "around sunrise")
	assert.Equal(t, ValueText, v.Kind)
	assert.Equal(t, "around sunrise", v.Text)
}

func TestResponseOrdinalRoundTrip(t *testing.T) {
	catalog := DefaultCatalog()
	spec, _ := catalog.Spec("screensOff")

	var r Response
	r.Apply(Classify(spec, "2+hours"))

	assert.Equal(t, "2+hours", r.ExtractValue())
	assert.Equal(t, "ordinal", r.ExtractValueType())
	require.NotNil(t, r.Numeric)
	assert.Equal(t, 5.0, *r.Numeric)
}

func TestExtractValuePrecedence(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	text := "note"
	num := 3.0
	clock := "22:15:00"

	r := Response{Timestamp: &now, TimeOfDay: &clock, Text: &text, Numeric: &num}
	assert.Equal(t, now, r.ExtractValue())
	assert.Equal(t, "timestamp", r.ExtractValueType())

	r.Timestamp = nil
	assert.Equal(t, clock, r.ExtractValue())
	assert.Equal(t, "time", r.ExtractValueType())

	r.TimeOfDay = nil
	assert.Equal(t, text, r.ExtractValue())
	assert.Equal(t, "ordinal", r.ExtractValueType())

	r.Text = nil
	assert.Equal(t, int64(3), r.ExtractValue())
	assert.Equal(t, "numeric", r.ExtractValueType())
}

func TestDailyLogNumericNeverParsesText(t *testing.T) {
	catalog := DefaultCatalog()
	log := NewDailyLog("2026-08-01")

	var r Response
	r.Apply(Classify(catalog.SpecOrDefault("notes"), "slept about 7.5 hours"))
	log.Set(core.MetricKey("notes"), r)

	assert.Nil(t, log.Numeric("notes"))
}

func TestDailyLogNumericPrefersOrdinalScore(t *testing.T) {
	catalog := DefaultCatalog()
	log := NewDailyLog("2026-08-01")

	var r Response
	r.Apply(Classify(catalog.SpecOrDefault("snooze"), "noAlarm"))
	log.Set("snooze", r)

	v := log.Numeric("snooze")
	require.NotNil(t, v)
	assert.Equal(t, 4.0, *v)
}
