package survey

import (
	"github.com/TbrosN/clarity/domain/core"
)

// QuestionKind declares how a question's answers are typed at the write boundary
type QuestionKind string

const (
	KindLikert  QuestionKind = "likert"  // 1-5 numeric scale
	KindOrdinal QuestionKind = "ordinal" // enumerated label with a derived score
	KindTime    QuestionKind = "time"    // time-of-day string
	KindText    QuestionKind = "text"
	KindBool    QuestionKind = "bool"
)

// QuestionSpec describes one survey question: its declared response kind,
// category, and (for ordinal questions) the label -> score table.
// Higher ordinal scores mean healthier behavior.
type QuestionSpec struct {
	Key          core.MetricKey `json:"key"`
	Label        string         `json:"label"`
	Category     string         `json:"category"`
	Kind         QuestionKind   `json:"kind"`
	OrdinalScale map[string]int `json:"ordinal_scale,omitempty"`
}

// IsOrdinal reports whether the question carries an ordinal score table
func (s QuestionSpec) IsOrdinal() bool {
	return len(s.OrdinalScale) > 0
}

// StorageKind maps the question kind to the persisted response_type column.
// Ordinal answers are stored as text; the score is derived during upsert.
func (s QuestionSpec) StorageKind() string {
	if s.IsOrdinal() {
		return string(KindText)
	}
	return string(s.Kind)
}

// Catalog is the injected question configuration used by both the write path
// and the evidence builder. It replaces module-global metadata tables so the
// builder can be exercised with synthetic question sets.
type Catalog struct {
	ordered []QuestionSpec
	byKey   map[core.MetricKey]QuestionSpec
}

// NewCatalog builds a catalog from a list of question specs, preserving order
func NewCatalog(specs []QuestionSpec) *Catalog {
	c := &Catalog{
		ordered: make([]QuestionSpec, 0, len(specs)),
		byKey:   make(map[core.MetricKey]QuestionSpec, len(specs)),
	}
	for _, spec := range specs {
		if _, ok := c.byKey[spec.Key]; ok {
			continue
		}
		c.ordered = append(c.ordered, spec)
		c.byKey[spec.Key] = spec
	}
	return c
}

// Spec returns the question spec for a key, if registered
func (c *Catalog) Spec(key core.MetricKey) (QuestionSpec, bool) {
	spec, ok := c.byKey[key]
	return spec, ok
}

// SpecOrDefault returns the registered spec, or a free-text spec for
// unrecognized keys (new question definitions are created lazily).
func (c *Catalog) SpecOrDefault(key core.MetricKey) QuestionSpec {
	if spec, ok := c.byKey[key]; ok {
		return spec
	}
	return QuestionSpec{
		Key:      key,
		Label:    string(key),
		Category: "general",
		Kind:     KindText,
	}
}

// OrdinalScore resolves an ordinal label to its score. Unknown labels map to
// (0, false), not an error.
func (c *Catalog) OrdinalScore(key core.MetricKey, label string) (int, bool) {
	spec, ok := c.byKey[key]
	if !ok || !spec.IsOrdinal() {
		return 0, false
	}
	score, ok := spec.OrdinalScale[label]
	return score, ok
}

// OrdinalKeys lists registered ordinal question keys in catalog order
func (c *Catalog) OrdinalKeys() []core.MetricKey {
	keys := []core.MetricKey{}
	for _, spec := range c.ordered {
		if spec.IsOrdinal() {
			keys = append(keys, spec.Key)
		}
	}
	return keys
}

// Keys lists all registered question keys in catalog order
func (c *Catalog) Keys() []core.MetricKey {
	keys := make([]core.MetricKey, 0, len(c.ordered))
	for _, spec := range c.ordered {
		keys = append(keys, spec.Key)
	}
	return keys
}

// defaultSpecs is the survey configuration shipped with the app: the two
// daily surveys (before-bed, after-wake) and their ordinal score tables.
var defaultSpecs = []QuestionSpec{
	{Key: "wakeTime", Label: "Wake time", Category: "sleep", Kind: KindTime},
	{Key: "stress", Label: "Evening stress", Category: "stress", Kind: KindLikert},
	{Key: "sleepQuality", Label: "Sleep quality", Category: "sleep", Kind: KindLikert},
	{Key: "plannedSleepTime", Label: "Planned sleep time", Category: "sleep", Kind: KindTime},
	{Key: "actualSleepTime", Label: "Actual sleep time", Category: "sleep", Kind: KindTime},
	{Key: "energy", Label: "Morning energy", Category: "energy", Kind: KindLikert},
	{Key: "sleepiness", Label: "Morning alertness", Category: "energy", Kind: KindLikert},
	{
		Key: "lastMeal", Label: "Last meal before bed", Category: "diet", Kind: KindOrdinal,
		OrdinalScale: map[string]int{
			"3+hours": 5, "2-3hours": 4, "1-2hours": 3, "<1hour": 2, "justAte": 1,
		},
	},
	{
		Key: "screensOff", Label: "Screens off before bed", Category: "sleep", Kind: KindOrdinal,
		OrdinalScale: map[string]int{
			"2+hours": 5, "1-2hours": 4, "30-60min": 3, "<30min": 2, "stillUsing": 1,
		},
	},
	{
		Key: "caffeine", Label: "Last caffeine", Category: "stimulant", Kind: KindOrdinal,
		OrdinalScale: map[string]int{
			"none": 5, "before12": 4, "12-2pm": 3, "2-6pm": 2, "after6pm": 1,
		},
	},
	{
		Key: "snooze", Label: "Snooze behavior", Category: "sleep", Kind: KindOrdinal,
		OrdinalScale: map[string]int{
			"noAlarm": 4, "no": 3, "1-2times": 2, "3+times": 1,
		},
	},
}

// DefaultCatalog returns the catalog for the standard daily surveys
func DefaultCatalog() *Catalog {
	return NewCatalog(defaultSpecs)
}
