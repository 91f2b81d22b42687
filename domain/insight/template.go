package insight

import (
	"fmt"
	"strings"

	"github.com/TbrosN/clarity/domain/core"
)

// SegmentKind tags the parts a templated message is assembled from
type SegmentKind int

const (
	SegmentLiteral SegmentKind = iota
	SegmentFactValue
	SegmentCitation
)

// Segment is one piece of a message template: literal text, a fact's value
// substituted verbatim, or a citation marker for a fact id.
type Segment struct {
	Kind    SegmentKind
	Literal string
	FactID  core.FactID
}

// Literal creates a literal segment
func Literal(s string) Segment {
	return Segment{Kind: SegmentLiteral, Literal: s}
}

// ValueOf creates a fact-value substitution segment
func ValueOf(id core.FactID) Segment {
	return Segment{Kind: SegmentFactValue, FactID: id}
}

// Cite creates a citation marker segment
func Cite(id core.FactID) Segment {
	return Segment{Kind: SegmentCitation, FactID: id}
}

// MessageTemplate builds message text and its citations from one structure,
// so substituted values and citation markers cannot drift apart from what a
// grounding check expects.
type MessageTemplate struct {
	Segments []Segment
}

// CitationMarker renders the inline citation token for a fact id
func CitationMarker(id core.FactID) string {
	return fmt.Sprintf("[[cite:%s]]", id)
}

// Render produces the message text and the cited fact ids in order of
// appearance. Fact-value segments substitute the registry value's canonical
// rendering; values for unknown ids render as the id itself (never silently
// empty, so a bad template is visible in output and tests).
func (t MessageTemplate) Render(registry map[core.FactID]Fact) (string, []core.FactID) {
	var sb strings.Builder
	cited := []core.FactID{}
	for _, seg := range t.Segments {
		switch seg.Kind {
		case SegmentLiteral:
			sb.WriteString(seg.Literal)
		case SegmentFactValue:
			if fact, ok := registry[seg.FactID]; ok {
				sb.WriteString(fact.Value.String())
			} else {
				sb.WriteString(string(seg.FactID))
			}
		case SegmentCitation:
			sb.WriteString(CitationMarker(seg.FactID))
			cited = append(cited, seg.FactID)
		}
	}
	return sb.String(), cited
}
