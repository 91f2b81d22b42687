package grounding

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/TbrosN/clarity/domain/core"
	"github.com/TbrosN/clarity/domain/insight"
)

var (
	citationPattern = regexp.MustCompile(`\[\[cite:([A-Za-z0-9_.-]+)\]\]`)
	// Numbers not glued to a letter, so "24h" or fact ids inside citation
	// markers do not count as numeric claims. Go's RE2 has no lookbehind,
	// hence the leading boundary group; group 2 holds the token.
	numberPattern   = regexp.MustCompile(`(^|[^A-Za-z])([-+]?[0-9]+(?:\.[0-9]+)?%?)`)
	sentencePattern = regexp.MustCompile(`[.!?]\s+`)
)

// shamingTerms and medicalTerms screen drafted text for tone and scope
// violations. Matching is case-insensitive substring.
var (
	shamingTerms = []string{"lazy", "bad", "failure", "weak", "you should have", "your fault"}
	medicalTerms = []string{"diagnosis", "disorder", "disease", "clinical", "depression"}
)

// Validator checks drafted insights against the fact registry. With
// StrictNumeric set, every numeric token in a message must additionally
// match an allowed fact-derived value.
type Validator struct {
	StrictNumeric bool
}

// Result accumulates every violation across a draft batch rather than
// stopping at the first, so a retry prompt can list them all.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate checks a batch of drafts against the stats payload. An empty
// batch is invalid; generation must produce at least one insight.
func (v *Validator) Validate(drafts []insight.Draft, stats insight.StatsPayload) Result {
	result := Result{Valid: true}
	fail := func(format string, args ...any) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
	}

	if len(drafts) == 0 {
		fail("no insights returned")
		return result
	}

	var allowedTokens map[string]struct{}
	if v.StrictNumeric {
		allowedTokens = AllowedNumericTokens(stats)
	}

	for i, draft := range drafts {
		message := draft.MessageWithCitations

		cited := citedFactIDs(message)
		if len(cited) == 0 {
			fail("insights[%d] has no citations", i)
		}

		declared := map[core.FactID]struct{}{}
		for _, id := range draft.FactIDsUsed {
			declared[id] = struct{}{}
		}

		var unknown, undeclared []string
		for _, id := range cited {
			if _, ok := stats.Fact(id); !ok {
				unknown = append(unknown, string(id))
				continue
			}
			if _, ok := declared[id]; !ok {
				undeclared = append(undeclared, string(id))
			}
		}
		if len(unknown) > 0 {
			fail("insights[%d] uses unknown citations: %s", i, strings.Join(unknown, ", "))
		}
		if len(undeclared) > 0 {
			fail("insights[%d] cites fact ids not present in fact_ids_used: %s", i, strings.Join(undeclared, ", "))
		}

		plain := citationPattern.ReplaceAllString(message, "")
		if hasNumericClaim(plain) && len(cited) == 0 {
			fail("insights[%d] has numeric claims but no citations", i)
		}

		for _, sentence := range splitSentences(message) {
			stripped := citationPattern.ReplaceAllString(sentence, "")
			if hasNumericClaim(stripped) && !citationPattern.MatchString(sentence) {
				fail("insights[%d] has uncited numeric sentence: %q", i, strings.TrimSpace(stripped))
			}
		}

		if v.StrictNumeric {
			var ungrounded []string
			for _, token := range numericTokens(plain) {
				if _, ok := allowedTokens[normalizeToken(token)]; !ok {
					ungrounded = append(ungrounded, token)
				}
			}
			if len(ungrounded) > 0 {
				fail("insights[%d] has numbers not grounded in allowed facts: %s", i, strings.Join(ungrounded, ", "))
			}
		}

		lower := strings.ToLower(plain)
		for _, term := range shamingTerms {
			if strings.Contains(lower, term) {
				fail("insights[%d] contains shaming language: %q", i, term)
			}
		}
		for _, term := range medicalTerms {
			if strings.Contains(lower, term) {
				fail("insights[%d] contains medical language: %q", i, term)
			}
		}
	}

	return result
}

// AllowedNumericTokens enumerates every number a grounded message may quote:
// the window length, the log count, the whole-percent completion rate, and
// each numeric fact in both canonical and one-decimal form.
func AllowedNumericTokens(stats insight.StatsPayload) map[string]struct{} {
	allowed := map[string]struct{}{}
	add := func(s string) { allowed[normalizeToken(s)] = struct{}{} }

	add(fmt.Sprintf("%d", stats.WindowDays))
	add(fmt.Sprintf("%d", stats.LogsCount))
	add(fmt.Sprintf("%d", int(roundHalfAway(stats.CompletionRate*100))))

	for _, fact := range stats.FactRegistry {
		if !fact.Value.IsNumber() {
			continue
		}
		n := fact.Value.Number()
		add(insight.RenderNumber(n))
		add(fmt.Sprintf("%.1f", n))
	}
	return allowed
}

func citedFactIDs(message string) []core.FactID {
	var ids []core.FactID
	for _, m := range citationPattern.FindAllStringSubmatch(message, -1) {
		ids = append(ids, core.FactID(m[1]))
	}
	return ids
}

func numericTokens(s string) []string {
	var tokens []string
	for _, m := range numberPattern.FindAllStringSubmatch(s, -1) {
		tokens = append(tokens, m[2])
	}
	return tokens
}

func hasNumericClaim(s string) bool {
	return numberPattern.MatchString(s)
}

// normalizeToken strips the percent sign and an explicit plus so "+0.9" and
// "85%" ground against the same canonical fact values as "0.9" and "85".
func normalizeToken(token string) string {
	token = strings.TrimSuffix(token, "%")
	token = strings.TrimPrefix(token, "+")
	return token
}

func splitSentences(message string) []string {
	var sentences []string
	for _, s := range sentencePattern.Split(message, -1) {
		if strings.TrimSpace(s) != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func roundHalfAway(v float64) float64 {
	if v < 0 {
		return -roundHalfAway(-v)
	}
	return float64(int(v + 0.5))
}
