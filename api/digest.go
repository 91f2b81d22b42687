package api

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

var citationMarkerPattern = regexp.MustCompile(`\s*\[\[cite:[A-Za-z0-9_.-]+\]\]`)

// InsightDigest renders the caller's insights as a small HTML page. The
// inline citation markers are stripped from the prose; the facts behind them
// appear as a sources list under each insight.
func (h *Handlers) InsightDigest(w http.ResponseWriter, r *http.Request) {
	insights, err := h.insights.GenerateForUser(r.Context(), UserFrom(r.Context()))
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	var md strings.Builder
	md.WriteString("# Your insight digest\n\n")
	for _, item := range insights {
		message := citationMarkerPattern.ReplaceAllString(item.Message, "")
		md.WriteString(fmt.Sprintf("## %s\n\n%s\n\n", titleCase(item.Type), message))
		if item.Action != "" {
			md.WriteString(fmt.Sprintf("**Try this:** %s\n\n", item.Action))
		}
		if len(item.Citations) > 0 {
			md.WriteString("Sources:\n\n")
			for _, fact := range item.Citations {
				md.WriteString(fmt.Sprintf("- %s: %s %s\n", fact.Label, fact.Value.String(), fact.Unit))
			}
			md.WriteString("\n")
		}
	}

	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	page := markdown.ToHTML([]byte(md.String()), p, renderer)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
