package llm

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/blendguard/blendscan/internal/models"
)

// Tag extraction is case-insensitive and spans lines. The unterminated
// variant tolerates replies truncated mid-analysis by a token budget.
var (
	scoreRe               = regexp.MustCompile(`(?is)<Score>(.*?)</Score>`)
	analysisRe            = regexp.MustCompile(`(?is)<Analysis>(.*?)</Analysis>`)
	analysisFallthroughRe = regexp.MustCompile(`(?is)<Analysis>(.*)`)
)

// ParseAssessment extracts the first <Score> and <Analysis> spans from a raw
// backend reply. It is total: any input yields either both tags, an
// analysis-only fallback, or an unparsed assessment - it never fails.
func ParseAssessment(raw string) models.Assessment {
	var a models.Assessment

	if m := scoreRe.FindStringSubmatch(raw); m != nil {
		a.ScoreText = strings.TrimSpace(m[1])
		a.Parsed = true
		if n, err := strconv.Atoi(a.ScoreText); err == nil && n >= 0 && n <= 10 {
			a.Score = n
			a.HasScore = true
		}
	}

	m := analysisRe.FindStringSubmatch(raw)
	if m == nil {
		m = analysisFallthroughRe.FindStringSubmatch(raw)
	}
	if m != nil {
		a.Analysis = m[1]
		a.HasAnalysis = true
		a.Parsed = true
	}

	return a
}

// RenderFragment turns a parsed assessment into the trusted HTML fragment the
// report embeds. Score text and unparsed raw replies are escaped; the analysis
// span is model-authored HTML and passes through as-is.
func RenderFragment(a models.Assessment, raw string) string {
	var b strings.Builder
	b.WriteString("<div>")
	if a.ScoreText != "" {
		b.WriteString("<h3>Security Score:</h3><pre>")
		b.WriteString(html.EscapeString(a.ScoreText))
		b.WriteString("</pre>")
	}
	if a.HasAnalysis {
		b.WriteString("<h3>Analysis:</h3>\n")
		b.WriteString(a.Analysis)
		b.WriteString("\n")
	}
	if !a.Parsed {
		b.WriteString("<h3>AI Analysis Not Fully Parsed</h3><pre>")
		b.WriteString(html.EscapeString(raw))
		b.WriteString("</pre>")
	}
	b.WriteString("</div>")
	return b.String()
}

// ErrorFragment builds the degraded-result fragment for a per-script failure.
func ErrorFragment(title string, err error) string {
	return fmt.Sprintf("<h3>%s</h3><p>%s</p>", html.EscapeString(title), html.EscapeString(err.Error()))
}

// TruncateString truncates a string to maxLen with "..." suffix if needed.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
