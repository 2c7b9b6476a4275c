package llm

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAssessment(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantScore    int
		wantHasScore bool
		wantAnalysis string
		wantParsed   bool
	}{
		{
			name:         "well formed reply",
			raw:          "<Score>8</Score><Analysis><p>clean</p></Analysis>",
			wantScore:    8,
			wantHasScore: true,
			wantAnalysis: "<p>clean</p>",
			wantParsed:   true,
		},
		{
			name:         "lowercase tags",
			raw:          "<score>3</score><analysis>bad</analysis>",
			wantScore:    3,
			wantHasScore: true,
			wantAnalysis: "bad",
			wantParsed:   true,
		},
		{
			name:         "multiline analysis",
			raw:          "<Score> 10 </Score>\n<Analysis>\n<ul>\n<li>nothing</li>\n</ul>\n</Analysis>",
			wantScore:    10,
			wantHasScore: true,
			wantAnalysis: "\n<ul>\n<li>nothing</li>\n</ul>\n",
			wantParsed:   true,
		},
		{
			name:         "unterminated analysis falls back to rest of reply",
			raw:          "<Score>2</Score><Analysis><p>uses os.system",
			wantScore:    2,
			wantHasScore: true,
			wantAnalysis: "<p>uses os.system",
			wantParsed:   true,
		},
		{
			name:       "no tags at all",
			raw:        "I think this script is fine.",
			wantParsed: false,
		},
		{
			name:         "non-integer score is kept as text only",
			raw:          "<Score>very safe</Score><Analysis>ok</Analysis>",
			wantHasScore: false,
			wantAnalysis: "ok",
			wantParsed:   true,
		},
		{
			name:         "out of range score is not a score",
			raw:          "<Score>15</Score><Analysis>ok</Analysis>",
			wantHasScore: false,
			wantAnalysis: "ok",
			wantParsed:   true,
		},
		{
			name:         "only first tag pair is used",
			raw:          "<Score>1</Score><Analysis>a</Analysis><Score>9</Score><Analysis>b</Analysis>",
			wantScore:    1,
			wantHasScore: true,
			wantAnalysis: "a",
			wantParsed:   true,
		},
		{
			name:       "empty input",
			raw:        "",
			wantParsed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ParseAssessment(tt.raw)
			assert.Equal(t, tt.wantHasScore, a.HasScore)
			if tt.wantHasScore {
				assert.Equal(t, tt.wantScore, a.Score)
			}
			assert.Equal(t, tt.wantAnalysis, a.Analysis)
			assert.Equal(t, tt.wantParsed, a.Parsed)
		})
	}
}

func TestParseAssessmentScoreTextTrimmed(t *testing.T) {
	a := ParseAssessment("<Score>\n  7\t</Score><Analysis>x</Analysis>")
	assert.Equal(t, "7", a.ScoreText)
	assert.True(t, a.HasScore)
	assert.Equal(t, 7, a.Score)
}

func TestRenderFragment(t *testing.T) {
	t.Run("parsed reply embeds analysis as-is and escapes score", func(t *testing.T) {
		raw := "<Score>8</Score><Analysis><p>clean</p></Analysis>"
		frag := RenderFragment(ParseAssessment(raw), raw)
		assert.Contains(t, frag, "<h3>Security Score:</h3><pre>8</pre>")
		assert.Contains(t, frag, "<p>clean</p>")
		assert.NotContains(t, frag, "Not Fully Parsed")
	})

	t.Run("unparsed reply is escaped verbatim", func(t *testing.T) {
		raw := "free text with <b>markup</b>"
		frag := RenderFragment(ParseAssessment(raw), raw)
		assert.Contains(t, frag, "AI Analysis Not Fully Parsed")
		assert.Contains(t, frag, "&lt;b&gt;markup&lt;/b&gt;")
		assert.NotContains(t, frag, "<b>markup</b>")
	})

	t.Run("score tag with junk content still renders escaped", func(t *testing.T) {
		raw := "<Score><i>9</i></Score><Analysis>ok</Analysis>"
		frag := RenderFragment(ParseAssessment(raw), raw)
		assert.Contains(t, frag, "&lt;i&gt;9&lt;/i&gt;")
	})
}

func TestErrorFragment(t *testing.T) {
	frag := ErrorFragment("Error during AI analysis", errors.New("dial tcp: connection refused"))
	assert.True(t, strings.HasPrefix(frag, "<h3>Error during AI analysis</h3>"))
	assert.Contains(t, frag, "dial tcp: connection refused")
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "lon...", TruncateString("longer text", 3))
}
