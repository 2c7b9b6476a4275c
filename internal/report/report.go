// Package report renders the analysis results into a single self-contained
// HTML document: inline styles, inline script, no external resources.
// Rendering is a pure function of the result list and the container name.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os/exec"
	"runtime"

	"github.com/blendguard/blendscan/internal/models"
)

type entry struct {
	Index    int
	Name     string
	Content  string        // raw script text, escaped by the template
	Fragment template.HTML // assessment fragment, trusted HTML
	RawReply string        // verbatim backend reply, escaped into a details block
}

type reportData struct {
	Title   string
	Entries []entry
}

// Render produces the full report document: a sidebar with one entry per
// result (input order preserved) and a two-pane script/assessment view per
// entry, toggled client-side. Script names and content pass through
// html/template escaping; the assessment fragment is embedded as-is.
func Render(results []models.AnalysisResult, containerName string) ([]byte, error) {
	data := reportData{
		Title:   containerName,
		Entries: make([]entry, 0, len(results)),
	}
	for i, r := range results {
		data.Entries = append(data.Entries, entry{
			Index:    i,
			Name:     r.ScriptName,
			Content:  r.Content,
			Fragment: template.HTML(r.Fragment),
			RawReply: r.RawReply,
		})
	}

	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderNoScripts produces the document variant for a container with no
// embedded scripts (or a run where extraction yielded nothing usable).
func RenderNoScripts(containerName string) ([]byte, error) {
	var buf bytes.Buffer
	if err := noScriptsTmpl.Execute(&buf, reportData{Title: containerName}); err != nil {
		return nil, fmt.Errorf("failed to render no-scripts report: %w", err)
	}
	return buf.Bytes(), nil
}

// Open launches the platform's default handler for a local file.
// Best-effort: the caller logs a failure and moves on.
func Open(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	return cmd.Start()
}
