// Package analyzer runs the per-script analysis loop: discover extracted
// files, send each one to the model backend, parse the reply and collect
// exactly one result per file. One file's failure never aborts the batch.
package analyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/blendguard/blendscan/internal/llm"
	"github.com/blendguard/blendscan/internal/models"
	"github.com/blendguard/blendscan/internal/progress"
)

// ScriptExtension is what the Blender-side helper writes.
const ScriptExtension = ".py"

// Analyzer drives one backend sequentially over a directory of extracted
// scripts. Requests are strictly one after another; the local backend's
// loaded model is never hit concurrently.
type Analyzer struct {
	provider llm.Provider
	reporter *progress.Reporter
}

// New creates an analyzer. reporter may be nil when nobody is watching.
func New(provider llm.Provider, reporter *progress.Reporter) *Analyzer {
	return &Analyzer{
		provider: provider,
		reporter: reporter,
	}
}

// Analyze processes every script in scriptsDir in discovery (lexical) order.
// The returned slice holds one record per discovered file, failures included;
// an error is returned only when the directory itself cannot be listed.
func (a *Analyzer) Analyze(ctx context.Context, scriptsDir string) ([]models.AnalysisResult, error) {
	files, err := discoverScripts(scriptsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts in %s: %w", scriptsDir, err)
	}
	if len(files) == 0 {
		a.infof("no %s files found in %s", ScriptExtension, scriptsDir)
		return nil, nil
	}

	a.infof("starting analysis of %d script(s) with %s (%s)",
		len(files), a.provider.GetName(), a.provider.GetModel())

	systemPrompt := llm.BuildSecurityReviewPrompt()
	results := make([]models.AnalysisResult, 0, len(files))

	for _, path := range files {
		results = append(results, a.analyzeOne(ctx, systemPrompt, path))
	}

	return results, nil
}

func (a *Analyzer) analyzeOne(ctx context.Context, systemPrompt, path string) models.AnalysisResult {
	name := filepath.Base(path)
	a.infof("analyzing script: %s ...", name)

	result := models.AnalysisResult{
		ID:         uuid.NewString(),
		ScriptName: name,
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		a.warnf("error reading script %s: %v", name, err)
		result.Content = fmt.Sprintf("Error reading file: %v", err)
		result.Fragment = llm.ErrorFragment("Error", fmt.Errorf("could not read script content: %w", err))
		result.Err = err.Error()
		return result
	}
	script := models.ExtractedScript{
		Name:    name,
		Path:    path,
		Content: string(raw),
	}
	result.Content = script.Content

	reply, err := a.provider.Complete(ctx, systemPrompt, script.Content)
	if err != nil {
		a.warnf("error during AI analysis for %s: %v", name, err)
		result.Fragment = llm.ErrorFragment("Error during AI analysis", err)
		result.Err = err.Error()
		return result
	}
	result.RawReply = reply

	assessment := llm.ParseAssessment(reply)
	result.Fragment = llm.RenderFragment(assessment, reply)

	switch {
	case assessment.HasScore:
		a.infof("script %s scored %d/10", name, assessment.Score)
	case assessment.Parsed:
		a.infof("script %s analyzed (no parseable score)", name)
	default:
		a.warnf("reply for %s did not follow the tag format, kept verbatim", name)
	}

	return result
}

// discoverScripts lists script files directly inside dir, sorted by name.
// Subdirectories are not descended into.
func discoverScripts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ScriptExtension) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func (a *Analyzer) infof(format string, args ...interface{}) {
	if a.reporter != nil {
		a.reporter.Infof(format, args...)
	}
}

func (a *Analyzer) warnf(format string, args ...interface{}) {
	if a.reporter != nil {
		a.reporter.Warnf(format, args...)
	}
}
