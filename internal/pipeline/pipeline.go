// Package pipeline sequences one full run: extract embedded scripts with
// Blender, analyze each one through the model backend, render the HTML
// report. Everything runs on a single worker; callers watch through the
// progress reporter.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blendguard/blendscan/internal/analyzer"
	"github.com/blendguard/blendscan/internal/config"
	"github.com/blendguard/blendscan/internal/extractor"
	"github.com/blendguard/blendscan/internal/llm"
	"github.com/blendguard/blendscan/internal/models"
	"github.com/blendguard/blendscan/internal/progress"
	"github.com/blendguard/blendscan/internal/report"
)

// BlendExtension is the container file extension this tool accepts.
const BlendExtension = ".blend"

// Setup errors. These make the whole run meaningless and stop it early.
var (
	ErrMissingInput = errors.New("input file does not exist")
	ErrNotBlendFile = errors.New("input file is not a .blend file")
)

// ValidateInput checks the container path before a run starts.
func ValidateInput(path string) error {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return fmt.Errorf("%w: %s", ErrMissingInput, path)
	}
	if !strings.EqualFold(filepath.Ext(path), BlendExtension) {
		return fmt.Errorf("%w: %s", ErrNotBlendFile, path)
	}
	return nil
}

// Pipeline wires the extraction invoker, the analysis loop and the report
// assembler for one run.
type Pipeline struct {
	cfg      *config.Config
	invoker  *extractor.Invoker
	provider llm.Provider
	reporter *progress.Reporter
}

// New builds a pipeline. provider selection already happened in the caller;
// the pipeline never branches on which backend is active.
func New(cfg *config.Config, provider llm.Provider, reporter *progress.Reporter) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		invoker:  extractor.NewInvoker(),
		provider: provider,
		reporter: reporter,
	}
}

// Run executes the full pipeline for one container file and returns the
// path of the written report artifact.
func (p *Pipeline) Run(ctx context.Context, blendPath string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(blendPath), filepath.Ext(blendPath))
	blendName := filepath.Base(blendPath)

	scriptsDir := filepath.Join(p.cfg.WorkDir, "extracted_scripts", stem)
	if err := os.MkdirAll(scriptsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create extraction directory: %w", err)
	}
	reportPath := filepath.Join(p.cfg.WorkDir, "report__"+stem+".html")

	p.reporter.Infof("running Blender to extract scripts from: %s", blendPath)
	outcome, err := p.invoker.Extract(ctx, models.ExtractionRequest{
		SourcePath: blendPath,
		OutputDir:  scriptsDir,
		BlenderExe: p.cfg.BlenderExec,
	})
	if err != nil {
		// setup failure before Blender ran; nothing was written
		if _, rmErr := extractor.RemoveDirIfEmpty(scriptsDir); rmErr != nil {
			p.reporter.Warnf("failed to clean up %s: %v", scriptsDir, rmErr)
		}
		return "", err
	}
	p.surfaceExtraction(outcome)

	// The output directory, not the exit code, decides whether extraction
	// produced anything.
	empty, err := isDirEmpty(scriptsDir)
	if err != nil {
		return "", fmt.Errorf("failed to inspect extraction directory: %w", err)
	}
	if empty {
		p.reporter.Infof("no scripts found in the blend file or extraction failed")
		return p.finishNoScripts(blendName, scriptsDir, reportPath)
	}

	results, err := analyzer.New(p.provider, p.reporter).Analyze(ctx, scriptsDir)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		p.reporter.Infof("script analysis did not produce any results")
		return p.finishNoScripts(blendName, scriptsDir, reportPath)
	}

	doc, err := report.Render(results, blendName)
	if err != nil {
		return "", err
	}
	if err := p.writeReport(reportPath, doc); err != nil {
		return "", err
	}
	p.reporter.Infof("report generated at: %s", reportPath)
	return reportPath, nil
}

// finishNoScripts renders the no-scripts variant and removes the extraction
// directory when it is empty. A non-empty directory (extraction produced
// files but none were scripts) is retained for inspection.
func (p *Pipeline) finishNoScripts(blendName, scriptsDir, reportPath string) (string, error) {
	// drop the empty directory first so a failed report write
	// cannot leave it behind
	if removed, err := extractor.RemoveDirIfEmpty(scriptsDir); err != nil {
		p.reporter.Warnf("failed to remove %s: %v", scriptsDir, err)
	} else if removed {
		p.reporter.Infof("removed empty extraction directory")
	}

	doc, err := report.RenderNoScripts(blendName)
	if err != nil {
		return "", err
	}
	if err := p.writeReport(reportPath, doc); err != nil {
		return "", err
	}
	p.reporter.Infof("'no scripts' report generated at: %s", reportPath)
	return reportPath, nil
}

func (p *Pipeline) writeReport(path string, doc []byte) error {
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if p.cfg.AutoOpen {
		if err := report.Open(path); err != nil {
			p.reporter.Warnf("could not open report in viewer: %v", err)
		}
	}
	return nil
}

// surfaceExtraction forwards Blender's streams to the watcher. Full output
// goes out on failure; on success it is still surfaced for diagnosis, as
// the helper prints what it extracted.
func (p *Pipeline) surfaceExtraction(outcome models.ExtractionOutcome) {
	if outcome.OK {
		p.reporter.Infof("Blender script extraction completed")
	} else {
		p.reporter.Warnf("Blender exited with code %d", outcome.ExitCode)
	}
	if out := strings.TrimSpace(outcome.Stdout); out != "" {
		p.reporter.Infof("Blender stdout:\n%s", out)
	}
	if errOut := strings.TrimSpace(outcome.Stderr); errOut != "" {
		p.reporter.Warnf("Blender stderr:\n%s", errOut)
	}
}

func isDirEmpty(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}
