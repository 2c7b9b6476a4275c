// Package extractor drives a headless Blender process to pull embedded text
// blocks out of a .blend file. Blender is treated as an opaque decoder for
// the container format: arguments in, files out. The helper script that runs
// inside Blender's interpreter is embedded in the binary and materialized to
// a temp file per invocation.
package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/blendguard/blendscan/internal/models"
)

//go:embed extract_scripts.py
var helperScript []byte

// DefaultTimeout bounds one Blender invocation. A corrupt container can make
// Blender hang; without a bound the whole run stalls.
const DefaultTimeout = 2 * time.Minute

// Invoker launches Blender in background, factory-settings and
// auto-exec-disabled mode with the embedded helper script.
type Invoker struct {
	Timeout time.Duration
}

// NewInvoker returns an Invoker with the default timeout.
func NewInvoker() *Invoker {
	return &Invoker{Timeout: DefaultTimeout}
}

// Extract runs one extraction. The returned outcome reports the exit status
// and both output streams; it never treats a non-zero exit as an error.
// Blender may exit non-zero after writing files, or zero with nothing to
// extract, so callers must inspect the output directory instead.
// An error is returned only for setup failures before Blender starts.
func (i *Invoker) Extract(ctx context.Context, req models.ExtractionRequest) (models.ExtractionOutcome, error) {
	var outcome models.ExtractionOutcome

	helperPath, cleanup, err := materializeHelper()
	if err != nil {
		return outcome, fmt.Errorf("failed to write extractor helper: %w", err)
	}
	defer cleanup()

	timeout := i.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, req.BlenderExe,
		"--background",
		"--factory-startup",
		"--disable-autoexec",
		"--python", helperPath,
		"--",
		req.SourcePath,
		req.OutputDir,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	outcome.Stdout = stdout.String()
	outcome.Stderr = stderr.String()

	switch {
	case runErr == nil:
		outcome.OK = true
		outcome.ExitCode = 0
	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
		} else {
			// Executable missing, context timeout before start, etc.
			outcome.ExitCode = -1
			if outcome.Stderr != "" {
				outcome.Stderr += "\n"
			}
			outcome.Stderr += runErr.Error()
		}
	}

	return outcome, nil
}

// materializeHelper writes the embedded helper script to a temp file and
// returns its path plus a cleanup func.
func materializeHelper() (string, func(), error) {
	f, err := os.CreateTemp("", "blendscan_extract_*.py")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if _, err := f.Write(helperScript); err != nil {
		f.Close()
		os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", nil, err
	}
	return path, func() { os.Remove(path) }, nil
}

// RemoveDirIfEmpty deletes dir when it contains no entries. The extraction
// directory is either non-empty after a run or gone; it is never left empty
// on disk.
func RemoveDirIfEmpty(dir string) (removed bool, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if len(entries) > 0 {
		return false, nil
	}
	if err := os.Remove(dir); err != nil {
		return false, err
	}
	return true, nil
}

// HelperScript exposes the embedded Blender-side script (for diagnostics
// and tests).
func HelperScript() []byte {
	return helperScript
}

// ResolveBlender returns the path to the Blender executable, looking it up
// on PATH when exe is a bare name.
func ResolveBlender(exe string) (string, error) {
	if exe == "" {
		exe = "blender"
	}
	if filepath.Base(exe) != exe {
		// Explicit path: verify it exists.
		if _, err := os.Stat(exe); err != nil {
			return "", fmt.Errorf("blender executable not found at %s: %w", exe, err)
		}
		return exe, nil
	}
	path, err := exec.LookPath(exe)
	if err != nil {
		return "", fmt.Errorf("blender executable %q not found in PATH: %w", exe, err)
	}
	return path, nil
}
