package models

// ExtractionRequest describes one invocation of the Blender-side extractor.
type ExtractionRequest struct {
	SourcePath string `json:"source_path"` // .blend file to open
	OutputDir  string `json:"output_dir"`  // directory the helper writes into
	BlenderExe string `json:"blender_exe"` // executable name or path
}

// ExtractionOutcome carries everything the Blender subprocess produced.
// ExitCode alone is not authoritative: Blender may exit non-zero after
// writing files, or zero with nothing to extract. Callers decide success
// by inspecting the output directory.
type ExtractionOutcome struct {
	OK       bool   `json:"ok"` // process exited zero
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

// ExtractedScript is one embedded text block pulled out of a .blend file.
type ExtractedScript struct {
	Name    string `json:"name"` // file name, derived from the text block name
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Assessment is the structured part of a backend reply for one script.
// HasScore distinguishes "no parseable score" from a score of zero.
type Assessment struct {
	ScoreText   string `json:"score_text"` // raw text inside <Score>, trimmed; "" if the tag was absent
	Score       int    `json:"score"`      // 0..10, 10 = safest; valid only when HasScore
	HasScore    bool   `json:"has_score"`
	Analysis    string `json:"analysis"` // HTML findings from the model, "" if the tag was absent
	HasAnalysis bool   `json:"has_analysis"`
	Parsed      bool   `json:"parsed"` // false when neither tag was found
}

// AnalysisResult is the per-script record the report is built from.
// Exactly one exists per extracted script, including read and backend
// failures, which carry an error fragment instead of an assessment.
type AnalysisResult struct {
	ID         string `json:"id"`          // uuid, stable within a run
	ScriptName string `json:"script_name"`
	// Content holds the raw script text for the report's code pane.
	// On a read failure it holds a short description instead.
	Content string `json:"content"`
	// Fragment is the rendered assessment HTML. It is trusted markup:
	// either built from a parsed reply with model-authored HTML findings,
	// or assembled locally from escaped error/raw text.
	Fragment string `json:"fragment"`
	RawReply string `json:"raw_reply,omitempty"` // verbatim backend reply, for diagnostics
	Err      string `json:"error,omitempty"`     // non-empty when this record is degraded
}

// Failed reports whether the record carries an error fragment rather
// than a backend assessment.
func (r *AnalysisResult) Failed() bool {
	return r.Err != ""
}
