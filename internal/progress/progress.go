// Package progress carries human-readable progress lines from the pipeline
// worker to whoever is watching: the CLI's stdout, and optionally a GUI
// front end connected over websocket. Single producer, drained consumers.
package progress

import (
	"fmt"
	"io"
	"time"
)

// Level classifies a progress line.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Line is one unit of progress output.
type Line struct {
	RunID string    `json:"run_id"`
	Level Level     `json:"level"`
	Text  string    `json:"text"`
	Time  time.Time `json:"time"`
}

// Reporter is the producer side. The pipeline publishes lines; a full
// buffer drops the line rather than blocking the worker.
type Reporter struct {
	runID string
	lines chan Line
}

// NewReporter creates a reporter for one pipeline run.
func NewReporter(runID string, buffer int) *Reporter {
	if buffer <= 0 {
		buffer = 256
	}
	return &Reporter{
		runID: runID,
		lines: make(chan Line, buffer),
	}
}

// Lines is the consumer side of the channel. It is closed by Close.
func (r *Reporter) Lines() <-chan Line {
	return r.lines
}

// Close signals that no more lines will be published.
func (r *Reporter) Close() {
	close(r.lines)
}

func (r *Reporter) publish(level Level, format string, args ...interface{}) {
	line := Line{
		RunID: r.runID,
		Level: level,
		Text:  fmt.Sprintf(format, args...),
		Time:  time.Now(),
	}
	select {
	case r.lines <- line:
	default:
		// watcher is not keeping up; losing a progress line is fine
	}
}

// Infof publishes an informational line.
func (r *Reporter) Infof(format string, args ...interface{}) {
	r.publish(LevelInfo, format, args...)
}

// Warnf publishes a warning line.
func (r *Reporter) Warnf(format string, args ...interface{}) {
	r.publish(LevelWarn, format, args...)
}

// Errorf publishes an error line.
func (r *Reporter) Errorf(format string, args ...interface{}) {
	r.publish(LevelError, format, args...)
}

// Tee drains lines to w (and, when hub is non-nil, broadcasts each line to
// connected websocket clients) until the reporter closes.
func Tee(w io.Writer, hub *Hub, lines <-chan Line) {
	for line := range lines {
		switch line.Level {
		case LevelWarn:
			fmt.Fprintf(w, "[warn] %s\n", line.Text)
		case LevelError:
			fmt.Fprintf(w, "[error] %s\n", line.Text)
		default:
			fmt.Fprintln(w, line.Text)
		}
		if hub != nil {
			hub.Broadcast(line)
		}
	}
}
