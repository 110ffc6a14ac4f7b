package telemetry

import (
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	clog "github.com/charmbracelet/log"
)

// Logger writes one JSON object per line. A nil *Logger discards.
type Logger struct {
	mu     sync.Mutex
	base   *clog.Logger
	closer io.Closer
}

// New opens path for writing. An empty path discards everything.
func New(path string, debug bool) (*Logger, error) {
	if path == "" {
		return NewWriter(io.Discard, debug), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	l := NewWriter(f, debug)
	l.closer = f
	return l, nil
}

func NewWriter(w io.Writer, debug bool) *Logger {
	level := clog.InfoLevel
	if debug {
		level = clog.DebugLevel
	}
	base := clog.NewWithOptions(w, clog.Options{
		Formatter:       clog.JSONFormatter,
		ReportTimestamp: true,
		Level:           level,
	})
	return &Logger{base: base}
}

// With returns a logger that adds fields to every entry.
func (l *Logger) With(fields map[string]any) *Logger {
	if l == nil || l.base == nil {
		return l
	}
	return &Logger{base: l.base.With(keyvals(fields)...)}
}

func (l *Logger) Debug(msg string, fields map[string]any) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Debug(msg, keyvals(fields)...)
}

func (l *Logger) Info(msg string, fields map[string]any) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Info(msg, keyvals(fields)...)
}

func (l *Logger) Error(msg string, fields map[string]any) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Error(msg, keyvals(fields)...)
}

func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}

// keyvals flattens fields in key order so output is stable.
func keyvals(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	out := make([]any, 0, len(fields)*2)
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		out = append(out, k, fields[k])
	}
	return out
}
