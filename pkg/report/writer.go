package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kubeblast/kubeblast/pkg/impact"
)

// GraphExportName is the fixed filename for the dependency graph export,
// stable so external visualizers can point at one path.
const GraphExportName = "graph_data.json"

const timestampLayout = "20060102_1504"

// Writer persists report artifacts under a directory using
// collision-resistant names: a sanitized context label plus a timestamp
// truncated to the minute. Each write is independent, a failure aborts
// only that export.
type Writer struct {
	dir string
	now func() time.Time
}

type WriterOption func(*Writer)

// WithClock fixes the writer clock, used by tests.
func WithClock(now func() time.Time) WriterOption {
	return func(w *Writer) {
		w.now = now
	}
}

// NewWriter creates a writer rooted at dir. An empty dir means the
// current working directory.
func NewWriter(dir string, opts ...WriterOption) *Writer {
	w := &Writer{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteText persists a rendered text report named after the context label.
func (w *Writer) WriteText(contextLabel, content string) (string, error) {
	name := fmt.Sprintf("%s_%s.txt", SanitizeLabel(contextLabel), w.timestamp())
	return w.write(name, []byte(content))
}

// WriteConsolidated persists the node-grouped record export as JSON.
func (w *Writer) WriteConsolidated(grouped map[string][]impact.Record) (string, error) {
	data, err := json.MarshalIndent(grouped, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing consolidated export: %w", err)
	}
	name := fmt.Sprintf("consolidated_%s.json", w.timestamp())
	return w.write(name, data)
}

// WriteGraphs persists the per-node dependency graphs as JSON.
func (w *Writer) WriteGraphs(graphs map[string]Graph) (string, error) {
	data, err := json.MarshalIndent(graphs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing graph export: %w", err)
	}
	return w.write(GraphExportName, data)
}

func (w *Writer) write(name string, data []byte) (string, error) {
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing export %s: %w", path, err)
	}
	return path, nil
}

func (w *Writer) timestamp() string {
	return w.now().Format(timestampLayout)
}

// SanitizeLabel strips every character that is not alphanumeric, space,
// underscore or hyphen, so arbitrary context labels (node names, cluster
// names) form safe filenames.
func SanitizeLabel(label string) string {
	var b strings.Builder
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}
