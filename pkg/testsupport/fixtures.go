package testsupport

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-widgettools/pkg/widgets"
)

// RepoPath joins elem onto the module root so fixtures resolve the same way
// from every package test.
func RepoPath(elem ...string) string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return filepath.Join(elem...)
	}
	root := filepath.Join(filepath.Dir(file), "..", "..")
	return filepath.Join(append([]string{root}, elem...)...)
}

// WidgetsDir returns the directory holding the bundled widget files.
func WidgetsDir() string {
	return RepoPath("widgets")
}

// MustLoadWidget loads a bundled widget by file name, e.g. "Flight Tracker.widget".
func MustLoadWidget(t *testing.T, file string) *widgets.Definition {
	t.Helper()

	def, err := widgets.NewLoader().Load(filepath.Join(WidgetsDir(), file))
	if err != nil {
		t.Fatalf("load widget %s: %v", file, err)
	}
	return def
}

// MustReadSample decodes a JSON argument sample from testdata/samples.
func MustReadSample(t *testing.T, name string) map[string]any {
	t.Helper()

	out, err := ReadJSON(RepoPath("testdata", "samples", name))
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	return out
}

// ReadJSON decodes a JSON object file without requiring testing.T.
func ReadJSON(path string) (map[string]any, error) {
	if path == "" {
		return nil, errors.New("testsupport: path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "testsupport: read json")
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "testsupport: unmarshal json")
	}
	return out, nil
}

// CompareTree diffs two decoded JSON trees. Numbers compare approximately so
// an int64 in a rendered tree matches the float64 of a decoded preview.
func CompareTree(want, got any) string {
	return cmp.Diff(normalizeTree(want), normalizeTree(got), cmpopts.EquateApprox(0, 1e-10))
}

func normalizeTree(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeTree(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeTree(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeTree(val)
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	default:
		return v
	}
}

// WriteGolden writes value as indented JSON when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	writeGolden(t, path, append(payload, '\n'))
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	writeGolden(t, path, data)
	return true
}

// AssertGolden compares data to the golden file at path, refreshing it first
// when UPDATE_GOLDENS is set.
func AssertGolden(t *testing.T, path string, data []byte) {
	t.Helper()
	if WriteMaybeGolden(t, path, data) {
		return
	}
	want := MustReadGolden(t, path)
	if !bytes.Equal(bytes.TrimSpace(want), bytes.TrimSpace(data)) {
		t.Fatalf("golden mismatch %s (-want +got):\n%s", path, cmp.Diff(string(want), string(data)))
	}
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

func writeGolden(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}
