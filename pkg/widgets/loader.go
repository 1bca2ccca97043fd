package widgets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"

	"github.com/goliatone/go-widgettools/pkg/widgeterr"
)

// DefaultPattern matches widget definition files during discovery.
const DefaultPattern = "*.widget"

// ErrWidgetNotFound is returned by FindByName when no widget matches.
var ErrWidgetNotFound = errors.New("widget not found")

// Loader reads widget definitions from a file system.
type Loader struct {
	fs      afero.Fs
	logger  *log.Logger
	pattern string
	resolve func(string) (string, error)
}

// Option configures a Loader.
type Option func(*Loader)

// WithFs reads widgets from fsys instead of the OS file system.
func WithFs(fsys afero.Fs) Option {
	return func(l *Loader) {
		if fsys != nil {
			l.fs = fsys
		}
	}
}

// WithLogger sets the logger used for discovery warnings.
func WithLogger(logger *log.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithPattern overrides the file name glob used by Discover.
func WithPattern(pattern string) Option {
	return func(l *Loader) {
		if trimmed := strings.TrimSpace(pattern); trimmed != "" {
			l.pattern = trimmed
		}
	}
}

// WithPathResolver overrides how candidate paths are canonicalized. The
// default follows symlinks on the OS file system and cleans paths elsewhere.
func WithPathResolver(resolve func(string) (string, error)) Option {
	return func(l *Loader) {
		l.resolve = resolve
	}
}

// NewLoader returns a Loader reading from the OS file system.
func NewLoader(options ...Option) *Loader {
	l := &Loader{
		fs:      afero.NewOsFs(),
		logger:  log.Default(),
		pattern: DefaultPattern,
	}
	for _, opt := range options {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Load reads a single widget file.
func (l *Loader) Load(path string) (*Definition, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "read widget file %s", path)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, widgeterr.Parse(err, "parse widget file %s", path)
	}

	var missing []string
	for _, key := range requiredFields {
		if _, ok := fields[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		issues := make([]widgeterr.Issue, len(missing))
		for i, key := range missing {
			issues[i] = widgeterr.Issue{Path: key, Message: "field required", Keyword: "required"}
		}
		verr := widgeterr.NewValidationError(path, issues)
		verr.Summary = fmt.Sprintf("Widget file %s missing required fields: %s", path, strings.Join(missing, ", "))
		return nil, verr
	}

	var template string
	rawTemplate := bytes.TrimSpace(fields["template"])
	if err := json.Unmarshal(rawTemplate, &template); err != nil || bytes.Equal(rawTemplate, []byte("null")) {
		return nil, widgeterr.Typef("Widget template must be a string: %s", path)
	}

	issues, err := validateStructure(data)
	if err != nil {
		return nil, errors.Wrapf(err, "validate widget file %s", path)
	}
	if len(issues) > 0 {
		verr := widgeterr.NewValidationError(path, issues)
		verr.Summary = fmt.Sprintf("Widget file %s is invalid: %s", path, joinIssues(issues))
		return nil, verr
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, widgeterr.Parse(err, "decode widget file %s", path)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, fields["jsonSchema"]); err != nil {
		return nil, widgeterr.Parse(err, "compact input schema of %s", path)
	}

	return &Definition{
		Name:          file.Name,
		Version:       file.Version,
		InputSchema:   compact.Bytes(),
		OutputPreview: file.OutputJSONPreview,
		Template:      template,
		EncodedWidget: file.EncodedWidget,
		SourcePath:    path,
	}, nil
}

// Discover loads every widget file under dir, recursively and in sorted path
// order. Files that cannot be resolved or that resolve outside dir are
// skipped with a warning; files reached twice load once. A failure to load a
// selected file aborts the whole call.
func (l *Loader) Discover(dir string) ([]*Definition, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, widgeterr.Configf("widgets_dir argument is required")
	}
	info, err := l.fs.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, widgeterr.Configf("Widgets directory does not exist: %s", dir)
	case err != nil:
		return nil, widgeterr.Configf("Widgets directory is not accessible: %s: %v", dir, err)
	case !info.IsDir():
		return nil, widgeterr.Configf("Widgets directory is not a directory: %s", dir)
	}

	base, err := l.canonical(dir)
	if err != nil {
		return nil, widgeterr.Configf("Widgets directory cannot be resolved: %s: %v", dir, err)
	}

	candidates, err := l.candidates(dir, base)
	if err != nil {
		return nil, errors.Wrapf(err, "walk widgets directory %s", dir)
	}

	seen := make(map[string]struct{}, len(candidates))
	selected := make([]string, 0, len(candidates))
	for _, path := range candidates {
		info, err := l.fs.Stat(path)
		if err != nil {
			l.logger.Warn("Skipping unreadable widget file", "path", path, "err", err)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		resolved, err := l.canonical(path)
		if err != nil {
			l.logger.Warn("Skipping widget file that cannot be resolved", "path", path, "err", err)
			continue
		}
		if !within(base, resolved) {
			l.logger.Warn("Skipping widget file outside widgets directory", "path", path, "resolved", resolved)
			continue
		}
		if _, dup := seen[resolved]; dup {
			continue
		}
		seen[resolved] = struct{}{}
		selected = append(selected, path)
	}

	if len(selected) == 0 {
		l.logger.Warnf("No widget definitions found in %s", dir)
		return []*Definition{}, nil
	}

	defs := make([]*Definition, 0, len(selected))
	for _, path := range selected {
		def, err := l.Load(path)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// FindByName discovers dir and returns the widget whose display name is name.
func (l *Loader) FindByName(dir, name string) (*Definition, error) {
	defs, err := l.Discover(dir)
	if err != nil {
		return nil, err
	}
	for _, def := range defs {
		if def.Name == name {
			return def, nil
		}
	}
	return nil, errors.Wrapf(ErrWidgetNotFound, "%q in %s", name, dir)
}

// candidates lists the files under dir matching the pattern. A symlinked
// root is walked through its resolved target, with paths reported under dir.
func (l *Loader) candidates(dir, base string) ([]string, error) {
	root := dir
	if l.symlinkRoot(dir) {
		root = base
	}

	var out []string
	err := afero.Walk(l.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			l.logger.Warn("Skipping unreadable path", "path", path, "err", err)
			return nil
		}
		if info.IsDir() {
			return nil
		}
		matched, err := filepath.Match(l.pattern, filepath.Base(path))
		if err != nil {
			return err
		}
		if matched {
			if root != dir {
				rel, err := filepath.Rel(root, path)
				if err != nil {
					return err
				}
				path = filepath.Join(dir, rel)
			}
			out = append(out, path)
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}

func (l *Loader) symlinkRoot(dir string) bool {
	lstater, ok := l.fs.(afero.Lstater)
	if !ok {
		return false
	}
	info, lstatCalled, err := lstater.LstatIfPossible(dir)
	return err == nil && lstatCalled && info.Mode()&os.ModeSymlink != 0
}

func (l *Loader) canonical(path string) (string, error) {
	if l.resolve != nil {
		return l.resolve(path)
	}
	if _, ok := l.fs.(*afero.OsFs); ok {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", err
		}
		return filepath.EvalSymlinks(abs)
	}
	return filepath.Clean(path), nil
}

func within(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func joinIssues(issues []widgeterr.Issue) string {
	parts := make([]string, len(issues))
	for i, issue := range issues {
		parts[i] = issue.String()
	}
	return strings.Join(parts, "; ")
}
