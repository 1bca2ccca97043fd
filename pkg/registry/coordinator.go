package registry

import (
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/goliatone/go-widgettools/pkg/tool"
	"github.com/goliatone/go-widgettools/pkg/widgeterr"
	"github.com/goliatone/go-widgettools/pkg/widgets"
)

// DuplicatePolicy decides what happens when two widgets sanitize to the same
// tool name.
type DuplicatePolicy int

const (
	// DuplicateOverwrite registers every tool in discovery order, so the later
	// widget wins. A warning is logged for each collision.
	DuplicateOverwrite DuplicatePolicy = iota
	// DuplicateError refuses to register anything when names collide.
	DuplicateError
)

// ParseDuplicatePolicy maps "overwrite" and "error" to a policy.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overwrite":
		return DuplicateOverwrite, nil
	case "error":
		return DuplicateError, nil
	default:
		return DuplicateOverwrite, widgeterr.Configf("unknown duplicate policy %q (want overwrite or error)", s)
	}
}

func (p DuplicatePolicy) String() string {
	if p == DuplicateError {
		return "error"
	}
	return "overwrite"
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLoader sets the widget loader used for discovery.
func WithLoader(loader *widgets.Loader) Option {
	return func(c *Coordinator) {
		c.loader = loader
	}
}

// WithSynthesizer sets the tool synthesizer.
func WithSynthesizer(s *tool.Synthesizer) Option {
	return func(c *Coordinator) {
		c.synth = s
	}
}

// WithDuplicatePolicy sets how name collisions are handled.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(c *Coordinator) {
		c.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Coordinator discovers widgets and registers one tool per widget.
type Coordinator struct {
	loader *widgets.Loader
	synth  *tool.Synthesizer
	policy DuplicatePolicy
	logger *log.Logger
}

// NewCoordinator returns a Coordinator with an OS loader and a default
// synthesizer unless options say otherwise.
func NewCoordinator(options ...Option) (*Coordinator, error) {
	c := &Coordinator{logger: log.Default()}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	if c.loader == nil {
		c.loader = widgets.NewLoader(widgets.WithLogger(c.logger))
	}
	if c.synth == nil {
		s, err := tool.NewSynthesizer()
		if err != nil {
			return nil, errors.Wrap(err, "registry: build synthesizer")
		}
		c.synth = s
	}
	return c, nil
}

// Prepare discovers the widgets in dir and synthesizes their tools without
// registering anything.
func (c *Coordinator) Prepare(dir string) ([]*tool.Descriptor, error) {
	defs, err := c.loader.Discover(dir)
	if err != nil {
		return nil, err
	}
	descs, err := c.synth.SynthesizeAll(defs)
	if err != nil {
		return nil, err
	}
	if err := c.checkNames(descs); err != nil {
		return nil, err
	}
	return descs, nil
}

// RegisterAll registers every widget in dir with reg under its sanitized
// tool name. Discovery and synthesis finish before the first registration,
// so a failure leaves reg untouched.
func (c *Coordinator) RegisterAll(dir string, reg Registry) ([]*tool.Descriptor, error) {
	if reg == nil {
		return nil, errors.New("registry: registry is required")
	}
	descs, err := c.Prepare(dir)
	if err != nil {
		return nil, err
	}
	for _, d := range descs {
		reg.Register(d.ToolName, d)
	}
	c.logger.Debug("registered widget tools", "dir", dir, "count", len(descs))
	return descs, nil
}

func (c *Coordinator) checkNames(descs []*tool.Descriptor) error {
	var issues []widgeterr.Issue
	owners := make(map[string][]string, len(descs))
	var order []string
	for _, d := range descs {
		if d.ToolName == "" {
			issues = append(issues, widgeterr.Issue{
				Path:    d.Widget.SourcePath,
				Message: "widget name " + strconv.Quote(d.Widget.Name) + " produces an empty tool name",
				Keyword: "name",
			})
			continue
		}
		if _, seen := owners[d.ToolName]; !seen {
			order = append(order, d.ToolName)
		}
		owners[d.ToolName] = append(owners[d.ToolName], d.Widget.Name)
	}

	for _, name := range order {
		widgetsNamed := owners[name]
		if len(widgetsNamed) < 2 {
			continue
		}
		if c.policy == DuplicateError {
			issues = append(issues, widgeterr.Issue{
				Path:    name,
				Message: "tool name is produced by widgets " + joinQuoted(widgetsNamed),
				Keyword: "duplicate",
			})
			continue
		}
		c.logger.Warn("Duplicate tool name, later widget wins", "tool", name, "widgets", strings.Join(widgetsNamed, ", "))
	}

	if verr := widgeterr.NewValidationError("widget tools", issues); verr != nil {
		return verr
	}
	return nil
}

func joinQuoted(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = strconv.Quote(n)
	}
	sort.Strings(quoted)
	return strings.Join(quoted, ", ")
}
