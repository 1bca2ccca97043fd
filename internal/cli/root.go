// Package cli implements the widgettools command line.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-widgettools/internal/config"
	"github.com/goliatone/go-widgettools/pkg/prompt"
	"github.com/goliatone/go-widgettools/pkg/registry"
	"github.com/goliatone/go-widgettools/pkg/tool"
	"github.com/goliatone/go-widgettools/pkg/widgeterr"
	"github.com/goliatone/go-widgettools/pkg/widgets"
)

// EnvConfig names a config file when --config is not given.
const EnvConfig = "WIDGETTOOLS_CONFIG"

type app struct {
	fs     afero.Fs
	driver prompt.Driver

	configPath string
	widgetsDir string
	logLevel   string

	cfg *config.Config
}

// NewRootCmd creates the root command for the widgettools CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{fs: afero.NewOsFs()})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "widgettools",
		Short: "Turn .widget files into callable tools",
		Example: `
widgettools list

widgettools render flight_tracker --input testdata/samples/flight_tracker.json

widgettools render create_event -w date='{"name":"Friday","number":"28"}' -w events='[]'

widgettools serve --widgets-dir ./widgets
`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a widgettools config file (default ./"+config.DefaultFileName+")")
	_ = root.MarkPersistentFlagFilename("config", "yaml", "yml")
	root.PersistentFlags().StringVarP(&a.widgetsDir, "widgets-dir", "d", "", "Directory scanned for widget files")
	_ = root.MarkPersistentFlagDirname("widgets-dir")
	root.PersistentFlags().StringVarP(&a.logLevel, "log-level", "l", "", "Set log level")
	_ = root.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{log.DebugLevel.String(), log.InfoLevel.String(), log.WarnLevel.String(), log.ErrorLevel.String(), log.FatalLevel.String()}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(
		newServeCmd(a),
		newListCmd(a),
		newDescribeCmd(a),
		newRenderCmd(a),
		newSchemaCmd(a),
		newOpenAPICmd(a),
	)
	return root
}

// setup resolves the configuration: defaults < file < environment < flags.
func (a *app) setup(cmd *cobra.Command) error {
	path := a.configPath
	if !cmd.Flags().Changed("config") {
		path = os.Getenv(EnvConfig)
	}
	cfg, err := config.Load(a.fs, path)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("widgets-dir") {
		cfg.WidgetsDir = a.widgetsDir
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return widgeterr.Configf("invalid log level %q", cfg.LogLevel)
	}
	log.FromContext(cmd.Context()).SetLevel(level)
	return nil
}

func (a *app) coordinator(ctx context.Context) (*registry.Coordinator, error) {
	logger := log.FromContext(ctx)
	policy, err := registry.ParseDuplicatePolicy(a.cfg.Duplicates)
	if err != nil {
		return nil, err
	}
	loader := widgets.NewLoader(
		widgets.WithFs(a.fs),
		widgets.WithLogger(logger),
		widgets.WithPattern(a.cfg.Pattern),
	)
	return registry.NewCoordinator(
		registry.WithLoader(loader),
		registry.WithDuplicatePolicy(policy),
		registry.WithLogger(logger),
	)
}

// tools loads every widget and registers it into an in-memory set.
func (a *app) tools(ctx context.Context) (*registry.Set, error) {
	c, err := a.coordinator(ctx)
	if err != nil {
		return nil, err
	}
	set := registry.NewSet()
	if _, err := c.RegisterAll(a.cfg.WidgetsDir, set); err != nil {
		return nil, err
	}
	return set, nil
}

func (a *app) tool(ctx context.Context, name string) (*tool.Descriptor, error) {
	set, err := a.tools(ctx)
	if err != nil {
		return nil, err
	}
	return set.Get(name)
}

func (a *app) collector(out io.Writer) *prompt.Collector {
	driver := a.driver
	if driver == nil {
		driver = &prompt.SurveyDriver{Out: out}
	}
	return prompt.NewCollector(prompt.WithDriver(driver))
}

// Main executes the root command and returns the process exit code.
func Main() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
	})
	logger.SetStyles(DefaultStyles())

	ctx = log.WithContext(ctx, logger)
	_, err := NewRootCmd().ExecuteContextC(ctx)
	if err != nil {
		logger.Error(string(widgeterr.KindOf(err)), "err", err)
	}
	return ExitCode(err)
}

// ExitCode maps an error to a process exit code.
//
// 0 - the error was nil
// 2 - configuration errors
// 130 - interrupted or aborted prompts
// 1 - everything else
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, prompt.ErrAborted), errors.Is(err, context.Canceled):
		return 130
	case errors.Is(err, widgeterr.ErrConfig):
		return 2
	default:
		return 1
	}
}
