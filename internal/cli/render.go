package cli

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-widgettools/pkg/tool"
	"github.com/goliatone/go-widgettools/pkg/widgeterr"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		with        map[string]string
		input       string
		interactive bool
		compact     bool
	)

	cmd := &cobra.Command{
		Use:   "render <tool>",
		Short: "Render a widget tool and print its tree as JSON",
		Long: `Render a widget tool. Arguments are read from --input, then overridden
by --with pairs, which are coerced to the parameter types. --interactive
prompts for every parameter instead.`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 || a.cfg == nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			set, err := a.tools(cmd.Context())
			if err != nil {
				return nil, cobra.ShellCompDirectiveError
			}
			return set.Names(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := log.FromContext(ctx)

			d, err := a.tool(ctx, args[0])
			if err != nil {
				return err
			}

			var callArgs map[string]any
			if interactive {
				if callArgs, err = a.collector(cmd.ErrOrStderr()).Collect(ctx, d); err != nil {
					return err
				}
			} else if callArgs, err = a.readArgs(d, input, with); err != nil {
				return err
			}

			node, err := d.Call(ctx, callArgs)
			if err != nil {
				return err
			}

			var out []byte
			if compact {
				out, err = json.Marshal(node)
			} else {
				out, err = json.MarshalIndent(node, "", "  ")
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			logger.Info("rendered widget", "tool", d.ToolName, "summary", node.Summary(), "nodes", node.Count())
			return nil
		},
	}

	cmd.Flags().StringToStringVarP(&with, "with", "w", nil, "Pass key=value arguments to the tool")
	cmd.Flags().StringVarP(&input, "input", "i", "", "JSON file holding the tool arguments")
	_ = cmd.MarkFlagFilename("input", "json")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Prompt for every argument")
	cmd.Flags().BoolVar(&compact, "compact", false, "Print the tree without indentation")
	cmd.MarkFlagsMutuallyExclusive("interactive", "input")
	cmd.MarkFlagsMutuallyExclusive("interactive", "with")
	return cmd
}

func (a *app) readArgs(d *tool.Descriptor, input string, with map[string]string) (map[string]any, error) {
	args := map[string]any{}
	if input != "" {
		data, err := afero.ReadFile(a.fs, input)
		if err != nil {
			return nil, widgeterr.Configf("input file is not readable: %s: %v", input, err)
		}
		if err := json.Unmarshal(data, &args); err != nil {
			return nil, widgeterr.Parse(err, "input file %s must hold a JSON object", input)
		}
	}
	if len(with) == 0 {
		return args, nil
	}
	coerced, err := tool.CoerceArgs(d, with)
	if err != nil {
		return nil, err
	}
	for k, v := range coerced {
		args[k] = v
	}
	return args, nil
}
