package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	var names bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tools synthesized from the widgets directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := a.tools(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if names {
				for _, name := range set.Names() {
					fmt.Fprintln(out, name)
				}
				return nil
			}
			for _, d := range set.List() {
				fmt.Fprintln(out, nameStyle.Render(d.ToolName))
				fmt.Fprintln(out, "  "+d.Signature())
				fmt.Fprintln(out, "  "+faintStyle.Render(d.Summary()))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&names, "names", false, "Print tool names only")
	return cmd
}
