package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-widgettools/internal/config"
	"github.com/goliatone/go-widgettools/pkg/widgets"
)

func newSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "schema widget|config|<tool>",
		Short:     "Print a JSON Schema",
		Long:      "Print the schema of the widget file format, the config file, or the input of a tool.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"widget", "config"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var schema any
			switch args[0] {
			case "widget":
				schema = widgets.FileSchema()
			case "config":
				schema = config.Schema()
			default:
				d, err := a.tool(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				schema = d.Schema()
			}

			b, err := json.MarshalIndent(schema, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
}
