package cli

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-widgettools/pkg/openapi"
	"github.com/goliatone/go-widgettools/pkg/widgeterr"
)

func newOpenAPICmd(a *app) *cobra.Command {
	var (
		format string
		info   openapi.Info
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Print an OpenAPI document describing every tool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "yaml" && format != "json" {
				return widgeterr.Configf("unsupported format %q, expected yaml or json", format)
			}
			set, err := a.tools(cmd.Context())
			if err != nil {
				return err
			}
			doc, err := openapi.Build(cmd.Context(), set.List(), info)
			if err != nil {
				return err
			}

			var out []byte
			if format == "json" {
				out, err = doc.JSON()
			} else {
				out, err = doc.YAML()
			}
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", "yaml", `Output format ("yaml", "json")`)
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	cmd.Flags().StringVar(&info.Title, "title", "", "Document title")
	cmd.Flags().StringVar(&info.Version, "api-version", "", "Document version")
	cmd.Flags().StringVar(&info.Description, "description", "", "Document description")
	return cmd
}
