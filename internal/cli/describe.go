package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-widgettools/pkg/tool"
)

func newDescribeCmd(a *app) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "describe <tool>",
		Short: "Describe a tool's parameters as markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.tool(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			md := describe(d)
			if !raw {
				r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
				if err != nil {
					return err
				}
				if md, err = r.Render(md); err != nil {
					return err
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print markdown without terminal styling")
	return cmd
}

func describe(d *tool.Descriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", d.Widget.Name)
	fmt.Fprintf(&b, "```\n%s\n```\n\n", d.Signature())
	b.WriteString(d.Description)
	b.WriteString("\n\n")

	if len(d.Params) == 0 {
		b.WriteString("_No parameters._\n")
		return b.String()
	}
	b.WriteString("| Parameter | Type | Required | Default | Description |\n")
	b.WriteString("| --- | --- | --- | --- | --- |\n")
	for _, p := range d.Params {
		def := ""
		if p.HasDefault {
			def = fmt.Sprintf("`%v`", p.Default)
		}
		required := "no"
		if p.Required {
			required = "yes"
		}
		fmt.Fprintf(&b, "| `%s` | `%s` | %s | %s | %s |\n", p.Name, escapeCell(p.TypeName()), required, def, escapeCell(p.Description))
	}
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
