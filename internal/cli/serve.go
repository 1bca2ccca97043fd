package cli

import (
	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-widgettools/pkg/mcpserver"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve every widget as an MCP tool over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := log.FromContext(ctx)

			server := mcpserver.New(
				mcpserver.WithImplementation(a.cfg.Server.Name, a.cfg.Server.Version),
				mcpserver.WithLogger(logger),
			)
			c, err := a.coordinator(ctx)
			if err != nil {
				return err
			}
			descs, err := c.RegisterAll(a.cfg.WidgetsDir, server)
			if err != nil {
				return err
			}

			logger.Info("serving widget tools", "transport", "stdio", "tools", len(descs), "dir", a.cfg.WidgetsDir)
			return server.Run(ctx, &mcp.StdioTransport{})
		},
	}
}
