package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/metalagman/donna/internal/mcp"
	"github.com/metalagman/donna/internal/task"
	"github.com/metalagman/donna/internal/tools"
)

// version is set by the build.
var version = "dev"

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "mcp",
		Short:        "Serve the task tools over MCP on stdio",
		Long:         "Serve the task tools over the Model Context Protocol on stdio, operating on the local CLI account.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			storeDB, closeFn, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			userID, err := localUserID(cmd.Context(), storeDB)
			if err != nil {
				return err
			}

			dispatcher := tools.NewDispatcher(task.NewSQLStore(storeDB))

			log.Info().Msg("starting MCP server on stdio")
			return mcp.NewServer(dispatcher, userID, version).Run(cmd.Context())
		},
	}
}
