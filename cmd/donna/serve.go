package main

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/metalagman/donna/internal/auth"
	"github.com/metalagman/donna/internal/chat"
	"github.com/metalagman/donna/internal/server"
	"github.com/metalagman/donna/internal/task"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Start the HTTP API server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			secret, err := jwtSecret(cfg)
			if err != nil {
				return err
			}

			storeDB, closeFn, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			orch, err := newOrchestrator(cfg, storeDB)
			if err != nil {
				return err
			}

			chatStore := chat.NewStore(storeDB)
			srv := server.NewServer(
				auth.NewService(storeDB, secret),
				task.NewSQLStore(storeDB),
				chat.NewService(chatStore, orch, cfg.Chat.HistoryWindow),
				chatStore,
				server.Options{
					JWTSecret:   secret,
					CORSOrigins: cfg.Server.CORSOrigins,
					RateLimit:   cfg.Chat.RateLimit,
					RateWindow:  time.Duration(cfg.Chat.RateWindowSec) * time.Second,
				},
			)

			log.Info().Str("addr", cfg.Server.Addr).Msg("starting API server")
			return http.ListenAndServe(cfg.Server.Addr, srv.Routes())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
