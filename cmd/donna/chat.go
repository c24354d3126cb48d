package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/metalagman/donna/internal/chat"
)

func chatCmd() *cobra.Command {
	var conversationID string
	cmd := &cobra.Command{
		Use:          "chat <message>",
		Short:        "Send one message to the assistant",
		Long:         "Send one message to the assistant against the local database. Pass --conversation to continue an earlier thread.",
		SilenceUsage: true,
		Args:         cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			orch, err := newOrchestrator(cfg, storeDB)
			if err != nil {
				return err
			}
			svc := chat.NewService(chat.NewStore(storeDB), orch, cfg.Chat.HistoryWindow)

			resp, err := svc.RunTurn(cmd.Context(), userID, conversationID, strings.Join(args, " "))
			if err != nil {
				return err
			}

			fmt.Println(resp.Reply)
			fmt.Printf("\n(conversation %s)\n", resp.ConversationID)
			return nil
		},
	}
	cmd.Flags().StringVar(&conversationID, "conversation", "", "conversation id to continue")
	return cmd
}
