package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"etdbridge/internal/config"
	"etdbridge/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify [destination]",
		Short: "Send a test notification to a destination's recipient",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if cfg.Notifications.Transport == config.TransportNone {
				fmt.Fprintln(out, "Notifications are disabled (transport = none)")
				return nil
			}

			recipient := cfg.Notifications.DefaultRecipient
			if len(args) == 1 {
				r, ok := cfg.Recipient(args[0])
				if !ok {
					return fmt.Errorf("no recipient configured for destination %q", args[0])
				}
				recipient = r
			}
			if recipient == "" {
				return fmt.Errorf("no recipient: pass a destination or set notifications.default_recipient")
			}

			if err := notifications.NewService(cfg).Send(cmd.Context(), notifications.Test(recipient)); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintf(out, "Test notification sent to %s\n", recipient)
			return nil
		},
	}
}
