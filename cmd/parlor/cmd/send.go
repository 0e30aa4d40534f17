package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"parlor/src/daemon"
	"parlor/src/session"
)

var sendTimeout time.Duration

var sendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send one message to the session hosted by 'parlor serve'",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			return fmt.Errorf("message must not be empty")
		}

		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		r := renderer{out: cmd.OutOrStdout(), registry: reg}

		client := daemon.NewClient(currentSocket())
		defer client.Close()

		ctx := cmd.Context()
		if sendTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, sendTimeout)
			defer cancel()
		}

		result, err := client.ProcessTurn(ctx, text)
		if err != nil {
			var rpcErr *daemon.RPCError
			if errors.As(err, &rpcErr) && rpcErr.Code == daemon.CodeServiceFailure {
				r.failure(session.MsgServiceFailure)
				return nil
			}
			return err
		}

		r.messages(result.Messages)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVar(&socketPath, "socket", "", "unix socket of the running daemon")
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", 2*time.Minute, "how long to wait for a reply")
}
