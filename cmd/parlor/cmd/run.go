package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	perrors "parlor/src/errors"
	"parlor/src/session"
)

// runChat is the main execution function when no subcommand is specified
func runChat(cmd *cobra.Command, args []string) error {
	logger := newLogger(zapcore.WarnLevel)
	defer logger.Sync()

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	sess, cleanup, err := buildSession(settings, logger)
	defer cleanup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return chatLoop(ctx, sess, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
}

// chatLoop reads one line per turn until EOF, exit or quit
func chatLoop(ctx context.Context, sess *session.Session, in io.Reader, out io.Writer, logger *zap.Logger) error {
	r := renderer{out: out, registry: sess.Registry()}
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(out, "Welcome! Type a message or 'exit' to quit.")
	r.message(session.Message{Speaker: session.AssistantSpeaker, Text: sess.PromptMessage()})

	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		text := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(text) {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintln(out, "Exiting the chat. Goodbye!")
			return nil
		case "/who":
			if p := sess.Active(); p != nil {
				r.message(session.Message{Speaker: session.AssistantSpeaker, Text: "You are talking to " + p.GetName() + "."})
			} else {
				r.message(session.Message{Speaker: session.AssistantSpeaker, Text: sess.PromptMessage()})
			}
			continue
		}

		messages, err := sess.ProcessTurn(ctx, text)
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				fmt.Fprintln(out)
				return nil
			}
			if perrors.IsServiceUnavailable(err) {
				logger.Warn("turn failed", zap.Error(err))
				r.failure(session.MsgServiceFailure)
				continue
			}
			return err
		}
		r.messages(messages)
	}
}
