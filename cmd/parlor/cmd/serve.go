package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"parlor/src/daemon"
)

var socketPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host a chat session over a local socket",
	Long: `Host one chat session behind a JSON-RPC endpoint on a unix socket.

Other processes can drive the session with 'parlor send' or by posting
JSON-RPC 2.0 requests to /rpc on the socket. Methods:
  turn.process     {"text": "..."}
  session.status
  session.history
  personas.list`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(zapcore.InfoLevel)
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

		srv := daemon.NewServer(sess, settings.Daemon.Socket, logger.Named("daemon"))
		logger.Info("serving session",
			zap.String("session", sess.ID()),
			zap.String("socket", srv.SocketPath()))

		return daemon.Run(cmd.Context(), srv, logger)
	},
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running session host",
	RunE: func(cmd *cobra.Command, args []string) error {
		pidPath := daemon.PidFilePath(currentSocket())
		running, pid := daemon.IsRunning(pidPath)
		if !running {
			fmt.Fprintln(cmd.OutOrStdout(), "Daemon is not running")
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Stopping daemon (PID: %d)...\n", pid)
		return daemon.Stop(pid, pidPath)
	},
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the hosted session's state",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		socket := currentSocket()

		running, pid := daemon.IsRunning(daemon.PidFilePath(socket))
		if !running {
			fmt.Fprintln(out, "Daemon is not running")
			return nil
		}
		fmt.Fprintf(out, "Daemon is running (PID: %d)\n", pid)

		client := daemon.NewClient(socket)
		defer client.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		status, err := client.Status(ctx)
		if err != nil {
			return err
		}

		active := status.Active
		if active == "" {
			active = "(none)"
		}
		fmt.Fprintf(out, "  Session: %s\n", status.SessionID)
		fmt.Fprintf(out, "  Active:  %s\n", active)
		fmt.Fprintf(out, "  Uptime:  %s\n", status.Uptime)

		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "  Transcripts:")
		for _, key := range reg.Keys() {
			fmt.Fprintf(out, "    %-14s %d\n", key, status.Transcripts[key])
		}
		return nil
	},
}

// currentSocket is the configured daemon socket
func currentSocket() string {
	if socketPath != "" {
		return socketPath
	}
	return viper.GetString("daemon.socket")
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.AddCommand(serveStopCmd)
	serveCmd.AddCommand(serveStatusCmd)

	serveCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "unix socket to listen on")
	viper.BindPFlag("daemon.socket", serveCmd.PersistentFlags().Lookup("socket"))
}
