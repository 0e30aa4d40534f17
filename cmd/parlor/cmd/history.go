package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"parlor/src/database"
)

var (
	historyLimit   int
	historySession string
	historyPersona string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse the turn journal",
	Long: `Browse turns recorded in the local journal. Recording is enabled with
--journal or journal.enabled = true.

Examples:
  parlor history sessions
  parlor history show --persona yoda --limit 20
  parlor history show --session <id>`,
}

var historySessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recent sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		journal, err := openJournal()
		if err != nil {
			return err
		}
		defer journal.Close()

		ids, err := journal.Sessions(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded")
			return nil
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show recorded turns",
	RunE: func(cmd *cobra.Command, args []string) error {
		journal, err := openJournal()
		if err != nil {
			return err
		}
		defer journal.Close()

		turns, err := journal.Recent(cmd.Context(), database.Filter{
			SessionID: historySession,
			Persona:   historyPersona,
			Limit:     historyLimit,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(turns) == 0 {
			fmt.Fprintln(out, "No turns recorded")
			return nil
		}
		for _, t := range turns {
			fmt.Fprintf(out, "[%s] %s: %s\n", t.CreatedAt.Format("2006-01-02 15:04"), t.Speaker, t.Text)
		}
		return nil
	},
}

func openJournal() (*database.Journal, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	return database.NewJournal(settings.Journal.Path)
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historySessionsCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyCmd.PersistentFlags().IntVarP(&historyLimit, "limit", "n", 50, "maximum number of rows")
	historyShowCmd.Flags().StringVar(&historySession, "session", "", "only this session")
	historyShowCmd.Flags().StringVar(&historyPersona, "persona", "", "only turns with this character")
}
