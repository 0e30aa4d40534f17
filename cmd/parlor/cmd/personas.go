package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var personasCmd = &cobra.Command{
	Use:     "personas",
	Aliases: []string{"characters"},
	Short:   "List the characters you can talk to",
	Long: `List the characters you can talk to, in the order the router offers them.

Built-in characters can be overridden, and new ones added, by dropping TOML
files into $XDG_CONFIG_HOME/parlor/personalities.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, p := range reg.Personas() {
			name := lipgloss.NewStyle().Bold(true)
			if p.GetColor() != "" {
				name = name.Foreground(lipgloss.Color(p.GetColor()))
			}
			fmt.Fprintf(out, "%-2s %s  (%s)\n", p.GetIcon(), name.Render(p.GetName()), p.GetKey())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(personasCmd)
}
