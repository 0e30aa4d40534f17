package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"parlor/src/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage parlor configuration",
	Long: `Manage parlor configuration settings.

Examples:
  parlor config get openai.model
  parlor config set openai.model gpt-4o
  parlor config set memory.context_window 20
  parlor config list
  parlor config edit`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value := viper.Get(args[0])
		if value == nil {
			return fmt.Errorf("key '%s' not found", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		viper.Set(key, parseValue(value))

		configFile, err := configFilePath()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
			return err
		}

		if err := viper.WriteConfigAs(configFile); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		// catch values the chat would refuse to start with
		if _, err := config.LoadSettingsFrom(configFile); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, value)
		fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", configFile)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration values",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		flattened := flattenMap("", viper.AllSettings())

		keys := make([]string, 0, len(flattened))
		for k := range flattened {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		if len(keys) == 0 {
			fmt.Fprintln(out, "No configuration settings found")
			return
		}

		fmt.Fprintln(out, "Configuration settings:")
		for _, key := range keys {
			value := flattened[key]
			if key == "openai.api_key" && fmt.Sprint(value) != "" {
				value = "********"
			}
			fmt.Fprintf(out, "  %s = %v\n", key, value)
		}

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(out, "\nConfig file: %s\n", configFile)
		}
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile, err := configFilePath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), configFile)
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file in your default editor",
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile, err := configFilePath()
		if err != nil {
			return err
		}
		if err := config.EnsureConfigDirs(); err != nil {
			return err
		}

		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			if err := os.WriteFile(configFile, []byte("# parlor configuration file\n"), 0644); err != nil {
				return err
			}
		}

		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = os.Getenv("VISUAL")
		}
		if editor == "" {
			for _, e := range []string{"vim", "vi", "nano", "emacs"} {
				if _, err := exec.LookPath(e); err == nil {
					editor = e
					break
				}
			}
		}
		if editor == "" {
			return fmt.Errorf("no editor found; set $EDITOR or $VISUAL")
		}

		editorCmd := exec.Command(editor, configFile)
		editorCmd.Stdin = os.Stdin
		editorCmd.Stdout = os.Stdout
		editorCmd.Stderr = os.Stderr

		return editorCmd.Run()
	},
}

// configFilePath is the file in use, or the default location when none was found
func configFilePath() (string, error) {
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		return configFile, nil
	}
	return config.GetConfigFile()
}

// parseValue turns "true", "false" and integers into typed values
func parseValue(value string) interface{} {
	if value == "true" || value == "false" {
		return value == "true"
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return value
}

// flattenMap flattens a nested map into dot-notation keys
func flattenMap(prefix string, m map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})

	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		switch v := value.(type) {
		case map[string]interface{}:
			for k, val := range flattenMap(fullKey, v) {
				result[k] = val
			}
		case []interface{}:
			var items []string
			for _, item := range v {
				items = append(items, fmt.Sprintf("%v", item))
			}
			result[fullKey] = strings.Join(items, ", ")
		default:
			result[fullKey] = value
		}
	}

	return result
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configEditCmd)
}
