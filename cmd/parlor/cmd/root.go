package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"parlor/src/config"
)

var (
	cfgFile       string
	debug         bool
	withContext   bool
	model         string
	decisionModel string
	baseURL       string
	journal       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "parlor",
	Short: "Chat with a cast of fictional characters that remember you",
	Long: `parlor routes your messages to one of several characters, each with
its own memory of your conversation. Name a character to start talking to
them, and ask for another one at any time to switch.

When run without subcommands, it starts an interactive chat.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runChat,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/parlor/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.PersistentFlags().BoolVar(&withContext, "context", false, "Add time and date context to character prompts")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "Model used for character replies")
	rootCmd.PersistentFlags().StringVar(&decisionModel, "decision-model", "", "Model used to decide who answers")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "OpenAI-compatible API base URL")
	rootCmd.PersistentFlags().BoolVar(&journal, "journal", false, "Record every turn in the local journal")

	viper.BindPFlag("prompt.context", rootCmd.PersistentFlags().Lookup("context"))
	viper.BindPFlag("openai.model", rootCmd.PersistentFlags().Lookup("model"))
	viper.BindPFlag("openai.decision_model", rootCmd.PersistentFlags().Lookup("decision-model"))
	viper.BindPFlag("openai.base_url", rootCmd.PersistentFlags().Lookup("base-url"))
	viper.BindPFlag("journal.enabled", rootCmd.PersistentFlags().Lookup("journal"))
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		configDir, err := config.GetConfigDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(configDir)
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	defaults := config.DefaultSettings()
	viper.SetDefault("openai.base_url", defaults.OpenAI.BaseURL)
	viper.SetDefault("openai.model", defaults.OpenAI.Model)
	viper.SetDefault("openai.decision_model", defaults.OpenAI.DecisionModel)
	viper.SetDefault("openai.timeout", defaults.OpenAI.Timeout.String())
	viper.SetDefault("memory.context_window", defaults.Memory.ContextWindow)
	viper.SetDefault("journal.enabled", defaults.Journal.Enabled)
	viper.SetDefault("journal.path", defaults.Journal.Path)
	viper.SetDefault("daemon.socket", defaults.Daemon.Socket)
	viper.SetDefault("prompt.context", defaults.Prompt.Context)

	viper.SetEnvPrefix("PARLOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file just means defaults
	_ = viper.ReadInConfig()
}

// loadSettings decodes the config file strictly, then layers viper's view
// (file, PARLOR_* env, flags) on top. The conventional OPENAI_API_KEY is
// used when no key is configured.
func loadSettings() (*config.Settings, error) {
	path := viper.ConfigFileUsed()
	if path == "" {
		var err error
		if path, err = config.GetConfigFile(); err != nil {
			return nil, err
		}
	}

	settings, err := config.LoadSettingsFrom(path)
	if err != nil {
		return nil, err
	}

	settings.OpenAI.APIKey = viper.GetString("openai.api_key")
	settings.OpenAI.BaseURL = viper.GetString("openai.base_url")
	settings.OpenAI.Model = viper.GetString("openai.model")
	settings.OpenAI.DecisionModel = viper.GetString("openai.decision_model")
	settings.OpenAI.Timeout.Duration = viper.GetDuration("openai.timeout")
	settings.Memory.ContextWindow = viper.GetInt("memory.context_window")
	settings.Journal.Enabled = viper.GetBool("journal.enabled")
	settings.Journal.Path = viper.GetString("journal.path")
	settings.Daemon.Socket = viper.GetString("daemon.socket")
	settings.Prompt.Context = viper.GetBool("prompt.context")

	if settings.OpenAI.APIKey == "" {
		settings.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	return settings, nil
}

// newLogger builds a production zap logger writing to stderr
func newLogger(level zapcore.Level) *zap.Logger {
	if debug {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
