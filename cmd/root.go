package cmd

import (
	"io"
	"os"

	"github.com/nijaru/yt-summary/config"
	"github.com/nijaru/yt-summary/logger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var Version = "dev"

var rootFlags struct {
	relayURL string
	dbPath   string
	logLevel string
}

var (
	cfg *config.Config
	log *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:           "yt-summary",
	Short:         "Summarize YouTube videos from their captions and ask follow-up questions.",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd.ErrOrStderr())
	},
}

// setup loads configuration, applies flag overrides and builds the logger.
// Logs go to stderr so command output on stdout stays clean.
func setup(console io.Writer) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}
	if cfg.Version == "dev" {
		cfg.Version = Version
	}

	if rootFlags.relayURL != "" {
		cfg.Client.RelayURL = rootFlags.relayURL
	}
	if rootFlags.dbPath != "" {
		cfg.Client.DBPath = rootFlags.dbPath
	}
	if rootFlags.logLevel != "" {
		cfg.LogLevel = rootFlags.logLevel
	}

	log, err = logger.New(logger.Options{
		Dir:     cfg.LogDir,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Console: console,
	})
	if err != nil {
		return err
	}
	logrus.SetLevel(log.GetLevel())
	logrus.SetOutput(console)
	return nil
}

func Execute() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.relayURL, "relay", "", "Relay base URL (overrides RELAY_URL)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.dbPath, "db", "", "Path of the local state database (overrides DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")

	rootCmd.AddCommand(serveCmd, transcriptCmd, summarizeCmd, askCmd, keyCmd)
}
