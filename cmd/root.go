package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingoz/internal/logging"
	"github.com/abhisek/lingoz/internal/store"
)

// logFile is closed once the command finishes.
var logFile io.Closer

var rootCmd = &cobra.Command{
	Use:   "lingoz",
	Short: "English practice in the terminal",
	Long: "lingoz: interactive English lessons in the terminal: quizzes, dictation, " +
		"sorting, flashcards and sentence builders, read aloud in a US or British accent.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		if level == "" {
			level = os.Getenv("LINGOZ_LOG_LEVEL")
		}
		f, err := setupLogging(level)
		if err != nil {
			return err
		}
		logFile = f
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, "")
	},
}

// setupLogging opens the log file in the data directory. Only a bad level is
// an error; when the file cannot be opened logging is discarded.
func setupLogging(level string) (io.Closer, error) {
	if _, err := logging.ParseLevel(level); err != nil {
		return nil, err
	}
	dir, err := store.DataDir()
	if err != nil {
		logging.Discard()
		return nil, nil
	}
	f, err := logging.Setup(dir, level)
	if err != nil {
		logging.Discard()
		return nil, nil
	}
	return f, nil
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides LINGOZ_DB env var)")
	pf.StringSlice("lessons", nil, "Extra lesson pack directories (also LINGOZ_LESSONS, colon separated)")
	pf.String("accent", "", "Default speech accent: us or gb (overrides LINGOZ_ACCENT)")
	pf.Bool("mute", false, "Disable speech")
	pf.String("log-level", "", "Log level: debug, info, warn, error (overrides LINGOZ_LOG_LEVEL)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(lessonsCmd)
	rootCmd.AddCommand(sayCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then LINGOZ_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
