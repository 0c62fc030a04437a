package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/me/mesas/internal/logging"
)

var (
	flagServer    string
	flagToken     string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default server URL, checking MESAS_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("MESAS_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for the mesas CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mesas",
		Short: "mesas: exam board scheduling",
		Long:  "mesas schedules exam boards, records examiner answers, and manages notifications.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLoggerWithWriter(logging.ParseLevel(flagLogLevel), flagLogFormat, cmd.ErrOrStderr())
			token := flagToken
			if token == "" {
				token = LoadToken()
			}
			client = NewClient(flagServer, token, logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "mesas server URL (or MESAS_SERVER env)")
	root.PersistentFlags().StringVar(&flagToken, "token", os.Getenv("MESAS_TOKEN"), "Admin token (or MESAS_TOKEN env, or saved by login)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newLoginCmd(),
		newListCmd(),
		newShowCmd(),
		newCreateCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
		newAnswerCmd(),
		newConfirmCmd(),
		newCancelCmd(),
		newReopenCmd(),
		newExaminerCmd(),
		newRemindersCmd(),
		newNotifierCmd(),
	)

	return root
}
