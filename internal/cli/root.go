package cli

import (
	"fmt"
	"log/slog"

	"github.com/me/gobank/internal/config"
	"github.com/me/gobank/internal/logging"
	"github.com/me/gobank/pkg/bankapi"
	"github.com/spf13/cobra"
)

var (
	flagConfig    string
	flagAuthURL   string
	flagBankURL   string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	cfg    config.ClientConfig
	logger *slog.Logger
	client *bankapi.Client
)

// NewRootCmd creates the root cobra command for the gobank CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gobank",
		Short: "Command-line client for the banking services",
		Long:  "gobank logs in to the auth service and manages accounts, transfers and groups on the banking service.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := flagConfig
			if path == "" {
				path = config.DefaultClientConfigPath()
			}
			c, err := config.LoadClientConfig(path)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("auth-url") {
				c.AuthURL = flagAuthURL
			}
			if flags.Changed("bank-url") {
				c.BankURL = flagBankURL
			}
			if flags.Changed("log-level") {
				c.LogLevel = flagLogLevel
			}
			if flags.Changed("log-format") {
				c.LogFormat = flagLogFormat
			}
			if err := c.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}
			cfg = c

			logger = logging.NewLoggerWithWriter(
				logging.ParseLevel(levelFor(cfg.LogLevel, flagDebug)), cfg.LogFormat, cmd.ErrOrStderr())
			client = bankapi.NewClient(bankapi.DefaultConfig().
				WithURLs(cfg.AuthURL, cfg.BankURL).
				WithTimeout(cfg.Timeout), logger)
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default ~/.gobank/config.yaml)")
	root.PersistentFlags().StringVar(&flagAuthURL, "auth-url", bankapi.DefaultAuthURL, "Auth service URL (or "+config.EnvAuthURL+" env)")
	root.PersistentFlags().StringVar(&flagBankURL, "bank-url", bankapi.DefaultBankURL, "Banking service URL (or "+config.EnvBankURL+" env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newShellCmd(),
		newRegisterCmd(),
	)

	return root
}

func levelFor(level string, debug bool) string {
	if debug {
		return "debug"
	}
	return level
}
