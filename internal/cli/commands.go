// Package cli is the cobra-based terminal front end for the desk.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qiuyin/AgentDesk/internal/config"
	"github.com/qiuyin/AgentDesk/internal/locales"
	"github.com/qiuyin/AgentDesk/internal/logger"
	"github.com/qiuyin/AgentDesk/internal/trading"
)

const version = "1.0.0"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cfg := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "agentdesk",
		Short: "AgentDesk - multi-agent crypto trading analysis",
		Long: `AgentDesk runs a simulated trading desk over live market data: five
analysts, two managers, a risk manager and a CEO, each a language model
call, producing one structured trading decision.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := buildLogger(cmd, cfg)
			if err != nil {
				return err
			}
			defer log.Sync()
			return runInteractive(cmd.Context(), cfg, log)
		},
	}

	rootCmd.AddCommand(newAnalyzeCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(cfg))

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("lang", "", "Display language (en or zh)")

	return rootCmd
}

func buildLogger(cmd *cobra.Command, cfg *config.Config) (*zap.Logger, error) {
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Debug = true
	}
	if lang, _ := cmd.Flags().GetString("lang"); lang != "" {
		cfg.Language = string(locales.Parse(lang))
	}
	return logger.New(cfg.LogLevel, cfg.Debug)
}

// newAnalyzeCmd runs one non-interactive analysis and prints the decision.
func newAnalyzeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [SYMBOL]",
		Short: "Run one analysis for a trading pair",
		Long: `Run the full desk once for a trading pair and print the decision.
Example: agentdesk analyze ETHUSDT --interval=4h`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				cfg.Symbol = args[0]
			}
			if interval, _ := cmd.Flags().GetString("interval"); interval != "" {
				cfg.Interval = interval
			}
			jsonOut, _ := cmd.Flags().GetBool("json")

			log, err := buildLogger(cmd, cfg)
			if err != nil {
				return err
			}
			defer log.Sync()

			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			session, err := trading.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer session.Close()

			if err := session.SetInstrument(ctx, cfg.Symbol); err != nil {
				return fmt.Errorf("load %s: %w", cfg.Symbol, err)
			}

			result, err := session.Analyze(ctx)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(result.Decision)
			}
			lang := locales.Parse(cfg.Language)
			fmt.Println(RenderDesk(result.States))
			fmt.Println(RenderDecision(result.Decision, lang))
			return nil
		},
	}

	cmd.Flags().String("interval", "", "Candle interval (1m, 15m, 1h, 4h, 1d)")
	cmd.Flags().Bool("json", false, "Print the decision as JSON")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("AgentDesk v%s\n", version)
		},
	}
}

func newConfigCmd(cfg *config.Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			redacted := *cfg
			if redacted.OpenAIAPIKey != "" {
				redacted.OpenAIAPIKey = "***"
			}
			if redacted.DeepSeekAPIKey != "" {
				redacted.DeepSeekAPIKey = "***"
			}
			if redacted.EtherscanKey != "" {
				redacted.EtherscanKey = "***"
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(redacted)
		},
	})

	return configCmd
}
