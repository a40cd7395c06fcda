package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"md2rt/pkg/completions"
	"md2rt/pkg/config"
	"md2rt/pkg/errors"
	"md2rt/pkg/logger"

	"github.com/spf13/cobra"
)

const (
	unknownValue = "unknown"
)

var (
	Version   string
	BuildTime string
	GitCommit string
)

var defaultTimeout = 30 * time.Second
var globalTimeout time.Duration
var outputFormat string
var assumeYesFlag bool
var logLevel string
var configFile string

// activeConfig is loaded once per process by loadConfig.
var activeConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "md2rt",
	Short: "Clipboard Markdown to rich text converter",
	Long: `md2rt watches the clipboard for Markdown, renders it to styled HTML and
writes the HTML back next to the original text, so pasting into a rich text
editor keeps headings, lists and code blocks.
Configuration lives in the XDG config directory; renders are cached in SQLite.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if globalTimeout <= 0 {
			globalTimeout = defaultTimeout
		}
		// Explicit flag, then env var, then the config file.
		level := logLevel
		if !cmd.Flags().Changed("log-level") {
			if envLevel := os.Getenv("MD2RT_LOG_LEVEL"); envLevel != "" {
				level = envLevel
			} else if cfg, err := loadConfig(); err == nil && cfg.LogLevel != "" {
				level = cfg.LogLevel
			}
		}
		logger.SetLevel(level)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		ver := Version
		if ver == "" {
			ver = "dev"
		}
		bt := BuildTime
		if bt == "" {
			bt = unknownValue
		}
		gc := GitCommit
		if gc == "" {
			gc = unknownValue
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "md2rt version %s\n", ver)
		fmt.Fprintf(out, "Built: %s\n", bt)
		fmt.Fprintf(out, "Git commit: %s\n", gc)
	},
}

func Execute() {
	// Subcommand flags are declared in their own init functions, so
	// completion registration has to wait until all of them ran.
	completions.RegisterCompletions(rootCmd, ValidFormats())

	if err := rootCmd.Execute(); err != nil {
		exitCode := errors.HandleReturn(err)
		os.Exit(int(exitCode))
	}
}

func GetContext() (context.Context, context.CancelFunc) {
	timeout := globalTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}

// loadConfig reads the configuration selected by --config.
func loadConfig() (*config.Config, error) {
	if activeConfig != nil {
		return activeConfig, nil
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	activeConfig = cfg
	return cfg, nil
}

func init() {
	RegisterCommands(rootCmd)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/md2rt/config.yaml)")
	rootCmd.PersistentFlags().DurationVar(&globalTimeout, "timeout", defaultTimeout, "Overall timeout for one-shot commands (e.g., 30s, 1m)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVarP(&assumeYesFlag, "yes", "y", false, "Skip confirmation prompts")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error, quiet)")
}
