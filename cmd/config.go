package cmd

import (
	"fmt"
	"os"

	"md2rt/pkg/config"
	"md2rt/pkg/errors"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	configForce  bool
	configStdout bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage md2rt configuration",
	Long:  `Show the effective configuration, write a default config file, or print its path.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Display the configuration after the config file and MD2RT_* environment overrides are applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		w := outputFor(cmd)
		if w.IsStructured() {
			return w.Write(cfg)
		}

		path, _ := resolvedConfigPath()
		w.Printf("Current Configuration:\n")
		w.Printf("======================\n")
		w.Printf("Config file: %s%s\n", path, func() string {
			if _, err := os.Stat(path); err != nil {
				return " (not found, using defaults)"
			}
			return ""
		}())
		w.Printf("\n")
		w.Printf("Watch interval: %s\n", cfg.Watch.Interval)
		w.Printf("Dry run: %t\n", cfg.Watch.DryRun)
		w.Printf("Skip HTML: %t\n", cfg.Watch.SkipHTML)
		w.Printf("\n")
		w.Printf("Renderer: %s\n", cfg.Renderer.Kind)
		if cfg.Renderer.Kind == config.RendererRemote {
			w.Printf("Endpoint: %s\n", cfg.Renderer.Endpoint)
		}
		w.Printf("Timeout: %s\n", cfg.Renderer.Timeout)
		w.Printf("Fallback: %s\n", cfg.Renderer.Fallback)
		w.Printf("\n")
		if cfg.Cache.Enabled {
			w.Printf("Cache: %s (ttl %s)\n", cfg.CachePath(), cfg.Cache.TTL)
		} else {
			w.Printf("Cache: disabled\n")
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Example: `  # Create the default config file
  md2rt config init

  # Overwrite an existing file
  md2rt config init --force

  # Print the defaults instead of writing them
  md2rt config init --stdout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configStdout {
			text, err := configYAML(config.Default())
			if err != nil {
				return errors.NewWithError(errors.ExitCodeConfig, "failed to marshal config", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		}

		path, err := resolvedConfigPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return errors.NewWithSuggestion(errors.ExitCodeConfig,
				fmt.Sprintf("config file already exists: %s", path),
				"Use --force to overwrite it.")
		}

		if err := config.Save(config.Default(), path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolvedConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

// configYAML renders cfg the way `config init` writes it.
func configYAML(cfg *config.Config) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func resolvedConfigPath() (string, error) {
	if configFile != "" {
		return configFile, nil
	}
	path, err := config.GetConfigPath()
	if err != nil {
		return "", errors.NewWithError(errors.ExitCodeConfig, "failed to get config path", err)
	}
	return path, nil
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")
	configInitCmd.Flags().BoolVar(&configStdout, "stdout", false, "Print the default configuration instead of writing it")
}
