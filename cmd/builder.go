package cmd

import (
	"fmt"

	"md2rt/pkg/config"

	"github.com/spf13/cobra"
)

type CommandBuilder struct {
	cmd *cobra.Command
}

func NewCommand(name, short, long string) *CommandBuilder {
	return &CommandBuilder{
		cmd: &cobra.Command{
			Use:     name,
			Short:   short,
			Long:    long,
			Example: "",
		},
	}
}

func (b *CommandBuilder) WithExample(example string) *CommandBuilder {
	b.cmd.Example = example
	return b
}

func (b *CommandBuilder) WithRun(fn func(cmd *cobra.Command, args []string) error) *CommandBuilder {
	b.cmd.RunE = fn
	return b
}

// WithConfig loads the configuration, applies the renderer flags the command
// declares, and hands the result to fn.
func (b *CommandBuilder) WithConfig(fn func(cmd *cobra.Command, args []string, cfg *config.Config) error) *CommandBuilder {
	b.cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := applyRendererFlags(cmd, cfg); err != nil {
			return err
		}
		return fn(cmd, args, cfg)
	}
	return b
}

// WithServices builds the conversion services on top of WithConfig and
// releases them when fn returns.
func (b *CommandBuilder) WithServices(fn func(cmd *cobra.Command, args []string, svc *Services) error) *CommandBuilder {
	return b.WithConfig(func(cmd *cobra.Command, args []string, cfg *config.Config) error {
		noCache, _ := cmd.Flags().GetBool("no-cache")
		svc, err := NewServices(cfg, noCache)
		if err != nil {
			return err
		}
		defer svc.Close()
		return fn(cmd, args, svc)
	})
}

func (b *CommandBuilder) WithRendererFlags() *CommandBuilder {
	addRendererFlags(b.cmd)
	return b
}

func (b *CommandBuilder) WithArgsValidation(maxArgs int) *CommandBuilder {
	b.cmd.Args = func(cmd *cobra.Command, args []string) error {
		if maxArgs >= 0 && len(args) > maxArgs {
			return fmt.Errorf("accepts at most %d argument(s), received %d", maxArgs, len(args))
		}
		return nil
	}
	return b
}

func (b *CommandBuilder) Build() *cobra.Command {
	return b.cmd
}

func addRendererFlags(cmd *cobra.Command) {
	cmd.Flags().String("renderer", "", "Renderer to use (remote, local)")
	cmd.Flags().String("endpoint", "", "Remote renderer URL")
	cmd.Flags().String("fallback", "", "Fallback when rendering fails (paragraph, local)")
	cmd.Flags().Bool("no-cache", false, "Bypass the render cache")
}

// applyRendererFlags copies explicitly set renderer flags over cfg and
// validates the result.
func applyRendererFlags(cmd *cobra.Command, cfg *config.Config) error {
	changed := false
	if f := cmd.Flags().Lookup("renderer"); f != nil && f.Changed {
		cfg.Renderer.Kind = f.Value.String()
		changed = true
	}
	if f := cmd.Flags().Lookup("endpoint"); f != nil && f.Changed {
		cfg.Renderer.Endpoint = f.Value.String()
		changed = true
	}
	if f := cmd.Flags().Lookup("fallback"); f != nil && f.Changed {
		cfg.Renderer.Fallback = f.Value.String()
		changed = true
	}
	if !changed {
		return nil
	}
	return cfg.Validate()
}
