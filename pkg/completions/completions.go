package completions

import (
	"fmt"
	"strings"

	"md2rt/pkg/config"
	"md2rt/pkg/logger"

	"github.com/spf13/cobra"
)

type Completer struct {
	formats []string
}

func NewCompleter(formats []string) *Completer {
	return &Completer{formats: formats}
}

func (c *Completer) CompleteFormat(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return describe(c.filterPrefix(c.formats, toComplete), getFormatDescription), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteLogLevel(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return c.filterPrefix(logger.ValidLevels(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteRenderer(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	kinds := []string{
		config.RendererRemote + "\tPOST to the conversion endpoint",
		config.RendererLocal + "\tBuilt-in offline renderer",
	}
	return c.filterPrefix(kinds, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteFallback(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	fallbacks := []string{
		config.FallbackParagraph + "\tWrap the escaped text in one paragraph",
		config.FallbackLocal + "\tRender with the built-in renderer",
	}
	return c.filterPrefix(fallbacks, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// CompleteMarkdownFiles limits file completion to Markdown extensions.
func (c *Completer) CompleteMarkdownFiles(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"md", "markdown", "txt"}, cobra.ShellCompDirectiveFilterFileExt
}

func (c *Completer) filterPrefix(items []string, prefix string) []string {
	var result []string
	for _, item := range items {
		itemName := strings.Split(item, "\t")[0]
		if strings.HasPrefix(strings.ToLower(itemName), strings.ToLower(prefix)) {
			result = append(result, item)
		}
	}
	return result
}

func describe(items []string, fn func(string) string) []string {
	for i, item := range items {
		if d := fn(item); d != "" {
			items[i] = fmt.Sprintf("%s\t%s", item, d)
		}
	}
	return items
}

func getFormatDescription(format string) string {
	switch format {
	case "table":
		return "Human-readable output"
	case "json":
		return "JSON for scripts"
	case "yaml":
		return "YAML for scripts"
	case "markdown":
		return "Markdown report"
	default:
		return ""
	}
}

// RegisterCompletions wires flag completion for the root command and every
// subcommand that declares a matching flag.
func RegisterCompletions(rootCmd *cobra.Command, formats []string) {
	completer := NewCompleter(formats)

	rootCmd.RegisterFlagCompletionFunc("format", completer.CompleteFormat)       //nolint:errcheck
	rootCmd.RegisterFlagCompletionFunc("log-level", completer.CompleteLogLevel) //nolint:errcheck

	for _, path := range [][]string{{"watch"}, {"convert"}, {"inspect"}} {
		sub, _, err := rootCmd.Find(path)
		if err != nil || sub == nil || sub == rootCmd {
			continue
		}
		if sub.Flags().Lookup("renderer") != nil {
			sub.RegisterFlagCompletionFunc("renderer", completer.CompleteRenderer) //nolint:errcheck
		}
		if sub.Flags().Lookup("fallback") != nil {
			sub.RegisterFlagCompletionFunc("fallback", completer.CompleteFallback) //nolint:errcheck
		}
	}

	for _, path := range [][]string{{"detect"}, {"convert"}} {
		if sub, _, err := rootCmd.Find(path); err == nil && sub != nil && sub != rootCmd {
			sub.ValidArgsFunction = completer.CompleteMarkdownFiles
		}
	}
}
