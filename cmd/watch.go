package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"md2rt/pkg/clipboard"
	"md2rt/pkg/config"
	"md2rt/pkg/errors"
	"md2rt/pkg/filter"
	"md2rt/pkg/logger"
	"md2rt/pkg/utils"
	"md2rt/pkg/watcher"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const previewWidth = 60

var watchCmd = NewCommand(
	"watch",
	"Convert Markdown copied to the clipboard into rich text",
	`Poll the clipboard and, whenever new Markdown text is copied, render it to
styled HTML and write the HTML back together with the original text.

Text that is not Markdown, already HTML, or identical to the last converted
text is left alone. The loop runs until interrupted (Ctrl+C or SIGTERM).`,
).WithExample(`  # Watch with the configured renderer
  md2rt watch

  # Show what would be converted without touching the clipboard
  md2rt watch --dry-run

  # Never convert one-time codes or anything mentioning a password
  md2rt watch --ignore 're:^\d{6}$' --ignore password

  # Work offline
  md2rt watch --renderer local --interval 500ms`).
	WithRendererFlags().
	WithArgsValidation(0).
	WithServices(runWatch).
	Build()

func runWatch(cmd *cobra.Command, args []string, svc *Services) error {
	cfg := svc.Config
	interval := cfg.Watch.Interval
	if cmd.Flags().Changed("interval") {
		interval, _ = cmd.Flags().GetDuration("interval")
	}
	dryRun := cfg.Watch.DryRun
	if cmd.Flags().Changed("dry-run") {
		dryRun, _ = cmd.Flags().GetBool("dry-run")
	}
	skipHTML := cfg.Watch.SkipHTML
	if cmd.Flags().Changed("skip-html") {
		skipHTML, _ = cmd.Flags().GetBool("skip-html")
	}

	rules := cfg.Watch.Ignore
	if cmd.Flags().Changed("ignore") {
		extra, _ := cmd.Flags().GetStringArray("ignore")
		rules = append(append([]string{}, rules...), extra...)
	}
	ignore, err := filter.NewSet(rules)
	if err != nil {
		return errors.ValidationError(fmt.Sprintf("invalid --ignore rule: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	clip := clipboard.New()
	w := watcher.New(clip, svc.Pipeline,
		watcher.WithInterval(interval),
		watcher.WithDryRun(dryRun),
		watcher.WithSkipHTML(skipHTML),
		watcher.WithIgnore(ignore.Ignores),
		watcher.WithLogger(logger.ForComponent("watcher")),
		watcher.WithEventHandler(func(ev watcher.Event) {
			printEvent(out, ev)
		}),
	)

	logger.Info().
		Str("backend", clip.Backend()).
		Str("renderer", cfg.Renderer.Kind).
		Dur("interval", w.Interval()).
		Bool("dry_run", dryRun).
		Int("ignore_rules", ignore.Len()).
		Msg("Starting watch")

	err = w.Run(ctx)
	printStats(out, w.Stats())
	return err
}

// printEvent reports the ticks a user cares about; skips stay in the debug log.
func printEvent(out io.Writer, ev watcher.Event) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	stamp := time.Now().Format("15:04:05")
	switch ev.Outcome {
	case watcher.OutcomeWritten:
		res := ev.Result
		_, _ = green.Fprintf(out, "%s ✓ converted", stamp)
		if res.Fallback {
			_, _ = yellow.Fprintf(out, " (fallback: %s)", res.Source)
		}
		fmt.Fprintf(out, " %s\n", utils.Preview(res.Original, previewWidth))
	case watcher.OutcomeDryRun:
		PrintDryRun(out, "%s would convert %s (%d bytes of HTML)", stamp, utils.Preview(ev.Result.Original, previewWidth), len(ev.Result.HTML))
	case watcher.OutcomeWriteFailed:
		_, _ = red.Fprintf(out, "%s ✗ clipboard write failed: %v\n", stamp, ev.Err)
	case watcher.OutcomePanic:
		_, _ = red.Fprintf(out, "%s ✗ conversion aborted: %v\n", stamp, ev.Err)
	}
}

func printStats(out io.Writer, s watcher.Stats) {
	if s.Changes == 0 {
		fmt.Fprintln(out, "Stopped. No clipboard changes seen.")
		return
	}
	fmt.Fprintf(out, "Stopped. %d %s, %d %s (%d written, %d dry-run, %d fallback), %d duplicate, %d skipped, %d failed.\n",
		s.Changes, utils.Plural(int(s.Changes), "change", "changes"),
		s.Conversions, utils.Plural(int(s.Conversions), "conversion", "conversions"),
		s.Written, s.DryRuns, s.Fallbacks,
		s.Duplicates, s.Skipped, s.Failures)
}

func init() {
	watchCmd.Flags().Duration("interval", config.DefaultInterval, "Clipboard polling interval")
	watchCmd.Flags().Bool("dry-run", false, "Log conversions without writing the clipboard")
	watchCmd.Flags().Bool("skip-html", false, "Ignore text that already looks like HTML")
	watchCmd.Flags().StringArray("ignore", nil, "Skip clipboard text matching this rule (contains:, exact:, prefix:, re:); repeatable")
}
