package cmd

import (
	"fmt"
	"io"
	"strconv"

	"md2rt/pkg/clipboard"
	"md2rt/pkg/config"
	"md2rt/pkg/detector"
	"md2rt/pkg/errors"
	"md2rt/pkg/filter"
	"md2rt/pkg/logger"
	"md2rt/pkg/pipeline"
	"md2rt/pkg/progress"
	"md2rt/pkg/utils"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"
)

const htmlPreviewLimit = 240

// InspectOutput is the debug view of one conversion.
type InspectOutput struct {
	Source        string          `json:"source" yaml:"source"`
	Backend       string          `json:"backend,omitempty" yaml:"backend,omitempty"`
	TextLength    int             `json:"text_length" yaml:"text_length"`
	Detection     DetectOutput    `json:"detection" yaml:"detection"`
	Result        pipeline.Result `json:"result" yaml:"result"`
	HTMLPreview   string          `json:"html_preview" yaml:"html_preview"`
	RoundTrip     string          `json:"round_trip,omitempty" yaml:"round_trip,omitempty"`
	RoundTripErr  string          `json:"round_trip_error,omitempty" yaml:"round_trip_error,omitempty"`
	WouldConvert  bool            `json:"would_convert" yaml:"would_convert"`
	SkippedReason string          `json:"skipped_reason,omitempty" yaml:"skipped_reason,omitempty"`
}

var inspectCmd = NewCommand(
	"inspect [file]",
	"Show how the current clipboard would be converted",
	`Read the clipboard (or a file), run detection and the full conversion
pipeline without writing anything, and print a Markdown report with the
matched signals, the HTML produced and the Markdown recovered from that HTML.`,
).WithExample(`  # Inspect what is on the clipboard now
  md2rt inspect

  # Inspect a file with the offline renderer, as JSON
  md2rt inspect notes.md --renderer local --format json`).
	WithRendererFlags().
	WithArgsValidation(1).
	WithServices(runInspect).
	Build()

func runInspect(cmd *cobra.Command, args []string, svc *Services) error {
	var (
		source, text, backend string
		err                   error
	)
	if len(args) == 1 {
		source, text, err = readFile(args[0])
		if err != nil {
			return err
		}
	} else {
		clip := clipboard.New()
		backend = clip.Backend()
		text, err = clip.ReadText()
		if err != nil {
			return errors.ClipboardError(errors.ErrMsgClipboardRead, err)
		}
		source = "clipboard"
	}

	ctx, cancel := GetContext()
	defer cancel()

	var res pipeline.Result
	err = progress.WithSpinner("Rendering", func() error {
		res = svc.Pipeline.Convert(ctx, text)
		return nil
	})
	if err != nil {
		return err
	}

	out := inspect(source, text, res, svc.Config.Watch)
	out.Backend = backend

	w := outputFor(cmd)
	if w.IsStructured() {
		return w.Write(out)
	}
	return writeInspectReport(cmd.OutOrStdout(), out)
}

// inspect assembles the report for text and its conversion.
func inspect(source, text string, res pipeline.Result, watch config.WatchConfig) InspectOutput {
	out := InspectOutput{
		Source:      source,
		TextLength:  len(text),
		Detection:   detectText(source, text),
		Result:      res,
		HTMLPreview: utils.Preview(res.HTML, htmlPreviewLimit),
	}

	// Rules were validated with the config.
	ignore, _ := filter.NewSet(watch.Ignore)
	rule, ignored := ignore.Match(text)

	switch {
	case text == "":
		out.SkippedReason = "empty"
	case ignored:
		out.SkippedReason = "ignore rule " + rule.String()
	case watch.SkipHTML && out.Detection.LooksLikeHTML:
		out.SkippedReason = "already HTML"
	case !out.Detection.IsMarkdown:
		out.SkippedReason = "not Markdown"
	default:
		out.WouldConvert = true
	}

	md, err := pipeline.RoundTrip(res.RawHTML)
	if err != nil {
		logger.Debug().Err(err).Msg("Round trip failed")
		out.RoundTripErr = err.Error()
	} else {
		out.RoundTrip = md
	}
	return out
}

func writeInspectReport(w io.Writer, out InspectOutput) error {
	md := markdown.NewMarkdown(w)

	md.H1("md2rt inspect")
	md.PlainText("")

	verdict := "✅ would convert"
	if !out.WouldConvert {
		verdict = "⏭️ skipped: " + out.SkippedReason
	}
	rows := [][]string{
		{"Source", out.Source},
		{"Text length", strconv.Itoa(out.TextLength)},
		{"Watcher", verdict},
	}
	if out.Backend != "" {
		rows = append(rows, []string{"Clipboard backend", out.Backend})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	md.H2("Detection")
	md.PlainText("")
	if len(out.Detection.Signals) == 0 {
		md.PlainText("No Markdown signals matched.")
	} else {
		signalRows := make([][]string, 0, len(out.Detection.Signals))
		for _, s := range out.Detection.Signals {
			strength := "weak"
			if detector.IsStrong(s) {
				strength = "strong"
			}
			signalRows = append(signalRows, []string{"`" + string(s) + "`", strength})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Signal", "Strength"},
			Rows:   signalRows,
		})
	}
	if out.Detection.LooksLikeHTML {
		md.PlainText("")
		md.Note("The text already looks like HTML.")
	}
	md.PlainText("")

	res := out.Result
	md.H2("Conversion")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"ID", "`" + res.ID + "`"},
			{"Rendered by", res.Source},
			{"Duration", FormatDuration(res.Duration)},
			{"HTML length", strconv.Itoa(len(res.HTML))},
		},
	})
	md.PlainText("")
	if res.Fallback {
		md.Warningf("Renderer failed, fallback used: %s", res.Err)
		md.PlainText("")
	}

	md.H3("HTML preview")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlight("html"), out.HTMLPreview)
	md.PlainText("")

	md.H3("Round trip")
	md.PlainText("")
	if out.RoundTripErr != "" {
		md.PlainText(fmt.Sprintf("Could not convert the HTML back: %s", out.RoundTripErr))
	} else {
		md.CodeBlocks(markdown.SyntaxHighlight("markdown"), out.RoundTrip)
	}

	return md.Build()
}
