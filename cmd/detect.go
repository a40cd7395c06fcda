package cmd

import (
	"io"
	"os"
	"strings"

	"md2rt/pkg/detector"
	"md2rt/pkg/errors"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// DetectOutput is the structured form of `md2rt detect`.
type DetectOutput struct {
	Source        string            `json:"source" yaml:"source"`
	IsMarkdown    bool              `json:"is_markdown" yaml:"is_markdown"`
	LooksLikeHTML bool              `json:"looks_like_html" yaml:"looks_like_html"`
	Signals       []detector.Signal `json:"signals" yaml:"signals"`
	Strong        []detector.Signal `json:"strong" yaml:"strong"`
}

var detectCmd = NewCommand(
	"detect [file]",
	"Report whether text looks like Markdown",
	`Classify a file, or stdin when no file is given, with the same heuristics
the watcher uses, and list the Markdown signals that matched.`,
).WithExample(`  # Check a file
  md2rt detect notes.md

  # Check piped text as JSON
  pbpaste | md2rt detect --format json`).
	WithArgsValidation(1).
	WithRun(func(cmd *cobra.Command, args []string) error {
		source, text, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		return writeDetect(outputFor(cmd), detectText(source, text))
	}).
	Build()

func detectText(source, text string) DetectOutput {
	report := detector.Detect(text)
	out := DetectOutput{
		Source:        source,
		IsMarkdown:    report.IsMarkdown,
		LooksLikeHTML: detector.LooksLikeHTML(text),
		Signals:       report.Signals,
		Strong:        report.Strong,
	}
	if out.Signals == nil {
		out.Signals = []detector.Signal{}
	}
	if out.Strong == nil {
		out.Strong = []detector.Signal{}
	}
	return out
}

func writeDetect(w *OutputWriter, out DetectOutput) error {
	if w.IsStructured() {
		return w.Write(out)
	}

	verdict := color.New(color.FgRed).Sprint("not Markdown")
	if out.IsMarkdown {
		verdict = color.New(color.FgGreen).Sprint("Markdown")
	}
	w.Printf("%s: %s\n", out.Source, verdict)
	if out.LooksLikeHTML {
		w.Printf("  already HTML\n")
	}
	if len(out.Signals) == 0 {
		w.Printf("  no signals\n")
		return nil
	}
	for _, s := range out.Signals {
		strength := "weak"
		if detector.IsStrong(s) {
			strength = "strong"
		}
		w.Printf("  %-16s %s\n", s, strength)
	}
	return nil
}

// readInput returns the named file, or stdin for no argument or "-".
func readInput(cmd *cobra.Command, args []string) (string, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", errors.FileError("failed to read stdin", err)
		}
		return "stdin", string(data), nil
	}
	return readFile(args[0])
}

func readFile(path string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", errors.FileError("failed to read "+path, err)
	}
	return path, strings.TrimPrefix(string(data), "\ufeff"), nil
}
