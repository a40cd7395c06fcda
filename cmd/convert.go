package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"md2rt/pkg/config"
	"md2rt/pkg/errors"
	"md2rt/pkg/logger"
	"md2rt/pkg/pipeline"
	"md2rt/pkg/progress"
	"md2rt/pkg/utils"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// ConvertOutput is the structured form of one converted input.
type ConvertOutput struct {
	Source string          `json:"source" yaml:"source"`
	Output string          `json:"output,omitempty" yaml:"output,omitempty"`
	Result pipeline.Result `json:"result" yaml:"result"`
}

var convertCmd = NewCommand(
	"convert [files...]",
	"Convert Markdown files or stdin to styled HTML",
	`Render Markdown once, outside the watch loop. Without files stdin is read.
The styled HTML goes to stdout, or to <output-dir>/<name>.html per input.
Files are converted concurrently; a render failure falls back exactly as in
watch mode.`,
).WithExample(`  # Convert stdin
  echo '# Title' | md2rt convert

  # Convert a set of files into a directory, 8 at a time
  md2rt convert docs/*.md --output-dir out --jobs 8

  # Convert and put the result on the clipboard
  md2rt convert notes.md --copy`).
	WithRendererFlags().
	WithArgsValidation(-1).
	WithServices(runConvert).
	Build()

type convertInput struct {
	source string
	text   string
}

func runConvert(cmd *cobra.Command, args []string, svc *Services) error {
	jobs, _ := cmd.Flags().GetInt("jobs")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	raw, _ := cmd.Flags().GetBool("raw")
	shouldCopy := ShouldCopyOutput(cmd)

	inputs, err := collectInputs(cmd, args)
	if err != nil {
		return err
	}
	if shouldCopy && len(inputs) != 1 {
		return errors.ValidationError("--copy needs exactly one input")
	}

	ctx, cancel := GetContext()
	defer cancel()

	results, err := convertAll(ctx, svc.Pipeline, inputs, jobs)
	if err != nil {
		return err
	}

	var names []string
	if outputDir != "" {
		names = htmlFileNames(inputs)
	}

	outputs := make([]ConvertOutput, len(results))
	for i, res := range results {
		outputs[i] = ConvertOutput{Source: inputs[i].source, Result: res}
		if outputDir != "" {
			path, err := writeHTMLFile(outputDir, names[i], pick(res, raw))
			if err != nil {
				return err
			}
			outputs[i].Output = path
		}
		if res.Fallback {
			logger.Warn().Str("source", inputs[i].source).Str("used", res.Source).Str("error", res.Err).Msg("Rendered with fallback")
		}
	}

	if shouldCopy {
		res := results[0]
		if err := CopyRichToClipboard(res.HTML, res.Original); err != nil {
			return errors.ClipboardError(errors.ErrMsgClipboardWrite, err)
		}
		fmt.Fprintln(os.Stderr, "✓ Copied to clipboard!")
	}

	w := outputFor(cmd)
	if w.IsStructured() {
		return w.Write(outputs)
	}
	return printConverted(w, outputs, raw)
}

func printConverted(w *OutputWriter, outputs []ConvertOutput, raw bool) error {
	for _, out := range outputs {
		if out.Output != "" {
			w.Printf("%s -> %s\n", out.Source, out.Output)
			continue
		}
		if len(outputs) > 1 {
			w.Printf("<!-- %s -->\n", out.Source)
		}
		w.Printf("%s\n", pick(out.Result, raw))
	}
	return nil
}

func pick(res pipeline.Result, raw bool) string {
	if raw {
		return res.RawHTML
	}
	return res.HTML
}

func collectInputs(cmd *cobra.Command, args []string) ([]convertInput, error) {
	if len(args) == 0 {
		source, text, err := readInput(cmd, nil)
		if err != nil {
			return nil, err
		}
		return []convertInput{{source: source, text: text}}, nil
	}

	var inputs []convertInput
	for _, path := range utils.Deduplicate(args) {
		source, text, err := readInput(cmd, []string{path})
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, convertInput{source: source, text: text})
	}
	return inputs, nil
}

// convertAll converts inputs with at most jobs conversions in flight and
// returns the results in input order.
func convertAll(ctx context.Context, p *pipeline.Pipeline, inputs []convertInput, jobs int) ([]pipeline.Result, error) {
	if jobs < 1 {
		jobs = 1
	}
	results := make([]pipeline.Result, len(inputs))

	if len(inputs) == 1 {
		err := progress.WithSpinner("Rendering "+inputs[0].source, func() error {
			results[0] = p.Convert(ctx, inputs[0].text)
			return ctx.Err()
		})
		if err != nil {
			return nil, errors.TimeoutError("conversion")
		}
		return results, nil
	}

	var bar *progress.Bar
	if progress.IsTerminal(os.Stderr) {
		bar = progress.NewBar(len(inputs), "Converting")
		defer bar.Finish()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.Convert(gctx, in.text)
			if bar != nil {
				bar.Increment(results[i].Fallback)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.TimeoutError("conversion")
	}
	return results, nil
}

// htmlFileNames maps each input to an output file name. Inputs sharing a
// base name get -1, -2, ... suffixes in argument order.
func htmlFileNames(inputs []convertInput) []string {
	names := make([]string, len(inputs))
	used := make(map[string]bool, len(inputs))
	for i, in := range inputs {
		base := "stdin"
		if in.source != "stdin" {
			base = strings.TrimSuffix(filepath.Base(in.source), filepath.Ext(in.source))
		}
		name := base + ".html"
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s-%d.html", base, n)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

func writeHTMLFile(dir, name, html string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.FileError("failed to create output directory", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return "", errors.FileError("failed to write "+path, err)
	}
	return path, nil
}

func init() {
	convertCmd.Flags().Int("jobs", config.DefaultConvertJobs, "Number of files converted concurrently")
	convertCmd.Flags().StringP("output-dir", "o", "", "Write <name>.html files here instead of stdout")
	convertCmd.Flags().Bool("raw", false, "Emit the renderer's HTML without clipboard styling")
	convertCmd.Flags().Bool("copy", false, "Copy the result to the clipboard as rich text")
}
