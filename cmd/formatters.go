package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"md2rt/pkg/clipboard"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatTable is the default human-readable format
	FormatTable OutputFormat = "table"
	// FormatJSON outputs as JSON
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs as YAML
	FormatYAML OutputFormat = "yaml"
)

// OutputWriter handles structured output formatting
type OutputWriter struct {
	format OutputFormat
	writer io.Writer
}

// NewOutputWriter creates a new output writer with the specified format
func NewOutputWriter(format string) *OutputWriter {
	f := OutputFormat(format)
	if f != FormatJSON && f != FormatYAML {
		f = FormatTable
	}
	return &OutputWriter{
		format: f,
		writer: os.Stdout,
	}
}

// outputFor returns a writer bound to the command's --format and stdout.
func outputFor(cmd *cobra.Command) *OutputWriter {
	format := outputFormat
	if f := cmd.Flag("format"); f != nil {
		format = f.Value.String()
	}
	w := NewOutputWriter(format)
	w.SetWriter(cmd.OutOrStdout())
	return w
}

// SetWriter sets a custom writer (used in tests)
func (w *OutputWriter) SetWriter(writer io.Writer) {
	w.writer = writer
}

func (w *OutputWriter) GetFormat() OutputFormat {
	return w.format
}

// IsStructured returns true if the format is JSON or YAML
func (w *OutputWriter) IsStructured() bool {
	return w.format == FormatJSON || w.format == FormatYAML
}

// Write outputs the data in the configured format. Table output is left to
// the individual commands.
func (w *OutputWriter) Write(data interface{}) error {
	switch w.format {
	case FormatJSON:
		encoder := json.NewEncoder(w.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case FormatYAML:
		encoder := yaml.NewEncoder(w.writer)
		defer encoder.Close()
		return encoder.Encode(data)
	default:
		return nil
	}
}

// Printf writes human-readable output; it is a no-op for structured formats.
func (w *OutputWriter) Printf(format string, args ...interface{}) {
	if w.IsStructured() {
		return
	}
	fmt.Fprintf(w.writer, format, args...)
}

func (w *OutputWriter) WriteBytes(data []byte) error {
	_, err := w.writer.Write(data)
	return err
}

// ValidFormats returns a list of valid output formats
func ValidFormats() []string {
	return []string{"table", "json", "yaml"}
}

// FormatDuration renders d rounded for humans: "850ms", "1.2s", "3m10s".
func FormatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(100 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}

func FormatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("02/01 15:04")
}

// CopyRichToClipboard copies html together with its plain-text source, so
// rich text editors paste the formatting and plain editors the Markdown.
func CopyRichToClipboard(html, plain string) error {
	return clipboard.New().Write(html, plain)
}

// ShouldCopyOutput reports whether the command's --copy flag is set.
func ShouldCopyOutput(cmd *cobra.Command) bool {
	if f := cmd.Flags().Lookup("copy"); f != nil {
		copyFlag, _ := cmd.Flags().GetBool("copy")
		return copyFlag
	}
	return false
}
