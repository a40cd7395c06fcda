// Package errors defines the errors md2rt commands return and the process
// exit code each one maps to.
package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"md2rt/pkg/logger"

	"github.com/fatih/color"
)

type ExitCode int

const (
	ExitCodeSuccess       ExitCode = 0
	ExitCodeGeneral       ExitCode = 1
	ExitCodeConfig        ExitCode = 2
	ExitCodeClipboard     ExitCode = 3
	ExitCodeValidation    ExitCode = 5
	ExitCodeFileOperation ExitCode = 6
	ExitCodeCancellation  ExitCode = 7
	ExitCodeTimeout       ExitCode = 8
	ExitCodeCache         ExitCode = 9
)

const (
	ErrMsgClipboardRead  = "Failed to read clipboard"
	ErrMsgClipboardWrite = "Failed to write clipboard"
	ErrMsgCacheFailed    = "Render cache operation failed"
)

type Error struct {
	Code       ExitCode
	Message    string
	Underlying error
	Suggestion string
}

func (e *Error) Error() string {
	if e.Underlying == nil {
		return e.Message
	}
	return e.Message + ": " + e.Underlying.Error()
}

func (e *Error) Unwrap() error { return e.Underlying }

func New(code ExitCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func NewWithError(code ExitCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Underlying: err}
}

func NewWithSuggestion(code ExitCode, message, suggestion string) *Error {
	return &Error{Code: code, Message: message, Suggestion: suggestion}
}

// Wrap prefixes message onto err. A typed error keeps its code and
// suggestion; anything else becomes ExitCodeGeneral.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return &Error{
			Code:       e.Code,
			Message:    message + ": " + e.Message,
			Underlying: e.Underlying,
			Suggestion: e.Suggestion,
		}
	}
	return &Error{Code: ExitCodeGeneral, Message: message, Underlying: err}
}

// CodeOf returns the exit code carried anywhere in err's chain, or
// ExitCodeGeneral.
func CodeOf(err error) ExitCode {
	if err == nil {
		return ExitCodeSuccess
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ExitCodeGeneral
}

func IsExitCode(err error, code ExitCode) bool {
	return err != nil && CodeOf(err) == code
}

// HandleReturn logs err, prints it to stderr and returns the exit code the
// process should terminate with. The caller owns os.Exit.
func HandleReturn(err error) ExitCode {
	return handleTo(os.Stderr, err)
}

func handleTo(w io.Writer, err error) ExitCode {
	if err == nil {
		return ExitCodeSuccess
	}

	var e *Error
	if !stderrors.As(err, &e) {
		e = &Error{Code: ExitCodeGeneral, Message: err.Error()}
	}

	ev := logger.Error().Int("exit_code", int(e.Code))
	if e.Underlying != nil {
		ev = ev.Err(e.Underlying)
	}
	ev.Msg(e.Message)

	fmt.Fprintln(w)
	color.New(color.FgRed, color.Bold).Fprint(w, "Error: ")
	fmt.Fprintln(w, err.Error())
	if e.Suggestion != "" {
		printSuggestion(w, e.Suggestion)
	}
	fmt.Fprintln(w)

	return e.Code
}

// printSuggestion indents continuation lines under the label; lines that
// start with "  -" are list items and are highlighted instead.
func printSuggestion(w io.Writer, suggestion string) {
	const label = "Suggestion: "
	indent := strings.Repeat(" ", len(label))

	first, rest, _ := strings.Cut(suggestion, "\n")
	color.New(color.FgYellow).Fprint(w, label)
	fmt.Fprintln(w, first)
	if rest == "" {
		return
	}
	item := color.New(color.FgCyan)
	for _, line := range strings.Split(rest, "\n") {
		if strings.HasPrefix(line, "  -") {
			item.Fprintln(w, line)
			continue
		}
		fmt.Fprintln(w, indent+line)
	}
}

func ClipboardError(message string, err error) *Error {
	return &Error{
		Code:       ExitCodeClipboard,
		Message:    message,
		Underlying: err,
		Suggestion: "Make sure a clipboard is available (macOS pasteboard, a Wayland compositor with wlr-data-control, or xclip/xsel on X11).",
	}
}

func CacheError(err error) *Error {
	return &Error{
		Code:       ExitCodeCache,
		Message:    ErrMsgCacheFailed,
		Underlying: err,
		Suggestion: "Run 'md2rt cache clear' or disable the cache with --no-cache.",
	}
}

func ConfigError(message string) *Error {
	return &Error{
		Code:       ExitCodeConfig,
		Message:    message,
		Suggestion: "Check your configuration file ('md2rt config path') or the MD2RT_* environment variables.",
	}
}

func ValidationError(message string) *Error {
	return New(ExitCodeValidation, message)
}

func FileError(message string, err error) *Error {
	return NewWithError(ExitCodeFileOperation, message, err)
}

func TimeoutError(operation string) *Error {
	return NewWithSuggestion(ExitCodeTimeout,
		"Operation timed out: "+operation,
		"Try again with a longer timeout using --timeout.")
}

func CancelledError(operation string) *Error {
	return NewWithSuggestion(ExitCodeCancellation,
		"Operation cancelled: "+operation,
		"The operation was interrupted. The clipboard was left untouched.")
}
