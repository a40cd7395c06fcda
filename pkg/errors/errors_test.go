package errors

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "basic error without underlying",
			err:      &Error{Code: ExitCodeGeneral, Message: "test error"},
			expected: "test error",
		},
		{
			name:     "error with underlying",
			err:      &Error{Code: ExitCodeConfig, Message: "config error", Underlying: errors.New("file not found")},
			expected: "config error: file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := ClipboardError(ErrMsgClipboardRead, underlying)

	if !errors.Is(err, underlying) {
		t.Errorf("errors.Is(%v, underlying) = false, want true", err)
	}
}

func TestWrap(t *testing.T) {
	err := Wrap(errors.New("original error"), "wrapped message")
	if err.Error() != "wrapped message: original error" {
		t.Errorf("Error() = %q, want %q", err.Error(), "wrapped message: original error")
	}
	if err.Code != ExitCodeGeneral {
		t.Errorf("Code = %d, want %d", err.Code, ExitCodeGeneral)
	}
	if Wrap(nil, "message") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrapPreservesCode(t *testing.T) {
	err := Wrap(New(ExitCodeClipboard, "no pasteboard"), "watch")

	if err.Code != ExitCodeClipboard {
		t.Errorf("Code = %d, want %d", err.Code, ExitCodeClipboard)
	}
	if err.Message != "watch: no pasteboard" {
		t.Errorf("Message = %q, want %q", err.Message, "watch: no pasteboard")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ExitCode
	}{
		{name: "nil", err: nil, want: ExitCodeSuccess},
		{name: "plain", err: errors.New("plain"), want: ExitCodeGeneral},
		{name: "typed", err: ConfigError("bad"), want: ExitCodeConfig},
		{name: "wrapped with fmt", err: fmt.Errorf("load: %w", CacheError(errors.New("locked"))), want: ExitCodeCache},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsExitCode(t *testing.T) {
	err := New(ExitCodeTimeout, "render timed out")

	if !IsExitCode(err, ExitCodeTimeout) {
		t.Error("IsExitCode() should return true for matching code")
	}
	if IsExitCode(err, ExitCodeConfig) {
		t.Error("IsExitCode() should return false for non-matching code")
	}
	if IsExitCode(nil, ExitCodeSuccess) {
		t.Error("IsExitCode() should return false for nil error")
	}
}

func TestHandleTo(t *testing.T) {
	color.NoColor = true

	t.Run("nil error", func(t *testing.T) {
		var buf bytes.Buffer
		if code := handleTo(&buf, nil); code != ExitCodeSuccess {
			t.Errorf("code = %d, want %d", code, ExitCodeSuccess)
		}
		if buf.Len() != 0 {
			t.Errorf("expected no output, got %q", buf.String())
		}
	})

	t.Run("structured error with suggestion", func(t *testing.T) {
		var buf bytes.Buffer
		err := NewWithSuggestion(ExitCodeConfig, "configuration missing", "Run md2rt config init\n  - or set MD2RT_RENDERER_URL\nthen retry")
		if code := handleTo(&buf, err); code != ExitCodeConfig {
			t.Errorf("code = %d, want %d", code, ExitCodeConfig)
		}
		out := buf.String()
		for _, want := range []string{
			"Error: configuration missing",
			"Suggestion: Run md2rt config init",
			"\n  - or set MD2RT_RENDERER_URL\n",
			"\n            then retry\n",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q: %q", want, out)
			}
		}
	})

	t.Run("wrapped typed error", func(t *testing.T) {
		var buf bytes.Buffer
		err := fmt.Errorf("watch: %w", ClipboardError(ErrMsgClipboardRead, errors.New("no display")))
		if code := handleTo(&buf, err); code != ExitCodeClipboard {
			t.Errorf("code = %d, want %d", code, ExitCodeClipboard)
		}
		if !strings.Contains(buf.String(), "Error: watch: Failed to read clipboard: no display") {
			t.Errorf("output = %q", buf.String())
		}
	})

	t.Run("plain error", func(t *testing.T) {
		var buf bytes.Buffer
		if code := handleTo(&buf, errors.New("boom")); code != ExitCodeGeneral {
			t.Errorf("code = %d, want %d", code, ExitCodeGeneral)
		}
		if strings.Contains(buf.String(), "Suggestion") {
			t.Errorf("plain error printed a suggestion: %q", buf.String())
		}
	})
}

func TestHelperFunctions(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		code ExitCode
	}{
		{name: "ClipboardError", err: ClipboardError(ErrMsgClipboardWrite, errors.New("no display")), code: ExitCodeClipboard},
		{name: "CacheError", err: CacheError(errors.New("locked")), code: ExitCodeCache},
		{name: "ConfigError", err: ConfigError("invalid yaml"), code: ExitCodeConfig},
		{name: "ValidationError", err: ValidationError("interval must be positive"), code: ExitCodeValidation},
		{name: "FileError", err: FileError("cannot read", errors.New("denied")), code: ExitCodeFileOperation},
		{name: "TimeoutError", err: TimeoutError("render"), code: ExitCodeTimeout},
		{name: "CancelledError", err: CancelledError("watch"), code: ExitCodeCancellation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("%s() code = %d, want %d", tt.name, tt.err.Code, tt.code)
			}
		})
	}
}
