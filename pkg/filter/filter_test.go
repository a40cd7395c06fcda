package filter

import (
	"strings"
	"testing"
)

func TestNewStringFilter(t *testing.T) {
	tests := []struct {
		name      string
		pattern   string
		mode      FilterMode
		wantErr   bool
		errString string
	}{
		{name: "valid exact filter", pattern: "test", mode: FilterModeExact},
		{name: "valid contains filter", pattern: "test", mode: FilterModeContains},
		{name: "valid regex filter", pattern: "^test$", mode: FilterModeRegex},
		{name: "invalid regex filter", pattern: "[invalid(", mode: FilterModeRegex, wantErr: true, errString: "invalid regex pattern"},
		{name: "none mode", pattern: "", mode: FilterModeNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := NewStringFilter(tt.pattern, tt.mode)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewStringFilter() expected error, got nil")
				} else if !strings.Contains(err.Error(), tt.errString) {
					t.Errorf("NewStringFilter() error = %v, want containing %v", err, tt.errString)
				}
				return
			}
			if err != nil {
				t.Errorf("NewStringFilter() unexpected error = %v", err)
			}
			if filter == nil {
				t.Error("NewStringFilter() returned nil filter")
			}
		})
	}
}

func TestParseRule(t *testing.T) {
	tests := []struct {
		rule        string
		wantMode    FilterMode
		wantPattern string
		wantErr     bool
	}{
		{rule: "password", wantMode: FilterModeContains, wantPattern: "password"},
		{rule: "contains:token", wantMode: FilterModeContains, wantPattern: "token"},
		{rule: "exact:# TODO", wantMode: FilterModeExact, wantPattern: "# TODO"},
		{rule: "prefix:$ ", wantMode: FilterModePrefix, wantPattern: "$ "},
		{rule: `re:^\d{6}$`, wantMode: FilterModeRegex, wantPattern: `^\d{6}$`},
		{rule: "re:(", wantErr: true},
		{rule: "re:", wantErr: true},
		{rule: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			f, err := ParseRule(tt.rule)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseRule(%q) expected error", tt.rule)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRule(%q) error = %v", tt.rule, err)
			}
			if f.Mode != tt.wantMode || f.Pattern != tt.wantPattern {
				t.Errorf("ParseRule(%q) = (%d, %q), want (%d, %q)", tt.rule, f.Mode, f.Pattern, tt.wantMode, tt.wantPattern)
			}
			if tt.rule != tt.wantPattern && f.String() != tt.rule {
				t.Errorf("String() = %q, want %q", f.String(), tt.rule)
			}
		})
	}
}

func TestStringFilter_Match(t *testing.T) {
	tests := []struct {
		name string
		rule string
		text string
		want bool
	}{
		{name: "contains ignores case", rule: "API_KEY", text: "export api_key=1", want: true},
		{name: "contains miss", rule: "secret", text: "# Title", want: false},
		{name: "exact trims whitespace", rule: "exact:# TODO", text: "  # TODO\n", want: true},
		{name: "exact miss", rule: "exact:# TODO", text: "# TODO later", want: false},
		{name: "prefix after indentation", rule: "prefix:$ ", text: "\n  $ go test ./...", want: true},
		{name: "prefix miss", rule: "prefix:$ ", text: "cost: $ 5", want: false},
		{name: "regex one time code", rule: `re:^\d{6}$`, text: "123456", want: true},
		{name: "regex miss", rule: `re:^\d{6}$`, text: "1234567", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseRule(tt.rule)
			if err != nil {
				t.Fatalf("ParseRule(%q) error = %v", tt.rule, err)
			}
			if got := f.Match(tt.text); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestNoneModeNeverMatches(t *testing.T) {
	f, _ := NewStringFilter("", FilterModeNone)
	if f.Match("anything") {
		t.Error("FilterModeNone matched")
	}
}

func TestSet(t *testing.T) {
	s, err := NewSet([]string{"password", `re:^sk-[A-Za-z0-9]+$`})
	if err != nil {
		t.Fatalf("NewSet() error = %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}

	f, ok := s.Match("sk-abc123")
	if !ok || f.Mode != FilterModeRegex {
		t.Errorf("Match(sk-abc123) = %v, %v, want the regex rule", f, ok)
	}
	if s.Ignores("# Notes\n\n- one") {
		t.Error("Ignores() matched ordinary markdown")
	}

	if _, err := NewSet([]string{"ok", "re:["}); err == nil {
		t.Error("NewSet() accepted an invalid regex")
	}

	var empty *Set
	if empty.Ignores("x") || empty.Len() != 0 {
		t.Error("nil Set should ignore nothing")
	}
}
