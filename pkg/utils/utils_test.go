package utils

import (
	"reflect"
	"testing"
)

func TestPreview(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{name: "short", text: "hello", limit: 10, want: "hello"},
		{name: "newlines flattened", text: "# Title\n\n- a\n- b", limit: 40, want: "# Title - a - b"},
		{name: "truncated", text: "abcdefghij", limit: 5, want: "abcd…"},
		{name: "multibyte", text: "日本語のテキスト", limit: 4, want: "日本語…"},
		{name: "no limit", text: "abc  def", limit: 0, want: "abc def"},
		{name: "limit one", text: "abc", limit: 1, want: "…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preview(tt.text, tt.limit); got != tt.want {
				t.Errorf("Preview(%q, %d) = %q, want %q", tt.text, tt.limit, got, tt.want)
			}
		})
	}
}

func TestDeduplicate(t *testing.T) {
	got := Deduplicate([]string{"a.md", "b.md", "a.md", "c.md", "b.md"})
	want := []string{"a.md", "b.md", "c.md"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Deduplicate() = %v, want %v", got, want)
	}
	if got := Deduplicate(nil); len(got) != 0 {
		t.Errorf("Deduplicate(nil) = %v", got)
	}
}

func TestPlural(t *testing.T) {
	if Plural(1, "file", "files") != "file" || Plural(0, "file", "files") != "files" || Plural(3, "file", "files") != "files" {
		t.Error("Plural() picked the wrong form")
	}
}
