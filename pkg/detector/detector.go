// Package detector decides whether clipboard text looks like Markdown.
//
// Detection counts independent pattern signals. A single strong signal (a code
// fence, a link, a heading, emphasis, inline code or a list item) is enough on
// its own; weak signals (blockquote, table row, image) only count when at least
// two distinct kinds appear, because a lone "> " or "| a | b |" line is common
// in plain prose and logs.
package detector

import (
	"regexp"
	"strings"
)

// Signal names a kind of Markdown evidence.
type Signal string

const (
	SignalHeadingATX    Signal = "heading_atx"
	SignalHeadingSetext Signal = "heading_setext"
	SignalListBulleted  Signal = "list_bulleted"
	SignalListNumbered  Signal = "list_numbered"
	SignalBlockquote    Signal = "blockquote"
	SignalCodeFence     Signal = "code_fence"
	SignalInlineCode    Signal = "inline_code"
	SignalLink          Signal = "link"
	SignalImage         Signal = "image"
	SignalEmphasis      Signal = "emphasis"
	SignalTable         Signal = "table"
)

type signalPattern struct {
	kind    Signal
	pattern *regexp.Regexp
	strong  bool
}

// signals is evaluated in order; the order only affects the order of
// Report.Signals.
var signals = []signalPattern{
	{SignalHeadingATX, regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]+\S`), true},
	{SignalHeadingSetext, regexp.MustCompile(`(?m)^\S[^\n]*\n[ \t]{0,3}(?:={3,}|-{3,})[ \t]*$`), true},
	{SignalListBulleted, regexp.MustCompile(`(?m)^[ \t]{0,3}[-*+][ \t]+\S`), true},
	{SignalListNumbered, regexp.MustCompile(`(?m)^[ \t]{0,3}\d+\.[ \t]+\S`), true},
	{SignalBlockquote, regexp.MustCompile(`(?m)^[ \t]{0,3}>[ \t]+\S`), false},
	{SignalCodeFence, regexp.MustCompile("(?s)```.+?```|~~~.+?~~~"), true},
	{SignalInlineCode, regexp.MustCompile("`[^`]+`"), true},
	{SignalLink, regexp.MustCompile(`(?:^|[^!])\[[^\]]+\]\([^)\s]+(?:\s+"[^"]*")?\)`), true},
	{SignalImage, regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`), false},
	{SignalEmphasis, regexp.MustCompile(`(?m)(?:^|[^\w*])(?:\*\*[^*\n]+\*\*|__[^_\n]+__|\*[^*\s][^*\n]*\*|_[^_\s][^_\n]*_)(?:[^\w*]|$)`), true},
	{SignalTable, regexp.MustCompile(`(?m)^[ \t]*\|.+\|[ \t]*$`), false},
}

// Report is the full outcome of a detection run.
type Report struct {
	Signals    []Signal `json:"signals" yaml:"signals"`
	Strong     []Signal `json:"strong,omitempty" yaml:"strong,omitempty"`
	IsMarkdown bool     `json:"is_markdown" yaml:"is_markdown"`
}

// IsMarkdown reports whether text looks like Markdown.
func IsMarkdown(text string) bool {
	return Detect(text).IsMarkdown
}

// Detect evaluates every signal against text and applies the decision rule.
func Detect(text string) Report {
	var r Report
	if strings.TrimSpace(text) == "" {
		return r
	}
	// Line-anchored patterns only see LF endings.
	text = strings.ReplaceAll(text, "\r\n", "\n")

	for _, s := range signals {
		if !s.pattern.MatchString(text) {
			continue
		}
		r.Signals = append(r.Signals, s.kind)
		if s.strong {
			r.Strong = append(r.Strong, s.kind)
		}
	}

	switch {
	case len(r.Signals) == 0:
		r.IsMarkdown = false
	case len(r.Strong) > 0:
		r.IsMarkdown = true
	default:
		r.IsMarkdown = len(r.Signals) >= 2
	}
	return r
}

// IsStrong reports whether a single match of kind is conclusive.
func IsStrong(kind Signal) bool {
	for _, s := range signals {
		if s.kind == kind {
			return s.strong
		}
	}
	return false
}

// AllSignals returns every signal kind in evaluation order.
func AllSignals() []Signal {
	out := make([]Signal, 0, len(signals))
	for _, s := range signals {
		out = append(out, s.kind)
	}
	return out
}
