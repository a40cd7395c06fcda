// Package filter matches clipboard text against user ignore rules, such as
// text copied from a password manager or a terminal prompt that should never
// be converted.
package filter

import (
	"fmt"
	"regexp"
	"strings"
)

type FilterMode int

const (
	FilterModeNone FilterMode = iota
	FilterModeExact
	FilterModeContains
	FilterModePrefix
	FilterModeRegex
)

var modePrefixes = map[string]FilterMode{
	"exact:":    FilterModeExact,
	"contains:": FilterModeContains,
	"prefix:":   FilterModePrefix,
	"re:":       FilterModeRegex,
}

type StringFilter struct {
	Pattern string
	Mode    FilterMode
	regex   *regexp.Regexp
}

func NewStringFilter(pattern string, mode FilterMode) (*StringFilter, error) {
	f := &StringFilter{
		Pattern: pattern,
		Mode:    mode,
	}

	if mode == FilterModeRegex {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern '%s': %w", pattern, err)
		}
		f.regex = re
	}

	return f, nil
}

// ParseRule reads a rule written as "<mode>:<pattern>". Without a known mode
// prefix the whole rule is a case-insensitive substring.
func ParseRule(rule string) (*StringFilter, error) {
	for prefix, mode := range modePrefixes {
		if strings.HasPrefix(rule, prefix) {
			pattern := strings.TrimPrefix(rule, prefix)
			if pattern == "" {
				return nil, fmt.Errorf("empty pattern in rule '%s'", rule)
			}
			return NewStringFilter(pattern, mode)
		}
	}
	if rule == "" {
		return nil, fmt.Errorf("empty rule")
	}
	return NewStringFilter(rule, FilterModeContains)
}

func (f *StringFilter) Match(s string) bool {
	switch f.Mode {
	case FilterModeNone:
		return false
	case FilterModeExact:
		return strings.TrimSpace(s) == f.Pattern
	case FilterModeContains:
		return strings.Contains(strings.ToLower(s), strings.ToLower(f.Pattern))
	case FilterModePrefix:
		return strings.HasPrefix(strings.TrimLeft(s, " \t\r\n"), f.Pattern)
	case FilterModeRegex:
		return f.regex != nil && f.regex.MatchString(s)
	default:
		return false
	}
}

func (f *StringFilter) String() string {
	for prefix, mode := range modePrefixes {
		if mode == f.Mode {
			return prefix + f.Pattern
		}
	}
	return f.Pattern
}

// Set is an ordered list of ignore rules; text is ignored when any rule
// matches.
type Set struct {
	filters []*StringFilter
}

// NewSet parses every rule and reports the first invalid one.
func NewSet(rules []string) (*Set, error) {
	s := &Set{}
	for _, rule := range rules {
		f, err := ParseRule(rule)
		if err != nil {
			return nil, err
		}
		s.filters = append(s.filters, f)
	}
	return s, nil
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.filters)
}

// Match returns the first matching rule.
func (s *Set) Match(text string) (*StringFilter, bool) {
	if s == nil {
		return nil, false
	}
	for _, f := range s.filters {
		if f.Match(text) {
			return f, true
		}
	}
	return nil, false
}

// Ignores reports whether any rule matches text.
func (s *Set) Ignores(text string) bool {
	_, ok := s.Match(text)
	return ok
}
