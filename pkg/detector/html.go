package detector

import (
	"strings"

	"golang.org/x/net/html"
)

// renderedTags are elements that show up when rich text is copied as source.
var renderedTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "strong": true, "em": true, "ul": true, "ol": true, "li": true,
	"code": true, "pre": true, "blockquote": true, "table": true, "span": true,
	"div": true, "meta": true,
}

// LooksLikeHTML reports whether text is already-rendered HTML rather than
// Markdown source: it starts with a tag and contains at least one rendered
// element, or any element carries an inline style attribute.
func LooksLikeHTML(text string) bool {
	trimmed := strings.TrimSpace(text)
	if !strings.Contains(trimmed, "<") || !strings.Contains(trimmed, ">") {
		return false
	}

	startsWithTag := strings.HasPrefix(trimmed, "<")
	z := html.NewTokenizer(strings.NewReader(trimmed))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			for hasAttr {
				var key []byte
				key, _, hasAttr = z.TagAttr()
				if string(key) == "style" {
					return true
				}
			}
			if startsWithTag && renderedTags[string(name)] {
				return true
			}
		}
	}
}
