package pipeline

import (
	"regexp"
	"strings"
)

const (
	MetaCharset = "<meta charset='utf-8'>"

	headingStyle = `color: rgb(0, 0, 0); font-family: Times; font-style: normal; font-variant-ligatures: normal; font-variant-caps: normal; letter-spacing: normal; orphans: 2; text-align: start; text-indent: 0px; text-transform: none; widows: 2; word-spacing: 0px; -webkit-text-stroke-width: 0px; white-space: normal; text-decoration-thickness: initial; text-decoration-style: initial; text-decoration-color: initial;`
	paragraphStyle = `color: rgb(0, 0, 0); font-family: Times; font-size: medium; font-style: normal; font-variant-ligatures: normal; font-variant-caps: normal; font-weight: 400; letter-spacing: normal; orphans: 2; text-align: start; text-indent: 0px; text-transform: none; widows: 2; word-spacing: 0px; -webkit-text-stroke-width: 0px; white-space: normal; text-decoration-thickness: initial; text-decoration-style: initial; text-decoration-color: initial;`
	preStyle       = `display: block; color: rgb(0, 0, 0); font-family: Monaco, Menlo, Consolas, monospace; font-size: 13px; background-color: rgb(248, 248, 248); border: 1px solid rgb(231, 231, 231); border-radius: 3px; padding: 16px; margin: 16px 0; overflow-x: auto; white-space: pre;`
	codeStyle      = `font-family: Monaco, Menlo, Consolas, monospace; font-size: 13px; color: rgb(51, 51, 51); background: transparent;`

	// strongSpacer is a non-breaking space in its own span, which is what
	// browsers put around bold runs when rich text is copied.
	strongSpacer = "<span>\u00a0</span>"
)

var (
	headingTag   = regexp.MustCompile(`(?i)<(h[1-6])(\s[^>]*)?>`)
	paragraphTag = regexp.MustCompile(`(?i)<p(\s[^>]*)?>`)
	preTag       = regexp.MustCompile(`(?i)<pre(\s[^>]*)?>`)
	codeTag      = regexp.MustCompile(`(?i)<code(\s[^>]*)?>`)
	styleAttr    = regexp.MustCompile(`(?i)\s+style\s*=\s*(?:"[^"]*"|'[^']*')`)
	listTag      = regexp.MustCompile(`(?i)<(/?)(ol|ul)(?:\s[^>]*)?>|<pre(?:\s[^>]*)?>`)
	boldOpen     = regexp.MustCompile(`(?i)<(?:strong|b)(?:\s[^>]*)?>`)
	boldClose    = regexp.MustCompile(`(?i)</(?:strong|b)\s*>`)
)

// Style makes raw renderer HTML paste well into rich-text editors: it adds a
// charset meta, fixes inline styles on headings, paragraphs and code, closes
// lists that would otherwise swallow a following code block, and pads bold
// runs with spacers.
func Style(html string) string {
	if !strings.HasPrefix(html, "<meta") {
		html = MetaCharset + html
	}

	html = headingTag.ReplaceAllString(html, `<$1$2 style="`+headingStyle+`">`)
	html = paragraphTag.ReplaceAllString(html, `<p$1 style="`+paragraphStyle+`">`)

	html = closeListsBeforePre(html)
	html = preTag.ReplaceAllStringFunc(html, func(tag string) string {
		return restyle(tag, "pre", preStyle)
	})
	html = codeTag.ReplaceAllStringFunc(html, func(tag string) string {
		return restyle(tag, "code", codeStyle)
	})

	html = boldOpen.ReplaceAllString(html, strongSpacer+"$0")
	html = boldClose.ReplaceAllString(html, "$0"+strongSpacer)

	return html
}

// restyle drops any style attribute from an opening tag and applies style.
func restyle(tag, name, style string) string {
	attrs := strings.TrimSuffix(tag[1+len(name):], ">")
	attrs = styleAttr.ReplaceAllString(attrs, "")
	return "<" + name + attrs + ` style="` + style + `">`
}

// closeListsBeforePre emits closing tags, innermost first, for every ol/ul
// still open where a <pre> starts. Unbalanced closers are ignored.
func closeListsBeforePre(html string) string {
	matches := listTag.FindAllStringSubmatchIndex(html, -1)
	if len(matches) == 0 {
		return html
	}

	var b strings.Builder
	var open []string
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if m[4] < 0 {
			b.WriteString(html[last:start])
			for i := len(open) - 1; i >= 0; i-- {
				b.WriteString("</" + open[i] + ">")
			}
			open = open[:0]
			b.WriteString(html[start:end])
			last = end
			continue
		}

		name := strings.ToLower(html[m[4]:m[5]])
		closing := m[3] > m[2]
		switch {
		case !closing:
			open = append(open, name)
		case len(open) > 0 && open[len(open)-1] == name:
			open = open[:len(open)-1]
		}
	}
	b.WriteString(html[last:])
	return b.String()
}
