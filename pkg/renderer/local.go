package renderer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	headingPattern    = regexp.MustCompile(`^[ \t]{0,3}(#{1,6})[ \t]+(.*?)(?:[ \t]+#+)?[ \t]*$`)
	bulletPattern     = regexp.MustCompile(`^[ \t]*[-*+][ \t]+(.*)$`)
	numberPattern     = regexp.MustCompile(`^[ \t]*\d+\.[ \t]+(.*)$`)
	quotePattern      = regexp.MustCompile(`^[ \t]*>[ \t]?(.*)$`)
	fencePattern      = regexp.MustCompile("^[ \t]*(```|~~~)[ \t]*([\\w+-]*)")
	codeSpanPattern   = regexp.MustCompile("`([^`]+)`")
	imagePattern      = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)\)`)
	linkPattern       = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	strongPattern     = regexp.MustCompile(`\*\*([^*]+)\*\*|__([^_]+)__`)
	emphasisPattern   = regexp.MustCompile(`\*([^*\s][^*]*)\*|(^|[^\w])_([^_\s][^_]*)_`)
	placeholderFormat = "\x00%d\x00"
)

// Local is an offline Markdown renderer covering the common subset: headings,
// emphasis, inline and fenced code, lists, blockquotes, links, images and
// paragraphs. Text content is HTML-escaped.
type Local struct{}

func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Name() string {
	return "local"
}

func (l *Local) Render(ctx context.Context, markdown string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &RenderError{Op: "local", Err: err}
	}
	return renderBlocks(markdown), nil
}

type blockWriter struct {
	out       []string
	paragraph []string
	quote     []string
	list      string
}

func (b *blockWriter) flushParagraph() {
	if len(b.paragraph) > 0 {
		b.out = append(b.out, "<p>"+strings.Join(b.paragraph, " ")+"</p>")
		b.paragraph = nil
	}
}

func (b *blockWriter) flushQuote() {
	if len(b.quote) > 0 {
		b.out = append(b.out, "<blockquote><p>"+strings.Join(b.quote, " ")+"</p></blockquote>")
		b.quote = nil
	}
}

func (b *blockWriter) closeList() {
	if b.list != "" {
		b.out = append(b.out, "</"+b.list+">")
		b.list = ""
	}
}

func (b *blockWriter) flushAll() {
	b.flushParagraph()
	b.flushQuote()
	b.closeList()
}

func (b *blockWriter) listItem(kind, content string) {
	b.flushParagraph()
	b.flushQuote()
	if b.list != kind {
		b.closeList()
		b.out = append(b.out, "<"+kind+">")
		b.list = kind
	}
	b.out = append(b.out, "<li>"+renderInline(content)+"</li>")
}

func renderBlocks(markdown string) string {
	lines := strings.Split(strings.ReplaceAll(markdown, "\r\n", "\n"), "\n")
	b := &blockWriter{}

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if m := fencePattern.FindStringSubmatch(line); m != nil {
			b.flushAll()
			var code []string
			for i++; i < len(lines); i++ {
				if strings.HasPrefix(strings.TrimSpace(lines[i]), m[1]) {
					break
				}
				code = append(code, html.EscapeString(lines[i]))
			}
			open := "<pre><code>"
			if m[2] != "" {
				open = `<pre><code class="language-` + html.EscapeString(m[2]) + `">`
			}
			b.out = append(b.out, open+strings.Join(code, "\n")+"</code></pre>")
			continue
		}

		if strings.TrimSpace(line) == "" {
			b.flushAll()
			continue
		}

		if m := headingPattern.FindStringSubmatch(line); m != nil {
			b.flushAll()
			level := fmt.Sprint(len(m[1]))
			b.out = append(b.out, "<h"+level+">"+renderInline(m[2])+"</h"+level+">")
			continue
		}

		if m := bulletPattern.FindStringSubmatch(line); m != nil {
			b.listItem("ul", m[1])
			continue
		}
		if m := numberPattern.FindStringSubmatch(line); m != nil {
			b.listItem("ol", m[1])
			continue
		}

		if m := quotePattern.FindStringSubmatch(line); m != nil {
			b.flushParagraph()
			b.closeList()
			b.quote = append(b.quote, renderInline(m[1]))
			continue
		}

		b.flushQuote()
		b.closeList()
		b.paragraph = append(b.paragraph, renderInline(strings.TrimSpace(line)))
	}
	b.flushAll()

	return strings.Join(b.out, "\n")
}

// renderInline escapes text and applies span-level Markdown. Code spans are
// swapped out first so their content is never treated as emphasis or links.
func renderInline(text string) string {
	var spans []string
	text = codeSpanPattern.ReplaceAllStringFunc(text, func(m string) string {
		inner := codeSpanPattern.FindStringSubmatch(m)[1]
		spans = append(spans, "<code>"+html.EscapeString(inner)+"</code>")
		return fmt.Sprintf(placeholderFormat, len(spans)-1)
	})

	text = html.EscapeString(text)
	text = imagePattern.ReplaceAllString(text, `<img src="$2" alt="$1">`)
	text = linkPattern.ReplaceAllString(text, `<a href="$2">$1</a>`)
	text = strongPattern.ReplaceAllString(text, `<strong>$1$2</strong>`)
	text = emphasisPattern.ReplaceAllString(text, `$2<em>$1$3</em>`)

	for i, span := range spans {
		text = strings.Replace(text, fmt.Sprintf(placeholderFormat, i), span, 1)
	}
	return text
}
