package renderer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"md2rt/pkg/cache"
)

func TestHTTPRenderPlainBody(t *testing.T) {
	var got struct {
		body      request
		userAgent string
		referer   string
		ctype     string
		requestID string
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got.body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		got.userAgent = r.Header.Get("User-Agent")
		got.referer = r.Header.Get("Referer")
		got.ctype = r.Header.Get("Content-Type")
		got.requestID = r.Header.Get("X-Request-ID")
		fmt.Fprint(w, "\n  <h1>Title</h1>\n")
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, WithUserAgent("md2rt-test"), WithReferer("https://example.com/"))
	html, err := h.Render(context.Background(), "# Title")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if html != "<h1>Title</h1>" {
		t.Errorf("Render() = %q, want trimmed body", html)
	}
	if got.body.MarkdownText != "# Title" {
		t.Errorf("markdownText = %q", got.body.MarkdownText)
	}
	if got.userAgent != "md2rt-test" || got.referer != "https://example.com/" {
		t.Errorf("headers UA=%q Referer=%q", got.userAgent, got.referer)
	}
	if got.ctype != "application/json" {
		t.Errorf("Content-Type = %q", got.ctype)
	}
	if len(got.requestID) != 36 {
		t.Errorf("X-Request-ID = %q, want a uuid", got.requestID)
	}
}

func TestHTTPRenderDataURL(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("  <p><strong>bold</strong></p>\n"))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, DataURLPrefix+encoded)
	}))
	defer srv.Close()

	html, err := NewHTTP(srv.URL).Render(context.Background(), "**bold**")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if html != "<p><strong>bold</strong></p>" {
		t.Errorf("Render() = %q", html)
	}
}

func TestHTTPRenderErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantStatus: 500},
		{name: "not found", status: http.StatusNotFound, body: "", wantStatus: 404},
		{name: "bad data url", status: http.StatusOK, body: DataURLPrefix + "!!!not-base64", wantStatus: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewHTTP(srv.URL).Render(context.Background(), "# X")
			var rerr *RenderError
			if !errors.As(err, &rerr) {
				t.Fatalf("Render() error = %v, want *RenderError", err)
			}
			if rerr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", rerr.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestHTTPRenderTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := NewHTTP(srv.URL, WithTimeout(50*time.Millisecond)).Render(context.Background(), "# X")
	if err == nil {
		t.Fatal("Render() error = nil, want timeout")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Render() took %v, want it bounded by the timeout", elapsed)
	}
}

func TestDecodeBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "plain", body: "<p>x</p>", want: "<p>x</p>"},
		{name: "whitespace", body: "\n\t<p>x</p>  ", want: "<p>x</p>"},
		{name: "data url", body: DataURLPrefix + base64.StdEncoding.EncodeToString([]byte("<p>y</p>")), want: "<p>y</p>"},
		{name: "empty", body: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBody(tt.body)
			if err != nil {
				t.Fatalf("DecodeBody() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeBody() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocalRender(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		contains []string
		absent   []string
	}{
		{
			name:     "headings",
			markdown: "# One\n### Three",
			contains: []string{"<h1>One</h1>", "<h3>Three</h3>"},
		},
		{
			name:     "closing hashes",
			markdown: "## Title ##",
			contains: []string{"<h2>Title</h2>"},
		},
		{
			name:     "inline",
			markdown: "**bold** and *it* and `x < y` and [link](https://example.com)",
			contains: []string{
				"<strong>bold</strong>", "<em>it</em>", "<code>x &lt; y</code>",
				`<a href="https://example.com">link</a>`,
			},
		},
		{
			name:     "image is not a link",
			markdown: "![alt](pic.png)",
			contains: []string{`<img src="pic.png" alt="alt">`},
			absent:   []string{"<a "},
		},
		{
			name:     "lists",
			markdown: "- a\n- b\n\n1. one\n2. two",
			contains: []string{"<ul>\n<li>a</li>\n<li>b</li>\n</ul>", "<ol>\n<li>one</li>\n<li>two</li>\n</ol>"},
		},
		{
			name:     "fenced code is escaped and untouched",
			markdown: "```go\nif a < b && **c** {\n}\n```",
			contains: []string{`<pre><code class="language-go">if a &lt; b &amp;&amp; **c** {` + "\n}</code></pre>"},
			absent:   []string{"<strong>"},
		},
		{
			name:     "blockquote",
			markdown: "> quoted\n> text",
			contains: []string{"<blockquote><p>quoted text</p></blockquote>"},
		},
		{
			name:     "paragraphs",
			markdown: "line one\nline two\n\nnext <tag>",
			contains: []string{"<p>line one line two</p>", "<p>next &lt;tag&gt;</p>"},
		},
	}

	l := NewLocal()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html, err := l.Render(context.Background(), tt.markdown)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(html, want) {
					t.Errorf("Render() = %q, missing %q", html, want)
				}
			}
			for _, bad := range tt.absent {
				if strings.Contains(html, bad) {
					t.Errorf("Render() = %q, must not contain %q", html, bad)
				}
			}
		})
	}
}

func TestLocalRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLocal().Render(ctx, "# X"); err == nil {
		t.Error("Render() with cancelled context error = nil")
	}
}

type memStore struct {
	entries map[string]string
	getErr  error
	putErr  error
	puts    int
}

func (m *memStore) Get(hash string) (*cache.Entry, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	html, ok := m.entries[hash]
	if !ok {
		return nil, nil
	}
	return &cache.Entry{Hash: hash, HTML: html}, nil
}

func (m *memStore) Put(hash, html, renderer string) error {
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.entries[hash] = html
	return nil
}

func TestCachedRender(t *testing.T) {
	calls := 0
	next := Func(func(ctx context.Context, markdown string) (string, error) {
		calls++
		if markdown == "fail" {
			return "", &RenderError{Op: "post", StatusCode: 502}
		}
		return "<p>" + markdown + "</p>", nil
	})
	store := &memStore{entries: map[string]string{}}
	c := NewCached(next, store)

	for i := 0; i < 3; i++ {
		html, err := c.Render(context.Background(), "x")
		if err != nil || html != "<p>x</p>" {
			t.Fatalf("Render() = %q, %v", html, err)
		}
	}
	if calls != 1 {
		t.Errorf("underlying renderer called %d times, want 1", calls)
	}

	if _, err := c.Render(context.Background(), "fail"); err == nil {
		t.Error("Render(fail) error = nil")
	}
	if len(store.entries) != 1 {
		t.Errorf("cache holds %d entries, want 1 (failed render cached?)", len(store.entries))
	}
}

func TestCachedRenderIsScopedToRenderer(t *testing.T) {
	cm, err := cache.NewManager(t.TempDir()+"/cache.db", time.Hour)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	defer cm.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<p>from remote endpoint</p>")
	}))
	defer srv.Close()

	ctx := context.Background()
	if _, err := NewCached(NewHTTP(srv.URL), cm).Render(ctx, "# X"); err != nil {
		t.Fatalf("remote Render() error = %v", err)
	}

	html, err := NewCached(NewLocal(), cm).Render(ctx, "# X")
	if err != nil {
		t.Fatalf("local Render() error = %v", err)
	}
	if strings.Contains(html, "from remote endpoint") {
		t.Errorf("local renderer returned the remote render %q", html)
	}

	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<p>from other endpoint</p>")
	}))
	defer other.Close()

	html, err = NewCached(NewHTTP(other.URL), cm).Render(ctx, "# X")
	if err != nil {
		t.Fatalf("other remote Render() error = %v", err)
	}
	if html != "<p>from other endpoint</p>" {
		t.Errorf("Render() against a new endpoint = %q", html)
	}

	if n, _ := cm.Count(); n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}
}

func TestCachedRenderIgnoresStoreErrors(t *testing.T) {
	next := Func(func(ctx context.Context, markdown string) (string, error) {
		return "<p>ok</p>", nil
	})
	store := &memStore{
		entries: map[string]string{},
		getErr:  errors.New("disk I/O error"),
		putErr:  errors.New("read-only database"),
	}

	html, err := NewCached(next, store).Render(context.Background(), "ok")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if html != "<p>ok</p>" {
		t.Errorf("Render() = %q", html)
	}
	if store.puts != 1 {
		t.Errorf("Put called %d times, want 1", store.puts)
	}
}
