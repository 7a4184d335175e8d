package scraper

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func docFromString(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestExtractContentPrefersArticle(t *testing.T) {
	body := strings.Repeat("real article text ", 20)
	html := fmt.Sprintf(`<html><body>
		<div class="content">short</div>
		<article>%s</article>
	</body></html>`, body)

	content, found := extractContent(docFromString(t, html))
	if !found {
		t.Fatal("expected content to be found")
	}
	if !strings.Contains(content, "real article text") {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestExtractContentStripsScriptAndNav(t *testing.T) {
	body := strings.Repeat("visible text ", 30)
	html := fmt.Sprintf(`<article>
		<script>var secret = "tracking";</script>
		<nav>home about contact</nav>
		<aside>related links</aside>
		%s
	</article>`, body)

	content, found := extractContent(docFromString(t, html))
	if !found {
		t.Fatal("expected content to be found")
	}
	if strings.Contains(content, "tracking") || strings.Contains(content, "related links") {
		t.Fatalf("stripped elements leaked into content: %q", content)
	}
}

func TestExtractContentParagraphFallback(t *testing.T) {
	html := `<html><body>
		<p>tiny</p>
		<p>This paragraph is long enough to be included in the fallback.</p>
		<p>And so is this one, which should be joined to the previous.</p>
	</body></html>`

	content, found := extractContent(docFromString(t, html))
	if !found {
		t.Fatal("expected fallback content")
	}
	if strings.Contains(content, "tiny") {
		t.Fatalf("short paragraph should be excluded: %q", content)
	}
	if !strings.Contains(content, "long enough") || !strings.Contains(content, "joined to the previous") {
		t.Fatalf("fallback missing paragraphs: %q", content)
	}
}

func TestExtractContentNothingFound(t *testing.T) {
	if content, found := extractContent(docFromString(t, `<html><body><p>hi</p></body></html>`)); found {
		t.Fatalf("expected no content, got %q", content)
	}
}

func TestExtractContentCollapsesWhitespace(t *testing.T) {
	body := strings.Repeat("word\n\t  another   ", 30)
	html := fmt.Sprintf("<article>%s</article>", body)

	content, found := extractContent(docFromString(t, html))
	if !found {
		t.Fatal("expected content")
	}
	if strings.Contains(content, "  ") || strings.Contains(content, "\n") {
		t.Fatalf("whitespace not collapsed: %q", content)
	}
}

func TestExtractAuthorStripsByPrefix(t *testing.T) {
	author, found := extractAuthor(docFromString(t, `<div class="byline">By Jane Doe</div>`))
	if !found {
		t.Fatal("expected author")
	}
	if author != "Jane Doe" {
		t.Fatalf("expected %q, got %q", "Jane Doe", author)
	}
}

func TestExtractAuthorMetaFallback(t *testing.T) {
	html := `<html><head><meta name="author" content="John Smith"></head><body></body></html>`
	author, found := extractAuthor(docFromString(t, html))
	if !found {
		t.Fatal("expected author from meta tag")
	}
	if author != "John Smith" {
		t.Fatalf("expected %q, got %q", "John Smith", author)
	}
}

func TestExtractAuthorRejectsOverlongByline(t *testing.T) {
	long := strings.Repeat("x", 200)
	html := fmt.Sprintf(`<div class="byline">%s</div>`, long)
	if author, found := extractAuthor(docFromString(t, html)); found {
		t.Fatalf("expected no author for overlong byline, got %q", author)
	}
}

func TestExtractAuthorNone(t *testing.T) {
	if author, found := extractAuthor(docFromString(t, `<html><body><p>no byline</p></body></html>`)); found {
		t.Fatalf("expected no author, got %q", author)
	}
}

func TestExtractTagsDedupAndCap(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<div class="tags">`)
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, `<a>tag%d</a>`, i)
	}
	// Duplicate and overlong entries must be dropped.
	b.WriteString(`<a>tag0</a>`)
	fmt.Fprintf(&b, `<a>%s</a>`, strings.Repeat("z", 50))
	b.WriteString(`</div>`)

	tags := extractTags(docFromString(t, b.String()))
	if len(tags) > 10 {
		t.Fatalf("tag cap exceeded: %d tags", len(tags))
	}
	seen := make(map[string]bool)
	for _, tag := range tags {
		if len(tag) >= 40 {
			t.Fatalf("tag over length cap: %q", tag)
		}
		if seen[tag] {
			t.Fatalf("duplicate tag: %q", tag)
		}
		seen[tag] = true
	}
}

func TestExtractTagsEmpty(t *testing.T) {
	tags := extractTags(docFromString(t, `<html><body></body></html>`))
	if tags == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(tags) != 0 {
		t.Fatalf("expected no tags, got %v", tags)
	}
}

func TestExtractFeaturedImageOpenGraphFirst(t *testing.T) {
	html := `<html><head>
		<meta property="og:image" content="https://cdn.example.com/og.jpg">
		<meta name="twitter:image" content="https://cdn.example.com/tw.jpg">
	</head><body><article><img src="https://cdn.example.com/body.jpg"></article></body></html>`

	img, found := extractFeaturedImage(docFromString(t, html), "https://example.com/post")
	if !found {
		t.Fatal("expected image")
	}
	if img != "https://cdn.example.com/og.jpg" {
		t.Fatalf("expected og:image to win, got %q", img)
	}
}

func TestExtractFeaturedImageProtocolRelative(t *testing.T) {
	html := `<html><head><meta property="og:image" content="//cdn.example.com/x.jpg"></head></html>`
	img, found := extractFeaturedImage(docFromString(t, html), "https://example.com/post")
	if !found || img != "https://cdn.example.com/x.jpg" {
		t.Fatalf("expected https://cdn.example.com/x.jpg, got %q (found=%v)", img, found)
	}
}

func TestExtractFeaturedImageRootRelative(t *testing.T) {
	html := `<article><img src="/img/x.jpg"></article>`
	img, found := extractFeaturedImage(docFromString(t, html), "https://foo.com/post")
	if !found || img != "https://foo.com/img/x.jpg" {
		t.Fatalf("expected https://foo.com/img/x.jpg, got %q (found=%v)", img, found)
	}
}

func TestExtractFeaturedImageNone(t *testing.T) {
	if img, found := extractFeaturedImage(docFromString(t, `<html><body></body></html>`), "https://example.com"); found {
		t.Fatalf("expected no image, got %q", img)
	}
}
