package scraper

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	minContentLength   = 200
	minParagraphLength = 20
	maxAuthorLength    = 150
	maxTagLength       = 40
	maxTags            = 10
)

// Selector lists are ordered by priority; the first match that satisfies the
// length constraints wins.
var contentSelectors = []string{
	"article",
	".entry-content",
	".post-content",
	".article-content",
	".content",
	".post-body",
	`[class*="content"]`,
	"main",
	".story-body",
}

var authorSelectors = []string{
	".author-name",
	".byline",
	`[rel="author"]`,
	".post-author",
	".entry-author",
	`[class*="author"]`,
	"[data-author]",
}

var tagSelectors = []string{
	".tags a",
	".categories a",
	".post-tags a",
	`[rel="tag"]`,
	".tag",
	".category",
}

var imageSelectors = []string{
	`meta[property="og:image"]`,
	`meta[name="twitter:image"]`,
	".featured-image img",
	".post-image img",
	"article img",
}

const strippedElements = "script, style, nav, aside, .advertisement, .social-share"

var byPrefix = regexp.MustCompile(`(?i)^by\s+`)

// extractContent returns the page's body text. It walks the structural
// selectors in priority order and keeps the first candidate whose stripped,
// whitespace-collapsed text exceeds the minimum length. When no selector
// qualifies it falls back to joining paragraph blocks above the paragraph
// threshold. The second return value reports whether any text was found.
func extractContent(doc *goquery.Document) (string, bool) {
	for _, sel := range contentSelectors {
		el := doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		el.Find(strippedElements).Remove()
		text := collapseWhitespace(el.Text())
		if len(text) > minContentLength {
			return text, true
		}
	}

	var parts []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		t := collapseWhitespace(p.Text())
		if len(t) > minParagraphLength {
			parts = append(parts, t)
		}
	})
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " "), true
}

// extractAuthor tries byline selectors first, then meta author tags. A leading
// "by " prefix is stripped case-insensitively from byline matches.
func extractAuthor(doc *goquery.Document) (string, bool) {
	for _, sel := range authorSelectors {
		v := strings.TrimSpace(doc.Find(sel).First().Text())
		if v != "" && len(v) < maxAuthorLength {
			return byPrefix.ReplaceAllString(v, ""), true
		}
	}

	for _, sel := range []string{`meta[name="author"]`, `meta[property="article:author"]`} {
		if v, ok := doc.Find(sel).First().Attr("content"); ok {
			v = strings.TrimSpace(v)
			if v != "" {
				return v, true
			}
		}
	}
	return "", false
}

// extractTags collects tag and category texts into a deduplicated list,
// first-seen order, capped at maxTags entries each under maxTagLength.
func extractTags(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	tags := []string{}
	for _, sel := range tagSelectors {
		doc.Find(sel).Each(func(_ int, el *goquery.Selection) {
			t := strings.TrimSpace(el.Text())
			if t == "" || len(t) >= maxTagLength {
				return
			}
			if _, ok := seen[t]; ok {
				return
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		})
	}
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	return tags
}

// extractFeaturedImage tries Open Graph and Twitter meta tags, then images
// inside known content containers, resolving protocol-relative and
// root-relative URLs against the page's origin.
func extractFeaturedImage(doc *goquery.Document, pageURL string) (string, bool) {
	for _, sel := range imageSelectors {
		var src string
		if strings.HasPrefix(sel, "meta") {
			src, _ = doc.Find(sel).First().Attr("content")
		} else {
			src, _ = doc.Find(sel).First().Attr("src")
		}
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		return resolveImageURL(src, pageURL), true
	}
	return "", false
}

func resolveImageURL(src, pageURL string) string {
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	if strings.HasPrefix(src, "/") {
		u, err := url.Parse(pageURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return src
		}
		return u.Scheme + "://" + u.Host + src
	}
	return src
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
