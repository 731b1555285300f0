package crawler

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/dlclark/regexp2"
	om "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/net/html"
)

// Link is an anchor discovered on a page. Url is absolute. Text may be empty.
type Link struct {
	Url  string `json:"url"`
	Text string `json:"text"`
}

var styleBlockRegex *regexp.Regexp
var stylesheetLinkRegex *regexp.Regexp
var innerTagRegex *regexp.Regexp
var anchorRegex *regexp2.Regexp

func init() {
	styleBlockRegex = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style>`)
	stylesheetLinkRegex = regexp.MustCompile(`(?i)<link\b[^>]*rel\s*=\s*["']?stylesheet["']?[^>]*>`)
	innerTagRegex = regexp.MustCompile(`<[^>]+>`)
	// The backreference matches the opening quote, which RE2 can't express
	anchorRegex = regexp2.MustCompile(
		`<a\b[^>]*?href\s*=\s*(["'])(.*?)\1[^>]*>(.*?)</a>`,
		regexp2.IgnoreCase|regexp2.Singleline,
	)
}

// ExtractLinks parses content and returns every anchor resolved against
// baseUrl, deduplicated by exact url string in order of first occurrence.
// Only absolute http(s) urls are kept. A parser failure degrades to a regex
// scan that silently skips malformed entries.
func ExtractLinks(content string, baseUrl string, logger Logger) []Link {
	base, err := url.Parse(baseUrl)
	if err != nil {
		logger.Warn("Bad base url %q: %v", baseUrl, err)
		return nil
	}

	// Malformed css inside <style> is a common parse-crash cause, drop it
	// before parsing
	stripped := styleBlockRegex.ReplaceAllString(content, "")
	stripped = stylesheetLinkRegex.ReplaceAllString(stripped, "")

	links, err := extractLinksDom(stripped, base)
	if err != nil {
		logger.Info("HTML parse failed for %s, falling back to regex scan: %v", baseUrl, err)
		links = extractLinksRegex(stripped, base)
	}

	deduped := om.New[string, Link]()
	for _, link := range links {
		if _, ok := deduped.Get(link.Url); !ok {
			deduped.Set(link.Url, link)
		}
	}

	result := make([]Link, 0, deduped.Len())
	for pair := deduped.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, pair.Value)
	}
	return result
}

// WithText keeps only links that have a non-empty label. Whether empty labels
// matter varies by call site, so this is a caller-applied filter and not a
// rule inside ExtractLinks.
func WithText(links []Link) []Link {
	var result []Link
	for _, link := range links {
		if link.Text != "" {
			result = append(result, link)
		}
	}
	return result
}

func extractLinksDom(content string, base *url.URL) (links []Link, retErr error) {
	defer func() {
		if r := recover(); r != nil {
			retErr = &parsePanicError{value: r}
		}
	}()

	document, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	for _, anchor := range htmlquery.Find(document, "//a") {
		href := findAttr(anchor, "href")
		if href == "" {
			continue
		}
		absoluteUrl, ok := resolveHttpUrl(href, base)
		if !ok {
			continue
		}

		text := collapseWhitespace(htmlquery.InnerText(anchor))
		if text == "" {
			text = collapseWhitespace(findAttr(anchor, "aria-label"))
		}
		if text == "" {
			text = collapseWhitespace(findAttr(anchor, "title"))
		}

		links = append(links, Link{Url: absoluteUrl, Text: text})
	}
	return links, nil
}

func extractLinksRegex(content string, base *url.URL) []Link {
	var links []Link
	match, err := anchorRegex.FindStringMatch(content)
	for err == nil && match != nil {
		href := match.GroupByNumber(2).String()
		inner := match.GroupByNumber(3).String()

		if absoluteUrl, ok := resolveHttpUrl(href, base); ok {
			text := collapseWhitespace(innerTagRegex.ReplaceAllString(inner, " "))
			links = append(links, Link{Url: absoluteUrl, Text: text})
		}

		match, err = anchorRegex.FindNextMatch(match)
	}
	return links
}

func resolveHttpUrl(href string, base *url.URL) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	uri, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if uri.Scheme == "" {
		uri = base.ResolveReference(uri)
	}
	if uri.Scheme != "http" && uri.Scheme != "https" {
		return "", false
	}
	if uri.Host == "" {
		return "", false
	}
	return uri.String(), true
}

func findAttr(element *html.Node, name string) string {
	for _, attr := range element.Attr {
		if attr.Key == name {
			return attr.Val
		}
	}
	return ""
}

func collapseWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

type parsePanicError struct {
	value any
}

func (e *parsePanicError) Error() string {
	return fmt.Sprintf("html parser panic: %v", e.value)
}
