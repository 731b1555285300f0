package crawler

import (
	"fmt"
	neturl "net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustParseUrl(t *testing.T, rawUrl string) *neturl.URL {
	uri, err := neturl.Parse(rawUrl)
	require.NoError(t, err)
	return uri
}

func TestExtractLinksResolvesAndDedupes(t *testing.T) {
	logger := NewDummyLogger()
	content := `<html><body>
		<a href="/products/anorak">Anorak</a>
		<a href="https://store.example.com/products/parka">Parka</a>
		<a href="/products/anorak">Anorak again</a>
		<a href="mailto:hi@store.example.com">Email</a>
		<a href="javascript:void(0)">Menu</a>
		<a href="#reviews">Reviews</a>
	</body></html>`

	links := ExtractLinks(content, "https://store.example.com/", logger)
	require.Equal(t, []Link{
		{Url: "https://store.example.com/products/anorak", Text: "Anorak"},
		{Url: "https://store.example.com/products/parka", Text: "Parka"},
		{Url: "https://store.example.com/#reviews", Text: "Reviews"},
	}, links)
}

func TestExtractLinksTextFallbacks(t *testing.T) {
	logger := NewDummyLogger()
	content := `<html><body>
		<a href="/a"><span>  Nested   label </span></a>
		<a href="/b" aria-label="Aria label"><img src="b.jpg"></a>
		<a href="/c" title="Title label"></a>
		<a href="/d"></a>
	</body></html>`

	links := ExtractLinks(content, "https://store.example.com", logger)
	require.Equal(t, []Link{
		{Url: "https://store.example.com/a", Text: "Nested label"},
		{Url: "https://store.example.com/b", Text: "Aria label"},
		{Url: "https://store.example.com/c", Text: "Title label"},
		{Url: "https://store.example.com/d", Text: ""},
	}, links)

	withText := WithText(links)
	require.Len(t, withText, 3)
	for _, link := range withText {
		require.NotEmpty(t, link.Text)
	}
}

func TestExtractLinksStripsStyles(t *testing.T) {
	logger := NewDummyLogger()
	content := `<html><head>
		<style>a { content: "<a href='/fake'>not a link</a>" }</style>
		<link rel="stylesheet" href="/theme.css">
	</head><body>
		<a href="/real">Real</a>
	</body></html>`

	links := ExtractLinks(content, "https://store.example.com", logger)
	require.Equal(t, []Link{{Url: "https://store.example.com/real", Text: "Real"}}, links)
}

func TestExtractLinksDeterminism(t *testing.T) {
	content := `<html><body>
		<a href="/products/a">A</a>
		<a href="/collections/b">B</a>
		<a href="/products/a?variant=1">A1</a>
	</body></html>`

	first := ExtractLinks(content, "https://store.example.com", NewDummyLogger())
	for i := 0; i < 10; i++ {
		again := ExtractLinks(content, "https://store.example.com", NewDummyLogger())
		require.Equal(t, first, again)
	}
}

func TestExtractLinksRegexFallback(t *testing.T) {
	base := mustParseUrl(t, "https://store.example.com")
	content := `<div><a class="x" href="/products/boots">Leather <b>Boots</b></a>` +
		`<a href='https://other.example.com/p/1'>Other</a>` +
		`<a href="ftp://files.example.com/x">Skipped</a>` +
		`<a href=>Malformed</a></div>`

	links := extractLinksRegex(content, base)
	require.Equal(t, []Link{
		{Url: "https://store.example.com/products/boots", Text: "Leather Boots"},
		{Url: "https://other.example.com/p/1", Text: "Other"},
	}, links)
}

func TestExtractLinksKeepsHttpOnly(t *testing.T) {
	logger := NewDummyLogger()
	for i, href := range []string{"ftp://x.example.com/a", "tel:+123456", "data:text/plain,hi"} {
		content := fmt.Sprintf(`<a href="%s">nope</a>`, href)
		links := ExtractLinks(content, "https://store.example.com", logger)
		require.Empty(t, links, "case %d", i)
	}
}
