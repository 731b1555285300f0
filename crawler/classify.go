package crawler

import (
	"net/url"
	"strings"
)

type PageClass int

const (
	ClassOther PageClass = iota
	ClassCategory
	ClassProduct
)

func (c PageClass) String() string {
	switch c {
	case ClassCategory:
		return "category"
	case ClassProduct:
		return "product"
	default:
		return "other"
	}
}

var categoryPathPatterns = []string{
	"/collections/",
	"/collection/",
	"/category/",
	"/categories/",
	"/shop/",
	"/browse/",
	"/departments/",
	"/men/",
	"/women/",
	"/kids/",
	"/sale/",
	"/new-arrivals/",
}

var categoryKeywords = []string{
	"collection",
	"category",
	"shop",
	"browse",
	"men",
	"women",
	"kids",
	"sale",
	"electronics",
	"clothing",
	"accessories",
	"furniture",
	"beauty",
	"jewelry",
}

var productPathPatterns = []string{
	"/products/",
	"/product/",
	"/item/",
	"/items/",
	"/p/",
	"/dp/",
}

// Classify buckets a link on lexical signals alone. Category checks run
// before product checks, so a url matching both classes as category.
func Classify(linkUrl string, text string) PageClass {
	lowerPath := lowerUrlPath(linkUrl)
	lowerText := strings.ToLower(text)

	for _, pattern := range categoryPathPatterns {
		if strings.Contains(lowerPath, pattern) {
			return ClassCategory
		}
	}
	for _, keyword := range categoryKeywords {
		if containsWord(lowerText, keyword) || containsWord(lowerPath, keyword) {
			return ClassCategory
		}
	}

	for _, pattern := range productPathPatterns {
		if strings.Contains(lowerPath, pattern) {
			return ClassProduct
		}
	}

	return ClassOther
}

// lowerUrlPath returns the path lowercased with a trailing slash so that
// patterns like "/shop/" match "https://site.com/shop" too.
func lowerUrlPath(linkUrl string) string {
	uri, err := url.Parse(linkUrl)
	if err != nil {
		return strings.ToLower(linkUrl)
	}
	path := strings.ToLower(uri.Path)
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path
}

// containsWord matches a keyword on token boundaries. Plain substring search
// would classify "equipment" as a "men" link.
func containsWord(haystack string, keyword string) bool {
	start := 0
	for {
		index := strings.Index(haystack[start:], keyword)
		if index < 0 {
			return false
		}
		index += start
		before := index == 0 || !isWordChar(haystack[index-1])
		afterIndex := index + len(keyword)
		after := afterIndex == len(haystack) || !isWordChar(haystack[afterIndex])
		if before && after {
			return true
		}
		start = index + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
