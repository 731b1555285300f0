package crawler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		text     string
		expected PageClass
	}{
		{"collections path", "https://s.example.com/collections/summer", "", ClassCategory},
		{"category path", "https://s.example.com/category/shoes", "", ClassCategory},
		{"shop path no trailing slash", "https://s.example.com/shop", "", ClassCategory},
		{"browse path", "https://s.example.com/browse/electronics", "", ClassCategory},
		{"department path", "https://s.example.com/women/dresses", "", ClassCategory},
		{"category keyword in text", "https://s.example.com/x", "Shop the collection", ClassCategory},
		{"category keyword in path", "https://s.example.com/electronics", "", ClassCategory},
		{"products path", "https://s.example.com/products/blue-anorak", "", ClassProduct},
		{"product path", "https://s.example.com/product/123", "", ClassProduct},
		{"item path", "https://s.example.com/item/9", "", ClassProduct},
		{"short p path", "https://s.example.com/p/9", "", ClassProduct},
		{"plain page", "https://s.example.com/about", "About us", ClassOther},
		{"homepage", "https://s.example.com/", "", ClassOther},
		{"keyword needs word boundary", "https://s.example.com/equipment", "Equipment", ClassOther},
		{"uppercase url", "https://s.example.com/Products/Anorak", "", ClassProduct},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, Classify(test.url, test.text))
		})
	}
}

func TestClassifyCategoryPrecedesProduct(t *testing.T) {
	// A url matching both classes as category, ties are impossible
	require.Equal(t, ClassCategory, Classify("https://s.example.com/shop/products/1", ""))
	require.Equal(t, ClassCategory, Classify("https://s.example.com/products/1", "Shop all"))
}

func TestClassifyIsTotal(t *testing.T) {
	for _, url := range []string{"", "not a url", "https://s.example.com/%zz"} {
		class := Classify(url, "")
		require.Contains(t, []PageClass{ClassOther, ClassCategory, ClassProduct}, class)
	}
}
