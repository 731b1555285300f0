package crawler

import (
	"context"
	"errors"
	"sync"

	om "github.com/wk8/go-ordered-map/v2"
)

// CollectionGroup is one discovered category page and the product links found
// on it, deduplicated by url within the group.
type CollectionGroup struct {
	Collection Link   `json:"collection"`
	Products   []Link `json:"products"`
}

type DiscoveryResult struct {
	Groups []CollectionGroup
	// Product candidates across all groups, deduplicated globally in group
	// order then on-page order.
	Candidates []Link
}

var ErrNoCategories = errors.New("no category links found on the homepage")
var ErrNoProducts = errors.New("no product links found on the category pages")

const maxCategoryPages = 3
const maxProductsPerCategory = 20

// DiscoverCandidates takes pre-fetched homepage HTML, picks the first
// category links in order of appearance, fetches them concurrently and
// collects each page's product links. A failing category page is dropped,
// not fatal. Returns ErrNoCategories/ErrNoProducts when the respective stage
// comes up empty.
func DiscoverCandidates(
	ctx context.Context, client HttpClient, homepageUrl string, homepageHtml string, logger Logger,
) (*DiscoveryResult, error) {
	homeLinks := ExtractLinks(homepageHtml, homepageUrl, logger)

	var categoryLinks []Link
	for _, link := range homeLinks {
		if Classify(link.Url, link.Text) == ClassCategory {
			categoryLinks = append(categoryLinks, link)
			if len(categoryLinks) == maxCategoryPages {
				break
			}
		}
	}
	logger.Info("Homepage has %d links, taking %d category links", len(homeLinks), len(categoryLinks))
	if len(categoryLinks) == 0 {
		return nil, ErrNoCategories
	}

	type categoryPage struct {
		products []Link
		logger   *DummyLogger
		err      error
	}
	pages := make([]categoryPage, len(categoryLinks))
	var wg sync.WaitGroup
	for i, categoryLink := range categoryLinks {
		wg.Add(1)
		go func(i int, categoryLink Link) {
			defer wg.Done()
			// Each goroutine logs into its own buffer, replayed after the
			// fan-in so the shared logger sees no concurrent writes
			pageLogger := NewDummyLogger()
			products, err := fetchCategoryProducts(ctx, client, categoryLink, pageLogger)
			pages[i] = categoryPage{products: products, logger: pageLogger, err: err}
		}(i, categoryLink)
	}
	wg.Wait()
	for _, page := range pages {
		page.logger.ReplayTo(logger)
	}

	var groups []CollectionGroup
	candidates := om.New[string, Link]()
	for i, page := range pages {
		if page.err != nil {
			logger.Warn("Category page %s dropped: %v", categoryLinks[i].Url, page.err)
			continue
		}
		logger.Info("Category page %s has %d product links", categoryLinks[i].Url, len(page.products))
		groups = append(groups, CollectionGroup{
			Collection: categoryLinks[i],
			Products:   page.products,
		})
		for _, product := range page.products {
			if _, ok := candidates.Get(product.Url); !ok {
				candidates.Set(product.Url, product)
			}
		}
	}

	if candidates.Len() == 0 {
		return nil, ErrNoProducts
	}

	flattened := make([]Link, 0, candidates.Len())
	for pair := candidates.Oldest(); pair != nil; pair = pair.Next() {
		flattened = append(flattened, pair.Value)
	}

	return &DiscoveryResult{
		Groups:     groups,
		Candidates: flattened,
	}, nil
}

func fetchCategoryProducts(
	ctx context.Context, client HttpClient, categoryLink Link, logger Logger,
) ([]Link, error) {
	body, err := client.Fetch(ctx, categoryLink.Url, logger)
	if err != nil {
		return nil, err
	}

	var products []Link
	for _, link := range ExtractLinks(body, categoryLink.Url, logger) {
		if Classify(link.Url, link.Text) != ClassProduct {
			continue
		}
		products = append(products, link)
		if len(products) == maxProductsPerCategory {
			break
		}
	}
	return products, nil
}
