package crawler

import (
	"context"
	"sync"
	"time"
)

type PageType string

const (
	PageTypeProduct  PageType = "product"
	PageTypeCategory PageType = "category"
)

// PageContent is a fetched page owned by the analysis stage that consumes it.
type PageContent struct {
	Url      string   `json:"url"`
	PageType PageType `json:"pageType"`
	Content  string   `json:"content"`
}

type CollectMode int

const (
	// CollectParallel fans out all fetches at once, favoring latency.
	CollectParallel CollectMode = iota
	// CollectSerial spaces requests ~1/second as a soft rate-limit courtesy,
	// reducing block risk on touchy storefronts.
	CollectSerial
)

const serialRequestDelay = time.Second

// CollectPages fetches every url, dropping failures from the result instead
// of aborting the batch. Result order follows input order. An empty result is
// the caller's terminal "nothing to analyze" condition, not an error here.
func CollectPages(
	ctx context.Context, client HttpClient, links []Link, pageType PageType, mode CollectMode,
	logger Logger,
) []PageContent {
	if mode == CollectSerial {
		return collectSerial(ctx, client, links, pageType, logger)
	}
	return collectParallel(ctx, client, links, pageType, logger)
}

func collectSerial(
	ctx context.Context, client HttpClient, links []Link, pageType PageType, logger Logger,
) []PageContent {
	var pages []PageContent
	for i, link := range links {
		if i > 0 {
			select {
			case <-time.After(serialRequestDelay):
			case <-ctx.Done():
				return pages
			}
		}
		body, err := client.Fetch(ctx, link.Url, logger)
		if err != nil {
			logger.Warn("Page %s dropped from batch: %v", link.Url, err)
			continue
		}
		pages = append(pages, PageContent{Url: link.Url, PageType: pageType, Content: body})
	}
	return pages
}

func collectParallel(
	ctx context.Context, client HttpClient, links []Link, pageType PageType, logger Logger,
) []PageContent {
	type fetchResult struct {
		body   string
		logger *DummyLogger
		err    error
	}
	results := make([]fetchResult, len(links))
	var wg sync.WaitGroup
	for i, link := range links {
		wg.Add(1)
		go func(i int, link Link) {
			defer wg.Done()
			pageLogger := NewDummyLogger()
			body, err := client.Fetch(ctx, link.Url, pageLogger)
			results[i] = fetchResult{body: body, logger: pageLogger, err: err}
		}(i, link)
	}
	wg.Wait()

	var pages []PageContent
	for i, result := range results {
		result.logger.ReplayTo(logger)
		if result.err != nil {
			logger.Warn("Page %s dropped from batch: %v", links[i].Url, result.err)
			continue
		}
		pages = append(pages, PageContent{Url: links[i].Url, PageType: pageType, Content: result.body})
	}
	return pages
}
