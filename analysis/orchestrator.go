package analysis

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"storelens/crawler"
	"storelens/llm"
	"storelens/log"

	"github.com/google/uuid"
)

const defaultSiteCheckTimeout = 5 * time.Second
const defaultOverallTimeout = 120 * time.Second

// Orchestrator drives one analysis run end to end and streams tagged events
// to the caller. The channel is the only coupling to the transport layer.
type Orchestrator struct {
	HttpClient crawler.HttpClient
	// Headless is optional. When set, a blocked or empty homepage is retried
	// through a real browser before giving up.
	Headless crawler.HeadlessClient
	Client   llm.Client
	Models   *llm.ModelRing
	Logger   crawler.Logger
	// Shuffle is injectable so tests can pin the dimension order. Defaults
	// to rand.Shuffle. The shuffle only exists to avoid positional bias when
	// a human reviews repeated runs.
	Shuffle          func(n int, swap func(i, j int))
	SiteCheckTimeout time.Duration
	OverallTimeout   time.Duration
	CollectMode      crawler.CollectMode
}

// Run starts the pipeline and returns the event stream. The channel is
// closed after exactly one terminal event (complete or error). Canceling ctx
// closes the stream and abandons in-flight calls best-effort.
func (o *Orchestrator) Run(ctx context.Context, websiteUrl string) <-chan Event {
	events := make(chan Event, 16)
	go o.run(ctx, websiteUrl, events)
	return events
}

func (o *Orchestrator) run(callerCtx context.Context, websiteUrl string, events chan<- Event) {
	defer close(events)

	runId := uuid.NewString()
	logger := o.Logger
	if logger == nil {
		logger = NewRunZeroLogger(runId)
	}

	overallTimeout := o.OverallTimeout
	if overallTimeout == 0 {
		overallTimeout = defaultOverallTimeout
	}
	siteCheckTimeout := o.SiteCheckTimeout
	if siteCheckTimeout == 0 {
		siteCheckTimeout = defaultSiteCheckTimeout
	}

	// The pipeline runs under the overall deadline, but event delivery only
	// aborts when the caller itself is gone. Otherwise the timeout would
	// suppress its own error event.
	ctx, cancel := context.WithTimeout(callerCtx, overallTimeout)
	defer cancel()
	emit := func(event Event) {
		select {
		case events <- event:
		case <-callerCtx.Done():
		}
	}
	fail := func(message string) {
		logger.Warn("Analysis failed: %s", message)
		emit(Event{Type: EventError, Error: message}) //nolint:exhaustruct
	}

	url := NormalizeWebsiteUrl(websiteUrl)
	logger.Info("Starting analysis of %s", url)
	emit(Event{ //nolint:exhaustruct
		Type:    EventStart,
		RunId:   runId,
		Message: fmt.Sprintf("Starting analysis of %s", url),
	})

	homepageHtml, err := o.fetchHomepage(ctx, url, siteCheckTimeout, logger)
	if err != nil {
		fail(terminalMessage(err))
		return
	}

	discovery, err := crawler.DiscoverCandidates(ctx, o.HttpClient, url, homepageHtml, logger)
	if errors.Is(err, crawler.ErrNoCategories) && o.Headless != nil {
		// A script-only shell has no anchors for the plain fetch to see
		logger.Info("No category links in plain HTML, retrying homepage with headless browser")
		if headlessHtml, headlessErr := o.Headless.Fetch(ctx, url, logger); headlessErr == nil {
			homepageHtml = headlessHtml
			discovery, err = crawler.DiscoverCandidates(ctx, o.HttpClient, url, homepageHtml, logger)
		}
	}
	if err != nil {
		fail(terminalMessage(err))
		return
	}

	emit(Event{ //nolint:exhaustruct
		Type: EventInitial,
		Message: fmt.Sprintf("Found %d collections with %d candidate products, selecting representatives",
			len(discovery.Groups), len(discovery.Candidates)),
	})

	topProducts := RankProducts(ctx, o.Models, o.Client, discovery.Candidates, logger)
	if ctx.Err() != nil {
		fail(terminalMessage(ctx.Err()))
		return
	}

	productLinks := make([]crawler.Link, 0, len(topProducts))
	for _, product := range topProducts {
		productLinks = append(productLinks, crawler.Link{Url: product.Url, Text: product.Title})
	}
	pages := crawler.CollectPages(
		ctx, o.HttpClient, productLinks, crawler.PageTypeProduct, o.CollectMode, logger,
	)
	if len(pages) == 0 {
		if ctx.Err() != nil {
			fail(terminalMessage(ctx.Err()))
		} else {
			fail("None of the selected product pages could be fetched. " +
				"The site may be blocking automated access.")
		}
		return
	}

	emit(Event{ //nolint:exhaustruct
		Type:    EventProductsFetched,
		Message: fmt.Sprintf("Fetched %d of %d product pages", len(pages), len(topProducts)),
	})

	sources := []DigitalSource{{
		Type:    "website",
		Source:  "homepage",
		Content: homepageHtml,
		Url:     url,
	}}

	emit(Event{Type: EventProgress, Message: "Inferring brand positioning"}) //nolint:exhaustruct
	consolidated := ConsolidatedAnalysis{ //nolint:exhaustruct
		InferredBrandPositioning: InferPositioning(ctx, o.Models, o.Client, pages, sources, logger),
		ProblematicContent:       []ProblematicContent{},
	}

	o.scoreDimensions(ctx, emit, pages, &consolidated, logger)
	if callerCtx.Err() != nil {
		return
	}
	if ctx.Err() != nil {
		fail(terminalMessage(ctx.Err()))
		return
	}

	emit(Event{Type: EventProgress, Message: "Generating executive summary"}) //nolint:exhaustruct
	consolidated.ExecutiveSummary = SummarizeAnalysis(ctx, o.Models, o.Client, &consolidated, logger)

	result := Result{
		Collections: discovery.Groups,
		TopProducts: topProducts,
		Analysis:    consolidated,
		Stats: Stats{
			CollectionsCount:     len(discovery.Groups),
			ProductsFetchedCount: len(pages),
		},
	}
	logger.Info("Analysis complete: %d collections, %d pages", len(discovery.Groups), len(pages))
	emit(Event{Type: EventComplete, Message: "Analysis complete", Result: &result}) //nolint:exhaustruct
}

func (o *Orchestrator) fetchHomepage(
	ctx context.Context, url string, siteCheckTimeout time.Duration, logger crawler.Logger,
) (string, error) {
	siteCtx, cancel := context.WithTimeout(ctx, siteCheckTimeout)
	defer cancel()

	homepageHtml, err := o.HttpClient.Fetch(siteCtx, url, logger)
	if err == nil {
		return homepageHtml, nil
	}

	var fetchErr *crawler.FetchError
	if o.Headless != nil && errors.As(err, &fetchErr) && (fetchErr.IsBlocked() || fetchErr.IsTimeout()) {
		logger.Info("Homepage fetch failed (%v), retrying with headless browser", err)
		if headlessHtml, headlessErr := o.Headless.Fetch(ctx, url, logger); headlessErr == nil {
			return headlessHtml, nil
		}
	}
	return "", err
}

// scoreDimensions dispatches the three dimension calls concurrently in
// shuffled order. Each settles independently: completion order follows oracle
// latency and a failed dimension degrades to the sentinel without canceling
// its siblings.
func (o *Orchestrator) scoreDimensions(
	ctx context.Context, emit func(Event), pages []crawler.PageContent,
	consolidated *ConsolidatedAnalysis, logger crawler.Logger,
) {
	shuffle := o.Shuffle
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	dimensions := make([]Dimension, len(Dimensions))
	copy(dimensions, Dimensions)
	shuffle(len(dimensions), func(i, j int) {
		dimensions[i], dimensions[j] = dimensions[j], dimensions[i]
	})

	for _, dimension := range dimensions {
		emit(Event{ //nolint:exhaustruct
			Type:     EventProgress,
			Category: dimension,
			Message:  fmt.Sprintf("Analyzing %s", dimension.DisplayName()),
		})
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, dimension := range dimensions {
		wg.Add(1)
		go func(dimension Dimension) {
			defer wg.Done()
			dimensionLogger := crawler.NewDummyLogger()
			score, err := ScoreDimension(
				ctx, o.Models, o.Client, dimension, pages,
				consolidated.InferredBrandPositioning, dimensionLogger,
			)

			mu.Lock()
			defer mu.Unlock()
			dimensionLogger.ReplayTo(logger)
			if err != nil {
				logger.Warn("Dimension %s failed: %v", dimension, err)
				consolidated.setScore(dimension, SentinelScore())
				emit(Event{ //nolint:exhaustruct
					Type:     EventCategoryError,
					Category: dimension,
					Message:  fmt.Sprintf("Could not analyze %s", dimension.DisplayName()),
					Score:    scorePtr(SentinelScore()),
				})
				return
			}
			consolidated.setScore(dimension, score)
			emit(Event{ //nolint:exhaustruct
				Type:     EventCategoryComplete,
				Category: dimension,
				Message:  fmt.Sprintf("Scored %s: %d/100", dimension.DisplayName(), score.Score),
				Score:    scorePtr(score),
			})
		}(dimension)
	}
	wg.Wait()
}

func scorePtr(score CategoryScore) *CategoryScore {
	return &score
}

// NormalizeWebsiteUrl defaults the protocol to https when the caller omitted
// it.
func NormalizeWebsiteUrl(websiteUrl string) string {
	trimmed := strings.TrimSpace(websiteUrl)
	if trimmed == "" {
		return trimmed
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return "https://" + trimmed
	}
	return trimmed
}

func terminalMessage(err error) string {
	var fetchErr *crawler.FetchError
	switch {
	case errors.Is(err, crawler.ErrNoCategories), errors.Is(err, crawler.ErrNoProducts):
		return "No product URLs were found on this site. It may not be an e-commerce " +
			"store, or its catalog may be behind search or scripts we can't see."
	case errors.As(err, &fetchErr) && fetchErr.IsBlocked():
		return "The site appears to be blocking automated access. Try again later or " +
			"analyze a different site."
	case errors.As(err, &fetchErr) && fetchErr.IsTimeout():
		return "The site took too long to respond. It may be down or very slow right now."
	case errors.As(err, &fetchErr):
		return fmt.Sprintf("The site could not be fetched: %s.", fetchErr.Reason)
	case errors.Is(err, context.DeadlineExceeded):
		return "The analysis timed out. The site may be very slow, try again later."
	case errors.Is(err, context.Canceled):
		return "The analysis was canceled."
	default:
		return "The analysis failed unexpectedly. Please try again."
	}
}

// NewRunZeroLogger builds the default per-run logger.
func NewRunZeroLogger(runId string) crawler.Logger {
	return &crawler.ZeroLogger{Logger: &log.RunLogger{RunId: runId}}
}
