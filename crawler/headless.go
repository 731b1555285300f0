package crawler

import (
	"context"
	"time"

	"storelens/oops"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// HeadlessClient renders a page in a real browser. Used as a fallback when a
// storefront blocks plain HTTP or serves a script-only shell.
type HeadlessClient interface {
	Fetch(ctx context.Context, url string, logger Logger) (string, error)
}

type RodClient struct{}

func NewRodClient() *RodClient {
	if maxBrowserCount == 0 {
		panic("Set max browser count before using the headless client")
	}
	return &RodClient{}
}

var maxBrowserCount int
var browserLimitCh chan struct{}

func SetMaxBrowserCount(count int) {
	maxBrowserCount = count
	browserLimitCh = make(chan struct{}, count)
	for i := 0; i < count; i++ {
		browserLimitCh <- struct{}{}
	}
}

const headlessLoadTimeout = 30 * time.Second

func (c *RodClient) Fetch(ctx context.Context, url string, logger Logger) (string, error) {
	start := time.Now()
	select {
	case <-browserLimitCh:
	case <-ctx.Done():
		return "", oops.Wrap(ctx.Err())
	}
	defer func() {
		browserLimitCh <- struct{}{}
	}()
	logger.Info("Browser acquired in %v", time.Since(start))

	browserLauncher := launcher.New().Headless(true).NoSandbox(true)
	defer browserLauncher.Kill()
	browserUrl, err := browserLauncher.Launch()
	if err != nil {
		return "", oops.Wrap(err)
	}

	browser := rod.New().ControlURL(browserUrl).Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", oops.Wrap(err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			logger.Warn("Browser close error: %v", err)
		}
	}()

	rawPage, err := browser.Page(proto.TargetCreateTarget{}) //nolint:exhaustruct
	if err != nil {
		return "", oops.Wrap(err)
	}
	page := rawPage.Timeout(headlessLoadTimeout)

	// Images and fonts are dead weight for link extraction
	hijackRouter := page.HijackRequests()
	err = hijackRouter.Add("*", proto.NetworkResourceTypeImage, func(h *rod.Hijack) {
		h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
	})
	if err != nil {
		return "", oops.Wrap(err)
	}
	err = hijackRouter.Add("*", proto.NetworkResourceTypeFont, func(h *rod.Hijack) {
		h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
	})
	if err != nil {
		return "", oops.Wrap(err)
	}
	go hijackRouter.Run()
	defer func() {
		if err := hijackRouter.Stop(); err != nil {
			logger.Warn("Hijack stop error: %v", err)
		}
	}()

	if err := page.Navigate(url); err != nil {
		return "", oops.Wrap(err)
	}
	logger.Info("Waiting till idle: %s", url)
	page.WaitRequestIdle(500*time.Millisecond, []string{".+"}, nil, nil)()

	content, err := page.HTML()
	if err != nil {
		return "", oops.Wrap(err)
	}
	logger.Info("Headless fetch of %s took %v", url, time.Since(start).Round(time.Second))
	return content, nil
}
