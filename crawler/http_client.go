package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// A desktop Chrome user agent. Storefronts routinely serve bot-looking agents
// an empty shell or a block page.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

const maxContentLength = 10 * 1024 * 1024

// FetchError carries a user-facing reason for a failed page fetch.
// StatusCode is 0 when the request never completed; Timeout separates
// deadline expiry from other transport failures like DNS errors and
// refused connections.
type FetchError struct {
	Url        string
	StatusCode int
	Timeout    bool
	Reason     string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s", e.Url, e.Reason)
}

func (e *FetchError) IsBlocked() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

func (e *FetchError) IsTimeout() bool {
	return e.Timeout
}

func fetchFailureReason(statusCode int) string {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return "the site is blocking automated access or requires authentication"
	case statusCode == http.StatusNotFound:
		return "the page was not found, the site may have restructured"
	case statusCode == http.StatusTooManyRequests:
		return "the site is rate-limiting requests, try again later"
	case statusCode >= 500:
		return "the site is experiencing technical difficulty"
	default:
		return fmt.Sprintf("the site returned an unexpected status (%d)", statusCode)
	}
}

type HttpClient interface {
	Fetch(ctx context.Context, url string, logger Logger) (string, error)
}

type HttpClientImpl struct {
	Client *http.Client
}

func NewHttpClientImpl() *HttpClientImpl {
	var client http.Client
	client.Timeout = time.Minute
	return &HttpClientImpl{
		Client: &client,
	}
}

// Fetch does a single GET and returns the body. Retry policy belongs to the
// caller.
func (c *HttpClientImpl) Fetch(ctx context.Context, url string, logger Logger) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &FetchError{Url: url, StatusCode: 0, Reason: "the url could not be requested"}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.Client.Do(req)
	if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return "", &FetchError{
			Url: url, StatusCode: 0, Timeout: true, Reason: "the site did not respond in time",
		}
	} else if err != nil {
		logger.Info("HTTP request error for %s: %v", url, err)
		return "", &FetchError{Url: url, StatusCode: 0, Reason: "the site could not be reached"}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{
			Url:        url,
			StatusCode: resp.StatusCode,
			Reason:     fetchFailureReason(resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxContentLength))
	if err != nil {
		logger.Info("HTTP read body error for %s: %v", url, err)
		return "", &FetchError{Url: url, StatusCode: 0, Reason: "the page body could not be read"}
	}

	return string(body), nil
}
