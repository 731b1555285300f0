package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storelens/analysis"
	"storelens/crawler"
	"storelens/llm"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

type stubSite struct {
	pages map[string]string
	errs  map[string]error
}

func (s *stubSite) Fetch(ctx context.Context, url string, logger crawler.Logger) (string, error) {
	if err, ok := s.errs[url]; ok {
		return "", err
	}
	if page, ok := s.pages[url]; ok {
		return page, nil
	}
	return "", &crawler.FetchError{Url: url, StatusCode: 404, Reason: "the page was not found"}
}

func storefrontSite() *stubSite {
	return &stubSite{ //nolint:exhaustruct
		pages: map[string]string{
			"https://s.example.com": `<a href="/collections/mugs">Mugs</a>`,
			"https://s.example.com/collections/mugs": `
				<a href="/products/diner-mug">Diner Mug</a>
				<a href="/products/camp-mug">Camp Mug</a>`,
			"https://s.example.com/products/diner-mug": "<html>diner mug</html>",
			"https://s.example.com/products/camp-mug":  "<html>camp mug</html>",
		},
	}
}

func scriptedOracle() llm.Client {
	return llm.ClientFunc(func(
		ctx context.Context, model string, messages []llm.Message, opts llm.Options,
	) (string, error) {
		prompt := messages[len(messages)-1].Content
		switch {
		case strings.Contains(prompt, "select up to"):
			return `{"topProducts": [
				{"url": "https://s.example.com/products/diner-mug", "title": "Diner Mug", "reason": "bestseller"}
			]}`, nil
		case strings.Contains(prompt, "brand's positioning"):
			return `{"positioning": "Durable mugs for everyday coffee."}`, nil
		case strings.Contains(prompt, "executive summary"):
			return `{"executiveSummary": "Good fundamentals, thin descriptions."}`, nil
		default:
			return `{"score": 70, "summary": "Serviceable."}`, nil
		}
	})
}

func newHandler(site *stubSite) *AnalyzeHandler {
	return &AnalyzeHandler{
		Orchestrator: &analysis.Orchestrator{ //nolint:exhaustruct
			HttpClient:  site,
			Client:      scriptedOracle(),
			Models:      llm.NewModelRing([]string{"m"}),
			Logger:      crawler.NewDummyLogger(),
			CollectMode: crawler.CollectParallel,
		},
	}
}

func analyzeRequestBody(t *testing.T, url string) *strings.Reader {
	t.Helper()
	body, err := json.Marshal(map[string]string{"url": url})
	require.NoError(t, err)
	return strings.NewReader(string(body))
}

func TestAnalyzeSuccess(t *testing.T) {
	handler := newHandler(storefrontSite())
	request := httptest.NewRequest(
		http.MethodPost, "/api/analyze", analyzeRequestBody(t, "s.example.com"),
	)
	recorder := httptest.NewRecorder()

	handler.Analyze(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
	var result analysis.Result
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &result))
	require.Equal(t, 1, result.Stats.CollectionsCount)
	require.Equal(t, 1, result.Stats.ProductsFetchedCount)
	require.Len(t, result.TopProducts, 1)
	require.Equal(t, 70, result.Analysis.BrandAlignment.Score)
	require.NotEmpty(t, result.Analysis.ExecutiveSummary)
}

func TestAnalyzeErrorPayload(t *testing.T) {
	site := &stubSite{ //nolint:exhaustruct
		errs: map[string]error{
			"https://s.example.com": &crawler.FetchError{
				Url: "https://s.example.com", StatusCode: 403,
				Reason: "the site is blocking automated access or requires authentication",
			},
		},
	}
	handler := newHandler(site)
	request := httptest.NewRequest(
		http.MethodPost, "/api/analyze", analyzeRequestBody(t, "s.example.com"),
	)
	recorder := httptest.NewRecorder()

	handler.Analyze(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	require.Contains(t, payload["error"], "blocking automated access")
}

func TestAnalyzeBadRequest(t *testing.T) {
	handler := newHandler(storefrontSite())

	for name, body := range map[string]string{
		"invalid json": "{not json",
		"missing url":  "{}",
		"blank url":    `{"url": "  "}`,
	} {
		t.Run(name, func(t *testing.T) {
			request := httptest.NewRequest(
				http.MethodPost, "/api/analyze", strings.NewReader(body),
			)
			recorder := httptest.NewRecorder()
			handler.Analyze(recorder, request)
			require.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	}
}

func TestStreamEmitsEventLines(t *testing.T) {
	handler := newHandler(storefrontSite())
	request := httptest.NewRequest(
		http.MethodPost, "/api/analyze/stream", analyzeRequestBody(t, "s.example.com"),
	)
	recorder := httptest.NewRecorder()

	handler.Stream(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "text/event-stream", recorder.Header().Get("Content-Type"))
	require.Equal(t, "no", recorder.Header().Get("X-Accel-Buffering"))

	var events []analysis.Event
	for _, line := range strings.Split(recorder.Body.String(), "\n") {
		if line == "" {
			continue
		}
		require.True(t, strings.HasPrefix(line, "data: "), "unexpected line: %q", line)
		var event analysis.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event))
		events = append(events, event)
	}

	require.NotEmpty(t, events)
	require.Equal(t, analysis.EventStart, events[0].Type)
	terminalCount := 0
	for _, event := range events {
		if event.IsTerminal() {
			terminalCount++
		}
	}
	require.Equal(t, 1, terminalCount)
	terminal := events[len(events)-1]
	require.Equal(t, analysis.EventComplete, terminal.Type)
	require.NotNil(t, terminal.Result)
	require.Len(t, terminal.Result.Collections, 1)
	require.Len(t, terminal.Result.Collections[0].Products, 2)
}

func TestMiscHealth(t *testing.T) {
	recorder := httptest.NewRecorder()
	MiscHealth(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestStreamBadRequestSkipsSse(t *testing.T) {
	handler := newHandler(storefrontSite())
	request := httptest.NewRequest(
		http.MethodPost, "/api/analyze/stream", strings.NewReader("{not json"),
	)
	recorder := httptest.NewRecorder()

	handler.Stream(recorder, request)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
}
