package routes

import (
	"fmt"
	"net/http"
	"strings"

	"storelens/analysis"

	"github.com/goccy/go-json"
)

type AnalyzeHandler struct {
	// Orchestrator is shared across requests. Its fields are read-only during
	// runs; the model ring inside carries the process-wide good/bad model
	// bookkeeping.
	Orchestrator *analysis.Orchestrator
}

type analyzeRequest struct {
	Url string `json:"url"`
}

// Stream runs the analysis and pushes each event as an SSE data line of
// JSON. The client canceling the request aborts the run.
func (h *AnalyzeHandler) Stream(w http.ResponseWriter, r *http.Request) {
	websiteUrl, ok := parseAnalyzeRequest(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondJson(w, http.StatusInternalServerError, map[string]string{
			"error": "streaming is not supported by this server",
		})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for event := range h.Orchestrator.Run(r.Context(), websiteUrl) {
		payload, err := json.Marshal(&event)
		if err != nil {
			panic(err)
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}
}

// Analyze runs the same pipeline but responds once, with either the full
// result payload or {"error": ...}.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	websiteUrl, ok := parseAnalyzeRequest(w, r)
	if !ok {
		return
	}

	var terminal analysis.Event
	for event := range h.Orchestrator.Run(r.Context(), websiteUrl) {
		if event.IsTerminal() {
			terminal = event
		}
	}

	switch terminal.Type {
	case analysis.EventComplete:
		respondJson(w, http.StatusOK, terminal.Result)
	case analysis.EventError:
		respondJson(w, http.StatusOK, map[string]string{"error": terminal.Error})
	default:
		// The stream closed without a terminal event, caller went away
		respondJson(w, http.StatusOK, map[string]string{"error": "the analysis was canceled"})
	}
}

func parseAnalyzeRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJson(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return "", false
	}
	if strings.TrimSpace(req.Url) == "" {
		respondJson(w, http.StatusBadRequest, map[string]string{"error": "url is required"})
		return "", false
	}
	return req.Url, true
}
