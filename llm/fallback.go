package llm

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// ErrExhausted means every candidate model failed for a call. Callers treat
// it as "no result" and apply their own fallback policy.
var ErrExhausted = errors.New("all models failed")

// ModelRing tries a configured list of models in order and remembers which
// ones work. The last model that succeeded is tried first on later calls and
// models that have failed are skipped. Both are soft optimizations: the
// bookkeeping is safely racy, a lost update only costs a redundant retry, and
// a fresh process starts with a clean slate.
type ModelRing struct {
	mu       sync.Mutex
	models   []string
	lastGood string
	failed   map[string]bool
}

func NewModelRing(models []string) *ModelRing {
	return &ModelRing{
		models: models,
		failed: make(map[string]bool),
	}
}

// Reset clears the good/bad bookkeeping. Tests use it between runs.
func (r *ModelRing) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastGood = ""
	r.failed = make(map[string]bool)
}

func (r *ModelRing) candidates() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ordered []string
	if r.lastGood != "" {
		ordered = append(ordered, r.lastGood)
	}
	for _, model := range r.models {
		if model == r.lastGood || r.failed[model] {
			continue
		}
		ordered = append(ordered, model)
	}
	if len(ordered) > 0 {
		return ordered
	}
	// Negative caching must never make the ring empty
	return append([]string{}, r.models...)
}

func (r *ModelRing) noteGood(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastGood = model
	delete(r.failed, model)
}

func (r *ModelRing) noteFailed(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[model] = true
	if r.lastGood == model {
		r.lastGood = ""
	}
}

// CompleteJson runs the conversation against candidate models until one
// returns text that parses into out. Any failure (network, status, parse)
// moves on to the next model. Returns ErrExhausted when none succeed.
func (r *ModelRing) CompleteJson(
	ctx context.Context, client Client, messages []Message, opts Options, out any, logger Logger,
) error {
	opts.ForceJson = true
	for _, model := range r.candidates() {
		if err := ctx.Err(); err != nil {
			return err
		}

		text, err := client.Complete(ctx, model, messages, opts)
		if err != nil {
			logger.Warn("Model %s call failed: %v", model, err)
			r.noteFailed(model)
			continue
		}

		if err := json.Unmarshal([]byte(stripCodeFence(text)), out); err != nil {
			logger.Warn("Model %s returned unparseable output: %v", model, err)
			r.noteFailed(model)
			continue
		}

		r.noteGood(model)
		return nil
	}
	return ErrExhausted
}

// Some models wrap json in a markdown fence even when asked not to.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
