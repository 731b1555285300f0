package analysis

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"storelens/crawler"
	"storelens/llm"
)

// PositioningFailure is returned when every model fails. Positioning is
// advisory input to later stages, so this is a placeholder, not an error.
const PositioningFailure = "Brand positioning could not be inferred from the available content."

const pageContentBudget = 20000
const minPerPageBudget = 2000
const sourceContentBudget = 8000
const minPerSourceBudget = 1000

type positioningResponse struct {
	Positioning string `json:"positioning"`
}

// InferPositioning reduces the collected pages plus auxiliary digital sources
// into one short brand-positioning statement.
func InferPositioning(
	ctx context.Context, ring *llm.ModelRing, client llm.Client, pages []crawler.PageContent,
	sources []DigitalSource, logger crawler.Logger,
) string {
	var evidence strings.Builder

	if len(pages) > 0 {
		perPage := pageContentBudget / len(pages)
		if perPage < minPerPageBudget {
			perPage = minPerPageBudget
		}
		for _, page := range pages {
			fmt.Fprintf(&evidence, "--- %s page: %s\n%s\n\n",
				page.PageType, page.Url, truncate(page.Content, perPage))
		}
	}

	if len(sources) > 0 {
		perSource := sourceContentBudget / len(sources)
		if perSource < minPerSourceBudget {
			perSource = minPerSourceBudget
		}
		for _, source := range sources {
			fmt.Fprintf(&evidence, "--- %s source: %s\n%s\n\n",
				source.Type, source.Source, truncate(source.Content, perSource))
		}
	}

	messages := []llm.Message{
		{
			Role: llm.RoleSystem,
			Content: "You are a brand strategist. You infer how a brand positions itself " +
				"from its website content.",
		},
		{
			Role: llm.RoleUser,
			Content: "Based on the content below, state this brand's positioning in 2-4 " +
				"sentences covering target audience, offering, differentiation and value " +
				"proposition. Respond as JSON: {\"positioning\": \"...\"}\n\n" +
				evidence.String(),
		},
	}

	var response positioningResponse
	err := ring.CompleteJson(ctx, client, messages, llm.Options{Temperature: 0.4}, &response, logger)
	if err != nil || strings.TrimSpace(response.Positioning) == "" {
		logger.Warn("Positioning inference failed: %v", err)
		return PositioningFailure
	}
	return response.Positioning
}

// truncate cuts at a byte budget without splitting a multi-byte rune.
func truncate(str string, limit int) string {
	if len(str) <= limit {
		return str
	}
	for limit > 0 && !utf8.RuneStart(str[limit]) {
		limit--
	}
	return str[:limit]
}
