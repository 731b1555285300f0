package analysis

import (
	"context"
	"fmt"
	"strings"

	"storelens/crawler"
	"storelens/llm"
)

type RankedProduct struct {
	Url    string `json:"url"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

const maxRankCandidates = 100
const maxRankedProducts = 10

const fallbackRankReason = "Selected in order of discovery"

type rankResponse struct {
	TopProducts []RankedProduct `json:"topProducts"`
}

// RankProducts asks the oracle for the most representative products out of
// the candidates. The oracle is untrusted for url fabrication: every returned
// url must be byte-identical to a candidate, anything else is discarded. On
// oracle failure, or when validation empties the selection, the first
// candidates in discovery order are used instead. Given a non-empty candidate
// list the result is always non-empty.
func RankProducts(
	ctx context.Context, ring *llm.ModelRing, client llm.Client, candidates []crawler.Link,
	logger crawler.Logger,
) []RankedProduct {
	capped := candidates
	if len(capped) > maxRankCandidates {
		capped = capped[:maxRankCandidates]
	}

	var listing strings.Builder
	for _, link := range capped {
		if link.Text != "" {
			fmt.Fprintf(&listing, "%s — %s\n", link.Url, link.Text)
		} else {
			fmt.Fprintf(&listing, "%s\n", link.Url)
		}
	}

	messages := []llm.Message{
		{
			Role: llm.RoleSystem,
			Content: "You select representative product pages for a content quality audit. " +
				"You must only pick urls from the provided list, exactly as written. " +
				"Never invent, modify or complete urls.",
		},
		{
			Role: llm.RoleUser,
			Content: fmt.Sprintf(
				"From the product urls below, select up to %d that best represent the "+
					"store's range (bestsellers, different categories, price points). "+
					"Respond as JSON: {\"topProducts\": [{\"url\": \"...\", \"title\": \"...\", "+
					"\"reason\": \"...\"}]}. Urls must come from this list verbatim:\n\n%s",
				maxRankedProducts, listing.String(),
			),
		},
	}

	var response rankResponse
	err := ring.CompleteJson(ctx, client, messages, llm.Options{Temperature: 0.3}, &response, logger)
	if err != nil {
		logger.Warn("Product ranking failed, using discovery order: %v", err)
		return fallbackRanking(capped)
	}

	validated := validateRanking(response.TopProducts, capped)
	if len(validated) == 0 {
		logger.Warn("Oracle returned no valid product urls, using discovery order")
		return fallbackRanking(capped)
	}
	return validated
}

// validateRanking is the post-hoc half of the hallucination defense: the
// prompt instruction alone is not trusted.
func validateRanking(returned []RankedProduct, candidates []crawler.Link) []RankedProduct {
	memberUrls := make(map[string]bool, len(candidates))
	for _, link := range candidates {
		memberUrls[link.Url] = true
	}

	var validated []RankedProduct
	seen := make(map[string]bool)
	for _, product := range returned {
		if !memberUrls[product.Url] || seen[product.Url] {
			continue
		}
		seen[product.Url] = true
		validated = append(validated, product)
		if len(validated) == maxRankedProducts {
			break
		}
	}
	return validated
}

func fallbackRanking(candidates []crawler.Link) []RankedProduct {
	count := len(candidates)
	if count > maxRankedProducts {
		count = maxRankedProducts
	}
	ranked := make([]RankedProduct, 0, count)
	for _, link := range candidates[:count] {
		title := link.Text
		if title == "" {
			title = link.Url
		}
		ranked = append(ranked, RankedProduct{
			Url:    link.Url,
			Title:  title,
			Reason: fallbackRankReason,
		})
	}
	return ranked
}
