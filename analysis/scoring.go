package analysis

import (
	"context"
	"fmt"
	"strings"

	"storelens/crawler"
	"storelens/llm"
	"storelens/oops"
)

// UnableToAnalyze pairs with the 0 sentinel score. Real scores are 1-100, so
// a failed dimension stays distinguishable from a legitimately bad one.
const UnableToAnalyze = "Unable to analyze this category."

// SummaryFailure is the executive summary placeholder when every model fails.
const SummaryFailure = "An executive summary could not be generated for this analysis."

var dimensionRubrics = map[Dimension]string{
	DimensionBrandAlignment: "Evaluate brand alignment: does the product content speak with " +
		"one consistent voice, tone and visual language that matches the brand positioning? " +
		"Look for consistent terminology, messaging that reinforces the positioning, and " +
		"copy that feels written by the same brand across pages.",
	DimensionConversion: "Evaluate conversion effectiveness: do the product pages persuade? " +
		"Look for clear value propositions, benefit-led copy, specific product details, " +
		"social proof, urgency where appropriate, and copy that resolves purchase anxiety.",
	DimensionSeoAi: "Evaluate SEO and AI discoverability: is the content structured so search " +
		"engines and AI assistants can find, understand and recommend these products? Look " +
		"for descriptive titles and headings, unique substantive descriptions, structured " +
		"information, and question-answering content.",
}

type scoreResponse struct {
	Score   int    `json:"score"`
	Summary string `json:"summary"`
}

// ScoreDimension issues one independent oracle call for one dimension.
// Failure is returned as an error; the orchestrator degrades it to the
// 0/UnableToAnalyze sentinel rather than aborting siblings.
func ScoreDimension(
	ctx context.Context, ring *llm.ModelRing, client llm.Client, dimension Dimension,
	pages []crawler.PageContent, positioning string, logger crawler.Logger,
) (CategoryScore, error) {
	var evidence strings.Builder
	perPage := pageContentBudget / len(pages)
	if perPage < minPerPageBudget {
		perPage = minPerPageBudget
	}
	for _, page := range pages {
		fmt.Fprintf(&evidence, "--- %s page: %s\n%s\n\n",
			page.PageType, page.Url, truncate(page.Content, perPage))
	}

	messages := []llm.Message{
		{
			Role: llm.RoleSystem,
			Content: "You audit e-commerce content quality. You score one dimension from 1 " +
				"(very poor) to 100 (excellent) and justify the score in 1-3 sentences. " +
				"Respond as JSON: {\"score\": <integer 1-100>, \"summary\": \"...\"}",
		},
		{
			Role: llm.RoleUser,
			Content: fmt.Sprintf("%s\n\nInferred brand positioning: %s\n\nContent to evaluate:\n\n%s",
				dimensionRubrics[dimension], positioning, evidence.String()),
		},
	}

	var response scoreResponse
	err := ring.CompleteJson(ctx, client, messages, llm.Options{Temperature: 0.2}, &response, logger)
	if err != nil {
		return CategoryScore{}, err //nolint:exhaustruct
	}
	if response.Score < 1 || response.Score > 100 {
		return CategoryScore{}, //nolint:exhaustruct
			oops.Newf("score %d for %s is out of range", response.Score, dimension)
	}

	return CategoryScore{
		Score:   response.Score,
		Summary: response.Summary,
		Ok:      true,
	}, nil
}

// SentinelScore is what a failed dimension reports.
func SentinelScore() CategoryScore {
	return CategoryScore{
		Score:   0,
		Summary: UnableToAnalyze,
		Ok:      false,
	}
}

type summaryResponse struct {
	ExecutiveSummary string `json:"executiveSummary"`
}

// SummarizeAnalysis folds the three dimension results and the positioning
// into one executive summary. Degrades to SummaryFailure, never aborts.
func SummarizeAnalysis(
	ctx context.Context, ring *llm.ModelRing, client llm.Client, consolidated *ConsolidatedAnalysis,
	logger crawler.Logger,
) string {
	var scores strings.Builder
	for _, dimension := range Dimensions {
		score := consolidated.scoreFor(dimension)
		if score.Ok {
			fmt.Fprintf(&scores, "%s: %d/100 — %s\n", dimension.DisplayName(), score.Score, score.Summary)
		} else {
			fmt.Fprintf(&scores, "%s: could not be scored\n", dimension.DisplayName())
		}
	}

	messages := []llm.Message{
		{
			Role: llm.RoleSystem,
			Content: "You write executive summaries of e-commerce content audits for busy " +
				"founders. Respond as JSON: {\"executiveSummary\": \"...\"}",
		},
		{
			Role: llm.RoleUser,
			Content: fmt.Sprintf(
				"Write a 3-5 sentence executive summary of this content audit. Lead with "+
					"the overall verdict, then the biggest opportunity.\n\n"+
					"Brand positioning: %s\n\nDimension results:\n%s",
				consolidated.InferredBrandPositioning, scores.String(),
			),
		},
	}

	var response summaryResponse
	err := ring.CompleteJson(ctx, client, messages, llm.Options{Temperature: 0.4}, &response, logger)
	if err != nil || strings.TrimSpace(response.ExecutiveSummary) == "" {
		logger.Warn("Executive summary failed: %v", err)
		return SummaryFailure
	}
	return response.ExecutiveSummary
}
