// Package analysis runs the content-quality pipeline: rank discovered
// products, fetch them, infer brand positioning, score the three evaluation
// dimensions and stream progress to the caller.
package analysis

import (
	"storelens/crawler"
)

// Dimension is one of the three fixed evaluation axes.
type Dimension string

const (
	DimensionBrandAlignment Dimension = "brandAlignment"
	DimensionConversion     Dimension = "conversionEffectiveness"
	DimensionSeoAi          Dimension = "seoAiBestPractices"
)

var Dimensions = []Dimension{
	DimensionBrandAlignment,
	DimensionConversion,
	DimensionSeoAi,
}

func (d Dimension) DisplayName() string {
	switch d {
	case DimensionBrandAlignment:
		return "brand alignment"
	case DimensionConversion:
		return "conversion effectiveness"
	case DimensionSeoAi:
		return "SEO and AI discoverability"
	default:
		return string(d)
	}
}

// CategoryScore is one dimension's verdict. A score of 0 with Ok=false is the
// "could not score" sentinel; real oracle scores are 1-100.
type CategoryScore struct {
	Score   int    `json:"score"`
	Summary string `json:"summary"`
	Ok      bool   `json:"ok"`
}

type ProblematicContent struct {
	Content  string `json:"content"`
	Issue    string `json:"issue"`
	Location string `json:"location"`
}

type ConsolidatedAnalysis struct {
	ExecutiveSummary         string        `json:"executiveSummary"`
	InferredBrandPositioning string        `json:"inferredBrandPositioning"`
	BrandAlignment           CategoryScore `json:"brandAlignment"`
	ConversionEffectiveness  CategoryScore `json:"conversionEffectiveness"`
	SeoAiBestPractices       CategoryScore `json:"seoAiBestPractices"`
	// Reserved, always empty for now
	ProblematicContent []ProblematicContent `json:"problematicContent"`
}

func (a *ConsolidatedAnalysis) setScore(dimension Dimension, score CategoryScore) {
	switch dimension {
	case DimensionBrandAlignment:
		a.BrandAlignment = score
	case DimensionConversion:
		a.ConversionEffectiveness = score
	case DimensionSeoAi:
		a.SeoAiBestPractices = score
	}
}

func (a *ConsolidatedAnalysis) scoreFor(dimension Dimension) CategoryScore {
	switch dimension {
	case DimensionBrandAlignment:
		return a.BrandAlignment
	case DimensionConversion:
		return a.ConversionEffectiveness
	case DimensionSeoAi:
		return a.SeoAiBestPractices
	default:
		return CategoryScore{} //nolint:exhaustruct
	}
}

type Stats struct {
	CollectionsCount     int `json:"collectionsCount"`
	ProductsFetchedCount int `json:"productsFetchedCount"`
}

type Result struct {
	Collections []crawler.CollectionGroup `json:"collections"`
	TopProducts []RankedProduct           `json:"topProducts"`
	Analysis    ConsolidatedAnalysis      `json:"analysis"`
	Stats       Stats                     `json:"stats"`
}

// DigitalSource is auxiliary, non-product-page evidence. Today only the
// homepage is ever constructed but the shape supports reviews, social and
// press as future sources.
type DigitalSource struct {
	Type    string `json:"type"`
	Source  string `json:"source"`
	Content string `json:"content"`
	Url     string `json:"url"`
}
