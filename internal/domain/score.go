package domain

import (
	"sort"
	"strings"
)

// ScoringPolicy computes a composite score for a single candidate. Policies
// are configuration, not algorithm: swapping one never changes how ranking,
// pagination, or caching behave.
type ScoringPolicy interface {
	Name() string
	Score(c *Candidate, profile *InterestProfile) float64
}

// LinearWeights parameterize the weighted-linear scoring policy.
type LinearWeights struct {
	Comments       float64 `yaml:"comments" env:"SCORE_WEIGHT_COMMENTS" env-default:"1.2"`
	Recency        float64 `yaml:"recency" env:"SCORE_WEIGHT_RECENCY" env-default:"0.8"`
	RelevanceMatch float64 `yaml:"relevance_match" env:"SCORE_RELEVANCE_MATCH" env-default:"1.5"`
	RelevanceBase  float64 `yaml:"relevance_base" env:"SCORE_RELEVANCE_BASE" env-default:"1.0"`
}

// DefaultLinearWeights are the production scoring weights.
func DefaultLinearWeights() LinearWeights {
	return LinearWeights{
		Comments:       1.2,
		Recency:        0.8,
		RelevanceMatch: 1.5,
		RelevanceBase:  1.0,
	}
}

// LinearPolicy is the canonical scoring policy:
//
//	score = comments_count*wComments + recency_score*wRecency + relevance
//
// where relevance is wRelevanceMatch when the candidate content matches the
// profile's filter pattern and wRelevanceBase otherwise.
type LinearPolicy struct {
	Weights LinearWeights
}

func (LinearPolicy) Name() string { return "linear" }

func (p LinearPolicy) Score(c *Candidate, profile *InterestProfile) float64 {
	relevance := p.Weights.RelevanceBase
	if profile.Matches(c.Content) {
		relevance = p.Weights.RelevanceMatch
	}
	return float64(c.CommentsCount)*p.Weights.Comments +
		c.RecencyScore*p.Weights.Recency +
		relevance
}

// KeywordFrequencyPolicy is the alternative policy variant: the summed
// profile weight of the candidate's tokens, dampened multiplicatively by age.
//
//	score = (1 + Σ weight(token)) / (1 + recency_score)
type KeywordFrequencyPolicy struct{}

func (KeywordFrequencyPolicy) Name() string { return "keyword-frequency" }

func (KeywordFrequencyPolicy) Score(c *Candidate, profile *InterestProfile) float64 {
	var freq float64
	for _, tok := range strings.Fields(c.Content) {
		freq += float64(profile.Weights[tok])
	}
	return (1 + freq) / (1 + c.RecencyScore)
}

// PolicyByName returns the scoring policy registered under name, defaulting
// to the linear policy with the given weights.
func PolicyByName(name string, weights LinearWeights) ScoringPolicy {
	switch name {
	case "keyword-frequency":
		return KeywordFrequencyPolicy{}
	default:
		return LinearPolicy{Weights: weights}
	}
}

// Rank scores every candidate and orders the result by score descending.
// The sort is stable: entries with equal scores keep their fetch order, so
// pagination stays deterministic.
func Rank(candidates []Candidate, profile *InterestProfile, policy ScoringPolicy) []RankedEntry {
	entries := make([]RankedEntry, len(candidates))
	for i := range candidates {
		entries[i] = RankedEntry{
			Candidate: candidates[i],
			Score:     policy.Score(&candidates[i], profile),
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}
