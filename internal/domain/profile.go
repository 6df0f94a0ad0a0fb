package domain

import "strings"

// InterestProfile is a user's derived keyword interest profile. It is
// recomputed per request and never persisted.
type InterestProfile struct {
	// Pattern is the content of every interacted post joined with single
	// spaces, in source order. It doubles as the substring filter applied
	// to candidate content. Empty when the user has no interactions.
	Pattern string

	// Weights maps each whitespace-delimited token of Pattern to its
	// occurrence count. A token appearing in two source posts counts twice.
	Weights map[string]int
}

// BuildProfile derives an interest profile from the contents of the posts a
// user authored or commented on, in the order the store returned them.
func BuildProfile(contents []string) *InterestProfile {
	joined := strings.Join(contents, " ")

	weights := make(map[string]int)
	for _, tok := range strings.Fields(joined) {
		weights[tok]++
	}

	return &InterestProfile{
		Pattern: joined,
		Weights: weights,
	}
}

// Empty reports whether the profile carries no interactions, in which case
// the candidate filter degenerates to matching every post.
func (p *InterestProfile) Empty() bool {
	return p.Pattern == ""
}

// Matches reports whether content contains the profile's filter pattern.
// An empty pattern matches everything.
func (p *InterestProfile) Matches(content string) bool {
	return strings.Contains(content, p.Pattern)
}
