package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func candidate(id, content string, comments int, recency float64) Candidate {
	return Candidate{
		Post: Post{
			ID:        id,
			UserID:    "user-0",
			Content:   content,
			CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		CommentsCount: comments,
		RecencyScore:  recency,
	}
}

func TestLinearPolicy_ProductionWeights(t *testing.T) {
	t.Parallel()

	policy := LinearPolicy{Weights: DefaultLinearWeights()}
	profile := BuildProfile([]string{"Post content 0"})

	// Matching content: 2*1.2 + 3*0.8 + 1.5
	c := candidate("post-0", "Post content 0", 2, 3)
	require.InDelta(t, 2*1.2+3*0.8+1.5, policy.Score(&c, profile), 1e-9)

	// Non-matching content gets the base relevance: 2*1.2 + 3*0.8 + 1.0
	c = candidate("post-1", "Post content 1", 2, 3)
	require.InDelta(t, 2*1.2+3*0.8+1.0, policy.Score(&c, profile), 1e-9)
}

func TestLinearPolicy_EmptyProfileMatchesEverything(t *testing.T) {
	t.Parallel()

	policy := LinearPolicy{Weights: DefaultLinearWeights()}
	profile := BuildProfile(nil)

	c := candidate("post-0", "whatever", 0, 0)
	require.InDelta(t, 1.5, policy.Score(&c, profile), 1e-9)
}

func TestKeywordFrequencyPolicy(t *testing.T) {
	t.Parallel()

	policy := KeywordFrequencyPolicy{}
	profile := BuildProfile([]string{"go feed go"})

	// Tokens "go feed": 2 + 1 matched weight, age 1 day.
	c := candidate("post-0", "go feed", 0, 1)
	require.InDelta(t, (1+3.0)/2.0, policy.Score(&c, profile), 1e-9)

	// No matched tokens, fresh post.
	c = candidate("post-1", "unrelated", 0, 0)
	require.InDelta(t, 1.0, policy.Score(&c, profile), 1e-9)

	// Older posts are dampened, never boosted.
	fresh := candidate("post-2", "go", 0, 0)
	stale := candidate("post-3", "go", 0, 10)
	require.Greater(t, policy.Score(&fresh, profile), policy.Score(&stale, profile))
}

func TestPolicyByName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "linear", PolicyByName("linear", DefaultLinearWeights()).Name())
	require.Equal(t, "keyword-frequency", PolicyByName("keyword-frequency", DefaultLinearWeights()).Name())
	// Unknown names fall back to the linear policy.
	require.Equal(t, "linear", PolicyByName("", DefaultLinearWeights()).Name())
}

func TestRank_DescendingByScore(t *testing.T) {
	t.Parallel()

	profile := BuildProfile(nil)
	candidates := []Candidate{
		candidate("post-0", "a", 0, 0),
		candidate("post-1", "b", 5, 0),
		candidate("post-2", "c", 2, 0),
	}

	ranked := Rank(candidates, profile, LinearPolicy{Weights: DefaultLinearWeights()})

	require.Len(t, ranked, 3)
	require.Equal(t, "post-1", ranked[0].ID)
	require.Equal(t, "post-2", ranked[1].ID)
	require.Equal(t, "post-0", ranked[2].ID)
	for i := 1; i < len(ranked); i++ {
		require.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
}

func TestRank_StableOnTies(t *testing.T) {
	t.Parallel()

	profile := BuildProfile(nil)

	// All candidates score identically; fetch order must survive.
	var candidates []Candidate
	for i := 0; i < 10; i++ {
		candidates = append(candidates, candidate(fmt.Sprintf("post-%d", i), "same", 1, 2))
	}

	ranked := Rank(candidates, profile, LinearPolicy{Weights: DefaultLinearWeights()})

	require.Len(t, ranked, 10)
	for i, entry := range ranked {
		require.Equal(t, fmt.Sprintf("post-%d", i), entry.ID)
	}
}

func TestRank_EmptyInput(t *testing.T) {
	t.Parallel()

	ranked := Rank(nil, BuildProfile(nil), LinearPolicy{Weights: DefaultLinearWeights()})
	require.Empty(t, ranked)
}
