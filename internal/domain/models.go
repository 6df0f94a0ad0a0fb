package domain

import "time"

// User is an account that authors posts and comments. Immutable after
// creation; posts and comments reference it by id.
type User struct {
	ID   string
	Name string
}

// Post is a single piece of authored content. Immutable after creation.
type Post struct {
	ID        string
	UserID    string
	Content   string
	CreatedAt time.Time
}

// Comment is attached to exactly one post and one user.
type Comment struct {
	ID        string
	PostID    string
	UserID    string
	Content   string
	CreatedAt time.Time
}

// Candidate is a post eligible for a ranked feed batch, annotated with the
// derived metrics the scorer consumes.
type Candidate struct {
	Post

	// CommentsCount is the number of comments referencing the post.
	CommentsCount int

	// RecencyScore is the post's age in fractional days at evaluation time.
	RecencyScore float64
}

// RankedEntry is a candidate with its computed score.
type RankedEntry struct {
	Candidate

	Score float64
}

// FeedPage is one ranked, paginated feed response. NextCursor is set iff the
// page is non-empty iff Done is false.
type FeedPage struct {
	Feed       []RankedEntry
	NextCursor string
	Done       bool
}
