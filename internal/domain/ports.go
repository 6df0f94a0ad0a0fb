package domain

import (
	"context"
	"time"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	// CreateUser inserts a new user. A duplicate id yields a ConflictError.
	CreateUser(ctx context.Context, user *User) error

	// GetUser retrieves a user by id. Returns a NotFoundError if absent.
	GetUser(ctx context.Context, id string) (*User, error)
}

// PostStore defines persistence operations for posts and their comments.
type PostStore interface {
	// CreatePost inserts a new post. A duplicate id yields a ConflictError.
	CreatePost(ctx context.Context, post *Post) error

	// GetPost retrieves a post by id. Returns a NotFoundError if absent.
	GetPost(ctx context.Context, id string) (*Post, error)

	// ListComments retrieves a post's comments ordered by comment id.
	ListComments(ctx context.Context, postID string) ([]Comment, error)
}

// CommentStore defines persistence operations for comments.
type CommentStore interface {
	// CreateComment inserts a new comment. A duplicate id yields a
	// ConflictError.
	CreateComment(ctx context.Context, comment *Comment) error
}

// FeedStore defines the read queries backing feed ranking.
type FeedStore interface {
	// InteractedPostContents returns the distinct content of every post the
	// user authored or commented on, ordered by post id.
	InteractedPostContents(ctx context.Context, userID string) ([]string, error)

	// FetchCandidates retrieves up to batchSize posts with id greater than
	// startAfterID whose content contains pattern as a substring (an empty
	// pattern matches every post), ordered by id ascending. Each candidate
	// carries its comment count and its age in fractional days relative to
	// now. A row with an unparseable created_at yields a DataIntegrityError.
	FetchCandidates(ctx context.Context, pattern, startAfterID string, batchSize int, now time.Time) ([]Candidate, error)
}

// Store is the full persistence surface the feed service depends on.
type Store interface {
	UserStore
	PostStore
	CommentStore
	FeedStore
}

// FeedCache memoizes ranked feed pages per request key. Implementations must
// be safe for concurrent use.
type FeedCache interface {
	Get(key string) (*FeedPage, bool)
	Put(key string, page *FeedPage)
}

// EventSink receives notifications about newly created content. Used to push
// live updates to connected clients.
type EventSink interface {
	PostCreated(post *Post)
	CommentCreated(comment *Comment)
}
