package domain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// FeedService is the core domain service. It owns the business logic for
// creating content, deriving interest profiles, ranking candidates, and
// serving cached feed pages.
type FeedService struct {
	store  Store
	cache  FeedCache
	policy ScoringPolicy
	events EventSink
	logger *slog.Logger

	// group collapses concurrent cache misses for the same key into a
	// single profile build and ranking pass.
	group singleflight.Group

	// now is the clock used for recency scoring. Swappable in tests.
	now func() time.Time

	// defaultBatch is the page size applied when the caller does not ask
	// for one.
	defaultBatch int
}

// NewFeedService creates a FeedService over the given store and cache.
func NewFeedService(store Store, cache FeedCache, policy ScoringPolicy, logger *slog.Logger) *FeedService {
	return &FeedService{
		store:        store,
		cache:        cache,
		policy:       policy,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
		defaultBatch: DefaultBatchSize,
	}
}

// SetDefaultBatchSize overrides the page size used when a request does not
// specify one. Non-positive values are ignored.
func (s *FeedService) SetDefaultBatchSize(n int) {
	if n > 0 {
		s.defaultBatch = n
	}
}

// SetEventSink registers a sink for live content notifications. Passing nil
// disables notifications.
func (s *FeedService) SetEventSink(sink EventSink) {
	s.events = sink
}

// SetClock overrides the evaluation clock. Intended for tests.
func (s *FeedService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateUser validates and persists a new user.
func (s *FeedService) CreateUser(ctx context.Context, user *User) error {
	if user.ID == "" {
		return NewValidationError("id is required")
	}
	if user.Name == "" {
		return NewValidationError("name is required")
	}
	return s.store.CreateUser(ctx, user)
}

// CreatePost validates the post, verifies the author exists, and persists
// it. Feed caches are deliberately not invalidated; a previously computed
// page stays as it was (see GetFeed).
func (s *FeedService) CreatePost(ctx context.Context, post *Post) error {
	if post.ID == "" {
		return NewValidationError("id is required")
	}
	if post.UserID == "" {
		return NewValidationError("user_id is required")
	}
	if post.Content == "" {
		return NewValidationError("content is required")
	}

	if _, err := s.store.GetUser(ctx, post.UserID); err != nil {
		return err
	}

	if post.CreatedAt.IsZero() {
		post.CreatedAt = s.now()
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return err
	}

	if s.events != nil {
		s.events.PostCreated(post)
	}
	return nil
}

// CreateComment validates and persists a new comment. The referenced post
// and user are not existence-checked; a comment is a plain insert.
func (s *FeedService) CreateComment(ctx context.Context, comment *Comment) error {
	if comment.ID == "" {
		return NewValidationError("id is required")
	}
	if comment.PostID == "" {
		return NewValidationError("post_id is required")
	}
	if comment.UserID == "" {
		return NewValidationError("user_id is required")
	}
	if comment.Content == "" {
		return NewValidationError("content is required")
	}

	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = s.now()
	}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return err
	}

	if s.events != nil {
		s.events.CommentCreated(comment)
	}
	return nil
}

// GetPostWithComments retrieves a post and all of its comments.
func (s *FeedService) GetPostWithComments(ctx context.Context, postID string) (*Post, []Comment, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	comments, err := s.store.ListComments(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	return post, comments, nil
}

// GetFeed returns the ranked feed page for (userID, startAfterID, batchSize).
// Pages are memoized for the process lifetime: once a key has been computed,
// later writes never invalidate it and the same page is served forever.
func (s *FeedService) GetFeed(ctx context.Context, userID, startAfterID string, batchSize int) (*FeedPage, error) {
	if userID == "" {
		return nil, NewValidationError("user_id is required")
	}
	if batchSize <= 0 {
		batchSize = s.defaultBatch
	}

	key := CacheKey(userID, startAfterID, batchSize)
	if page, ok := s.cache.Get(key); ok {
		s.logger.Debug("feed cache hit", "key", key)
		return page, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		start := time.Now()
		page, err := s.buildFeed(ctx, userID, startAfterID, batchSize)
		if err != nil {
			return nil, err
		}

		s.cache.Put(key, page)
		s.logger.Info("feed page computed",
			"key", key,
			"entries", len(page.Feed),
			"done", page.Done,
			"duration", time.Since(start),
		)
		return page, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*FeedPage), nil
}

// buildFeed runs the full cache-miss pipeline: profile, candidates, ranking,
// cursor.
func (s *FeedService) buildFeed(ctx context.Context, userID, startAfterID string, batchSize int) (*FeedPage, error) {
	contents, err := s.store.InteractedPostContents(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("build interest profile: %w", err)
	}
	profile := BuildProfile(contents)

	candidates, err := s.store.FetchCandidates(ctx, profile.Pattern, startAfterID, batchSize, s.now())
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	feed := Rank(candidates, profile, s.policy)
	cursor, done := NextCursor(feed)

	return &FeedPage{
		Feed:       feed,
		NextCursor: cursor,
		Done:       done,
	}, nil
}
