package httpserver

import (
	"time"

	"github.com/feedrank/feedrank/internal/domain"
)

// Request bodies are typed per endpoint; required fields are validated by
// the service before any store access. A missing field and an empty string
// are treated the same.

type createUserRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type createPostRequest struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

type createCommentRequest struct {
	ID      string `json:"id"`
	PostID  string `json:"post_id"`
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type postResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type commentResponse struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type postWithCommentsResponse struct {
	Post     postResponse      `json:"post"`
	Comments []commentResponse `json:"comments"`
}

// feedEntryResponse is one ranked feed entry. The derived metrics are
// exposed for diagnostics alongside the post fields.
type feedEntryResponse struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
	CommentsCount int       `json:"comments_count"`
	RecencyScore  float64   `json:"recency_score"`
	Score         float64   `json:"score"`
}

type feedResponse struct {
	Feed         []feedEntryResponse `json:"feed"`
	StartAfterID string              `json:"start_after_id,omitempty"`
	Done         bool                `json:"done,omitempty"`
}

func newPostResponse(p *domain.Post) postResponse {
	return postResponse{
		ID:        p.ID,
		UserID:    p.UserID,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
	}
}

func newCommentResponse(c *domain.Comment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		UserID:    c.UserID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

func newPostWithCommentsResponse(post *domain.Post, comments []domain.Comment) postWithCommentsResponse {
	resp := postWithCommentsResponse{
		Post:     newPostResponse(post),
		Comments: make([]commentResponse, len(comments)),
	}
	for i := range comments {
		resp.Comments[i] = newCommentResponse(&comments[i])
	}
	return resp
}

func newFeedResponse(page *domain.FeedPage) feedResponse {
	resp := feedResponse{
		Feed:         make([]feedEntryResponse, len(page.Feed)),
		StartAfterID: page.NextCursor,
		Done:         page.Done,
	}
	for i, entry := range page.Feed {
		resp.Feed[i] = feedEntryResponse{
			ID:            entry.ID,
			UserID:        entry.UserID,
			Content:       entry.Content,
			CreatedAt:     entry.CreatedAt,
			CommentsCount: entry.CommentsCount,
			RecencyScore:  entry.RecencyScore,
			Score:         entry.Score,
		}
	}
	return resp
}
