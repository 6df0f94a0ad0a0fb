// Package client is a small Go client for the feedrank HTTP API. It backs
// cmd/seed and the end-to-end tests.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// Client talks to a running feedrank server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL (e.g. http://localhost:8080).
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// User mirrors the API's user body.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Post mirrors the API's post body.
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment mirrors the API's comment body.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedEntry is one ranked entry of a feed page.
type FeedEntry struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
	CommentsCount int       `json:"comments_count"`
	RecencyScore  float64   `json:"recency_score"`
	Score         float64   `json:"score"`
}

// FeedPage is a ranked, paginated feed response.
type FeedPage struct {
	Feed         []FeedEntry `json:"feed"`
	StartAfterID string      `json:"start_after_id"`
	Done         bool        `json:"done"`
}

// PostWithComments is the GET /posts/{id} response.
type PostWithComments struct {
	Post     Post      `json:"post"`
	Comments []Comment `json:"comments"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
	Details    string `json:"details"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("API error (status %d): %s: %s", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// CreateUser creates a user.
func (c *Client) CreateUser(ctx context.Context, user User) error {
	return c.post(ctx, "/users", user, nil)
}

// CreatePost creates a post.
func (c *Client) CreatePost(ctx context.Context, post Post) error {
	return c.post(ctx, "/posts", post, nil)
}

// CreateComment creates a comment.
func (c *Client) CreateComment(ctx context.Context, comment Comment) error {
	return c.post(ctx, "/comments", comment, nil)
}

// GetFeed retrieves a ranked feed page. batchSize <= 0 and an empty
// startAfterID fall back to the server defaults.
func (c *Client) GetFeed(ctx context.Context, userID, startAfterID string, batchSize int) (*FeedPage, error) {
	q := url.Values{}
	q.Set("user_id", userID)
	if startAfterID != "" {
		q.Set("start_after_id", startAfterID)
	}
	if batchSize > 0 {
		q.Set("batch_size", strconv.Itoa(batchSize))
	}

	var page FeedPage
	if err := c.get(ctx, "/feed?"+q.Encode(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPost retrieves a post and its comments.
func (c *Client) GetPost(ctx context.Context, id string) (*PostWithComments, error) {
	var resp PostWithComments
	if err := c.get(ctx, "/posts/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks the server's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/health", nil)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = string(respBody)
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
