package httpserver_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/feedrank/feedrank/internal/client"
	"github.com/feedrank/feedrank/internal/config"
	"github.com/feedrank/feedrank/internal/domain"
	"github.com/feedrank/feedrank/internal/feedcache"
	"github.com/feedrank/feedrank/internal/httpserver"
	"github.com/feedrank/feedrank/internal/sqlite"
)

// evalTime is the fixed evaluation clock: two days after the first fixture
// post, so recency scores are exact.
var evalTime = sqlite.FixturePosts()[0].CreatedAt.Add(48 * time.Hour)

func newTestServer(t *testing.T, seed bool) (*httptest.Server, *client.Client) {
	t.Helper()

	repo, err := sqlite.NewRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	if seed {
		seeded, err := repo.SeedFixtures(context.Background())
		require.NoError(t, err)
		require.True(t, seeded)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := domain.NewFeedService(repo, feedcache.New(),
		domain.LinearPolicy{Weights: domain.DefaultLinearWeights()}, logger)
	svc.SetClock(func() time.Time { return evalTime })

	srv := httpserver.NewServer(&config.Config{}, svc, logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return ts, client.New(ts.URL)
}

func requireStatus(t *testing.T, err error, status int) *client.APIError {
	t.Helper()
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	require.Equal(t, status, apiErr.StatusCode)
	return apiErr
}

func TestCreateUser(t *testing.T) {
	t.Parallel()

	_, c := newTestServer(t, false)
	ctx := context.Background()

	require.NoError(t, c.CreateUser(ctx, client.User{ID: "u1", Name: "Ada"}))

	// Duplicate ids fail rather than overwrite.
	err := c.CreateUser(ctx, client.User{ID: "u1", Name: "Bob"})
	requireStatus(t, err, http.StatusConflict)

	// Missing name.
	err = c.CreateUser(ctx, client.User{ID: "u2"})
	apiErr := requireStatus(t, err, http.StatusBadRequest)
	require.Contains(t, apiErr.Message, "name")
}

func TestCreatePost_UnknownUser(t *testing.T) {
	t.Parallel()

	_, c := newTestServer(t, false)

	err := c.CreatePost(context.Background(), client.Post{ID: "p1", UserID: "ghost", Content: "hi"})
	apiErr := requireStatus(t, err, http.StatusNotFound)
	require.Equal(t, "User not found", apiErr.Message)
}

func TestGetPost(t *testing.T) {
	t.Parallel()

	_, c := newTestServer(t, true)
	ctx := context.Background()

	resp, err := c.GetPost(ctx, "post-0")
	require.NoError(t, err)
	require.Equal(t, "Post content 0", resp.Post.Content)
	require.Equal(t, "user-0", resp.Post.UserID)
	require.Len(t, resp.Comments, 2)
	require.Equal(t, "comment-0", resp.Comments[0].ID)

	_, err = c.GetPost(ctx, "999")
	apiErr := requireStatus(t, err, http.StatusNotFound)
	require.Equal(t, "Post not found", apiErr.Message)
}

func TestFeed_RequiresUserID(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, true)

	resp, err := ts.Client().Get(ts.URL + "/feed")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = ts.Client().Get(ts.URL + "/feed?user_id=user-0&batch_size=nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFeed_SeededScenario(t *testing.T) {
	t.Parallel()

	_, c := newTestServer(t, true)

	// user-0 authored post-0, so the interaction filter narrows candidates
	// to posts containing "Post content 0".
	page, err := c.GetFeed(context.Background(), "user-0", "", 0)
	require.NoError(t, err)
	require.Len(t, page.Feed, 1)
	require.False(t, page.Done)
	require.Equal(t, "post-0", page.StartAfterID)

	entry := page.Feed[0]
	require.Equal(t, "post-0", entry.ID)
	require.Equal(t, 2, entry.CommentsCount)
	require.InDelta(t, 2.0, entry.RecencyScore, 1e-9)

	// 2 comments * 1.2 + 2 days * 0.8 + 1.5 relevance for the filter match.
	require.InDelta(t, 2*1.2+2.0*0.8+1.5, entry.Score, 1e-9)
}

func TestFeed_EmptyProfileMatchesAllPosts(t *testing.T) {
	t.Parallel()

	_, c := newTestServer(t, true)
	ctx := context.Background()

	require.NoError(t, c.CreateUser(ctx, client.User{ID: "user-x", Name: "Lurker"}))

	page, err := c.GetFeed(ctx, "user-x", "", 0)
	require.NoError(t, err)
	require.Len(t, page.Feed, 5, "no interactions must match every post, not none")
	require.False(t, page.Done)

	// Equal comment counts and relevance leave recency deciding: oldest
	// posts rank first under the production weights.
	require.Equal(t, "post-0", page.Feed[0].ID)
	require.Equal(t, "post-4", page.Feed[4].ID)
	require.Equal(t, "post-4", page.StartAfterID)

	// Paging past the last post terminates the feed.
	page, err = c.GetFeed(ctx, "user-x", page.StartAfterID, 0)
	require.NoError(t, err)
	require.Empty(t, page.Feed)
	require.True(t, page.Done)
	require.Empty(t, page.StartAfterID)
}

func TestFeed_BatchSizePagination(t *testing.T) {
	t.Parallel()

	_, c := newTestServer(t, true)
	ctx := context.Background()

	require.NoError(t, c.CreateUser(ctx, client.User{ID: "user-x", Name: "Lurker"}))

	page, err := c.GetFeed(ctx, "user-x", "", 2)
	require.NoError(t, err)
	require.Len(t, page.Feed, 2)
	require.False(t, page.Done)

	// The cursor is the last entry of the ranked batch; the next page picks
	// up from there.
	page2, err := c.GetFeed(ctx, "user-x", page.StartAfterID, 2)
	require.NoError(t, err)
	require.Len(t, page2.Feed, 2)
	for _, first := range page.Feed {
		for _, second := range page2.Feed {
			require.NotEqual(t, first.ID, second.ID)
		}
	}
}

func TestFeed_CachedResponseIsByteIdentical(t *testing.T) {
	t.Parallel()

	ts, c := newTestServer(t, true)
	ctx := context.Background()

	const feedURL = "/feed?user_id=user-x&batch_size=10"
	require.NoError(t, c.CreateUser(ctx, client.User{ID: "user-x", Name: "Lurker"}))
	require.NoError(t, c.CreateUser(ctx, client.User{ID: "user-y", Name: "Author"}))

	first := getBody(t, ts, feedURL)

	// New content lands after the page was memoized...
	require.NoError(t, c.CreatePost(ctx, client.Post{ID: "post-9", UserID: "user-y", Content: "brand new"}))

	// ...and the cached page never notices. Intentional staleness.
	second := getBody(t, ts, feedURL)
	require.Equal(t, first, second, "cached feed must be byte-identical despite the new post")

	// A fresh key recomputes and sees the new post.
	page, err := c.GetFeed(ctx, "user-x", "", 20)
	require.NoError(t, err)
	require.Len(t, page.Feed, 6)
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, false)

	resp, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-42")
	resp, err = ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "req-42", resp.Header.Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	ts, c := newTestServer(t, true)

	_, err := c.GetFeed(context.Background(), "user-0", "", 0)
	require.NoError(t, err)

	body := string(getBody(t, ts, "/metrics"))
	require.Contains(t, body, "feedrank_feed_cache_misses_total")
	require.Contains(t, body, "feedrank_http_request_duration_seconds")
}

func TestWebsocketLiveEvents(t *testing.T) {
	t.Parallel()

	_, c := newTestServer(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan client.LiveEvent, 8)
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		c.Watch(ctx, func(ev client.LiveEvent) { events <- ev })
	}()

	// Give the subscriber a moment to finish the upgrade.
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, c.CreateUser(ctx, client.User{ID: "u1", Name: "Ada"}))
	require.NoError(t, c.CreatePost(ctx, client.Post{ID: "p1", UserID: "u1", Content: "hello live"}))
	require.NoError(t, c.CreateComment(ctx, client.Comment{ID: "c1", PostID: "p1", UserID: "u1", Content: "first"}))

	got := make(map[string]bool)
	deadline := time.After(3 * time.Second)
	for len(got) < 2 {
		select {
		case ev := <-events:
			got[ev.Type] = true
			switch ev.Type {
			case "post_created":
				require.NotNil(t, ev.Post)
				require.Equal(t, "p1", ev.Post.ID)
			case "comment_created":
				require.NotNil(t, ev.Comment)
				require.Equal(t, "c1", ev.Comment.ID)
			}
		case <-deadline:
			t.Fatalf("timed out waiting for live events, got %v", got)
		}
	}

	cancel()
	select {
	case <-watchDone:
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func getBody(t *testing.T, ts *httptest.Server, path string) []byte {
	t.Helper()
	resp, err := ts.Client().Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return body
}

func TestMalformedBody(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, false)

	resp, err := ts.Client().Post(ts.URL+"/users", "application/json",
		strings.NewReader(`{"id": 42, "name": []}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
