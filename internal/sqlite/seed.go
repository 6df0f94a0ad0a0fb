package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/feedrank/feedrank/internal/domain"
)

// fixtureBase anchors the deterministic sample data so repeated runs produce
// identical rows.
var fixtureBase = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// FixtureUsers returns the deterministic sample users: user-0 through user-9.
func FixtureUsers() []domain.User {
	users := make([]domain.User, 10)
	for i := range users {
		users[i] = domain.User{
			ID:   fmt.Sprintf("user-%d", i),
			Name: fmt.Sprintf("User%d", i),
		}
	}
	return users
}

// FixturePosts returns the deterministic sample posts: post-0 through
// post-4, authored round-robin, one hour apart.
func FixturePosts() []domain.Post {
	posts := make([]domain.Post, 5)
	for i := range posts {
		posts[i] = domain.Post{
			ID:        fmt.Sprintf("post-%d", i),
			UserID:    fmt.Sprintf("user-%d", i%10),
			Content:   fmt.Sprintf("Post content %d", i),
			CreatedAt: fixtureBase.Add(time.Duration(i) * time.Hour),
		}
	}
	return posts
}

// FixtureComments returns the deterministic sample comments: comment-0
// through comment-9, spread round-robin over the sample posts, one minute
// apart.
func FixtureComments() []domain.Comment {
	comments := make([]domain.Comment, 10)
	for j := range comments {
		comments[j] = domain.Comment{
			ID:        fmt.Sprintf("comment-%d", j),
			PostID:    fmt.Sprintf("post-%d", j%5),
			UserID:    fmt.Sprintf("user-%d", j%10),
			Content:   fmt.Sprintf("Comment %d on post %d", j, j%5),
			CreatedAt: fixtureBase.Add(6*time.Hour + time.Duration(j)*time.Minute),
		}
	}
	return comments
}

// SeedFixtures loads the deterministic sample data if the store is empty.
// Returns true if rows were inserted.
func (r *Repository) SeedFixtures(ctx context.Context) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user`).Scan(&count); err != nil {
		return false, &domain.StoreError{Op: "count users", Err: err}
	}
	if count > 0 {
		return false, nil
	}

	for _, u := range FixtureUsers() {
		if err := r.CreateUser(ctx, &u); err != nil {
			return false, fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}
	for _, p := range FixturePosts() {
		if err := r.CreatePost(ctx, &p); err != nil {
			return false, fmt.Errorf("seed post %s: %w", p.ID, err)
		}
	}
	for _, c := range FixtureComments() {
		if err := r.CreateComment(ctx, &c); err != nil {
			return false, fmt.Errorf("seed comment %s: %w", c.ID, err)
		}
	}
	return true, nil
}
