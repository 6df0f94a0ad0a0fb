// Package sqlite implements the domain store interfaces over an embedded
// SQLite database. The service runs it in-memory by default.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/feedrank/feedrank/internal/domain"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// timeLayout is the canonical encoding for created_at columns.
const timeLayout = time.RFC3339Nano

const schema = `
CREATE TABLE IF NOT EXISTS user (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS post (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES user(id),
	content    TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS comment (
	id         TEXT PRIMARY KEY,
	post_id    TEXT NOT NULL REFERENCES post(id),
	user_id    TEXT NOT NULL REFERENCES user(id),
	content    TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_comment_post_id ON comment(post_id);
CREATE INDEX IF NOT EXISTS idx_comment_user_id ON comment(user_id);
CREATE INDEX IF NOT EXISTS idx_post_user_id ON post(user_id);
`

// Repository implements domain.Store using SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository opens the SQLite database at dsn (":memory:" for the
// in-memory store), bootstraps the schema, and returns a new Repository.
// The caller should call Close when the repository is no longer needed.
func NewRepository(dsn string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// An in-memory SQLite database exists per connection, so the pool must
	// be pinned to a single connection or each request would see an empty
	// database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// CreateUser inserts a new user.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user (id, name) VALUES (?, ?)`,
		user.ID, user.Name,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return domain.NewConflictError("user %q already exists", user.ID)
		}
		return &domain.StoreError{Op: "create user", Err: err}
	}
	return nil
}

// GetUser retrieves a user by id.
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM user WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("User not found")
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "get user", Err: err}
	}
	return &u, nil
}

// CreatePost inserts a new post.
func (r *Repository) CreatePost(ctx context.Context, post *domain.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO post (id, user_id, content, created_at) VALUES (?, ?, ?, ?)`,
		post.ID, post.UserID, post.Content, post.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return domain.NewConflictError("post %q already exists", post.ID)
		}
		return &domain.StoreError{Op: "create post", Err: err}
	}
	return nil
}

// GetPost retrieves a post by id.
func (r *Repository) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	var (
		p   domain.Post
		raw string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, content, created_at FROM post WHERE id = ?`, id,
	).Scan(&p.ID, &p.UserID, &p.Content, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("Post not found")
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "get post", Err: err}
	}

	p.CreatedAt, err = parseStoredTime(id, raw)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateComment inserts a new comment.
func (r *Repository) CreateComment(ctx context.Context, comment *domain.Comment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comment (id, post_id, user_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		comment.ID, comment.PostID, comment.UserID, comment.Content,
		comment.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return domain.NewConflictError("comment %q already exists", comment.ID)
		}
		return &domain.StoreError{Op: "create comment", Err: err}
	}
	return nil
}

// ListComments retrieves all comments on a post ordered by comment id.
func (r *Repository) ListComments(ctx context.Context, postID string) ([]domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, post_id, user_id, content, created_at
		FROM comment
		WHERE post_id = ?
		ORDER BY id`, postID,
	)
	if err != nil {
		return nil, &domain.StoreError{Op: "list comments", Err: err}
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var (
			c   domain.Comment
			raw string
		)
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &raw); err != nil {
			return nil, &domain.StoreError{Op: "scan comment", Err: err}
		}
		c.CreatedAt, err = parseStoredTime(c.ID, raw)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "iterate comments", Err: err}
	}
	return comments, nil
}

// InteractedPostContents returns the distinct content of every post the user
// authored or commented on, ordered by post id.
func (r *Repository) InteractedPostContents(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT p.id, p.content
		FROM post p
		LEFT JOIN comment c ON c.post_id = p.id
		WHERE p.user_id = ? OR c.user_id = ?
		ORDER BY p.id`,
		userID, userID,
	)
	if err != nil {
		return nil, &domain.StoreError{Op: "query interacted posts", Err: err}
	}
	defer rows.Close()

	var contents []string
	for rows.Next() {
		var (
			id      string
			content string
		)
		if err := rows.Scan(&id, &content); err != nil {
			return nil, &domain.StoreError{Op: "scan interacted post", Err: err}
		}
		contents = append(contents, content)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "iterate interacted posts", Err: err}
	}
	return contents, nil
}

// FetchCandidates retrieves up to batchSize posts past the cursor whose
// content contains pattern, annotated with comment counts. instr() gives the
// case-sensitive substring semantics the ranker expects; an empty pattern
// matches every post.
func (r *Repository) FetchCandidates(ctx context.Context, pattern, startAfterID string, batchSize int, now time.Time) ([]domain.Candidate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.user_id, p.content, p.created_at, COUNT(c.id)
		FROM post p
		LEFT JOIN comment c ON c.post_id = p.id
		WHERE p.id > ? AND (? = '' OR instr(p.content, ?) > 0)
		GROUP BY p.id, p.user_id, p.content, p.created_at
		ORDER BY p.id
		LIMIT ?`,
		startAfterID, pattern, pattern, batchSize,
	)
	if err != nil {
		return nil, &domain.StoreError{Op: "query candidates", Err: err}
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		var (
			c   domain.Candidate
			raw string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Content, &raw, &c.CommentsCount); err != nil {
			return nil, &domain.StoreError{Op: "scan candidate", Err: err}
		}

		c.CreatedAt, err = parseStoredTime(c.ID, raw)
		if err != nil {
			return nil, err
		}
		c.RecencyScore = ageInDays(now, c.CreatedAt)
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "iterate candidates", Err: err}
	}
	return candidates, nil
}

// ageInDays returns the age of t relative to now in fractional days,
// clamped at zero so a post dated in the future never scores negative.
func ageInDays(now, t time.Time) float64 {
	days := now.Sub(t).Hours() / 24
	if days < 0 {
		return 0
	}
	return days
}

// parseStoredTime decodes a created_at column. A value that does not parse
// is a data integrity failure, not a silent NaN in the sort.
func parseStoredTime(id, raw string) (time.Time, error) {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, &domain.DataIntegrityError{
			Msg: fmt.Sprintf("row %q has malformed created_at %q", id, raw),
			Err: err,
		}
	}
	return t, nil
}

// isConstraintViolation reports whether err is a SQLite constraint failure,
// e.g. a duplicate primary key.
func isConstraintViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}
