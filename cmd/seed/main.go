// Command seed loads sample users, posts, and comments into a running
// feedrank server over its HTTP API. By default it loads the deterministic
// fixture set; -file loads a JSON document instead.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/goccy/go-json"

	"github.com/feedrank/feedrank/internal/client"
	"github.com/feedrank/feedrank/internal/sqlite"
)

// fixtureFile is the -file document shape.
type fixtureFile struct {
	Users    []client.User    `json:"users"`
	Posts    []client.Post    `json:"posts"`
	Comments []client.Comment `json:"comments"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		addr  string
		file  string
		watch bool
	)

	flag.StringVar(&addr, "addr", envOrDefault("FEEDRANK_ADDR", "http://localhost:8080"), "base URL of the feedrank server")
	flag.StringVar(&file, "file", "", "JSON fixture file (defaults to the built-in deterministic set)")
	flag.BoolVar(&watch, "watch", false, "after seeding, stream live events until interrupted")
	flag.Parse()

	ctx := context.Background()
	c := client.New(addr)

	if err := c.Health(ctx); err != nil {
		return fmt.Errorf("server not reachable at %s: %w", addr, err)
	}

	fixtures, err := loadFixtures(file)
	if err != nil {
		return err
	}

	created := 0
	for _, u := range fixtures.Users {
		if err := create(c.CreateUser(ctx, u), "user", u.ID, &created); err != nil {
			return err
		}
	}
	for _, p := range fixtures.Posts {
		if err := create(c.CreatePost(ctx, p), "post", p.ID, &created); err != nil {
			return err
		}
	}
	for _, cm := range fixtures.Comments {
		if err := create(c.CreateComment(ctx, cm), "comment", cm.ID, &created); err != nil {
			return err
		}
	}
	fmt.Printf("Seeded %d rows into %s\n", created, addr)

	if watch {
		fmt.Println("Watching live events (Ctrl-C to stop)...")
		return c.Watch(ctx, func(ev client.LiveEvent) {
			payload, _ := json.Marshal(ev)
			fmt.Println(string(payload))
		})
	}
	return nil
}

// create tolerates rows that already exist so reseeding is idempotent.
func create(err error, kind, id string, created *int) error {
	if err == nil {
		*created++
		return nil
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
		fmt.Printf("Skipping existing %s %s\n", kind, id)
		return nil
	}
	return fmt.Errorf("create %s %s: %w", kind, id, err)
}

func loadFixtures(file string) (*fixtureFile, error) {
	if file == "" {
		return builtinFixtures(), nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read fixture file: %w", err)
	}
	var fixtures fixtureFile
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return nil, fmt.Errorf("parse fixture file: %w", err)
	}
	return &fixtures, nil
}

func builtinFixtures() *fixtureFile {
	fixtures := &fixtureFile{}
	for _, u := range sqlite.FixtureUsers() {
		fixtures.Users = append(fixtures.Users, client.User{ID: u.ID, Name: u.Name})
	}
	for _, p := range sqlite.FixturePosts() {
		fixtures.Posts = append(fixtures.Posts, client.Post{
			ID:      p.ID,
			UserID:  p.UserID,
			Content: p.Content,
		})
	}
	for _, c := range sqlite.FixtureComments() {
		fixtures.Comments = append(fixtures.Comments, client.Comment{
			ID:      c.ID,
			PostID:  c.PostID,
			UserID:  c.UserID,
			Content: c.Content,
		})
	}
	return fixtures
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
