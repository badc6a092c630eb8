package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Thread is an ephemeral snapshot of a discussion: engagement metrics
// plus top-level comment texts. Discarded after summarization.
type Thread struct {
	Score        int
	CommentCount int
	Comments     []string
}

// RedditClient fetches discussion threads from Reddit's public JSON
// endpoint. No authentication, one GET per thread.
type RedditClient struct {
	client *http.Client
}

// NewRedditClient creates a Reddit client.
func NewRedditClient() *RedditClient {
	return &RedditClient{
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// NewRedditClientWithHTTP creates a Reddit client with a custom HTTP
// client. Used by tests.
func NewRedditClientWithHTTP(client *http.Client) *RedditClient {
	return &RedditClient{client: client}
}

type redditListing struct {
	Data struct {
		Children []struct {
			Kind string `json:"kind"`
			Data struct {
				Score       int    `json:"score"`
				NumComments int    `json:"num_comments"`
				Body        string `json:"body"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// FetchThread retrieves the thread behind a Reddit comments-page URL.
// The response is a two-element listing: the post itself, then its
// top-level comments. Replies are not descended into.
func (c *RedditClient) FetchThread(ctx context.Context, postURL string) (*Thread, error) {
	jsonURL := strings.TrimSuffix(postURL, "/") + ".json"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jsonURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating reddit request: %w", err)
	}
	req.Header.Set("User-Agent", "aidigest/1.0 (news digest)")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching reddit thread: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit returned status %d", resp.StatusCode)
	}

	var listings []redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
		return nil, fmt.Errorf("decoding reddit response: %w", err)
	}
	if len(listings) < 2 || len(listings[0].Data.Children) == 0 {
		return nil, fmt.Errorf("unexpected reddit listing shape")
	}

	post := listings[0].Data.Children[0].Data
	thread := &Thread{
		Score:        post.Score,
		CommentCount: post.NumComments,
	}

	for _, child := range listings[1].Data.Children {
		if child.Kind != "t1" {
			continue
		}
		body := strings.TrimSpace(child.Data.Body)
		if body == "" {
			continue
		}
		thread.Comments = append(thread.Comments, body)
	}

	return thread, nil
}
