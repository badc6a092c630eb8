package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultHNSearchURL = "https://hn.algolia.com/api/v1"
	defaultHNItemURL   = "https://hacker-news.firebaseio.com/v0"

	// First-level comments sampled per story. No tree recursion.
	maxStoryComments = 10
)

// Story is the result of resolving an article URL against the HN
// search index.
type Story struct {
	ID           string
	Points       int
	CommentCount int
}

// HackerNewsClient resolves article URLs to HN stories via the Algolia
// search index and fetches comments from the Firebase item API.
type HackerNewsClient struct {
	client    *http.Client
	searchURL string
	itemURL   string
}

// NewHackerNewsClient creates a Hacker News client.
func NewHackerNewsClient() *HackerNewsClient {
	return &HackerNewsClient{
		client:    &http.Client{Timeout: 15 * time.Second},
		searchURL: defaultHNSearchURL,
		itemURL:   defaultHNItemURL,
	}
}

// NewHackerNewsClientWithURLs creates a client with custom endpoints.
// Used by tests.
func NewHackerNewsClientWithURLs(client *http.Client, searchURL, itemURL string) *HackerNewsClient {
	return &HackerNewsClient{client: client, searchURL: searchURL, itemURL: itemURL}
}

// ResolveStory looks up the HN story discussing an article URL. An
// empty hit list means no discussion exists and yields (nil, nil) --
// that is not an error.
func (c *HackerNewsClient) ResolveStory(ctx context.Context, articleURL string) (*Story, error) {
	params := url.Values{
		"query":                        {articleURL},
		"restrictSearchableAttributes": {"url"},
		"hitsPerPage":                  {"1"},
	}
	searchURL := c.searchURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searching HN index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HN search returned status %d", resp.StatusCode)
	}

	var result struct {
		Hits []struct {
			ObjectID    string `json:"objectID"`
			Points      int    `json:"points"`
			NumComments int    `json:"num_comments"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding HN search response: %w", err)
	}

	if len(result.Hits) == 0 {
		return nil, nil
	}

	hit := result.Hits[0]
	return &Story{
		ID:           hit.ObjectID,
		Points:       hit.Points,
		CommentCount: hit.NumComments,
	}, nil
}

type hnItem struct {
	Text    string `json:"text"`
	Kids    []int  `json:"kids"`
	Deleted bool   `json:"deleted"`
	Dead    bool   `json:"dead"`
}

// FetchComments fetches a story's immediate child comments. Children
// are fetched concurrently; a child that fails, is deleted, or has no
// text is skipped rather than failing the story.
func (c *HackerNewsClient) FetchComments(ctx context.Context, storyID string) ([]string, error) {
	story, err := c.fetchItem(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("fetching HN story %s: %w", storyID, err)
	}

	kids := story.Kids
	if len(kids) > maxStoryComments {
		kids = kids[:maxStoryComments]
	}

	texts := make([]string, len(kids))
	var wg sync.WaitGroup
	for i, kid := range kids {
		wg.Add(1)
		go func(i, kid int) {
			defer wg.Done()
			comment, err := c.fetchItem(ctx, fmt.Sprintf("%d", kid))
			if err != nil || comment.Deleted || comment.Dead {
				return
			}
			texts[i] = strings.TrimSpace(stripHTMLTags(comment.Text))
		}(i, kid)
	}
	wg.Wait()

	var comments []string
	for _, t := range texts {
		if t != "" {
			comments = append(comments, t)
		}
	}
	return comments, nil
}

func (c *HackerNewsClient) fetchItem(ctx context.Context, id string) (*hnItem, error) {
	itemURL := fmt.Sprintf("%s/item/%s.json", c.itemURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, itemURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating item request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching item %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("item %s returned status %d", id, resp.StatusCode)
	}

	var item hnItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("decoding item %s: %w", id, err)
	}
	return &item, nil
}

// stripHTMLTags removes markup from HN comment HTML and decodes the
// entities the API commonly emits.
func stripHTMLTags(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.ReplaceAll(s, "&#x27;", "'")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#x2F;", "/")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&amp;", "&")

	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
