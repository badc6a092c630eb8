package enrich

import (
	"testing"

	"aidigest/internal/database"
)

func TestClassifyBySourceID(t *testing.T) {
	sourceIDs := map[string]string{
		"https://www.reddit.com/r/LocalLLaMA/comments/abc/post/": "r-localllama",
		"https://example.com/article":                            "hn-ai",
		"https://blog.example.com/post":                          "openai-blog",
	}

	tests := []struct {
		url  string
		want Platform
	}{
		{"https://www.reddit.com/r/LocalLLaMA/comments/abc/post/", PlatformReddit},
		{"https://example.com/article", PlatformHackerNews},
		{"https://blog.example.com/post", PlatformNone},
	}

	for _, tt := range tests {
		got := Classify(database.Item{URL: tt.url}, sourceIDs)
		if got != tt.want {
			t.Errorf("Classify(%s) = %s, want %s", tt.url, got, tt.want)
		}
	}
}

func TestClassifyMappedIDBeatsHostSniff(t *testing.T) {
	// A reddit.com URL whose source is registered as a blog stays a blog.
	sourceIDs := map[string]string{
		"https://www.reddit.com/r/foo/comments/x/y/": "some-blog",
	}

	got := Classify(database.Item{URL: "https://www.reddit.com/r/foo/comments/x/y/"}, sourceIDs)
	if got != PlatformNone {
		t.Errorf("expected none for mapped non-discussion source, got %s", got)
	}
}

func TestClassifyHostFallback(t *testing.T) {
	tests := []struct {
		url  string
		want Platform
	}{
		{"https://www.reddit.com/r/MachineLearning/comments/xyz/post/", PlatformReddit},
		{"https://old.reddit.com/r/foo/comments/a/b/", PlatformReddit},
		{"https://reddit.com/r/foo/comments/a/b/", PlatformReddit},
		{"https://notreddit.com/r/foo", PlatformNone},
		{"https://news.ycombinator.com/item?id=123", PlatformNone},
		{"https://example.com/blog/post", PlatformNone},
	}

	for _, tt := range tests {
		got := Classify(database.Item{URL: tt.url}, nil)
		if got != tt.want {
			t.Errorf("Classify(%s) = %s, want %s", tt.url, got, tt.want)
		}
	}
}

func TestClassifyInvalidURL(t *testing.T) {
	got := Classify(database.Item{URL: "://not a url"}, nil)
	if got != PlatformNone {
		t.Errorf("expected none for unparseable URL, got %s", got)
	}
}
