package enrich

import (
	"context"
	"fmt"
	"strings"

	"aidigest/internal/llm"
)

const commentPrompt = `You are summarizing the community discussion around a story in a daily AI news digest.

Story title: %s

Top comments from the discussion:
%s

Write a 1-2 sentence synopsis of the discussion's overall sentiment and key takeaway. Be specific about what the community agrees on, disputes, or found most interesting. Respond with ONLY the synopsis text, no preamble.`

const (
	maxPromptComments   = 10
	maxCommentRuneCount = 400
)

// Synopsis is the result of one comment-summarization call.
type Synopsis struct {
	Summary  string
	Provider string
	Model    string
	Usage    llm.Usage
}

// CommentSummarizer turns a thread's comments into a short
// community-sentiment synopsis. One provider call, no retries.
type CommentSummarizer struct {
	provider llm.Provider
}

// NewCommentSummarizer creates a comment summarizer.
func NewCommentSummarizer(provider llm.Provider) *CommentSummarizer {
	return &CommentSummarizer{provider: provider}
}

// Summarize issues a single summarization call for a non-empty comment
// list. An empty or failed response is returned as an error for the
// orchestrator to isolate.
func (s *CommentSummarizer) Summarize(ctx context.Context, title string, comments []string) (*Synopsis, error) {
	if len(comments) == 0 {
		return nil, fmt.Errorf("no comments to summarize")
	}

	prompt := fmt.Sprintf(commentPrompt, title, formatComments(comments))
	resp, err := s.provider.Generate(ctx, prompt, 256)
	if err != nil {
		return nil, err
	}

	summary := strings.TrimSpace(resp.Text)
	if summary == "" {
		return nil, fmt.Errorf("empty synopsis from provider")
	}

	return &Synopsis{
		Summary:  summary,
		Provider: s.provider.Name(),
		Model:    s.provider.Model(),
		Usage:    resp.Usage,
	}, nil
}

func formatComments(comments []string) string {
	if len(comments) > maxPromptComments {
		comments = comments[:maxPromptComments]
	}

	var lines []string
	for _, c := range comments {
		runes := []rune(c)
		if len(runes) > maxCommentRuneCount {
			c = string(runes[:maxCommentRuneCount]) + "..."
		}
		lines = append(lines, "- "+c)
	}
	return strings.Join(lines, "\n")
}
