package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// Usage holds token counts for a single provider call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the text and accounting result of one generation call.
type Response struct {
	Text  string
	Usage Usage
}

// Provider is the interface for generative-language providers.
type Provider interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (*Response, error)
	IsConfigured() bool
	Name() string
	Model() string
}

// GeminiProvider calls the Google generative-language API.
type GeminiProvider struct {
	model   string
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewGeminiProvider creates a Gemini provider reading the key from the
// given environment variable.
func NewGeminiProvider(model, apiKeyEnv string) *GeminiProvider {
	return NewGeminiProviderWithKey(model, os.Getenv(apiKeyEnv))
}

// NewGeminiProviderWithKey creates a Gemini provider with an explicit key.
func NewGeminiProviderWithKey(model, apiKey string) *GeminiProvider {
	return &GeminiProvider{
		model:   model,
		apiKey:  apiKey,
		baseURL: defaultGeminiBaseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (g *GeminiProvider) SetBaseURL(baseURL string) {
	g.baseURL = baseURL
}

// IsConfigured checks if the API key is set.
func (g *GeminiProvider) IsConfigured() bool {
	return g.apiKey != ""
}

// Name returns the provider identifier used in usage records.
func (g *GeminiProvider) Name() string {
	return "gemini"
}

// Model returns the configured model name.
func (g *GeminiProvider) Model() string {
	return g.model
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Generate sends one prompt to Gemini and returns the first candidate's
// text plus the reported token usage. One attempt, no retries.
func (g *GeminiProvider) Generate(ctx context.Context, prompt string, maxTokens int) (*Response, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("gemini API key not configured")
	}

	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"maxOutputTokens": maxTokens,
			"temperature":     0.3,
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gemini API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no candidates in gemini response")
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		text += part.Text
	}
	if text == "" {
		return nil, fmt.Errorf("empty candidate in gemini response")
	}

	return &Response{
		Text: text,
		Usage: Usage{
			PromptTokens:     result.UsageMetadata.PromptTokenCount,
			CompletionTokens: result.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      result.UsageMetadata.TotalTokenCount,
		},
	}, nil
}

// CreateProvider creates the configured provider, or nil when no API
// key is available.
func CreateProvider(model, apiKeyEnv string) Provider {
	p := NewGeminiProvider(model, apiKeyEnv)
	if p.IsConfigured() {
		log.Printf("Using Gemini with model: %s", model)
		return p
	}

	log.Printf("No Gemini API key found; set %s to enable AI features.", apiKeyEnv)
	return nil
}
