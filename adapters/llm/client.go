package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/TbrosN/clarity/domain/insight"
	"github.com/TbrosN/clarity/internal/config"
	"github.com/TbrosN/clarity/internal/errors"
)

const (
	generationTemperature = 0.3
	generationMaxTokens   = 1200
)

// Client calls a Bedrock-style converse endpoint to draft insights from a
// stats payload. It implements ports.InsightGenerator.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg config.InsightsConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type converseRequest struct {
	System          []contentBlock  `json:"system"`
	Messages        []converseTurn  `json:"messages"`
	InferenceConfig inferenceConfig `json:"inferenceConfig"`
}

type converseTurn struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Text string `json:"text"`
}

type inferenceConfig struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
}

type converseResponse struct {
	Output struct {
		Message struct {
			Content []contentBlock `json:"content"`
		} `json:"message"`
	} `json:"output"`
}

// Generate drafts up to maxInsights insights grounded in the payload's fact
// registry. Errors cover transport, HTTP status, and response parsing; the
// caller judges the drafts' groundedness separately.
func (c *Client) Generate(ctx context.Context, stats insight.StatsPayload, maxInsights int) (*insight.DraftResponse, error) {
	payload, err := json.Marshal(buildPromptPayload(stats, maxInsights))
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal prompt payload")
	}

	reqBody := converseRequest{
		System:   []contentBlock{{Text: systemPrompt}},
		Messages: []converseTurn{{Role: "user", Content: []contentBlock{{Text: string(payload)}}}},
		InferenceConfig: inferenceConfig{
			Temperature: generationTemperature,
			MaxTokens:   generationMaxTokens,
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal converse request")
	}

	endpoint := fmt.Sprintf("%s/model/%s/converse", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create converse request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.ExternalServiceError(fmt.Sprintf("converse request failed after %v", time.Since(start)), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.ExternalServiceError("failed to read converse response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.ExternalServiceError(
			fmt.Sprintf("converse returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200)), nil)
	}

	var converse converseResponse
	if err := json.Unmarshal(respBody, &converse); err != nil {
		return nil, errors.ExternalServiceError("failed to decode converse response", err)
	}

	var text strings.Builder
	for _, block := range converse.Output.Message.Content {
		text.WriteString(block.Text)
	}

	drafts, err := extractDraftResponse(text.String())
	if err != nil {
		return nil, err
	}
	return drafts, nil
}

// extractDraftResponse pulls the JSON object out of the model's text, which
// may wrap it in prose or a code fence.
func extractDraftResponse(text string) (*insight.DraftResponse, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, errors.ExternalServiceError("converse response contains no JSON object", nil)
	}

	var drafts insight.DraftResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &drafts); err != nil {
		return nil, errors.ExternalServiceError("failed to parse drafted insights", err)
	}
	return &drafts, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
