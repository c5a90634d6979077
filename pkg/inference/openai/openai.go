// Package openai implements the inference Driver against OpenAI's Chat
// Completions API using strict JSON-schema structured output.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/papercomputeco/adjacent/pkg/catalog"
	"github.com/papercomputeco/adjacent/pkg/graph"
	"github.com/papercomputeco/adjacent/pkg/inference"
)

const (
	// DefaultModel is the default chat model.
	DefaultModel = "gpt-4o-mini"

	// DefaultBaseURL is the OpenAI API base URL. Point it elsewhere for
	// compatible gateways.
	DefaultBaseURL = "https://api.openai.com/v1"
)

// Driver calls OpenAI's Chat Completions API.
type Driver struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// Config holds configuration for the OpenAI inference driver.
type Config struct {
	// APIKey is the OpenAI API key. Required.
	APIKey string

	// BaseURL overrides the API base URL. Defaults to DefaultBaseURL.
	BaseURL string

	// Model overrides the chat model. Defaults to DefaultModel.
	Model string
}

// NewDriver creates an OpenAI-backed inference driver.
func NewDriver(cfg Config) (*Driver, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Driver{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type       string     `json:"type"`
	JSONSchema jsonSchema `json:"json_schema"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Infer proposes relationships for the anchor and candidates.
func (d *Driver) Infer(ctx context.Context, anchor catalog.Item, candidates []catalog.Item) ([]graph.Proposal, error) {
	user, err := inference.UserPrompt(anchor, candidates)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", inference.ErrInference, err)
	}

	reqBody := chatRequest{
		Model: d.model,
		Messages: []chatMessage{
			{Role: "system", Content: inference.SystemPrompt},
			{Role: "user", Content: user},
		},
		ResponseFormat: responseFormat{
			Type: "json_schema",
			JSONSchema: jsonSchema{
				Name:   "edge_proposals",
				Strict: true,
				Schema: inference.ProposalSchema(),
			},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", inference.ErrInference, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", d.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", inference.ErrInference, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.apiKey)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request: %v", inference.ErrInference, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: openai returned status %d: %s", inference.ErrInference, resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", inference.ErrInference, err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", inference.ErrInference)
	}

	return inference.ParseProposals([]byte(chatResp.Choices[0].Message.Content))
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return nil
}

var _ inference.Driver = (*Driver)(nil)
