// Package ollama implements the inference Driver against Ollama's chat API,
// constraining output with a JSON format schema.
package ollama

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
	DefaultModel = "llama3.1"

	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"
)

// Driver calls Ollama's chat API.
type Driver struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// Config holds configuration for the Ollama inference driver.
type Config struct {
	// BaseURL is the Ollama API URL. Defaults to DefaultBaseURL.
	BaseURL string

	// Model overrides the chat model. Defaults to DefaultModel.
	Model string
}

// NewDriver creates an Ollama-backed inference driver.
func NewDriver(cfg Config) (*Driver, error) {
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
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Format   map[string]any `json:"format"`
	Stream   bool           `json:"stream"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
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
		Format: inference.ProposalSchema(),
		Stream: false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", inference.ErrInference, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", d.baseURL+"/api/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", inference.ErrInference, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request: %v", inference.ErrInference, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: ollama returned status %d: %s", inference.ErrInference, resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", inference.ErrInference, err)
	}

	return inference.ParseProposals([]byte(chatResp.Message.Content))
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return nil
}

var _ inference.Driver = (*Driver)(nil)
