package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"audit-backend/internal/llm"
)

const defaultBaseURL = "http://localhost:11434"

// Client implements llm.Client against a local Ollama server.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient constructs a new Ollama client.
func NewClient(baseURL, model string) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("OLLAMA_MODEL is required")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64  `json:"temperature"`
	TopP        float64  `json:"top_p"`
	NumPredict  int      `json:"num_predict"`
	Stop        []string `json:"stop,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Generate sends a non-streaming generate request and returns the raw text.
func (c *Client) Generate(ctx context.Context, input llm.GenerateInput) (string, error) {
	maxTokens := input.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	payload := generateRequest{
		Model:  c.model,
		Prompt: input.Prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: input.Temperature,
			TopP:        0.9,
			NumPredict:  maxTokens,
			Stop:        []string{"<|eot_id|>", "<|end_of_text|>"},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("ollama marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ollama read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama http status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	var decoded generateResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return "", fmt.Errorf("ollama decode response: %w", err)
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("ollama error: %s", decoded.Error)
	}
	if strings.TrimSpace(decoded.Response) == "" {
		return "", fmt.Errorf("ollama empty response")
	}
	return decoded.Response, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
