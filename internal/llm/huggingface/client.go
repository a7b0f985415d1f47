package huggingface

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

const defaultModelURL = "https://api-inference.huggingface.co/models/meta-llama/Meta-Llama-3-8B-Instruct"

// Client implements llm.Client using the Hugging Face Inference API.
type Client struct {
	apiKey     string
	modelURL   string
	httpClient *http.Client
}

// NewClient constructs a new Hugging Face client.
func NewClient(apiKey, modelURL string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("HF_API_KEY is required")
	}
	if strings.TrimSpace(modelURL) == "" {
		modelURL = defaultModelURL
	}
	return &Client{
		apiKey:   apiKey,
		modelURL: modelURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	MaxNewTokens   int      `json:"max_new_tokens"`
	Temperature    float64  `json:"temperature"`
	TopP           float64  `json:"top_p"`
	DoSample       bool     `json:"do_sample"`
	ReturnFullText bool     `json:"return_full_text"`
	Stop           []string `json:"stop,omitempty"`
}

type inferenceResponse struct {
	GeneratedText string `json:"generated_text"`
}

// Generate sends an inference request and returns the generated text.
func (c *Client) Generate(ctx context.Context, input llm.GenerateInput) (string, error) {
	maxTokens := input.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	payload := inferenceRequest{
		Inputs: input.Prompt,
		Parameters: inferenceParameters{
			MaxNewTokens:   maxTokens,
			Temperature:    input.Temperature,
			TopP:           0.9,
			DoSample:       true,
			ReturnFullText: false,
			Stop:           []string{"<|eot_id|>", "<|end_of_text|>"},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("huggingface marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("huggingface build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("huggingface request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("huggingface read response: %w", err)
	}
	if resp.StatusCode == http.StatusServiceUnavailable {
		return "", fmt.Errorf("huggingface model loading: http status 503")
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("huggingface http status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	// The inference API returns either a list of generations or a single object.
	var list []inferenceResponse
	if err := json.Unmarshal(data, &list); err == nil && len(list) > 0 {
		return list[0].GeneratedText, nil
	}
	var single inferenceResponse
	if err := json.Unmarshal(data, &single); err == nil && single.GeneratedText != "" {
		return single.GeneratedText, nil
	}
	return "", fmt.Errorf("huggingface unexpected response format")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
