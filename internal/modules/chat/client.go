package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Message is one turn in the conversation, OpenAI wire format
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage is the token accounting returned by the upstream API
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Client talks to an OpenAI-compatible chat-completions endpoint
type Client struct {
	apiURL     string
	apiKey     string
	model      string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a new chat completions client
func NewClient(apiURL, apiKey, model string, log zerolog.Logger) *Client {
	return &Client{
		apiURL: apiURL,
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		log: log.With().Str("component", "chat_client").Logger(),
	}
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

type completionRequest struct {
	Model         string         `json:"model"`
	Messages      []Message      `json:"messages"`
	MaxTokens     int            `json:"max_tokens,omitempty"`
	Stream        bool           `json:"stream,omitempty"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *Usage `json:"usage"`
}

// Complete performs a non-streaming chat completion
func (c *Client) Complete(ctx context.Context, messages []Message) (string, Usage, error) {
	resp, err := c.post(ctx, completionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", Usage{}, err
	}
	defer resp.Body.Close()

	var cr completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", Usage{}, fmt.Errorf("failed to decode completion: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", Usage{}, fmt.Errorf("completion returned no choices")
	}

	return cr.Choices[0].Message.Content, cr.Usage, nil
}

// Stream performs a streaming chat completion, invoking onDelta for each
// content fragment as it arrives. It returns the accumulated text and the
// usage totals reported in the final chunk (zero when the upstream omits
// them). Cancelling ctx aborts the upstream request.
func (c *Client) Stream(ctx context.Context, messages []Message, onDelta func(string) error) (string, Usage, error) {
	resp, err := c.post(ctx, completionRequest{
		Model:         c.model,
		Messages:      messages,
		Stream:        true,
		StreamOptions: &streamOptions{IncludeUsage: true},
	})
	if err != nil {
		return "", Usage{}, err
	}
	defer resp.Body.Close()

	var full strings.Builder
	var usage Usage

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			// Malformed chunks are skipped, not fatal
			c.log.Debug().Str("payload", payload).Msg("Skipping malformed stream chunk")
			continue
		}

		if chunk.Usage != nil {
			usage = *chunk.Usage
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if err := onDelta(delta); err != nil {
			return full.String(), usage, err
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), usage, fmt.Errorf("stream read failed: %w", err)
	}

	return full.String(), usage, nil
}

func (c *Client) post(ctx context.Context, body completionRequest) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return resp, nil
}
