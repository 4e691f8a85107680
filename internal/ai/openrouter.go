package ai

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cosmodiet-go/internal/config"
)

//go:embed prompt.txt
var systemPrompt string

// Message is one chat turn in the OpenAI-compatible wire shape.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenRouterClient proxies chat completions to OpenRouter.
type OpenRouterClient struct {
	cfg  *config.Config
	http *http.Client
}

func NewOpenRouterClient(cfg *config.Config) *OpenRouterClient {
	return &OpenRouterClient{cfg: cfg, http: &http.Client{}}
}

// Chat sends the conversation with the fixed site prompt prepended and
// returns the assistant reply.
func (c *OpenRouterClient) Chat(ctx context.Context, messages []Message) (string, error) {
	if c.cfg.OpenRouterKey == "" {
		return "", fmt.Errorf("OPENROUTER_API_KEY missing")
	}

	full := append([]Message{{Role: "system", Content: strings.TrimSpace(systemPrompt)}}, messages...)
	body := map[string]any{
		"model":       c.cfg.OpenRouterModel,
		"messages":    full,
		"max_tokens":  512,
		"temperature": 0.7,
	}
	b, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(ctx, "POST", c.cfg.OpenRouterBaseURL+"/chat/completions", bytes.NewReader(b))
	req.Header.Set("Authorization", "Bearer "+c.cfg.OpenRouterKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", "http://localhost:"+c.cfg.Port)
	req.Header.Set("X-Title", "CosmoDiet AI")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		bs, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("openrouter error (%d): %s", resp.StatusCode, string(bs))
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
