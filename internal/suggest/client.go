package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/voicebridge/voicebridge/internal/types"
)

// Generator produces sentence suggestions for the user from a completed
// speaker-labeled transcript.
type Generator interface {
	Suggest(ctx context.Context, result *types.TranscriptResult, count int) ([]string, error)
}

// Disabled returns no suggestions.
type Disabled struct{}

func (Disabled) Suggest(ctx context.Context, result *types.TranscriptResult, count int) ([]string, error) {
	return nil, nil
}

// Client calls an Ollama-compatible generation endpoint to produce
// suggested replies the user can speak.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
}

// NewClient creates a suggestion client.
func NewClient(baseURL, model string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Suggest asks the model for short reply candidates, one per line.
func (c *Client) Suggest(ctx context.Context, result *types.TranscriptResult, count int) ([]string, error) {
	if count <= 0 {
		count = 3
	}

	prompt := fmt.Sprintf(
		"The following is a conversation transcript. Suggest %d short sentences the user could say next, one per line, with no numbering or commentary.\n\n%s",
		count, result.FormattedText,
	)

	body, err := json.Marshal(generateRequest{Model: c.model, Prompt: prompt})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("suggestion request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("suggestion request failed: status %d", resp.StatusCode)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("failed to parse suggestion response: %v", err)
	}

	var suggestions []string
	for _, line := range strings.Split(genResp.Response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		suggestions = append(suggestions, line)
		if len(suggestions) == count {
			break
		}
	}
	return suggestions, nil
}
