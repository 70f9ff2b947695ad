package prompts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client talks to the prompt/answer generation service over HTTP. Request
// deadlines are driven by the caller's context; the embedded client timeout
// is only a backstop.
type Client struct {
	BaseURL string
	http    *http.Client
}

// NewClient builds a Client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 20 * time.Second},
	}
}

// FetchPrompts requests a list of prompts for the difficulty tag.
func (c *Client) FetchPrompts(ctx context.Context, difficulty string) ([]string, error) {
	payload := map[string]any{"difficulty": difficulty}
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/prompts", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("prompt service status %d", resp.StatusCode)
	}
	var out struct {
		Prompts []string `json:"prompts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Prompts) == 0 {
		return nil, errors.New("no prompts")
	}
	return out.Prompts, nil
}

// GenerateAnswer requests one synthetic answer for a prompt.
func (c *Client) GenerateAnswer(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{"prompt": prompt}
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/answers", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("prompt service status %d", resp.StatusCode)
	}
	var out struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	answer := strings.TrimSpace(out.Answer)
	if answer == "" {
		return "", errors.New("empty answer")
	}
	return answer, nil
}
