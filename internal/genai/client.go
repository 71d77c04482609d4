// Package genai is a focused client for the Gemini generateContent API.
// The engine is treated as opaque: callers get back raw text with no
// guarantee of well-formedness.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/scopetalk/scopetalk/internal/domain"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// part is a single text fragment in a content block.
type part struct {
	Text string `json:"text"`
}

// content is one turn in the request contents.
type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

// generationConfig carries sampling settings.
type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

// generateRequest is the minimal request shape for generateContent.
type generateRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

// generateResponse is the minimal response shape for generateContent.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
			Role  string `json:"role"`
		} `json:"content"`
	} `json:"candidates"`
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("genai: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client calls the Gemini generateContent endpoint.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	apiKey      string
	model       string
	temperature float64
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (used in tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Gemini client for the given model and temperature.
func NewClient(apiKey, model string, temperature float64, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("genai: api key must not be empty")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("genai: model must not be empty")
	}
	c := &Client{
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) generateURL() string {
	base := strings.TrimRight(c.baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent", base, c.model)
}

// Generate runs one completion. The prior transcript is mapped onto the
// API's user/model roles and the new message is sent as the final user
// turn. The returned text is untrusted.
func (c *Client) Generate(ctx context.Context, system string, history []domain.Turn, message string) (string, error) {
	contents := make([]content, 0, len(history)+1)
	for _, turn := range history {
		role := "user"
		if turn.Role == domain.RoleBot {
			role = "model"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: turn.Message}}})
	}
	contents = append(contents, content{Role: "user", Parts: []part{{Text: message}}})

	reqBody := generateRequest{
		Contents:         contents,
		GenerationConfig: generationConfig{Temperature: c.temperature},
	}
	if system != "" {
		reqBody.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("genai: marshal request: %w", err)
	}

	url := c.generateURL()

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return "", fmt.Errorf("genai: create request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	raw, err := c.doJSONRequest(req, url)
	if err != nil {
		return "", fmt.Errorf("genai: request failed: %w", err)
	}

	var payload generateResponse
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return "", fmt.Errorf("genai: decode response: %w", decErr)
	}
	if len(payload.Candidates) == 0 {
		return "", errors.New("genai: no candidates in response")
	}

	var sb strings.Builder
	for _, p := range payload.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	res, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return nil, doErr
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}
