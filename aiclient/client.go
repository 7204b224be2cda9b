// Package aiclient is a thin wrapper over external text-generation HTTP
// APIs. It is strictly additive: callers fall back to local report
// composition whenever a call fails or times out.
package aiclient

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

	agility "agility-analyzer"
)

// Provider selects the request payload shape and auth header convention.
type Provider string

const (
	ProviderCustom Provider = "custom"
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "google_gemini"
)

const defaultTimeout = 20 * time.Second

// ErrNoEndpoint is returned when the client has no API URL configured.
var ErrNoEndpoint = errors.New("aiclient: api url required")

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d", e.StatusCode)
}

// Client calls one configured text-generation endpoint.
type Client struct {
	URL      string
	APIKey   string
	Provider Provider
	Timeout  time.Duration

	HTTP *http.Client
}

// New returns a Client for the given endpoint with the default timeout.
func New(url, apiKey string, provider Provider) *Client {
	return &Client{
		URL:      url,
		APIKey:   apiKey,
		Provider: provider,
		Timeout:  defaultTimeout,
	}
}

// Generate sends prompt to the configured endpoint and extracts the first
// plausible text field from whatever shape comes back.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.URL == "" {
		return "", ErrNoEndpoint
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(c.payload(prompt))
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", c.URL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	return extractText(raw), nil
}

func (c *Client) payload(prompt string) any {
	switch c.Provider {
	case ProviderGemini:
		return map[string]any{
			"contents": []map[string]any{
				{"parts": []map[string]string{{"text": prompt}}},
			},
		}
	case ProviderOpenAI:
		return map[string]any{
			"model":       "gpt-4o-mini",
			"messages":    []map[string]string{{"role": "user", "content": prompt}},
			"temperature": 0.2,
		}
	default:
		return map[string]string{"prompt": prompt}
	}
}

func (c *Client) authorize(req *http.Request) {
	if c.APIKey == "" {
		return
	}
	if c.Provider == ProviderGemini {
		req.Header.Set("X-goog-api-key", c.APIKey)
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
}

// extractText pulls display text out of an arbitrary response body. Known
// shapes (OpenAI choices, Gemini candidates, plain {text: ...}) are checked
// in order; anything else comes back verbatim.
func extractText(raw []byte) string {
	var resp struct {
		Choices []struct {
			Text    string `json:"text"`
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Text       string `json:"text"`
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			Output string `json:"output"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return string(raw)
	}

	if len(resp.Choices) > 0 {
		if resp.Choices[0].Text != "" {
			return resp.Choices[0].Text
		}
		if resp.Choices[0].Message.Content != "" {
			return resp.Choices[0].Message.Content
		}
	}
	if resp.Text != "" {
		return resp.Text
	}
	if len(resp.Candidates) > 0 {
		cand := resp.Candidates[0]
		var parts []string
		for _, p := range cand.Content.Parts {
			if p.Text != "" {
				parts = append(parts, p.Text)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "\n")
		}
		if cand.Output != "" {
			return cand.Output
		}
	}
	return string(raw)
}

// BuildPrompt assembles the comparison prompt for an external analyst from
// one or two subjects' aggregates.
func BuildPrompt(a, b *agility.Aggregates, idA, idB string) string {
	var lines []string
	lines = append(lines,
		"Act as a sports performance analyst; produce a comparative analysis and training suggestions from the data below.",
		"Write natural prose in short sections with brief headings.",
		"---")
	lines = append(lines, "Subject A: "+orDefault(idA, "A"))
	lines = append(lines, metricLines(a)...)
	lines = append(lines, "---")
	lines = append(lines, "Subject B: "+orDefault(idB, "B"))
	lines = append(lines, metricLines(b)...)
	lines = append(lines, "---",
		"Start with a one or two sentence summary, then bullet-point key suggestions, then list 1-2 recommended drills.")
	return strings.Join(lines, "\n")
}

func metricLines(agg *agility.Aggregates) []string {
	if agg == nil {
		return nil
	}
	var lines []string
	lines = append(lines, fmt.Sprintf("mean time: %s, mean velocity: %s, mean acceleration: %s",
		formatMetric(agg.Metrics.AvgTime, 2),
		formatMetric(agg.Metrics.AvgVel, 3),
		formatMetric(agg.Metrics.AvgAcc, 3)))
	lines = append(lines, fmt.Sprintf("stage samples: %d", len(agg.PerStage)))
	return lines
}

func formatMetric(v *float64, prec int) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.*f", prec, *v)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
