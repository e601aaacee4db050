// Package report generates plain-language water quality summaries from the
// current sensor readings using the Gemini generative language API.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"aquaview.dev/monitor/pkg/quality"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.0-flash"
	defaultTimeout = 30 * time.Second

	// Returned when the API answers successfully but produces no candidates.
	emptyReport = "No report generated."
)

// ClientConfig holds configuration for creating a new report client.
type ClientConfig struct {
	Logger *slog.Logger
	APIKey string
	// BaseURL overrides the Gemini API endpoint, mainly for tests.
	BaseURL string
	// Model selects the generative model. Defaults to gemini-2.0-flash.
	Model string
	// Timeout bounds a single API call. Defaults to 30s.
	Timeout time.Duration
}

// Client calls the Gemini API to turn a set of sensor readings into a short
// report a layperson can act on.
type Client struct {
	logger  *slog.Logger
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

// NewClient creates a new report client with the given configuration.
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		logger:  cfg.Logger,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate requests a water quality report for the given parameter values.
// The returned text has markdown emphasis markers stripped so it can be
// rendered as plain text.
func (c *Client) Generate(ctx context.Context, values map[quality.ParameterKind]float64) (string, error) {
	prompt := buildPrompt(values)

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call report API: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("report API returned status %d", resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	text := extractText(&decoded)
	c.logger.Debug("report generated",
		"model", c.model,
		"duration", time.Since(start),
		"length", len(text))

	return stripMarkdown(text), nil
}

var promptLabels = map[quality.ParameterKind]string{
	quality.KindTDS:         "TDS",
	quality.KindTemperature: "Temperature",
	quality.KindTurbidity:   "Turbidity",
	quality.KindPH:          "pH",
}

func buildPrompt(values map[quality.ParameterKind]float64) string {
	var b strings.Builder
	b.WriteString("You are an expert in water quality. Given these sensor readings:\n\n")
	for _, kind := range quality.AllKinds() {
		b.WriteString(promptLabels[kind])
		b.WriteString(": ")
		if v, ok := values[kind]; ok {
			b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		} else {
			b.WriteString("n/a")
		}
		if unit := kind.Unit(); unit != "" {
			b.WriteString(" ")
			b.WriteString(unit)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n1. Give a simple, clear overall water quality report for a layperson.\n")
	b.WriteString("2. List any health or usage impacts.\n")
	b.WriteString("3. Suggest actions if needed.\n")
	b.WriteString("Keep it short, friendly, and easy to understand.")
	return b.String()
}

func extractText(resp *generateResponse) string {
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return emptyReport
	}
	text := resp.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return emptyReport
	}
	return text
}

// stripMarkdown removes emphasis markers the model tends to emit.
func stripMarkdown(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	return strings.ReplaceAll(s, "*", "")
}
