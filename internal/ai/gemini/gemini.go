// Package gemini is a minimal client for the Gemini generateContent REST
// endpoint.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/Spotas/Ai-rewrite/internal/capture"
	"github.com/Spotas/Ai-rewrite/internal/llm"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-flash"

	// maxErrorBody caps how much of a failed response is read.
	maxErrorBody = 64 << 10
)

// models maps the user-facing model names onto endpoint model ids.
var models = map[string]string{
	"gemini-2.5-flash":              "gemini-2.5-flash",
	"gemini-2.5-flash-lite-preview": "gemini-2.5-flash-lite-preview-06-17",
	"gemini-2.0-flash":              "gemini-2.0-flash",
	"gemini-2.0-flash-lite":         "gemini-2.0-flash-lite",
}

var safetyCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

// Models returns the supported model names, sorted.
func Models() []string {
	out := make([]string, 0, len(models))
	for name := range models {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Config contains configuration for the Gemini client
type Config struct {
	BaseURL    string        `koanf:"base_url"`
	APIKey     string        `koanf:"api_key"`
	Model      string        `koanf:"model"`
	Timeout    time.Duration `koanf:"timeout"`
	CaptureDir string        `koanf:"capture_dir"`
}

// Client calls the generateContent endpoint. It implements llm.Model and
// llm.ModelChecker.
type Client struct {
	baseURL  string
	apiKey   string
	do       func(*http.Request) (*http.Response, error)
	recorder *capture.Recorder
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.do = hc.Do }
}

// New creates a client. The API key in config is used only when a request
// does not carry its own.
func New(config Config, opts ...Option) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	// Per-attempt deadlines come from the caller's context.
	hc := &http.Client{Timeout: config.Timeout}
	c := &Client{
		baseURL:  strings.TrimRight(config.BaseURL, "/"),
		apiKey:   config.APIKey,
		do:       hc.Do,
		recorder: capture.New(config.CaptureDir),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SupportsModel reports whether name has a known endpoint.
func (c *Client) SupportsModel(name string) bool {
	_, ok := models[name]
	return ok
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	MaxOutputTokens int      `json:"maxOutputTokens"`
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            float64  `json:"topP,omitempty"`
	TopK            int      `json:"topK,omitempty"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings,omitempty"`
}

// Generate sends one generateContent request and returns the first
// candidate's text.
func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	temperature := req.Temperature
	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: req.Prompt}}}},
		GenerationConfig: generationConfig{
			MaxOutputTokens: req.MaxOutputTokens,
			Temperature:     &temperature,
			TopP:            req.TopP,
			TopK:            req.TopK,
		},
	}
	for _, category := range safetyCategories {
		body.SafetySettings = append(body.SafetySettings, safetySetting{Category: category, Threshold: "BLOCK_MEDIUM_AND_ABOVE"})
	}

	data, err := c.post(ctx, req.Model, req.APIKey, body)
	if err != nil {
		return "", err
	}

	text := gjson.GetBytes(data, "candidates.0.content.parts.0.text")
	if !text.Exists() {
		if reason := gjson.GetBytes(data, "promptFeedback.blockReason"); reason.Exists() {
			return "", &llm.CallError{Kind: llm.KindTransport, Message: "Response blocked: " + reason.String()}
		}
		if reason := gjson.GetBytes(data, "candidates.0.finishReason"); reason.String() == "SAFETY" {
			return "", &llm.CallError{Kind: llm.KindTransport, Message: "Response blocked: SAFETY"}
		}
		return "", &llm.CallError{Kind: llm.KindTransport, Message: llm.MsgInvalidShape}
	}
	return strings.TrimSpace(text.String()), nil
}

// Ping sends a tiny request to verify the key and model.
func (c *Client) Ping(ctx context.Context, apiKey, model string) error {
	body := generateRequest{
		Contents:         []content{{Parts: []part{{Text: "Hello"}}}},
		GenerationConfig: generationConfig{MaxOutputTokens: 10},
	}
	_, err := c.post(ctx, model, apiKey, body)
	return err
}

func (c *Client) post(ctx context.Context, model, apiKey string, body generateRequest) ([]byte, error) {
	if model == "" {
		model = DefaultModel
	}
	id, ok := models[model]
	if !ok {
		return nil, fmt.Errorf("%w: %s", llm.ErrUnsupportedModel, model)
	}
	if apiKey == "" {
		apiKey = c.apiKey
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, url.PathEscape(id), url.QueryEscape(apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	log.Debug().Str("model", id).Int("prompt_bytes", len(payload)).Msg("Sending request to Gemini")
	c.recorder.WriteBlob("gemini-request", "json", payload)

	resp, err := c.do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, llm.TransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, llm.StatusError(resp.StatusCode, errorMessage(raw))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, llm.TransportError(err)
	}
	c.recorder.WriteBlob("gemini-response", "json", data)
	return data, nil
}

// errorMessage prefers the API's error.message field over the raw body.
func errorMessage(raw []byte) string {
	if msg := gjson.GetBytes(raw, "error.message"); msg.Exists() && msg.String() != "" {
		return msg.String()
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		return s
	}
	return "Could not read error response"
}
