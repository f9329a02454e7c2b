package aiconnectors

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const defaultOllamaURL = "http://localhost:11434"

// FetchOllamaModels returns the model names served by an Ollama instance.
func FetchOllamaModels(ctx context.Context, baseURL string, token string) ([]string, error) {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	baseURL = strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/api")
	apiURL := baseURL + "/api/tags"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ollama at %s: %w", baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Ollama API returned status %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Ollama response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("failed to parse Ollama response")
	}

	var names []string
	for _, m := range gjson.GetBytes(body, "models.#.name").Array() {
		names = append(names, m.String())
	}
	return names, nil
}

// ValidateOllamaConnection checks that the instance answers and serves at
// least one model.
func ValidateOllamaConnection(ctx context.Context, baseURL string, token string) error {
	models, err := FetchOllamaModels(ctx, baseURL, token)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		return fmt.Errorf("no models found in Ollama instance at %s", baseURL)
	}
	return nil
}
