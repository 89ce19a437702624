package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"faqbot/internal/domain"
)

// OllamaModel represents a model returned by /api/tags.
type OllamaModel struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type tagsResponse struct {
	Models []OllamaModel `json:"models"`
}

// ListModels queries the Ollama /api/tags endpoint and returns available models.
func ListModels(ctx context.Context, baseURL string) ([]OllamaModel, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Service: "ollama", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.TransportError{Service: "ollama", Status: resp.StatusCode, Err: fmt.Errorf("/api/tags")}
	}

	var result tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode tags response: %w", err)
	}
	return result.Models, nil
}

// MissingModels returns the names in want that no installed model matches.
// A bare name matches any tag of it ("llama3" matches "llama3:latest").
func MissingModels(installed []OllamaModel, want ...string) []string {
	var missing []string
	for _, w := range want {
		found := false
		for _, m := range installed {
			if m.Name == w || strings.TrimSuffix(m.Name, ":latest") == w {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, w)
		}
	}
	return missing
}
