package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Gemini implements Provider against Google's generative language API.
// It holds an ordered model list: the configured model first, then the
// fallbacks with duplicates removed. Chat walks the list and treats any
// request failure as non-fatal until every model has been tried.
type Gemini struct {
	apiKey     string
	models     []string
	baseURL    string
	httpClient *http.Client
}

var _ Provider = (*Gemini)(nil)

func NewGemini(apiKey, model string, fallbackModels []string) *Gemini {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	models := []string{model}
	seen := map[string]bool{model: true}
	for _, m := range fallbackModels {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		models = append(models, m)
	}
	return &Gemini{
		apiKey:     apiKey,
		models:     models,
		baseURL:    "https://generativelanguage.googleapis.com",
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (g *Gemini) Name() string {
	return fmt.Sprintf("Gemini (%s)", g.models[0])
}

// Models returns the model list in try order.
func (g *Gemini) Models() []string {
	out := make([]string, len(g.models))
	copy(out, g.models)
	return out
}

// EmbedText is not supported; embeddings come from the local provider.
func (g *Gemini) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("gemini: embeddings not supported, use the local embed provider")
}

func (g *Gemini) Chat(ctx context.Context, systemPrompt, userPrompt string, opts *ChatOptions) (string, error) {
	type part struct {
		Text string `json:"text"`
	}

	body := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role":  "user",
				"parts": []part{{Text: userPrompt}},
			},
		},
		"systemInstruction": map[string]interface{}{
			"parts": []part{{Text: systemPrompt}},
		},
	}
	if opts != nil {
		gen := map[string]interface{}{}
		if opts.MaxTokens > 0 {
			gen["maxOutputTokens"] = opts.MaxTokens
		}
		if opts.Temperature > 0 {
			gen["temperature"] = opts.Temperature
		}
		for k, v := range opts.Extra {
			gen[k] = v
		}
		if len(gen) > 0 {
			body["generationConfig"] = gen
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for _, model := range g.models {
		text, err := g.callModel(ctx, model, payload)
		if err == nil {
			return text, nil
		}
		lastErr = err
		log.Printf("[GEMINI] model %s failed, trying next: %v", model, err)
	}
	return "", fmt.Errorf("gemini: all models failed, last error: %w", lastErr)
}

func (g *Gemini) callModel(ctx context.Context, model string, payload []byte) (string, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, model, g.apiKey)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("gemini parse error: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no content")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}
