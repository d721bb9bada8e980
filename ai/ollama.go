package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Ollama implements Provider against a local Ollama instance. The HTTP
// client carries a very long timeout on purpose: local inference on
// large models can take tens of minutes and the pipeline is expected to
// wait rather than give up.
type Ollama struct {
	baseURL    string
	embedModel string
	chatModel  string
	httpClient *http.Client
}

var _ Provider = (*Ollama)(nil)

func NewOllama(baseURL, embedModel, chatModel string) *Ollama {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &Ollama{
		baseURL:    baseURL,
		embedModel: embedModel,
		chatModel:  chatModel,
		httpClient: &http.Client{Timeout: 60 * time.Minute},
	}
}

func (o *Ollama) Name() string {
	return fmt.Sprintf("Ollama (%s)", o.chatModel)
}

func (o *Ollama) EmbedText(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]interface{}{
		"model":  o.embedModel,
		"input":  text,
		"prompt": text,
	}

	raw, err := o.post(ctx, "/api/embeddings", payload)
	if err != nil {
		return nil, err
	}

	var root map[string]json.RawMessage
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("ollama embeddings parse error: %w", err)
	}

	// Shape A: { "embedding": [...] }
	if emb, ok := root["embedding"]; ok {
		var vec []float32
		if err := json.Unmarshal(emb, &vec); err == nil && len(vec) > 0 {
			return vec, nil
		}
	}

	// Shape B: { "data": [ { "embedding": [...] } ] }
	if data, ok := root["data"]; ok {
		var items []struct {
			Embedding []float32 `json:"embedding"`
		}
		if err := json.Unmarshal(data, &items); err == nil && len(items) > 0 && len(items[0].Embedding) > 0 {
			return items[0].Embedding, nil
		}
	}

	return nil, fmt.Errorf("ollama embeddings response not in a known shape: %s", string(raw))
}

func (o *Ollama) Chat(ctx context.Context, systemPrompt, userPrompt string, opts *ChatOptions) (string, error) {
	messages := []map[string]string{
		{"role": "system", "content": systemPrompt},
		{"role": "user", "content": userPrompt},
	}

	body := map[string]interface{}{
		"model":    o.chatModel,
		"stream":   false,
		"messages": messages,
	}
	if opts != nil {
		options := map[string]interface{}{}
		if opts.NumCtx > 0 {
			options["num_ctx"] = opts.NumCtx
		}
		if opts.MaxTokens > 0 {
			options["num_predict"] = opts.MaxTokens
		}
		if opts.Temperature > 0 {
			options["temperature"] = opts.Temperature
		}
		if len(options) > 0 {
			body["options"] = options
		}
		for k, v := range opts.Extra {
			body[k] = v
		}
	}

	raw, err := o.post(ctx, "/api/chat", body)
	if err != nil {
		return "", err
	}

	// Typical: { "message": { "role": "assistant", "content": "..." } }
	var withMessage struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(raw, &withMessage); err == nil && withMessage.Message.Content != "" {
		return withMessage.Message.Content, nil
	}

	// Alternative: { "response": "..." }
	var withResponse struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(raw, &withResponse); err == nil && withResponse.Response != "" {
		return withResponse.Response, nil
	}

	// Fall back to the raw body.
	return string(raw), nil
}

func (o *Ollama) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed (is Ollama running at %s?): %w", o.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}
