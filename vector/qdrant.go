// Package vector talks to a Qdrant instance over its REST API. Only the
// small surface the pipeline needs is covered: collection bootstrap,
// point upsert, and filtered nearest-neighbor search.
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client is safe for concurrent use; the collection name is fixed at
// construction.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
}

// Point is one vector record with its payload.
type Point struct {
	ID      string                 `json:"id"`
	Vector  []float32              `json:"vector"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// ScoredPoint is one search hit.
type ScoredPoint struct {
	ID      interface{}            `json:"id"`
	Score   float64                `json:"score"`
	Payload map[string]interface{} `json:"payload"`
}

// Condition is a single must-match equality on a payload key.
type Condition struct {
	Key   string
	Value string
}

func NewClient(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// PointID derives a deterministic version-5 UUID from the joined key
// parts, so re-indexing the same record overwrites it instead of adding
// a duplicate.
func PointID(parts ...string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.Join(parts, "|"))).String()
}

// EnsureCollection creates the collection with the given vector size and
// cosine distance if it does not exist yet.
func (c *Client) EnsureCollection(ctx context.Context, vectorSize int) error {
	var exists struct {
		Result struct {
			Exists bool `json:"exists"`
		} `json:"result"`
	}
	if err := c.do(ctx, "GET", fmt.Sprintf("/collections/%s/exists", c.collection), nil, &exists); err != nil {
		return err
	}
	if exists.Result.Exists {
		return nil
	}

	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	return c.do(ctx, "PUT", fmt.Sprintf("/collections/%s", c.collection), body, nil)
}

// Upsert writes the points; existing IDs are overwritten.
func (c *Client) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	body := map[string]interface{}{"points": points}
	return c.do(ctx, "PUT", fmt.Sprintf("/collections/%s/points?wait=true", c.collection), body, nil)
}

// Search returns the topK nearest neighbors matching every condition,
// payloads included.
func (c *Client) Search(ctx context.Context, vec []float32, topK int, conditions []Condition) ([]ScoredPoint, error) {
	body := map[string]interface{}{
		"vector":       vec,
		"limit":        topK,
		"with_payload": true,
	}
	if len(conditions) > 0 {
		must := make([]map[string]interface{}, 0, len(conditions))
		for _, cond := range conditions {
			must = append(must, map[string]interface{}{
				"key":   cond.Key,
				"match": map[string]interface{}{"value": cond.Value},
			})
		}
		body["filter"] = map[string]interface{}{"must": must}
	}

	var result struct {
		Result []ScoredPoint `json:"result"`
	}
	if err := c.do(ctx, "POST", fmt.Sprintf("/collections/%s/points/search", c.collection), body, &result); err != nil {
		return nil, err
	}
	return result.Result, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("qdrant API error (%d): %s", resp.StatusCode, string(body))
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("qdrant parse error: %w", err)
		}
	}
	return nil
}
