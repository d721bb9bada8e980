package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func geminiReply(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, text)
}

func newTestGemini(t *testing.T, handler http.HandlerFunc, model string, fallbacks []string) *Gemini {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	g := NewGemini("test-key", model, fallbacks)
	g.baseURL = srv.URL
	return g
}

func TestGeminiModelOrderAndDedup(t *testing.T) {
	g := NewGemini("k", "gemini-2.0-flash", []string{"gemini-1.5-flash", "gemini-2.0-flash", "", "gemini-1.5-pro", "gemini-1.5-flash"})
	want := []string{"gemini-2.0-flash", "gemini-1.5-flash", "gemini-1.5-pro"}
	got := g.Models()
	if len(got) != len(want) {
		t.Fatalf("models = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("models[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGeminiChatPrimarySucceeds(t *testing.T) {
	var tried []string
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		// Path looks like /v1beta/models/<model>:generateContent
		parts := strings.Split(r.URL.Path, "/")
		tried = append(tried, strings.TrimSuffix(parts[len(parts)-1], ":generateContent"))

		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["systemInstruction"]; !ok {
			t.Error("system instruction missing from request")
		}
		w.Write([]byte(geminiReply("answer")))
	}, "primary", []string{"fallback"})

	got, err := g.Chat(context.Background(), "sys", "user", nil)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if got != "answer" {
		t.Errorf("reply = %q", got)
	}
	if len(tried) != 1 || tried[0] != "primary" {
		t.Errorf("models tried = %v, want just the primary", tried)
	}
}

func TestGeminiChatFallsBackInOrder(t *testing.T) {
	var tried []string
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		model := strings.TrimSuffix(parts[len(parts)-1], ":generateContent")
		tried = append(tried, model)
		if model != "second" {
			http.Error(w, `{"error":"quota exceeded"}`, http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(geminiReply("from second")))
	}, "primary", []string{"first", "second"})

	got, err := g.Chat(context.Background(), "sys", "user", nil)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if got != "from second" {
		t.Errorf("reply = %q", got)
	}
	want := []string{"primary", "first", "second"}
	if len(tried) != 3 {
		t.Fatalf("models tried = %v, want %v", tried, want)
	}
	for i := range want {
		if tried[i] != want[i] {
			t.Errorf("tried[%d] = %q, want %q", i, tried[i], want[i])
		}
	}
}

func TestGeminiChatAllModelsFail(t *testing.T) {
	calls := 0
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":"unavailable"}`, http.StatusServiceUnavailable)
	}, "primary", []string{"fallback"})

	_, err := g.Chat(context.Background(), "sys", "user", nil)
	if err == nil {
		t.Fatal("expected an error when every model fails")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if !strings.Contains(err.Error(), "all models failed") {
		t.Errorf("err = %v", err)
	}
}

func TestGeminiChatEmptyCandidates(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}, "only", nil)

	_, err := g.Chat(context.Background(), "sys", "user", nil)
	if err == nil || !strings.Contains(err.Error(), "no content") {
		t.Errorf("err = %v, want a no-content error", err)
	}
}

func TestGeminiEmbedTextUnsupported(t *testing.T) {
	g := NewGemini("k", "m", nil)
	if _, err := g.EmbedText(context.Background(), "text"); err == nil {
		t.Error("expected embeddings to be unsupported")
	}
}
