package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_Complete(t *testing.T) {
	var gotAuth string
	var gotReq Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "Deal closed."}},
			},
			"usage": map[string]any{
				"prompt_tokens": 100, "completion_tokens": 400, "total_tokens": 500,
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", map[string]float64{"m1": 0.01})
	text, usage, err := c.Complete(context.Background(), Request{
		Model:    "m1",
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if text != "Deal closed." {
		t.Errorf("text = %q", text)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Model != "m1" {
		t.Errorf("forwarded model = %q", gotReq.Model)
	}
	// 500 tokens at $0.01/1K
	if usage.CostUSD != 0.005 {
		t.Errorf("CostUSD = %v, want 0.005", usage.CostUSD)
	}
}

func TestClient_DefaultPricing(t *testing.T) {
	c := NewClient("http://unused", "", nil)
	got := c.cost("unknown-model", 1000)
	if got != DefaultPricePerKTokens {
		t.Errorf("cost = %v, want %v", got, DefaultPricePerKTokens)
	}
}

func TestClient_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limited"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil)
	_, _, err := c.Complete(context.Background(), Request{Model: "m1"})
	if err == nil || err.Error() != "completion provider: rate limited" {
		t.Errorf("err = %v, want provider message surfaced", err)
	}
}

func TestClient_NonJSONErrorBodySurfacesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html><body>502 Bad Gateway</body></html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil)
	_, _, err := c.Complete(context.Background(), Request{Model: "m1"})
	if err == nil {
		t.Fatal("non-JSON error body should fail")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("err = %v, want the HTTP status surfaced, not a decode error", err)
	}
}

func TestClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil)
	_, _, err := c.Complete(context.Background(), Request{Model: "m1"})
	if err == nil {
		t.Error("empty choices should fail")
	}
}

func TestMockClient_ScriptedAndCanned(t *testing.T) {
	m := NewMockClient()

	text, usage, err := m.Complete(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "opening line"}},
	})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if text == "" {
		t.Error("canned reply should be non-empty")
	}
	if usage.CostUSD != m.CostPerCall {
		t.Errorf("CostUSD = %v, want %v", usage.CostUSD, m.CostPerCall)
	}

	m.ReplyFn = func(req Request) (string, error) { return "scripted", nil }
	text, _, _ = m.Complete(context.Background(), Request{})
	if text != "scripted" {
		t.Errorf("text = %q, want scripted reply", text)
	}

	if m.Calls() != 2 {
		t.Errorf("Calls() = %d, want 2", m.Calls())
	}
}

func TestMockClient_HonorsContextCancellation(t *testing.T) {
	m := NewMockClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := m.Complete(ctx, Request{})
	if err == nil {
		t.Error("cancelled context should fail")
	}
}
