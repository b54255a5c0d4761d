package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	apperrors "github.com/nijaru/yt-summary/errors"
	openai "github.com/sashabaranov/go-openai"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:            baseURL,
		SummaryModel:       "gpt-4o",
		SummaryTemperature: 0.1,
		SummaryMaxTokens:   250,
		AskModel:           "gpt-4",
		AskTemperature:     0.5,
	}
}

func chatResponse(content string) string {
	return `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o",` +
		`"choices":[{"index":0,"message":{"role":"assistant","content":` + mustJSON(content) + `},"finish_reason":"stop"}],` +
		`"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestSummarizeRequestShape(t *testing.T) {
	var got openai.ChatCompletionRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatResponse("1. **Point**")))
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL), server.Client(), nil)
	summary, err := c.Summarize(context.Background(), "sk-test", "hello world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary != "1. **Point**" {
		t.Errorf("unexpected summary %q", summary)
	}
	if auth != "Bearer sk-test" {
		t.Errorf("expected caller credential, got %q", auth)
	}
	if got.Model != "gpt-4o" || got.MaxTokens != 250 || got.Temperature != float32(0.1) {
		t.Errorf("unexpected request parameters %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("expected system + user messages, got %+v", got.Messages)
	}
	if got.Messages[1].Content != "Please summarize the following transcript:\n\nhello world" {
		t.Errorf("unexpected user message %q", got.Messages[1].Content)
	}
}

func TestAskEmbedsSummaryAndQuestion(t *testing.T) {
	var got openai.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatResponse("42")))
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL), server.Client(), nil)
	answer, err := c.Ask(context.Background(), "sk-test", "S1", "why?")
	if err != nil {
		t.Fatal(err)
	}

	if answer != "42" {
		t.Errorf("unexpected answer %q", answer)
	}
	if got.Model != "gpt-4" || got.Temperature != float32(0.5) {
		t.Errorf("unexpected request parameters %+v", got)
	}
	if got.Messages[0].Content != "You are a helpful assistant." {
		t.Errorf("unexpected system message %q", got.Messages[0].Content)
	}
	if got.Messages[1].Content != "Based on the following summary, S1, why?" {
		t.Errorf("unexpected user message %q", got.Messages[1].Content)
	}
}

func TestUpstreamErrorPassesThrough(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided: sk-bad","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL), server.Client(), nil)
	_, err := c.Summarize(context.Background(), "sk-bad", "text")
	if err == nil {
		t.Fatal("expected error")
	}

	if !apperrors.Is(err, apperrors.KindUpstream) {
		t.Errorf("expected upstream kind, got %v", apperrors.KindOf(err))
	}
	if msg := apperrors.PublicMessage(err); msg != "Incorrect API key provided: sk-bad" {
		t.Errorf("expected verbatim upstream message, got %q", msg)
	}
	if calls != 1 {
		t.Errorf("expected exactly one upstream attempt, got %d", calls)
	}
}

func TestNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o","choices":[]}`))
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL), server.Client(), nil)
	if _, err := c.Ask(context.Background(), "sk", "s", "q"); !apperrors.Is(err, apperrors.KindUpstream) {
		t.Errorf("expected upstream error, got %v", err)
	}
}
