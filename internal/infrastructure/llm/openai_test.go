package llm

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStubbedClient(endpoint string) (*OpenAIClient, *[]time.Duration) {
	c := NewOpenAIClient(endpoint, "test-model", "test-key", discardLogger())
	delays := &[]time.Duration{}
	c.retry.sleep = func(d time.Duration) { *delays = append(*delays, d) }
	return c, delays
}

func TestOpenAIGenerateSendsChatRequest(t *testing.T) {
	var (
		gotAuth string
		gotBody map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  生成的文本  "}}]}`))
	}))
	defer server.Close()

	c, _ := newStubbedClient(server.URL)
	text, err := c.Generate(context.Background(), "system prompt", "user prompt", 0.7)
	require.NoError(t, err)
	assert.Equal(t, "生成的文本", text)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test-model", gotBody["model"])
	assert.Equal(t, 0.7, gotBody["temperature"])

	messages, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]any)
	second := messages[1].(map[string]any)
	assert.Equal(t, "system", first["role"])
	assert.Equal(t, "system prompt", first["content"])
	assert.Equal(t, "user", second["role"])
	assert.Equal(t, "user prompt", second["content"])
}

func TestOpenAIGenerateRetriesThenSucceeds(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	c, delays := newStubbedClient(server.URL)
	text, err := c.Generate(context.Background(), "s", "u", 0.3)
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 3, hits)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *delays)
}

func TestOpenAIGenerateExhaustsRetries(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c, delays := newStubbedClient(server.URL)
	_, err := c.Generate(context.Background(), "s", "u", 0.3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai error")
	assert.Equal(t, maxRetries, hits)
	assert.Len(t, *delays, maxRetries-1)
}

func TestOpenAIGenerateEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	c, _ := newStubbedClient(server.URL)
	_, err := c.Generate(context.Background(), "s", "u", 0.3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty completion")
}
