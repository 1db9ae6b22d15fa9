package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:      baseURL,
		APIKey:       "test-key",
		Model:        "gpt-4o-mini",
		TTSModel:     "tts-1",
		TTSVoice:     "nova",
		SystemPrompt: "You are a helpful assistant that summarizes news articles.",
		MaxTokens:    5000,
		Temperature:  0.5,
	}
}

func TestSummarize(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"One story."}}]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	summary, err := client.Summarize(context.Background(), "Summarize this")

	require.NoError(t, err)
	assert.Equal(t, "One story.", summary)
	assert.Equal(t, "gpt-4o-mini", captured.Model)
	assert.Equal(t, 5000, captured.MaxTokens)
	assert.InDelta(t, 0.5, captured.Temperature, 0.001)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "You are a helpful assistant that summarizes news articles.", captured.Messages[0].Content)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "Summarize this", captured.Messages[1].Content)
}

func TestSummarize_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit"}}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	_, err := client.Summarize(context.Background(), "prompt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai error")
	assert.Contains(t, err.Error(), "rate limit")
}

func TestSummarize_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	_, err := client.Summarize(context.Background(), "prompt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestSummarize_MissingAPIKey(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.APIKey = ""
	client := NewClient(cfg)

	_, err := client.Summarize(context.Background(), "prompt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing api key")
}

func TestSynthesize(t *testing.T) {
	audio := []byte("binary-mp3-data")

	var captured speechRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/audio/speech", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(audio)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	got, err := client.Synthesize(context.Background(), "Good morning, here is your digest.")

	require.NoError(t, err)
	assert.Equal(t, audio, got)
	assert.Equal(t, "tts-1", captured.Model)
	assert.Equal(t, "nova", captured.Voice)
	assert.Equal(t, "Good morning, here is your digest.", captured.Input)
}

func TestSynthesize_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("input too long"))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	_, err := client.Synthesize(context.Background(), "text")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "input too long")
}
