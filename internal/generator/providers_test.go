package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func openAIServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIProviderGenerate(t *testing.T) {
	content, err := json.Marshal(validPost)
	require.NoError(t, err)
	body := fmt.Sprintf(`{"id":"c1","object":"chat.completion","model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":%s},"finish_reason":"stop"}]}`, content)

	var seen map[string]any
	srv := openAIServer(t, http.StatusOK, body, &seen)
	p := NewOpenAIProvider("key", srv.URL+"/v1", "")

	out, err := p.Generate(context.Background(), "system text", "user text")
	require.NoError(t, err)
	assert.Equal(t, validPost, out)
	assert.Equal(t, "openai/gpt-4o-mini", p.Name())
	assert.Equal(t, "gpt-4o-mini", seen["model"])

	messages, ok := seen["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
}

func TestOpenAIProviderRateLimit(t *testing.T) {
	srv := openAIServer(t, http.StatusTooManyRequests,
		`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`, nil)

	_, err := NewOpenAIProvider("key", srv.URL+"/v1", "gpt-4o-mini").Generate(context.Background(), "s", "p")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestOpenAIProviderServerError(t *testing.T) {
	srv := openAIServer(t, http.StatusInternalServerError,
		`{"error":{"message":"boom","type":"server_error"}}`, nil)

	_, err := NewOpenAIProvider("key", srv.URL+"/v1", "gpt-4o-mini").Generate(context.Background(), "s", "p")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRateLimited))
}

func TestIsGeminiRateLimit(t *testing.T) {
	assert.True(t, isGeminiRateLimit(&googleapi.Error{Code: http.StatusTooManyRequests}))
	assert.True(t, isGeminiRateLimit(errors.New("googleapi: Error 429: RESOURCE_EXHAUSTED")))
	assert.True(t, isGeminiRateLimit(errors.New("rpc error: code = ResourceExhausted desc = Quota exceeded")))
	assert.False(t, isGeminiRateLimit(&googleapi.Error{Code: http.StatusBadRequest, Message: "bad request"}))
	assert.False(t, isGeminiRateLimit(errors.New("connection reset")))
}

func TestResponseText(t *testing.T) {
	assert.Empty(t, responseText(nil))
	assert.Empty(t, responseText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"post_text":`), genai.Text(`"hi"}`)}},
	}}}
	assert.Equal(t, `{"post_text":"hi"}`, responseText(resp))
}
