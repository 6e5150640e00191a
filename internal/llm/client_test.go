package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heme-genetics-advisor/internal/domain"
	"github.com/heme-genetics-advisor/internal/prompt"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testRequest(t *testing.T, retrieval bool) *domain.ModelRequest {
	t.Helper()
	return prompt.Build(domain.DiseaseAML, "FLT3-ITD阳性").ModelRequest(retrieval)
}

func TestNewClient_Providers(t *testing.T) {
	logger := newTestLogger()
	ctx := context.Background()

	tests := []struct {
		name     string
		provider string
		want     string
	}{
		{name: "openai", provider: "openai", want: ProviderOpenAI},
		{name: "anthropic mixed case", provider: " Anthropic ", want: ProviderAnthropic},
		{name: "gemini", provider: "gemini", want: ProviderGemini},
		{name: "default provider", provider: "", want: ProviderGemini},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(ctx, domain.ModelConfig{Provider: tt.provider, APIKey: "test-key"}, logger)
			require.NoError(t, err)
			assert.Equal(t, tt.want, client.Provider())
		})
	}
}

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := NewClient(context.Background(), domain.ModelConfig{Provider: "mystery", APIKey: "k"}, newTestLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mystery")
}

func TestNewClient_WrapsBreakerWhenEnabled(t *testing.T) {
	cfg := domain.ModelConfig{
		Provider: ProviderOpenAI,
		APIKey:   "k",
		Breaker:  domain.BreakerConfig{Enabled: true},
	}
	client, err := NewClient(context.Background(), cfg, newTestLogger())
	require.NoError(t, err)

	breaker, ok := client.(*BreakerClient)
	require.True(t, ok)
	assert.Equal(t, ProviderOpenAI, breaker.Provider())
}

func TestDefaultModel(t *testing.T) {
	assert.Equal(t, defaultGeminiModel, DefaultModel(ProviderGemini))
	assert.Equal(t, defaultAnthropicModel, DefaultModel(ProviderAnthropic))
	assert.Equal(t, defaultOpenAIModel, DefaultModel(ProviderOpenAI))
	assert.Equal(t, defaultGeminiModel, DefaultModel("unknown"))
}

func TestInstructionWithSchema(t *testing.T) {
	req := testRequest(t, false)

	instruction := instructionWithSchema(req)
	assert.True(t, len(instruction) > len(req.Instruction))
	assert.Contains(t, instruction, req.Instruction)
	assert.Contains(t, instruction, `"prognosisLevel"`)
	assert.Contains(t, instruction, `"required"`)

	req.Schema = nil
	assert.Equal(t, req.Instruction, instructionWithSchema(req))
}

func TestOpenAIClient_Generate(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"summary\":\"ok\"}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19}
		}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(domain.ModelConfig{APIKey: "k", BaseURL: server.URL, Name: "gpt-4o-mini", MaxTokens: 100}, newTestLogger())
	resp, err := client.Generate(context.Background(), testRequest(t, true))
	require.NoError(t, err)

	assert.Equal(t, `{"summary":"ok"}`, resp.Text)
	assert.Equal(t, "gpt-4o-mini", resp.Model)
	assert.Equal(t, int64(12), resp.Usage.InputTokens)
	assert.Equal(t, int64(7), resp.Usage.OutputTokens)
	assert.Empty(t, resp.Citations)

	format, ok := captured["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])

	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	user := messages[1].(map[string]any)
	assert.Equal(t, "user", user["role"])
	assert.Equal(t, "疾病类型：急性髓细胞白血病\n检查结果：FLT3-ITD阳性", user["content"])
}

func TestOpenAIClient_TransportError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(domain.ModelConfig{APIKey: "k", BaseURL: server.URL, Name: "gpt-4o-mini"}, newTestLogger())
	_, err := client.Generate(context.Background(), testRequest(t, false))
	require.Error(t, err)

	var transportErr *domain.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, ProviderOpenAI, transportErr.Provider)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAnthropicClient_Generate(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "{\"summary\":\"ok\"}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 20, "output_tokens": 9}
		}`))
	}))
	defer server.Close()

	client := NewAnthropicClient(domain.ModelConfig{APIKey: "k", BaseURL: server.URL, Name: "claude-test", MaxTokens: 256}, newTestLogger())
	resp, err := client.Generate(context.Background(), testRequest(t, false))
	require.NoError(t, err)

	assert.Equal(t, `{"summary":"ok"}`, resp.Text)
	assert.Equal(t, "claude-test", resp.Model)
	assert.Equal(t, int64(20), resp.Usage.InputTokens)
	assert.Equal(t, int64(9), resp.Usage.OutputTokens)
	assert.EqualValues(t, 256, captured["max_tokens"])
}

func TestAnthropicClient_NoRetryOnFailure(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"overloaded"}}`))
	}))
	defer server.Close()

	client := NewAnthropicClient(domain.ModelConfig{APIKey: "k", BaseURL: server.URL, Name: "claude-test", MaxTokens: 256}, newTestLogger())
	_, err := client.Generate(context.Background(), testRequest(t, false))

	var transportErr *domain.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
