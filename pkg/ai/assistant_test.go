package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/speech-insights/pkg/config"
)

// fakeAssistants emulates the subset of the Assistants API used by AssistantClient
type fakeAssistants struct {
	t           *testing.T
	mu          sync.Mutex
	statuses    []string // returned by successive run polls
	polls       int
	reply       string
	lastMessage string
	headers     http.Header
	paths       []string
}

func (f *fakeAssistants) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.headers = r.Header.Clone()
	f.paths = append(f.paths, r.Method+" "+r.URL.Path)
	path := strings.TrimPrefix(r.URL.Path, "/openai")

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && path == "/assistants":
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "asst_1"})
	case r.Method == http.MethodPost && path == "/threads":
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "thread_1"})
	case r.Method == http.MethodPost && path == "/threads/thread_1/messages":
		var msg messageRequest
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&msg))
		f.lastMessage = msg.Content
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "msg_1"})
	case r.Method == http.MethodPost && path == "/threads/thread_1/runs":
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "run_1", "status": "queued"})
	case r.Method == http.MethodGet && path == "/threads/thread_1/runs/run_1":
		status := f.statuses[min(f.polls, len(f.statuses)-1)]
		f.polls++
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":         "run_1",
			"status":     status,
			"last_error": map[string]string{"code": "server_error", "message": "model overloaded"},
		})
	case r.Method == http.MethodGet && path == "/threads/thread_1/messages":
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"role": "assistant", "content": []map[string]interface{}{
					{"type": "text", "text": map[string]string{"value": f.reply}},
				}},
				{"role": "user", "content": []map[string]interface{}{
					{"type": "text", "text": map[string]string{"value": f.lastMessage}},
				}},
			},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"not found"}}`))
	}
}

func newTestAssistantClient(t *testing.T, fake *fakeAssistants, apiVersion string) *AssistantClient {
	t.Helper()
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)

	return NewAssistantClient(&config.ClassifierConfig{
		BaseURL:      ts.URL,
		APIKey:       "test-key",
		APIVersion:   apiVersion,
		Model:        "gpt-4o",
		Temperature:  1,
		TopP:         1,
		PollInterval: time.Millisecond,
	})
}

func TestAssistantClient_RunCompleted(t *testing.T) {
	fake := &fakeAssistants{t: t, statuses: []string{"in_progress", "completed"}, reply: `[{"topic":"A","description":"d"}]`}
	client := newTestAssistantClient(t, fake, "")

	id, err := client.EnsureAssistant(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "asst_1", id)

	raw, err := client.Run(context.Background(), []string{"hello", "world"})
	require.NoError(t, err)
	assert.Equal(t, `[{"topic":"A","description":"d"}]`, raw)

	assert.JSONEq(t, `{"textDocuments":["hello","world"]}`, fake.lastMessage)
	assert.Equal(t, 2, fake.polls)
	assert.Equal(t, "Bearer test-key", fake.headers.Get("Authorization"))
	assert.Equal(t, "assistants=v2", fake.headers.Get("OpenAI-Beta"))
}

func TestAssistantClient_RunFailedStatus(t *testing.T) {
	fake := &fakeAssistants{t: t, statuses: []string{"failed"}}
	client := newTestAssistantClient(t, fake, "")
	_, err := client.EnsureAssistant(context.Background())
	require.NoError(t, err)

	_, err = client.Run(context.Background(), []string{"x"})

	var failed *RunFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "failed", failed.Status)
	assert.Equal(t, "model overloaded", failed.Reason)
}

func TestAssistantClient_ContextStopsPolling(t *testing.T) {
	fake := &fakeAssistants{t: t, statuses: []string{"in_progress"}}
	client := newTestAssistantClient(t, fake, "")
	_, err := client.EnsureAssistant(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Run(ctx, []string{"x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTransientCall))
}

func TestAssistantClient_HTTPErrorIsTransient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer ts.Close()

	client := NewAssistantClient(&config.ClassifierConfig{BaseURL: ts.URL, APIKey: "k", AssistantID: "asst_existing"})

	_, err := client.Run(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, ErrTransientCall)
	assert.Contains(t, err.Error(), "429")
}

func TestAssistantClient_RunWithoutAssistant(t *testing.T) {
	client := NewAssistantClient(&config.ClassifierConfig{BaseURL: "http://127.0.0.1:0", APIKey: "k"})

	_, err := client.Run(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, ErrNoAssistant)
}

func TestAssistantClient_ConfiguredAssistantIsReused(t *testing.T) {
	fake := &fakeAssistants{t: t, statuses: []string{"completed"}}
	ts := httptest.NewServer(fake)
	defer ts.Close()

	client := NewAssistantClient(&config.ClassifierConfig{BaseURL: ts.URL, APIKey: "k", AssistantID: "asst_existing"})
	id, err := client.EnsureAssistant(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "asst_existing", id)
	assert.Empty(t, fake.paths)
}

func TestAssistantClient_AzureRouting(t *testing.T) {
	var gotQuery, gotKey, gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("api-version")
		gotKey = r.Header.Get("api-key")
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "asst_azure"})
	}))
	defer ts.Close()

	client := NewAssistantClient(&config.ClassifierConfig{
		BaseURL:    ts.URL + "/",
		APIKey:     "azure-key",
		APIVersion: "2024-05-01-preview",
		Model:      "gpt-4o",
	})

	id, err := client.EnsureAssistant(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "asst_azure", id)
	assert.Equal(t, "/openai/assistants", gotPath)
	assert.Equal(t, "2024-05-01-preview", gotQuery)
	assert.Equal(t, "azure-key", gotKey)
}
