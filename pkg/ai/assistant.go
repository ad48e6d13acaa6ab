package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/johnquangdev/speech-insights/pkg/config"
)

const (
	runStatusQueued     = "queued"
	runStatusInProgress = "in_progress"
	runStatusCompleted  = "completed"
)

// AssistantClient talks to the OpenAI Assistants API, or to Azure OpenAI
// when an API version is configured.
type AssistantClient struct {
	baseURL      string
	apiKey       string
	apiVersion   string
	pollInterval time.Duration
	assistant    AssistantConfig
	client       *http.Client

	mu          sync.RWMutex
	assistantID string
}

// NewAssistantClient creates an Assistants API client from the classifier config
func NewAssistantClient(cfg *config.ClassifierConfig) *AssistantClient {
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}
	return &AssistantClient{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		apiVersion:   cfg.APIVersion,
		pollInterval: poll,
		assistant:    NewAssistantConfig(cfg.Model, cfg.Temperature, cfg.TopP),
		client:       &http.Client{Timeout: 30 * time.Second},
		assistantID:  cfg.AssistantID,
	}
}

// AssistantID returns the id of the assistant runs are started against
func (c *AssistantClient) AssistantID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.assistantID
}

type assistantRequest struct {
	Name         string  `json:"name"`
	Model        string  `json:"model"`
	Instructions string  `json:"instructions"`
	Temperature  float64 `json:"temperature"`
	TopP         float64 `json:"top_p"`
}

type objectResponse struct {
	ID string `json:"id"`
}

type messageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type runRequest struct {
	AssistantID string `json:"assistant_id"`
}

type runResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	LastError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error"`
}

type messageListResponse struct {
	Data []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"data"`
}

// EnsureAssistant creates the assistant once, unless an id is already known
func (c *AssistantClient) EnsureAssistant(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.assistantID != "" {
		return c.assistantID, nil
	}

	var created objectResponse
	err := c.do(ctx, http.MethodPost, "/assistants", nil, assistantRequest{
		Name:         c.assistant.Name,
		Model:        c.assistant.Model,
		Instructions: c.assistant.Instructions,
		Temperature:  c.assistant.Temperature,
		TopP:         c.assistant.TopP,
	}, &created)
	if err != nil {
		return "", fmt.Errorf("create assistant: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("create assistant: %w: empty id", ErrTransientCall)
	}

	c.assistantID = created.ID
	return c.assistantID, nil
}

// Run submits texts in a fresh thread and waits for the run to finish.
// Polling stops when ctx is done.
func (c *AssistantClient) Run(ctx context.Context, texts []string) (string, error) {
	assistantID := c.AssistantID()
	if assistantID == "" {
		return "", ErrNoAssistant
	}

	payload, err := json.Marshal(map[string][]string{"textDocuments": texts})
	if err != nil {
		return "", err
	}

	var thread objectResponse
	if err := c.do(ctx, http.MethodPost, "/threads", nil, struct{}{}, &thread); err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}

	if err := c.do(ctx, http.MethodPost, "/threads/"+thread.ID+"/messages", nil,
		messageRequest{Role: "user", Content: string(payload)}, nil); err != nil {
		return "", fmt.Errorf("create message: %w", err)
	}

	var run runResponse
	if err := c.do(ctx, http.MethodPost, "/threads/"+thread.ID+"/runs", nil,
		runRequest{AssistantID: assistantID}, &run); err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}

	if err := c.waitForRun(ctx, thread.ID, &run); err != nil {
		return "", err
	}

	return c.latestAssistantText(ctx, thread.ID)
}

func (c *AssistantClient) waitForRun(ctx context.Context, threadID string, run *runResponse) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for run.Status == runStatusQueued || run.Status == runStatusInProgress {
		select {
		case <-ctx.Done():
			return fmt.Errorf("poll run %s: %w", run.ID, ctx.Err())
		case <-ticker.C:
		}

		if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/runs/"+run.ID, nil, nil, run); err != nil {
			return fmt.Errorf("poll run: %w", err)
		}
	}

	if run.Status != runStatusCompleted {
		failed := &RunFailedError{RunID: run.ID, Status: run.Status}
		if run.LastError != nil {
			failed.Reason = run.LastError.Message
		}
		return failed
	}
	return nil
}

func (c *AssistantClient) latestAssistantText(ctx context.Context, threadID string) (string, error) {
	query := url.Values{}
	query.Set("order", "desc")
	query.Set("limit", "20")

	var list messageListResponse
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/messages", query, nil, &list); err != nil {
		return "", fmt.Errorf("list messages: %w", err)
	}

	for _, msg := range list.Data {
		if msg.Role != "assistant" {
			continue
		}
		var sb strings.Builder
		for _, part := range msg.Content {
			if part.Type == "text" {
				sb.WriteString(part.Text.Value)
			}
		}
		return sb.String(), nil
	}
	return "", nil
}

func (c *AssistantClient) endpoint(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	prefix := ""
	if c.apiVersion != "" {
		prefix = "/openai"
		query.Set("api-version", c.apiVersion)
	}
	endpoint := c.baseURL + prefix + path
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	return endpoint
}

// do sends one request. Any transport failure or HTTP status >= 400 is
// reported as ErrTransientCall.
func (c *AssistantClient) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiVersion != "" {
		req.Header.Set("api-key", c.apiKey)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("OpenAI-Beta", "assistants=v2")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrTransientCall, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s returned status %d: %s", ErrTransientCall, method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrTransientCall, path, err)
	}
	return nil
}
