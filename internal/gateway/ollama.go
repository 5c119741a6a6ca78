package gateway

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// OllamaClient implements Gateway against an Ollama-compatible generate API.
type OllamaClient struct {
	httpClient *http.Client
	log        *zap.Logger
}

// NewOllamaClient creates a gateway client. The per-call timeout comes from
// GenerationConfig, so the underlying http.Client carries none.
func NewOllamaClient(log *zap.Logger) *OllamaClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &OllamaClient{
		httpClient: &http.Client{},
		log:        log,
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64  `json:"temperature"`
	TopK        int      `json:"top_k,omitempty"`
	TopP        float64  `json:"top_p,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Generate performs exactly one request and returns the trimmed completion.
func (c *OllamaClient) Generate(ctx context.Context, system, prompt string, cfg GenerationConfig) (string, error) {
	resp, cancel, err := c.do(ctx, system, prompt, cfg, false)
	if err != nil {
		return "", err
	}
	defer cancel()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: malformed response body: %v", ErrUnavailable, err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrUnavailable, out.Error)
	}

	text := strings.TrimSpace(out.Response)
	if text == "" {
		return "", ErrEmpty
	}

	c.log.Debug("completion received",
		zap.String("model", cfg.Model),
		zap.Int("chars", len(text)))
	return text, nil
}

// GenerateStream performs one request with stream=true and forwards the
// NDJSON chunks. The channel is closed when the endpoint reports done or
// the stream breaks; a broken stream is not retried.
func (c *OllamaClient) GenerateStream(ctx context.Context, system, prompt string, cfg GenerationConfig) (<-chan string, error) {
	resp, cancel, err := c.do(ctx, system, prompt, cfg, true)
	if err != nil {
		return nil, err
	}

	ch := make(chan string)
	go func() {
		defer close(ch)
		defer cancel()
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var chunk generateResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				c.log.Warn("dropping malformed stream chunk", zap.Error(err))
				continue
			}
			if chunk.Response != "" {
				select {
				case ch <- chunk.Response:
				case <-ctx.Done():
					return
				}
			}
			if chunk.Done {
				return
			}
		}
	}()
	return ch, nil
}

// do issues the single HTTP attempt. The returned cancel releases the
// per-call deadline and must be called once the body is drained; for
// streaming that happens inside the reader goroutine.
func (c *OllamaClient) do(ctx context.Context, system, prompt string, cfg GenerationConfig, stream bool) (*http.Response, context.CancelFunc, error) {
	reqBody := generateRequest{
		Model:  cfg.Model,
		Prompt: prompt,
		System: system,
		Stream: stream,
		Options: generateOptions{
			Temperature: cfg.Temperature,
			TopK:        cfg.TopK,
			TopP:        cfg.TopP,
			NumPredict:  cfg.MaxTokens,
			Stop:        cfg.Stop,
		},
	}

	cancel := context.CancelFunc(func() {})
	if cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("%w: marshaling request: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("%w: building request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		if isTimeout(err) {
			return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, cfg.Timeout)
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		cancel()
		return nil, nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, cancel, nil
}

func isTimeout(err error) bool {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), context.DeadlineExceeded.Error())
}
