// Package gateway provides the single-attempt client for the remote
// text-generation endpoint. The gateway performs exactly one HTTP call per
// invocation; callers decide how to react to failure.
package gateway

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors distinguishing the gateway failure modes.
var (
	// ErrUnavailable indicates the endpoint could not be reached or
	// rejected the request.
	ErrUnavailable = errors.New("generation endpoint unavailable")

	// ErrTimeout indicates no response arrived within the configured
	// per-call timeout.
	ErrTimeout = errors.New("generation timed out")

	// ErrEmpty indicates the endpoint answered with an empty or
	// whitespace-only completion.
	ErrEmpty = errors.New("empty completion")
)

// GenerationConfig is the immutable per-call configuration bundle.
// Specialists override only the distribution-shaping fields (temperature,
// top_k, top_p, max tokens, stop sequences); model and endpoint come from
// the process-wide configuration.
type GenerationConfig struct {
	Model       string
	BaseURL     string
	Temperature float64
	TopK        int
	TopP        float64
	MaxTokens   int
	Stop        []string
	Timeout     time.Duration
}

// Gateway sends a prompt to a text-generation endpoint and returns the raw
// completion text. Implementations never retry: one call, one attempt.
type Gateway interface {
	Generate(ctx context.Context, system, prompt string, cfg GenerationConfig) (string, error)

	// GenerateStream requests incremental output. Chunks arrive on the
	// returned channel, which is closed when the completion finishes or
	// the stream breaks. Only terminal, human-facing specialists stream.
	GenerateStream(ctx context.Context, system, prompt string, cfg GenerationConfig) (<-chan string, error)
}
