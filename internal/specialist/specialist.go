// Package specialist implements the prompt-template units the conversation
// flows are built from. A specialist pairs a system prompt, a user template
// with declared input slots, an optional output schema and a fallback; its
// typed entry points absorb every gateway and parsing failure, so callers
// never see an error cross the specialist boundary.
package specialist

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"talentscout/internal/gateway"
	"talentscout/internal/recovery"
	"talentscout/internal/schema"
)

// TemplateError reports a declared input slot that was not supplied. It is
// raised inside the framework and converted to the fallback one level up.
type TemplateError struct {
	Specialist string
	Slot       string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("%s: missing template slot %q", e.Specialist, e.Slot)
}

// Definition is the immutable configuration of one specialist.
type Definition struct {
	Name         string
	SystemPrompt string
	// UserTemplate carries {slot} placeholders for each declared slot.
	UserTemplate string
	Slots        []string
	// Schema is nil for free-text specialists.
	Schema *schema.Schema
	Gen    gateway.GenerationConfig
}

// Outcome is the raw result of one structured run. Concrete specialists
// turn it into their typed value and apply their own fallbacks.
type Outcome struct {
	Raw     string
	Value   map[string]any
	Attempt recovery.Attempt
	Err     error // gateway or template failure; Value is nil when set
}

// Runner executes definitions over the gateway and recovery pipeline.
type Runner struct {
	gw   gateway.Gateway
	pipe *recovery.Pipeline
	log  *zap.Logger
}

// NewRunner wires the shared handles. All specialists in a process share
// one runner.
func NewRunner(gw gateway.Gateway, pipe *recovery.Pipeline, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if pipe == nil {
		pipe = recovery.New(log, false)
	}
	return &Runner{gw: gw, pipe: pipe, log: log}
}

// render fills the declared slots into the user template. Every declared
// slot must be present in inputs.
func render(def Definition, inputs map[string]string) (string, error) {
	for _, slot := range def.Slots {
		if _, ok := inputs[slot]; !ok {
			return "", &TemplateError{Specialist: def.Name, Slot: slot}
		}
	}
	prompt := def.UserTemplate
	for slot, val := range inputs {
		prompt = strings.ReplaceAll(prompt, "{"+slot+"}", val)
	}
	return prompt, nil
}

// Run executes a schema-bearing specialist. The returned Outcome carries
// either a validated value (possibly the schema default) or the error that
// prevented generation.
func (r *Runner) Run(ctx context.Context, def Definition, inputs map[string]string) Outcome {
	prompt, err := render(def, inputs)
	if err != nil {
		r.log.Warn("specialist template incomplete", zap.String("specialist", def.Name), zap.Error(err))
		return Outcome{Err: err}
	}

	raw, err := r.gw.Generate(ctx, def.SystemPrompt, prompt, def.Gen)
	if err != nil {
		r.log.Warn("specialist generation failed", zap.String("specialist", def.Name), zap.Error(err))
		return Outcome{Err: err}
	}

	if def.Schema == nil {
		return Outcome{Raw: raw}
	}
	value, attempt := r.pipe.Recover(raw, def.Schema)
	return Outcome{Raw: raw, Value: value, Attempt: attempt}
}

// ExecuteText runs a free-text specialist and returns the trimmed reply.
func (r *Runner) ExecuteText(ctx context.Context, def Definition, inputs map[string]string) (string, error) {
	out := r.Run(ctx, def, inputs)
	if out.Err != nil {
		return "", out.Err
	}
	return strings.TrimSpace(out.Raw), nil
}

// Stream runs a free-text specialist with incremental output. Only
// terminal, human-facing specialists stream; structured specialists need a
// complete value before the next node can proceed.
func (r *Runner) Stream(ctx context.Context, def Definition, inputs map[string]string) (<-chan string, error) {
	prompt, err := render(def, inputs)
	if err != nil {
		r.log.Warn("specialist template incomplete", zap.String("specialist", def.Name), zap.Error(err))
		return nil, err
	}
	return r.gw.GenerateStream(ctx, def.SystemPrompt, prompt, def.Gen)
}
