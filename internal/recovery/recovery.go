// Package recovery turns unreliable generated text into validated structured
// values. An ordered chain of parse and repair strategies is tried until one
// yields an object the target schema accepts; when every strategy fails the
// schema default is returned. The pipeline never returns an error.
package recovery

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"talentscout/internal/schema"
)

// Attempt records one pipeline run for diagnostics. It never influences the
// returned value.
type Attempt struct {
	Raw       string
	Tried     []string
	Winner    string // empty when every strategy failed
	Defaulted bool
}

// Pipeline applies the strategy chain. Safe for concurrent use.
type Pipeline struct {
	log     *zap.Logger
	verbose bool
}

// New builds a pipeline. With verbose set, each strategy attempt is logged
// at debug level.
func New(log *zap.Logger, verbose bool) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{log: log, verbose: verbose}
}

type strategy struct {
	name string
	fn   func(raw string, s *schema.Schema) (map[string]any, bool)
}

var strategies = []strategy{
	{"direct", directParse},
	{"clean", cleanThenParse},
	{"extract", extractFromMixed},
	{"repair", heuristicRepair},
	{"reconstruct", reconstructFields},
}

// Recover runs the chain and returns the first validated value, or the
// schema default when nothing parses.
func (p *Pipeline) Recover(raw string, s *schema.Schema) (map[string]any, Attempt) {
	att := Attempt{Raw: raw}
	for _, st := range strategies {
		att.Tried = append(att.Tried, st.name)
		val, ok := st.fn(raw, s)
		if p.verbose {
			p.log.Debug("recovery strategy attempted",
				zap.String("schema", s.Name),
				zap.String("strategy", st.name),
				zap.Bool("success", ok))
		}
		if ok {
			att.Winner = st.name
			return val, att
		}
	}
	att.Defaulted = true
	if p.verbose {
		p.log.Debug("recovery exhausted, returning schema default",
			zap.String("schema", s.Name))
	}
	return s.Default(), att
}

// directParse succeeds only when the whole text is exactly one well-formed
// JSON object that validates.
func directParse(raw string, s *schema.Schema) (map[string]any, bool) {
	return parseAndValidate(strings.TrimSpace(raw), s)
}

// cleanThenParse strips code fences and any prose before the first opening
// brace, then takes the depth-matched span.
func cleanThenParse(raw string, s *schema.Schema) (map[string]any, bool) {
	span, ok := firstBalancedSpan(stripFences(raw))
	if !ok {
		return nil, false
	}
	return parseAndValidate(span, s)
}

// extractFromMixed tries every balanced object span in order of appearance.
func extractFromMixed(raw string, s *schema.Schema) (map[string]any, bool) {
	for _, span := range allBalancedSpans(stripFences(raw)) {
		if val, ok := parseAndValidate(span, s); ok {
			return val, ok
		}
	}
	return nil, false
}

// heuristicRepair applies the brace, key and comma fixes in sequence,
// re-running cleanThenParse after each.
func heuristicRepair(raw string, s *schema.Schema) (map[string]any, bool) {
	text := stripFences(raw)
	for _, fix := range []func(string) string{closeOpenBraces, quoteBareKeys, stripTrailingCommas} {
		text = fix(text)
		if val, ok := cleanThenParse(text, s); ok {
			return val, ok
		}
	}
	return nil, false
}

// reconstructFields scavenges field values straight out of the prose with
// per-field patterns. At least one field must be found; the rest of the
// object is filled from defaults.
func reconstructFields(raw string, s *schema.Schema) (map[string]any, bool) {
	out := s.Default()
	found := 0
	for _, f := range s.Fields {
		if f.Kind != schema.String {
			continue
		}
		if v, ok := scavenge(raw, f.Name); ok {
			out[f.Name] = v
			found++
		}
	}
	if found == 0 {
		return nil, false
	}
	return out, true
}

func parseAndValidate(text string, s *schema.Schema) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, false
	}
	val, err := s.Validate(obj)
	if err != nil {
		return nil, false
	}
	return val, true
}
