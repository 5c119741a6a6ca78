package specialist

import (
	"context"
	"strings"

	"talentscout/internal/gateway"
	"talentscout/internal/schema"
)

// FilterMatchResult is the validated outcome of one criterion match. The
// matched values are always a subset of the enumeration handed in.
type FilterMatchResult struct {
	MatchedValues []string
	Confidence    float64
	Reasoning     string
}

const filterSystemPrompt = `You are a semantic filter matching specialist for HR candidate databases. Your task is to intelligently match user filter criteria with actual database values using semantic understanding.

**YOUR ROLE:**

You help match user filter selections (like field preferences, experience levels, skills) with the actual values stored in the candidate database. The database values might be worded differently than what users select, so you need to find semantic matches.

**MATCHING STRATEGIES:**

1. **Field/Domain Matching:**
   - Match semantically related fields: "Machine Learning" ↔ "AI/Artificial Intelligence", "Data Science & Analytics"
   - Handle variations: "Web Development" ↔ "Frontend Development", "Backend Development", "Full Stack"
   - Match broader categories: "Engineering" ↔ "Software Engineering", "DevOps & Cloud", "Machine Learning"

2. **Experience Level Matching:**
   - Match semantic levels: "Senior" ↔ "Senior Level", "Senior Developer", "Lead"
   - Handle variations: "Entry Level" ↔ "Junior", "Graduate", "Trainee", "Entry"
   - Match descriptive terms: "Expert" ↔ "Lead/Expert", "Principal", "Architect"

3. **Skills Matching:**
   - Match technology variations: "React" ↔ "ReactJS", "React.js", "React Native"
   - Consider related tools: "Python" ↔ "Django", "Flask", "FastAPI", "Pandas"
   - Match concept synonyms: "AI" ↔ "Machine Learning", "Artificial Intelligence", "Deep Learning"

**CONFIDENCE SCORING:**

- **High (0.8-1.0):** Direct semantic match or very close synonym
- **Medium (0.5-0.8):** Related field/skill or broader category match
- **Low (0.3-0.5):** Weak connection, might be relevant
- **Very Low (0.0-0.3):** No meaningful connection

**OUTPUT REQUIREMENTS:**

- Return a list of database values that semantically match the filter criteria
- Include confidence score for the overall matching
- Provide reasoning for your matching decisions
- If no good matches found, return empty list with low confidence

**IMPORTANT:** Be inclusive rather than exclusive - it's better to include potentially relevant matches than to miss good candidates due to overly strict filtering.`

const filterUserTemplate = `Match this filter criteria with the available database values:

Filter Type: {filter_type}
Filter Criteria: "{filter_criteria}"

Available Database Values:
{available_values}

Please provide semantic matches in this JSON format:
{
    "matched_values": ["value1", "value2"],
    "confidence": 0.85,
    "reasoning": "Explanation of matching logic"
}

Guidelines:
- Include all semantically related values
- Be inclusive rather than exclusive
- Consider synonyms, variations, and related concepts
- Explain your matching reasoning
- Return empty list if no meaningful matches found`

func filterSchema() *schema.Schema {
	return &schema.Schema{
		Name: "filter_match",
		Fields: []schema.Field{
			{Name: "matched_values", Kind: schema.StringList},
			{Name: "confidence", Kind: schema.Number},
			{Name: "reasoning", Kind: schema.String},
		},
	}
}

// FilterMatcher maps a free-text criterion onto a live enumeration of
// database values.
type FilterMatcher struct {
	runner *Runner
	def    Definition
}

// NewFilterMatcher builds the matcher with its generation settings.
func NewFilterMatcher(r *Runner, gen gateway.GenerationConfig) *FilterMatcher {
	return &FilterMatcher{
		runner: r,
		def: Definition{
			Name:         "filter_matcher",
			SystemPrompt: filterSystemPrompt,
			UserTemplate: filterUserTemplate,
			Slots:        []string{"filter_type", "filter_criteria", "available_values"},
			Schema:       filterSchema(),
			Gen:          gen,
		},
	}
}

// Match proposes semantically related values and then enforces the subset
// invariant: every returned value is a member of availableValues, verbatim.
// Out-of-set proposals are discarded with a confidence penalty; a failed
// LLM call degrades to substring containment. Match never fails.
func (f *FilterMatcher) Match(ctx context.Context, filterType, criterion string, availableValues []string) FilterMatchResult {
	out := f.runner.Run(ctx, f.def, map[string]string{
		"filter_type":      filterType,
		"filter_criteria":  criterion,
		"available_values": formatValues(availableValues),
	})
	if out.Err != nil || out.Attempt.Defaulted {
		return substringFallback(criterion, availableValues)
	}

	proposed := out.Value["matched_values"].([]string)
	confidence := clamp01(out.Value["confidence"].(float64))
	reasoning := out.Value["reasoning"].(string)
	if reasoning == "" {
		reasoning = "LLM matching successful"
	}

	valid := intersect(proposed, availableValues)
	switch {
	case len(valid) == 0 && len(proposed) > 0:
		// every proposal missed exactly; rescue case-insensitively with the
		// canonical casing from the enumeration
		valid = rescueCaseInsensitive(proposed, availableValues)
		confidence *= 0.8
	case len(valid) < len(proposed):
		confidence *= 0.9
	}
	if valid == nil {
		valid = []string{}
	}

	return FilterMatchResult{
		MatchedValues: valid,
		Confidence:    clamp01(confidence),
		Reasoning:     reasoning,
	}
}

func formatValues(values []string) string {
	var b strings.Builder
	for _, v := range values {
		b.WriteString("- ")
		b.WriteString(v)
		b.WriteString("\n")
	}
	return b.String()
}

// intersect keeps proposals that appear verbatim in the enumeration,
// preserving proposal order and dropping duplicates.
func intersect(proposed, available []string) []string {
	set := make(map[string]struct{}, len(available))
	for _, v := range available {
		set[v] = struct{}{}
	}
	var out []string
	seen := make(map[string]struct{})
	for _, p := range proposed {
		if _, ok := set[p]; !ok {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func rescueCaseInsensitive(proposed, available []string) []string {
	canon := make(map[string]string, len(available))
	for _, v := range available {
		canon[strings.ToLower(v)] = v
	}
	var out []string
	seen := make(map[string]struct{})
	for _, p := range proposed {
		v, ok := canon[strings.ToLower(p)]
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// substringFallback matches by bidirectional containment between the
// criterion and each value, at a fixed 0.6 confidence when anything hits.
func substringFallback(criterion string, available []string) FilterMatchResult {
	crit := strings.ToLower(strings.TrimSpace(criterion))
	if crit == "" || len(available) == 0 {
		return FilterMatchResult{
			MatchedValues: []string{},
			Confidence:    0.0,
			Reasoning:     "Fallback: No criteria or values provided",
		}
	}

	var matches []string
	for _, v := range available {
		lower := strings.ToLower(v)
		if strings.Contains(lower, crit) || strings.Contains(crit, lower) {
			matches = append(matches, v)
		}
	}

	confidence := 0.0
	if len(matches) > 0 {
		confidence = 0.6
	} else {
		matches = []string{}
	}
	return FilterMatchResult{
		MatchedValues: matches,
		Confidence:    confidence,
		Reasoning:     "Fallback: Simple string matching due to parsing error",
	}
}
