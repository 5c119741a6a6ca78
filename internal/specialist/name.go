package specialist

import (
	"context"
	"regexp"
	"strings"

	"talentscout/internal/gateway"
	"talentscout/internal/schema"
)

const nameSystemPrompt = `You are a name extraction specialist for HR queries. Your sole task is to accurately identify and extract candidate names from user messages.

**EXTRACTION GUIDELINES:**

1.  **Identify Names in Context:** Scan the user's message for any phrases indicating a person's name.
    * **Direct mentions:** "John Smith", "Sarah Johnson", "Hercules Keung"
    * **Possessive references:** "John's email", "Sarah's experience", "Hercules Keung's first job"
    * **Explicit references:** "Tell me about Dr. David Williams", "Contact info for Jennifer"
    * **Contextual mentions:** "the candidate named Alex", "employee called Mike"

2.  **Clean Extracted Names:** If a name is found, process it according to these rules:
    * **Remove Titles:** Eliminate honorifics like "Dr.", "Mr.", "Ms.", "Mrs.", "Prof.", etc.
    * **Remove Possessive Markers:** Remove "'s" at the end of a name.
    * **Retain Full Names:** Keep both first and last names when present.
    * **Handle Single Names:** If only a single name is provided, extract that single name.
    * **Handle Asian Names:** Be aware of different name formats (e.g., "Hercules Keung", "Lee Ho Pan, Benny")
    * **Preserve Casing:** Keep the original letter casing, including all-caps surnames (e.g., "POON Kwok Tung")

3.  **Assign Confidence Scores:**
    * **High Confidence (0.8-1.0):** The name is clearly identifiable and unambiguous
    * **Medium Confidence (0.5-0.8):** The name is somewhat clear but might have minor ambiguities
    * **Low Confidence (0.0-0.5):** The name is highly uncertain, ambiguous, or no clear name is found

4.  **Handle No Name Found:** If no candidate name can be confidently extracted, return an **empty string ("")** for the name, and a **low confidence score**.

**IMPORTANT PATTERNS TO RECOGNIZE:**
- "What's [Name]'s [something]?" → Extract [Name]
- "Tell me about [Name]" → Extract [Name]
- "[Name]'s first job" → Extract [Name]
- "Contact details for [Name]" → Extract [Name]
- "Does [Name] have an SFC license?" → Extract [Name]
- "Show me [Name]'s resume" → Extract [Name]

**Your output should be the extracted name (cleaned) and its corresponding confidence score.**`

const nameUserTemplate = `Extract the candidate name from this HR query:

Query: "{query}"

Provide your analysis in the following JSON format:
{
    "name": "extracted name or empty string",
    "confidence": 0.95,
    "reasoning": "brief explanation of extraction"
}

Examples:
- "What's John's email?" → {"name": "John", "confidence": 0.9, "reasoning": "Clear possessive reference to John"}
- "Tell me about Dr. Sarah Johnson" → {"name": "Sarah Johnson", "confidence": 0.95, "reasoning": "Full name with title removed"}
- "Does POON Kwok Tung have an SFC license?" → {"name": "POON Kwok Tung", "confidence": 0.95, "reasoning": "Full name with casing preserved"}
- "Find Python developers" → {"name": "", "confidence": 0.1, "reasoning": "No specific candidate name mentioned"}`

func nameSchema() *schema.Schema {
	return &schema.Schema{
		Name: "name_extraction",
		Fields: []schema.Field{
			{Name: "name", Kind: schema.String},
			{Name: "confidence", Kind: schema.Number},
			{Name: "reasoning", Kind: schema.String},
		},
	}
}

// NameExtractor pulls a candidate name out of an utterance, or reports none.
type NameExtractor struct {
	runner *Runner
	def    Definition
}

// NewNameExtractor builds the extractor with its generation settings.
func NewNameExtractor(r *Runner, gen gateway.GenerationConfig) *NameExtractor {
	return &NameExtractor{
		runner: r,
		def: Definition{
			Name:         "name_extractor",
			SystemPrompt: nameSystemPrompt,
			UserTemplate: nameUserTemplate,
			Slots:        []string{"query"},
			Schema:       nameSchema(),
			Gen:          gen,
		},
	}
}

// Extract returns the cleaned candidate name, or "" when none can be found
// with enough confidence. Extract never fails.
func (n *NameExtractor) Extract(ctx context.Context, query string) string {
	out := n.runner.Run(ctx, n.def, map[string]string{"query": query})
	if out.Err != nil || out.Attempt.Defaulted {
		return fallbackNameExtraction(query)
	}

	name := CleanName(out.Value["name"].(string))
	confidence := out.Value["confidence"].(float64)
	if confidence < 0.3 || len([]rune(name)) < 2 {
		return ""
	}
	return name
}

var (
	possessiveRe = regexp.MustCompile(`(?:'s|’s)$`)
	honorifics   = map[string]struct{}{
		"dr": {}, "mr": {}, "ms": {}, "mrs": {}, "miss": {}, "prof": {}, "professor": {},
	}
)

// CleanName strips honorific titles and a trailing possessive marker while
// preserving the original casing of the remaining words.
func CleanName(name string) string {
	name = possessiveRe.ReplaceAllString(strings.TrimSpace(name), "")
	var kept []string
	for _, word := range strings.Fields(name) {
		key := strings.ToLower(strings.TrimRight(word, "."))
		if _, ok := honorifics[key]; ok {
			continue
		}
		kept = append(kept, word)
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

// Fallback patterns mirror the phrasings the extractor sees most: possessive
// references, "tell me about", "contact for" and bare capitalized pairs.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)*)(?:'s|’s)\s+(?i:email|contact|info|resume|experience|job|first|background|details|license)`),
	regexp.MustCompile(`(?i:about|tell me about)\s+(?:Dr\.?\s+|Mr\.?\s+|Ms\.?\s+|Mrs\.?\s+)?([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)*)`),
	regexp.MustCompile(`(?i:email of|contact for|info for|details for)\s+(?:Dr\.?\s+|Mr\.?\s+|Ms\.?\s+|Mrs\.?\s+)?([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)*)`),
	regexp.MustCompile(`(?i:does|is|check|verify)\s+([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)+)`),
	regexp.MustCompile(`\b([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)+)\b`),
}

func fallbackNameExtraction(query string) string {
	if query == "" {
		return ""
	}
	for _, re := range namePatterns {
		if m := re.FindStringSubmatch(query); m != nil {
			name := CleanName(m[1])
			if len([]rune(name)) >= 2 {
				return name
			}
		}
	}
	return ""
}
