package specialist

import (
	"context"
	"strings"

	"talentscout/internal/gateway"
	"talentscout/internal/schema"
)

// Intent is the classified purpose of one operator utterance.
type Intent string

const (
	IntentSearch  Intent = "search"
	IntentInfo    Intent = "info"
	IntentLicense Intent = "sfc_license"
	IntentGeneral Intent = "general"
)

// IntentResult is the classifier's typed output.
type IntentResult struct {
	Intent      Intent
	Confidence  float64
	SearchQuery string
	Reasoning   string
}

const intentSystemPrompt = `You are an intent classifier for an HR candidate search system.
Analyze the user's message and determine their intent with high accuracy.

INTENT CATEGORIES:

1. "search" - Finding candidates based on skills, experience, requirements
   Examples:
   - "Find Python developers"
   - "I need ML engineers with 5+ years experience"
   - "Show me senior frontend developers in California"
   - "Looking for data scientists"

2. "info" - Asking for specific information about existing candidates
   Examples:
   - "What's John's email address?"
   - "Tell me about Sarah Johnson's experience"
   - "Contact details for Mike Smith"
   - "Show me Mary's resume"

3. "sfc_license" - Verifying a candidate's SFC license or regulatory status
   Examples:
   - "Does POON Kwok Tung have an SFC license?"
   - "Check Jane Chan's SFO license status"
   - "Is Mike Smith licensed with the SFC?"
   - "Verify the AMLO registration for Carol Lee"

4. "general" - General questions, greetings, help requests
   Examples:
   - "Hello", "Hi there"
   - "How does this system work?"
   - "What can you help me with?"
   - "Help me understand the features"

ANALYSIS REQUIREMENTS:
- Classify the intent accurately
- Provide confidence score (0.0-1.0)
- Extract search terms for search/info intents
- Give brief reasoning for your classification

Be precise and consistent in your classifications.`

const intentUserTemplate = `Analyze this user message and classify the intent:

User Message: "{message}"

Provide your analysis in the following JSON format:
{
    "intent": "search|info|sfc_license|general",
    "confidence": 0.95,
    "search_query": "extracted terms if applicable",
    "reasoning": "brief explanation of classification"
}`

func intentSchema() *schema.Schema {
	return &schema.Schema{
		Name: "intent_analysis",
		Fields: []schema.Field{
			{Name: "intent", Kind: schema.String, Required: true,
				Enum: []string{"search", "info", "sfc_license", "general"}},
			{Name: "confidence", Kind: schema.Number, Default: float64(0.5)},
			{Name: "search_query", Kind: schema.String},
			{Name: "reasoning", Kind: schema.String},
		},
	}
}

// IntentClassifier classifies operator utterances into the four flows.
type IntentClassifier struct {
	runner *Runner
	def    Definition
}

// NewIntentClassifier builds the classifier with its generation settings.
func NewIntentClassifier(r *Runner, gen gateway.GenerationConfig) *IntentClassifier {
	return &IntentClassifier{
		runner: r,
		def: Definition{
			Name:         "intent_classifier",
			SystemPrompt: intentSystemPrompt,
			UserTemplate: intentUserTemplate,
			Slots:        []string{"message"},
			Schema:       intentSchema(),
			Gen:          gen,
		},
	}
}

// Classify never fails: generation errors fall back to general/0.5 and
// unparsable output falls back to cue matching.
func (c *IntentClassifier) Classify(ctx context.Context, message string) IntentResult {
	out := c.runner.Run(ctx, c.def, map[string]string{"message": message})
	if out.Err != nil {
		return IntentResult{
			Intent:     IntentGeneral,
			Confidence: 0.5,
			Reasoning:  "Fallback due to analysis failure",
		}
	}
	if out.Attempt.Defaulted || out.Value["intent"] == "" {
		return classifyByCues(out.Raw, message)
	}

	res := IntentResult{
		Intent:      Intent(out.Value["intent"].(string)),
		Confidence:  clamp01(out.Value["confidence"].(float64)),
		SearchQuery: out.Value["search_query"].(string),
		Reasoning:   out.Value["reasoning"].(string),
	}
	if (res.Intent == IntentSearch || res.Intent == IntentInfo) && res.SearchQuery == "" {
		res.SearchQuery = message
	}
	return res
}

// classifyByCues is the keyword fallback when structured output cannot be
// recovered. License cues win over search cues, search over info.
func classifyByCues(raw, message string) IntentResult {
	text := strings.ToLower(raw + " " + message)

	var intent Intent
	switch {
	case containsAny(text, "sfc", "license", "licence", "sfo", "amlo", "regulated"):
		intent = IntentLicense
	case containsAny(text, "find", "search", "looking", "need", "show me"):
		intent = IntentSearch
	case containsAny(text, "email", "contact", "about", "tell me"):
		intent = IntentInfo
	default:
		intent = IntentGeneral
	}

	res := IntentResult{
		Intent:     intent,
		Confidence: 0.7,
		Reasoning:  "Fallback classification due to parsing error",
	}
	if intent == IntentSearch || intent == IntentInfo {
		res.SearchQuery = message
	}
	return res
}

func containsAny(text string, cues ...string) bool {
	for _, cue := range cues {
		if strings.Contains(text, cue) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
