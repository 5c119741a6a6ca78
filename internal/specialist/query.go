package specialist

import (
	"context"
	"strings"

	"talentscout/internal/gateway"
	"talentscout/internal/schema"
)

const querySystemPrompt = `You are a **search query enhancement specialist**. Your goal is to take a user's initial candidate search query and expand it into a comprehensive set of terms that will maximize the chances of finding relevant candidates.

**ENHANCEMENT STRATEGIES:**

1.  **Related Skills, Tools, and Methodologies:** Add terms for core competencies, software, hardware, techniques, or specific methodologies relevant to the role.
    * *Example (Tech):* For "Python developer," add "Flask," "Django," "APIs," "REST," "SQL."
    * *Example (Marketing):* For "Digital Marketing Specialist," add "SEO," "SEM," "Content Marketing," "Social Media Management," "Google Analytics."
    * *Example (Finance):* For "Compliance Officer," add "AML," "KYC," "Regulatory Reporting," "Risk Assessment."

2.  **Synonymous Job Titles and Roles:** Include alternative or closely related job titles that candidates might use.
    * *Example (Tech):* "Software Engineer," "Backend Developer."
    * *Example (Finance):* "Responsible Officer," "Licensed Representative."

3.  **Relevant Experience Levels and Qualifications:** Incorporate terms related to seniority, specific certifications, or academic backgrounds.
    * *Example (General):* "Junior," "Senior," "Lead," "Manager," "Director," "Associate," "Certified," "Licensed," "Bachelor's," "Master's."

4.  **Related Domains, Industries, or Specialties:** Add terms for specific areas of application or industry-specific knowledge.
    * *Example (Tech):* "Fintech," "E-commerce," "Healthcare IT."
    * *Example (Finance):* "Asset Management," "Securities," "Private Banking."

**GUIDELINES:**

* **Relevance is Key:** All added terms must be directly relevant to the core intent of the original query.
* **Avoid Over-Expansion:** Do not add an excessive number of terms for simple, straightforward queries. Focus on the most impactful additions.
* **Focus on Core Elements:** Prioritize skills, technologies/tools, and synonymous roles.
* **Maintain Original Intent:** The enhanced query must clearly reflect what the user was originally looking for, and must keep every term of the original query.
* **Do not include geographic locations unless specified in the original query.**`

const queryUserTemplate = `Enhance this candidate search query for better semantic matching:

Original Query: "{query}"

Provide your enhancement in the following JSON format:
{
    "enhanced_query": "expanded query with related terms",
    "original_query": "{query}",
    "added_terms": ["term1", "term2", "term3"],
    "reasoning": "explanation of enhancements made"
}

Make the enhanced query comprehensive but focused. Include related skills, technologies, job titles, and relevant terms that would help find matching candidates.`

func querySchema() *schema.Schema {
	return &schema.Schema{
		Name: "query_enhancement",
		Fields: []schema.Field{
			{Name: "enhanced_query", Kind: schema.String, Required: true},
			{Name: "original_query", Kind: schema.String},
			{Name: "added_terms", Kind: schema.StringList},
			{Name: "reasoning", Kind: schema.String},
		},
	}
}

// QueryEnhancer expands a short search phrase with related terms. The
// enhancement is only kept when it is strictly longer than the input and
// still contains the original terms; otherwise the input wins.
type QueryEnhancer struct {
	runner *Runner
	def    Definition
}

// NewQueryEnhancer builds the enhancer with its generation settings.
func NewQueryEnhancer(r *Runner, gen gateway.GenerationConfig) *QueryEnhancer {
	return &QueryEnhancer{
		runner: r,
		def: Definition{
			Name:         "query_enhancer",
			SystemPrompt: querySystemPrompt,
			UserTemplate: queryUserTemplate,
			Slots:        []string{"query"},
			Schema:       querySchema(),
			Gen:          gen,
		},
	}
}

// Enhance never fails; any problem returns the original query unchanged.
func (q *QueryEnhancer) Enhance(ctx context.Context, query string) string {
	out := q.runner.Run(ctx, q.def, map[string]string{"query": query})
	if out.Err != nil || out.Attempt.Defaulted {
		return query
	}

	enhanced := out.Value["enhanced_query"].(string)
	if len(enhanced) <= len(query) || !retainsTokens(enhanced, query) {
		return query
	}
	return enhanced
}

// retainsTokens reports whether every token of the original query survives
// in the enhanced text, case-insensitively.
func retainsTokens(enhanced, original string) bool {
	e := strings.ToLower(enhanced)
	for _, tok := range strings.Fields(strings.ToLower(original)) {
		if !strings.Contains(e, tok) {
			return false
		}
	}
	return true
}
