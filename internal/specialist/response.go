package specialist

import (
	"context"
	"strings"

	"talentscout/internal/gateway"
)

// Responder is a terminal, human-facing specialist. It has no schema; the
// reply is free text, and every failure path lands on the flow's static
// apology string.
type Responder struct {
	runner   *Runner
	def      Definition
	fallback string
}

// Respond generates the reply, or the static fallback when generation
// fails. Respond never returns an error.
func (r *Responder) Respond(ctx context.Context, inputs map[string]string) string {
	text, err := r.runner.ExecuteText(ctx, r.def, inputs)
	if err != nil || strings.TrimSpace(text) == "" {
		return r.fallback
	}
	return text
}

// Stream requests incremental output. The caller owns failure handling;
// on error it should emit Fallback as the sole chunk so the turn still
// produces exactly one assistant message.
func (r *Responder) Stream(ctx context.Context, inputs map[string]string) (<-chan string, error) {
	return r.runner.Stream(ctx, r.def, inputs)
}

// Fallback is the flow's static apology string.
func (r *Responder) Fallback() string {
	return r.fallback
}

const searchResponseSystemPrompt = `You are an expert HR assistant specializing in **candidate search and recruitment**. Your primary role is to help HR professionals find the best candidates for their open positions by presenting search results in a clear, actionable format.

**Your Specialization:**

* **Candidate Search Results:** Present candidate search results in a structured, easy-to-scan format
* **Candidate Ranking:** Highlight the best matches based on qualifications and experience
* **Skill Matching:** Clearly show how candidate skills align with search criteria
* **Recommendations:** Rank candidates by relevance and provide hiring recommendations
* **Next Steps:** Suggest concrete next steps for HR professionals

**Contact Information Guidelines:**
- **Never assume or fabricate contact details**
- **Guide users to request specific contact information if needed**
- **Suggest asking follow-up questions like "What's [candidate name]'s email?"**
- **Focus on qualifications and fit rather than contact logistics**

**Your responses should be:** professional, concise, and immediately actionable for hiring decisions.`

const searchResponseUserTemplate = `User Search Request: {user_message}

Search Results Found:
{context}

Number of Results: {num_results}

Please provide a comprehensive search response that includes:
1. A summary of the search and results found
2. Detailed information about the top matching candidates (focus on qualifications, not contact details)
3. Clear explanations of why these candidates are good matches
4. Guidance on how to get contact information (suggest asking follow-up questions)
5. Specific recommendations for the HR professional
6. Suggested next steps for moving forward

**Important Guidelines:**
- DO NOT display similarity scores or percentages
- DO NOT show or assume contact information - instead guide users to ask for it
- Focus on candidate qualifications, experience, and fit
- Format your response to be immediately actionable for hiring decisions`

const searchFallback = `I apologize, but I'm having trouble processing your candidate search right now.

**Suggested next steps:**
1. Try rephrasing your search with more specific requirements
2. Use different keywords or skills in your search
3. Check if there are candidates in the database matching your criteria
4. Contact support if the issue persists

How else can I help you find the right candidates?`

// NewSearchResponder presents candidate search results.
func NewSearchResponder(r *Runner, gen gateway.GenerationConfig) *Responder {
	return &Responder{
		runner: r,
		def: Definition{
			Name:         "search_responder",
			SystemPrompt: searchResponseSystemPrompt,
			UserTemplate: searchResponseUserTemplate,
			Slots:        []string{"user_message", "context", "num_results"},
			Gen:          gen,
		},
		fallback: searchFallback,
	}
}

const infoResponseSystemPrompt = `You are an expert HR assistant specializing in **candidate information and profile analysis**. Your primary role is to provide detailed, comprehensive information about specific candidates when HR professionals need to learn more about them.

**Your Specialization:**

* **Candidate Profiles:** Present complete candidate information in a structured, professional format
* **Contact Information:** Always provide complete contact details when available
* **Experience Summary:** Clearly summarize work history and achievements
* **Skills Assessment:** List and categorize relevant skills and competencies
* **Suitability Analysis:** Help HR professionals understand if a candidate fits their needs

**When Multiple Candidates Match:**
- If multiple candidates have similar names, list all matches
- Clearly distinguish between different candidates`

const infoResponseUserTemplate = `User Information Request: {user_message}

Candidate Information Found:
{context}

Please provide a detailed information response that includes:
1. Complete candidate profile with all available information
2. Professional summary highlighting key qualifications
3. Full contact information for reaching out
4. Detailed experience and skills breakdown
5. Your assessment of their background and potential fit
6. Recommendations for next steps (interview, additional screening, etc.)

If multiple candidates match the request, clearly present each one separately.
Format your response to help HR professionals make informed decisions about candidate outreach.`

const infoFallback = `I'm unable to retrieve the specific candidate information you requested at the moment.

**Possible reasons:**
1. The candidate name might not match exactly with our database records
2. There might be no candidates with that name in our system
3. The candidate data might be incomplete

**Suggested next steps:**
1. Try searching with just the first or last name
2. Check the spelling of the candidate's name
3. Use the general search function to find similar candidates

Would you like me to help you search for candidates in a different way?`

// NewInfoResponder answers questions about one specific candidate.
func NewInfoResponder(r *Runner, gen gateway.GenerationConfig) *Responder {
	return &Responder{
		runner: r,
		def: Definition{
			Name:         "info_responder",
			SystemPrompt: infoResponseSystemPrompt,
			UserTemplate: infoResponseUserTemplate,
			Slots:        []string{"user_message", "context"},
			Gen:          gen,
		},
		fallback: infoFallback,
	}
}

const generalResponseSystemPrompt = `You are a friendly and knowledgeable HR assistant specializing in **general support and system guidance**. Your role is to help HR professionals understand how to use the candidate database system effectively and provide general assistance.

**Your Specialization:**

* **System Guidance:** Help users understand how to search for candidates effectively
* **Feature Explanation:** Explain system capabilities and search options
* **Best Practices:** Share tips for better candidate searches and recruitment workflows
* **General Support:** Handle greetings, casual conversation, and general questions

**Response Style:**
- Friendly and approachable
- Helpful and informative
- Professional but conversational
- Clear explanations with examples

**When Users Ask for Help:**
- Provide specific examples of how to search
- Explain different search methods available
- Encourage them to try specific searches`

const generalResponseUserTemplate = `User Message: {user_message}

Please provide a helpful general response that:
1. Addresses their question or greeting appropriately
2. Offers relevant guidance about using the candidate search system
3. Provides specific examples of how to search for candidates
4. Encourages them to explore the system's capabilities
5. Maintains a friendly, professional tone

If they're asking for help, provide concrete examples and suggestions for effective candidate searches.`

const generalFallback = `Hello! I'm your AI HR assistant, and I'm here to help you find the best candidates for your open positions.

**Here's what I can help you with:**

**Search for Candidates:**
- "Find Python developers with 5+ years experience"
- "Show me senior frontend engineers"
- "I need ML engineers with experience in healthcare"

**Get Candidate Information:**
- "Tell me about John Smith's background"
- "What's Sarah's email address?"

**Check SFC Licenses:**
- "Does POON Kwok Tung have an SFC license?"

**Quick Search Tips:**
- Be specific about skills and technologies
- Include experience level requirements
- Try different keyword combinations`

// NewGeneralResponder handles greetings and system guidance.
func NewGeneralResponder(r *Runner, gen gateway.GenerationConfig) *Responder {
	return &Responder{
		runner: r,
		def: Definition{
			Name:         "general_responder",
			SystemPrompt: generalResponseSystemPrompt,
			UserTemplate: generalResponseUserTemplate,
			Slots:        []string{"user_message"},
			Gen:          gen,
		},
		fallback: generalFallback,
	}
}
