package specialist

import (
	"context"
	"fmt"
	"strings"

	"talentscout/internal/gateway"
	"talentscout/internal/sfc"
)

const licenseResponseSystemPrompt = `You are an SFC license verification specialist. You help interpret the results of automated SFC license checks performed via the official SFC website.

**Your Role:**
- Analyze search results from the SFC public register
- Determine if a person holds a valid SFC license
- Provide clear, factual responses about license status
- Include verification links for manual checking

**Response Guidelines:**
- Be factual and precise about license status
- Always include the search URL for manual verification
- Mention any limitations or uncertainties in the automated check
- Provide helpful context about SFC licensing if relevant`

const licenseResponseUserTemplate = `Based on the SFC license check results, provide a clear response about the license status for the user.

Candidate Name: {candidate_name}
SFO License Status: {sfo_license}
AMLO License Status: {amlo_license}
Check Success: {success}
Error Message: {error_message}
Search URL: {search_url}

Generate a user-friendly response that includes:
1. Clear status of SFO and AMLO licenses (Active/Not Active/Unknown)
2. Professional explanation of what each license means
3. Manual verification link
4. Clear structure the operator can scan quickly`

// LicenseResponder renders license-check outcomes for the operator. When
// the LLM reply is empty or generation fails, a deterministic rendering of
// the structured outcome is used instead, so the reply always reflects the
// actual check.
type LicenseResponder struct {
	runner *Runner
	def    Definition
}

// NewLicenseResponder builds the responder with its generation settings.
func NewLicenseResponder(r *Runner, gen gateway.GenerationConfig) *LicenseResponder {
	return &LicenseResponder{
		runner: r,
		def: Definition{
			Name:         "license_responder",
			SystemPrompt: licenseResponseSystemPrompt,
			UserTemplate: licenseResponseUserTemplate,
			Slots: []string{
				"candidate_name", "sfo_license", "amlo_license",
				"success", "error_message", "search_url",
			},
			Gen: gen,
		},
	}
}

// Respond never fails.
func (l *LicenseResponder) Respond(ctx context.Context, out sfc.Outcome) string {
	text, err := l.runner.ExecuteText(ctx, l.def, l.inputs(out))
	if err != nil || strings.TrimSpace(text) == "" {
		return RenderLicenseOutcome(out)
	}
	return text
}

// Stream requests incremental output for the license reply.
func (l *LicenseResponder) Stream(ctx context.Context, out sfc.Outcome) (<-chan string, error) {
	return l.runner.Stream(ctx, l.def, l.inputs(out))
}

// Fallback is the deterministic rendering used when streaming breaks.
func (l *LicenseResponder) Fallback(out sfc.Outcome) string {
	return RenderLicenseOutcome(out)
}

func (l *LicenseResponder) inputs(out sfc.Outcome) map[string]string {
	errMsg := out.Err
	if errMsg == "" {
		errMsg = "None"
	}
	return map[string]string{
		"candidate_name": out.CandidateName,
		"sfo_license":    string(out.SFO),
		"amlo_license":   string(out.AMLO),
		"success":        fmt.Sprintf("%t", out.Success),
		"error_message":  errMsg,
		"search_url":     out.ManualVerificationURL,
	}
}

// RenderLicenseOutcome formats the structured check outcome status by
// status, covering the no-records and technical-issue branches.
func RenderLicenseOutcome(out sfc.Outcome) string {
	name := out.CandidateName
	if name == "" {
		name = "the candidate"
	}
	url := out.ManualVerificationURL
	if url == "" {
		url = sfc.ManualVerificationURL
	}

	if !out.Success {
		if strings.Contains(out.Err, "No license records found") {
			return fmt.Sprintf(`**SFC License Verification for %s**

**No License Found** - No SFC license records were found for this candidate in the public register.

This means the candidate:
- Does not currently hold an SFC license
- May have never been licensed by the SFC
- Name might not match exactly with registered records

**Manual Verification:** You can double-check at: %s

*Note: Please ensure the name spelling is correct, as the search is case-sensitive.*`, name, url)
		}
		return fmt.Sprintf(`**SFC License Check - Technical Issue**

I encountered a technical issue while checking the SFC license status for %s.

**Manual Verification:** Please check manually at: %s

1. Enter the candidate's full name
2. Select "Individual"
3. Click "Search"

*Error details: %s*`, name, url, out.Err)
	}

	parts := []string{fmt.Sprintf("**SFC License Verification for %s**\n", name)}

	switch out.SFO {
	case sfc.StatusActive:
		parts = append(parts, "**SFO License: ACTIVE** - This candidate holds a valid SFC license for dealing in securities.")
	case sfc.StatusNotActive:
		parts = append(parts, "**SFO License: NOT ACTIVE** - This candidate does not currently hold an active SFC license for dealing in securities.")
	default:
		parts = append(parts, "**SFO License: STATUS UNCLEAR** - Unable to determine SFO license status clearly.")
	}

	switch out.AMLO {
	case sfc.StatusActive:
		parts = append(parts, "**AMLO License: ACTIVE** - This candidate holds a valid license under the Anti-Money Laundering and Counter-Terrorist Financing Ordinance.")
	case sfc.StatusNotActive:
		parts = append(parts, "**AMLO License: NOT ACTIVE** - This candidate does not currently hold an active AMLO license.")
	default:
		parts = append(parts, "**AMLO License: STATUS UNCLEAR** - Unable to determine AMLO license status clearly.")
	}

	parts = append(parts,
		fmt.Sprintf("\n**Manual Verification:** You can verify this information manually at: %s", url),
		"\n*Note: This automated check was performed using the official SFC public register. License statuses can change, so please verify manually for the most current information.*")

	return strings.Join(parts, "\n")
}
