package sfc

import "strings"

// ParseTranscript maps a check transcript onto the structured outcome. The
// transcript markers are the contract between the automation layer and this
// parser; anything unrecognized degrades to Unknown rather than failing.
func ParseTranscript(candidateName, transcript string) Outcome {
	out := Outcome{
		Success:               true,
		CandidateName:         candidateName,
		SFO:                   StatusUnknown,
		AMLO:                  StatusUnknown,
		RawOutput:             transcript,
		ManualVerificationURL: ManualVerificationURL,
	}

	switch {
	case strings.Contains(transcript, "NO LICENSE FOUND"):
		out.Success = false
		out.Err = "No license records found in SFC register"

	case strings.Contains(transcript, "LICENSE FOUND") || strings.Contains(transcript, "SFO License Status:"):
		if strings.Contains(transcript, "ACTIVE SFO LICENSE CONFIRMED") ||
			strings.Contains(transcript, "SFO License Status: Yes") {
			out.SFO = StatusActive
		} else if strings.Contains(transcript, "NO ACTIVE SFO LICENSE") ||
			strings.Contains(transcript, "SFO License Status: No") {
			out.SFO = StatusNotActive
		}
		if strings.Contains(transcript, "ACTIVE AMLO LICENSE CONFIRMED") ||
			strings.Contains(transcript, "AMLO License Status: Yes") {
			out.AMLO = StatusActive
		} else if strings.Contains(transcript, "NO ACTIVE AMLO LICENSE") ||
			strings.Contains(transcript, "AMLO License Status: No") {
			out.AMLO = StatusNotActive
		}

	case strings.Contains(transcript, "Result: UNKNOWN") ||
		strings.Contains(strings.ToLower(transcript), "failed"):
		out.Success = false
		out.Err = "License check failed or returned unclear results"
	}

	return out
}
