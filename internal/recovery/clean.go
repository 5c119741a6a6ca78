package recovery

import (
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// stripFences unwraps fenced blocks, keeping their content in place. An
// unterminated fence loses only the fence line itself.
func stripFences(text string) string {
	text = fenceRe.ReplaceAllString(text, "$1")
	return strings.ReplaceAll(text, "```", "")
}

// firstBalancedSpan returns the substring from the first '{' to its
// depth-matched '}'. Braces inside JSON strings are ignored.
func firstBalancedSpan(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	end, ok := matchBrace(text, start)
	if !ok {
		return "", false
	}
	return text[start : end+1], true
}

// allBalancedSpans returns every top-level balanced object span in order of
// appearance.
func allBalancedSpans(text string) []string {
	var spans []string
	for i := 0; i < len(text); {
		start := strings.IndexByte(text[i:], '{')
		if start < 0 {
			break
		}
		start += i
		end, ok := matchBrace(text, start)
		if !ok {
			i = start + 1
			continue
		}
		spans = append(spans, text[start:end+1])
		i = end + 1
	}
	return spans
}

// matchBrace walks from the opening brace at start to its matching close,
// counting depth and skipping string literals and escapes.
func matchBrace(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// closeOpenBraces appends closing braces when the text was truncated
// mid-object. A dangling partial value after the last comma is cut first.
func closeOpenBraces(text string) string {
	open := 0
	closed := 0
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			open++
		case c == '}':
			closed++
		}
	}
	if open <= closed {
		return text
	}
	trimmed := strings.TrimRight(text, " \t\r\n")
	// Drop an incomplete trailing pair like `"confidence": 0.` or `"key": "val`
	if inString || endsMidValue(trimmed) {
		if idx := strings.LastIndexByte(trimmed, ','); idx >= 0 {
			trimmed = trimmed[:idx]
		}
	}
	trimmed = strings.TrimRight(trimmed, ", \t\r\n")
	return trimmed + strings.Repeat("}", open-closed)
}

func endsMidValue(text string) bool {
	if text == "" {
		return false
	}
	switch text[len(text)-1] {
	case '}', ']', '"':
		return false
	}
	// ends in a digit, colon, dot or bare word: likely truncated
	return true
}

var (
	bareKeyRe       = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)(\s*:)`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// quoteBareKeys wraps unquoted object keys in double quotes.
func quoteBareKeys(text string) string {
	return bareKeyRe.ReplaceAllString(text, `$1"$2"$3`)
}

// stripTrailingCommas removes commas directly before a closing brace or
// bracket.
func stripTrailingCommas(text string) string {
	return trailingCommaRe.ReplaceAllString(text, "$1")
}

var (
	emailRe    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneRe    = regexp.MustCompile(`\+?\d[\d\s().-]{6,}\d`)
	linkedinRe = regexp.MustCompile(`https?://(?:www\.)?linkedin\.com/[^\s"']+`)
	githubRe   = regexp.MustCompile(`https?://(?:www\.)?github\.com/[^\s"']+`)
	properRe   = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][A-Za-z]+)+\b`)
)

// scavenge applies a pattern chosen from the field's name to the raw text.
func scavenge(raw, field string) (string, bool) {
	name := strings.ToLower(field)
	var re *regexp.Regexp
	switch {
	case strings.Contains(name, "email"):
		re = emailRe
	case strings.Contains(name, "phone"):
		re = phoneRe
	case strings.Contains(name, "linkedin"):
		re = linkedinRe
	case strings.Contains(name, "github"):
		re = githubRe
	case strings.Contains(name, "name"):
		re = properRe
	default:
		return "", false
	}
	m := re.FindString(raw)
	if m == "" {
		return "", false
	}
	return strings.TrimSpace(m), true
}
