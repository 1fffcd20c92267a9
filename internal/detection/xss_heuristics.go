package detection

import (
	"unicode"
	"unicode/utf8"
)

const scoreSuspicious = 0.5

// scoreXSSHeuristics scores canonical text: 1.0 for execution tags,
// dangerous protocols or an event handler assignment, 0.5 for tags that are
// only dangerous with a handler attached, 0.0 otherwise.
func scoreXSSHeuristics(text []byte) float64 {
	if _, ok := containsAnyFold(text, xssExecutionTags); ok {
		return scoreThreat
	}
	if _, ok := containsAnyFold(text, xssDangerousProtocols); ok {
		return scoreThreat
	}
	if scoreEventHandlers(text) >= scoreThreat {
		return scoreThreat
	}
	if _, ok := containsAnyFold(text, xssSuspiciousTags); ok {
		return scoreSuspicious
	}
	return scoreSafe
}

// scoreEventHandlers looks for an event handler name followed, after the
// rest of the identifier and any whitespace or control bytes, by '='.
// Prose mentioning "onclick" does not match.
func scoreEventHandlers(text []byte) float64 {
	if found, _ := scanEventHandlers(text); found {
		return scoreThreat
	}
	return scoreSafe
}

// scanEventHandlers makes one left-to-right pass over text. Handler names
// are only tried where "on" starts, and a failed candidate resumes after the
// bytes it consumed, so the work is linear in len(text). steps counts bytes
// visited plus handler names tried.
func scanEventHandlers(text []byte) (found bool, steps int) {
	for i := 0; i+1 < len(text); {
		steps++
		if lowerASCII(text[i]) != 'o' || lowerASCII(text[i+1]) != 'n' {
			i++
			continue
		}
		named := false
		for _, h := range xssEventHandlers {
			steps++
			if hasPrefixFold(text[i:], h) {
				named = true
				break
			}
		}
		if !named {
			i++
			continue
		}

		match := text[i:]
		cursor := 0
		for cursor < len(match) {
			r, size := utf8.DecodeRune(match[cursor:])
			if !unicode.IsLetter(r) {
				break
			}
			cursor += size
		}
		for cursor < len(match) {
			if match[cursor] < 32 {
				cursor++
				continue
			}
			r, size := utf8.DecodeRune(match[cursor:])
			if !unicode.IsSpace(r) {
				break
			}
			cursor += size
		}
		steps += cursor
		if cursor < len(match) && match[cursor] == '=' {
			return true, steps
		}
		i += max(cursor, 1)
	}
	return false, steps
}
