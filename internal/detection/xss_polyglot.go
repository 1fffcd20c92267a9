package detection

import (
	"bytes"
	"unicode"
	"unicode/utf8"
)

const scorePartialPolyglot = 0.8

// scorePolyglot scores payloads built to break out of several contexts at
// once. A known signature scores 1.0. Otherwise two or more simultaneous
// breakout contexts score 0.8, which stays under the blocking threshold.
func scorePolyglot(text []byte) float64 {
	if _, ok := containsAnyFold(text, polyglotSignatures); ok {
		return scoreThreat
	}
	if countContexts(text) >= 2 {
		return scorePartialPolyglot
	}
	return scoreSafe
}

func countContexts(text []byte) int {
	contexts := 0
	if opensMarkup(text) {
		contexts++
	}
	if breaksQuote(text) {
		contexts++
	}
	if bytes.IndexByte(text, '(') >= 0 && bytes.IndexByte(text, ')') >= 0 {
		for _, name := range polyglotCallNames {
			if containsCall(text, name) {
				contexts++
				break
			}
		}
	}
	return contexts
}

// opensMarkup reports whether some '<' starts a tag, closing tag, comment or
// processing instruction.
func opensMarkup(text []byte) bool {
	for i := bytes.IndexByte(text, '<'); i >= 0 && i < len(text)-1; {
		r, _ := utf8.DecodeRune(text[i+1:])
		if unicode.IsLetter(r) || r == '/' || r == '!' || r == '?' {
			return true
		}
		next := bytes.IndexByte(text[i+1:], '<')
		if next < 0 {
			return false
		}
		i += next + 1
	}
	return false
}

// breaksQuote reports whether the first quote is followed, after optional
// whitespace, by '>' or an "on" attribute prefix.
func breaksQuote(text []byte) bool {
	q := bytes.IndexAny(text, "\"'")
	if q < 0 || q >= len(text)-1 {
		return false
	}
	after := bytes.TrimLeftFunc(text[q+1:], unicode.IsSpace)
	if len(after) == 0 {
		return false
	}
	return after[0] == '>' || hasPrefixFold(after, "on")
}

// containsCall reports whether name occurs as a call: followed by '(' after
// skipping whitespace, control bytes, /* comments */ and single \u or \x
// escapes.
func containsCall(text []byte, name string) bool {
	idx := indexFold(text, name)
	for idx >= 0 {
		after := text[idx+len(name):]
		i := 0
	scan:
		for i < len(after) {
			c := after[i]
			switch {
			case c < 32 || c == ' ' || c == '\t' || c == '\n' || c == '\v' || c == '\f' || c == '\r':
				i++
			case c == '/' && i+1 < len(after) && after[i+1] == '*':
				end := bytes.Index(after[i+2:], []byte("*/"))
				if end < 0 {
					i = len(after)
					break scan
				}
				i += 2 + end + 2
			case c == '\\' && i+5 < len(after) && after[i+1] == 'u':
				i += 6
			case c == '\\' && i+3 < len(after) && after[i+1] == 'x':
				i += 4
			default:
				r, size := utf8.DecodeRune(after[i:])
				if c >= utf8.RuneSelf && unicode.IsSpace(r) {
					i += size
					continue
				}
				break scan
			}
		}
		if i < len(after) && after[i] == '(' {
			return true
		}
		next := indexFold(text[idx+1:], name)
		if next < 0 {
			return false
		}
		idx += next + 1
	}
	return false
}
