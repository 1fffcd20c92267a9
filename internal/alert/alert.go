package alert

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Alert is a pooled detection record. Alerts handed out by a Bus are
// recycled once the consumer is done with them, so consumers must copy any
// field they keep.
type Alert struct {
	ThreatType     string
	PayloadSnippet string
	Context        string
	Timestamp      time.Time
}

// Reset clears every field.
func (a *Alert) Reset() {
	a.ThreatType = ""
	a.PayloadSnippet = ""
	a.Context = ""
	a.Timestamp = time.Time{}
}

// maxSnippetLength bounds the payload excerpt carried by an alert.
const maxSnippetLength = 128

// Snippet returns a log-safe excerpt of payload: cut to maxSnippetLength
// bytes on a rune boundary, with line breaks flattened.
func Snippet(payload string) string {
	if len(payload) > maxSnippetLength {
		cut := maxSnippetLength
		for cut > 0 && !utf8.RuneStart(payload[cut]) {
			cut--
		}
		payload = payload[:cut] + "..."
	}
	if strings.ContainsAny(payload, "\r\n") {
		payload = strings.NewReplacer("\r", "\\r", "\n", "\\n").Replace(payload)
	}
	return payload
}
