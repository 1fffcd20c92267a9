package detection

import (
	"unsafe"

	"raspguard/internal/common"
)

// Engine classifies a single untrusted payload. Implementations never
// panic and never return an error: every input yields a Result.
//
// InspectBytes is the core entry point; Inspect is a zero-copy adapter over
// the same bytes. Neither retains nor mutates the input.
type Engine interface {
	Inspect(text, context string) Result
	InspectBytes(text []byte, context string) Result
}

// Result is the verdict of one inspection. It is returned by value and not
// shared, so callers may keep it freely.
type Result struct {
	IsThreat       bool                 `json:"is_threat"`
	ThreatType     common.ThreatType    `json:"threat_type,omitempty"`
	Description    string               `json:"description,omitempty"`
	Confidence     float64              `json:"confidence"`
	MatchedPattern string               `json:"matched_pattern,omitempty"`
	Severity       common.SeverityLevel `json:"severity"`
}

var safe = Result{}

// Safe returns the shared non-threat verdict.
func Safe() Result { return safe }

// Threat builds a threat verdict.
func Threat(t common.ThreatType, description string, severity common.SeverityLevel, confidence float64, pattern string) Result {
	return Result{
		IsThreat:       true,
		ThreatType:     t,
		Description:    description,
		Confidence:     confidence,
		MatchedPattern: pattern,
		Severity:       severity,
	}
}

// stringBytes views s as a byte slice without copying. The slice must only
// be read.
func stringBytes(s string) []byte {
	if s == "" {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
