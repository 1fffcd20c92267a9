package common

import "fmt"

// ThreatType represents the category of attack an engine reports.
type ThreatType string

const (
	ThreatSQLInjection ThreatType = "SQL Injection"
	ThreatXSS          ThreatType = "XSS"
	ThreatDoS          ThreatType = "DoS"
)

// SeverityLevel denotes the severity of a detection result. Levels are
// totally ordered and only ever compared.
type SeverityLevel int

const (
	SeverityInfo SeverityLevel = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s SeverityLevel) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

func (s SeverityLevel) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SeverityLevel) UnmarshalText(text []byte) error {
	for l := SeverityInfo; l <= SeverityCritical; l++ {
		if l.String() == string(text) {
			*s = l
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", text)
}
