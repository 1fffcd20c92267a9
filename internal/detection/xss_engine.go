package detection

import (
	"bytes"
	"log/slog"

	"raspguard/internal/common"
)

// maxCanonicalPasses bounds the strip/decode fixed-point loop.
const maxCanonicalPasses = 5

// XSSEngine detects cross-site scripting. Payloads are screened for raw
// signatures, canonicalized through a bounded number of strip and decode
// passes, then scored for signatures, polyglot breakouts and structural
// markers.
type XSSEngine struct {
	logger *slog.Logger
}

// NewXSSEngine returns an engine logging detections to logger, or to the
// default logger when logger is nil.
func NewXSSEngine(logger *slog.Logger) *XSSEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &XSSEngine{logger: logger}
}

func (e *XSSEngine) Inspect(text, context string) Result {
	return e.InspectBytes(stringBytes(text), context)
}

func (e *XSSEngine) InspectBytes(text []byte, context string) Result {
	if len(text) == 0 {
		return Safe()
	}
	if len(text) > maxXSSPayloadLength {
		return e.threat(Threat(common.ThreatDoS, "Payload limit exceeded", common.SeverityHigh, 1.0, ""), context)
	}
	if bytes.IndexAny(text, xssFastPathChars) < 0 {
		return Safe()
	}
	if p, ok := containsAnyFold(text, xssKillSwitchPatterns); ok {
		return e.threat(Threat(common.ThreatXSS, "Signature Match (Raw)", common.SeverityCritical, 1.0, p), context)
	}
	if len(text) <= stackBufferSize {
		var stack [stackBufferSize]byte
		return e.analyze(text, stack[:len(text)], context)
	}
	buf := leaseBuffer(len(text))
	defer releaseBuffer(buf)
	return e.analyze(text, *buf, context)
}

func (e *XSSEngine) analyze(text, buf []byte, context string) Result {
	n, _ := canonicalize(text, buf)
	clean := buf[:n]

	if p, ok := containsAnyFold(clean, xssKillSwitchPatterns); ok {
		return e.threat(Threat(common.ThreatXSS, "Signature Match (Obfuscated)", common.SeverityCritical, 1.0, p), context)
	}
	if scorePolyglot(clean) >= scoreThreat {
		return e.threat(Threat(common.ThreatXSS, "Polyglot Context Breakout", common.SeverityCritical, 1.0, "PolyglotScore"), context)
	}
	if scoreXSSHeuristics(clean) >= scoreThreat {
		return e.threat(Threat(common.ThreatXSS, "Heuristic Structure Match", common.SeverityHigh, 1.0, "HeuristicScore"), context)
	}
	return Safe()
}

func (e *XSSEngine) threat(r Result, context string) Result {
	e.logger.Warn("rasp blocked xss", "context", context, "description", r.Description, "pattern", r.MatchedPattern)
	return r
}

// canonicalStats records the work done by one canonicalization.
type canonicalStats struct {
	passes  int
	decodes int
}

// canonicalize copies text into buf and repeatedly strips control bytes and
// decodes escapes until nothing changes, maxCanonicalPasses passes have run,
// or decodeBudget decode operations have been spent. buf must be at least
// len(text) long. It returns the canonical length.
func canonicalize(text, buf []byte) (int, canonicalStats) {
	n := copy(buf, text)
	var stats canonicalStats

	for mutated := true; mutated && stats.passes < maxCanonicalPasses; stats.passes++ {
		mutated = false

		write := 0
		for _, c := range buf[:n] {
			if c < 32 {
				mutated = true
				continue
			}
			buf[write] = c
			write++
		}
		n = write

		if bytes.IndexAny(buf[:n], xssDecodeTriggers) >= 0 {
			decoded, changed, used := decodePass(buf[:n], decodeBudget-stats.decodes)
			stats.decodes += used
			if changed {
				n = decoded
				mutated = true
			}
		}
	}
	return n, stats
}
