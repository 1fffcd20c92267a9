package detection

import (
	"bytes"
	"fmt"
	"log/slog"

	"raspguard/internal/common"
)

// SQLEngine detects SQL injection with a byte-class prefilter followed by
// token heuristics over a normalized copy of the payload. Payloads longer
// than maxSQLAnalysisLength are analyzed on their prefix only.
type SQLEngine struct {
	logger *slog.Logger
}

// NewSQLEngine returns an engine logging detections to logger, or to the
// default logger when logger is nil.
func NewSQLEngine(logger *slog.Logger) *SQLEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLEngine{logger: logger}
}

func (e *SQLEngine) Inspect(text, context string) Result {
	return e.InspectBytes(stringBytes(text), context)
}

func (e *SQLEngine) InspectBytes(text []byte, context string) Result {
	if len(text) == 0 {
		return Safe()
	}
	if bytes.IndexAny(text, sqlFastPathChars) < 0 {
		return Safe()
	}
	if len(text) > maxSQLAnalysisLength {
		text = text[:maxSQLAnalysisLength]
	}
	if len(text) <= stackBufferSize {
		var stack [stackBufferSize]byte
		return e.analyze(text, stack[:len(text)], context)
	}
	buf := leaseBuffer(len(text))
	defer releaseBuffer(buf)
	return e.analyze(text, *buf, context)
}

func (e *SQLEngine) analyze(text, buf []byte, context string) Result {
	n := normalizeSQL(text, buf)
	score, token := scoreSQL(buf[:n])
	if score < scoreThreat {
		return Safe()
	}
	e.logger.Warn("rasp blocked sql injection", "score", score, "context", context, "token", token)
	return Threat(
		common.ThreatSQLInjection,
		fmt.Sprintf("SQL Injection Patterns Detected (Score: %g)", score),
		common.SeverityHigh,
		1.0,
		"HeuristicScore",
	)
}
