package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"raspguard/internal/common"
	"raspguard/internal/detection"
)

func TestEngineEvaluate(t *testing.T) {
	xss := detection.Threat(common.ThreatXSS, "Signature Match (Raw)", common.SeverityCritical, 1.0, "<script")
	dos := detection.Threat(common.ThreatDoS, "Payload limit exceeded", common.SeverityHigh, 1.0, "")

	tests := []struct {
		name string
		cfg  Config
		res  detection.Result
		want ActionType
	}{
		{"safe is allowed", DefaultConfig(), detection.Safe(), ActionAllow},
		{"threat blocks", DefaultConfig(), xss, ActionBlock},
		{"monitor mode logs", Config{BlockOnBudgetExhaustion: true}, xss, ActionLog},
		{"dos blocks on budget", Config{BlockOnBudgetExhaustion: true}, dos, ActionBlock},
		{"dos logs without budget blocking", Config{BlockOnDetection: true}, dos, ActionLog},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewEngine(tt.cfg).Evaluate(tt.res)
			assert.Equal(t, tt.want, d.Action)
			assert.Equal(t, tt.want == ActionBlock, d.Blocked())
			assert.Equal(t, tt.res, d.Result)
			assert.False(t, d.Timestamp.IsZero())
		})
	}
}

func TestEngineReason(t *testing.T) {
	res := detection.Threat(common.ThreatSQLInjection, "SQL Injection Patterns Detected (Score: 1)", common.SeverityHigh, 1.0, "HeuristicScore")
	d := NewEngine(DefaultConfig()).Evaluate(res)
	assert.Equal(t, "SQL Injection detected (SQL Injection Patterns Detected (Score: 1), severity: high, confidence: 1.00)", d.Reason)
}
