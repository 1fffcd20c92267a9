package policy

import (
	"fmt"
	"time"

	"raspguard/internal/common"
	"raspguard/internal/detection"
)

type Engine struct {
	cfg Config
	now func() time.Time
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg, now: time.Now}
}

// Evaluate maps an inspection result to an action. Size-budget violations
// follow BlockOnBudgetExhaustion; every other threat follows
// BlockOnDetection.
func (e *Engine) Evaluate(res detection.Result) Decision {
	d := Decision{Timestamp: e.now(), Result: res, Action: ActionAllow, Reason: "no threat detected"}
	if !res.IsThreat {
		return d
	}

	block := e.cfg.BlockOnDetection
	if res.ThreatType == common.ThreatDoS {
		block = e.cfg.BlockOnBudgetExhaustion
	}
	if block {
		d.Action = ActionBlock
	} else {
		d.Action = ActionLog
	}
	d.Reason = fmt.Sprintf("%s detected (%s, severity: %s, confidence: %.2f)",
		res.ThreatType, res.Description, res.Severity, res.Confidence)
	return d
}
