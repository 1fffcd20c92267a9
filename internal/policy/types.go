package policy

import (
	"time"

	"raspguard/internal/detection"
)

// ActionType enumerates possible policy actions.
type ActionType string

const (
	ActionAllow ActionType = "allow"
	ActionBlock ActionType = "block"
	ActionLog   ActionType = "log"
)

// Config controls when a detection stops a request. With blocking disabled
// the guard runs in monitor mode and only reports.
type Config struct {
	BlockOnDetection        bool
	BlockOnBudgetExhaustion bool
}

// DefaultConfig blocks on every detection.
func DefaultConfig() Config {
	return Config{BlockOnDetection: true, BlockOnBudgetExhaustion: true}
}

// Decision is the outcome of evaluating one inspection result.
type Decision struct {
	Timestamp time.Time        `json:"timestamp"`
	Result    detection.Result `json:"result"`
	Action    ActionType       `json:"action"`
	Reason    string           `json:"reason"`
}

// Blocked reports whether the request must be rejected.
func (d Decision) Blocked() bool { return d.Action == ActionBlock }
