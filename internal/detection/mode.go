package detection

import (
	"fmt"
	"log/slog"
	"strings"
)

// Mode selects which engines guard a service.
type Mode string

const (
	ModeOff       Mode = "off"
	ModeSQL       Mode = "sql"
	ModeXSS       Mode = "xss"
	ModeComposite Mode = "composite"
)

// ParseMode parses a mode name case-insensitively. The empty string selects
// ModeComposite.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeComposite, nil
	case ModeOff, ModeSQL, ModeXSS, ModeComposite:
		return m, nil
	default:
		return "", fmt.Errorf("unknown engine mode %q", s)
	}
}

// New builds the engine for mode.
func New(mode Mode, logger *slog.Logger) (Engine, error) {
	switch mode {
	case ModeOff:
		return NoOpEngine{}, nil
	case ModeSQL:
		return NewSQLEngine(logger), nil
	case ModeXSS:
		return NewXSSEngine(logger), nil
	case ModeComposite, "":
		return NewCompositeEngine(NewSQLEngine(logger), NewXSSEngine(logger)), nil
	default:
		return nil, fmt.Errorf("unknown engine mode %q", mode)
	}
}
