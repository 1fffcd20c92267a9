package detection

import "raspguard/internal/common"

// CompositeEngine runs the SQL engine and then the XSS engine over the same
// payload and reports the more severe verdict. A critical SQL verdict skips
// the XSS analysis; on equal severity the SQL verdict wins.
type CompositeEngine struct {
	sql Engine
	xss Engine
}

func NewCompositeEngine(sql, xss Engine) *CompositeEngine {
	return &CompositeEngine{sql: sql, xss: xss}
}

func (e *CompositeEngine) Inspect(text, context string) Result {
	return e.InspectBytes(stringBytes(text), context)
}

func (e *CompositeEngine) InspectBytes(text []byte, context string) Result {
	sqlResult := e.sql.InspectBytes(text, context)
	if sqlResult.IsThreat && sqlResult.Severity == common.SeverityCritical {
		return sqlResult
	}
	xssResult := e.xss.InspectBytes(text, context)
	if xssResult.IsThreat && xssResult.Severity == common.SeverityCritical {
		return xssResult
	}
	switch {
	case sqlResult.IsThreat && xssResult.IsThreat:
		if xssResult.Severity > sqlResult.Severity {
			return xssResult
		}
		return sqlResult
	case sqlResult.IsThreat:
		return sqlResult
	case xssResult.IsThreat:
		return xssResult
	}
	return Safe()
}
