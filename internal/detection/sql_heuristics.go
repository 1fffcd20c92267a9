package detection

const (
	scoreThreat = 1.0
	scoreSafe   = 0.0
)

// scoreSQL scores normalized SQL text. Quote-breakout patterns are checked
// before structural keywords so that bare apostrophes ("o'reilly") stay
// safe. The matched token is returned alongside the score.
func scoreSQL(normalized []byte) (float64, string) {
	for _, p := range sqlContextualPatterns {
		if containsPlain(normalized, p) {
			return scoreThreat, p
		}
	}
	for _, t := range sqlHighRiskTokens {
		if containsPlain(normalized, t) {
			return scoreThreat, t
		}
	}
	return scoreSafe, ""
}
