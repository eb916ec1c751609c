package semantic

// Health score penalties. Rejections and risk levels penalize
// independently, so a rejected high-risk finding costs both.
const (
	penaltyRejected = 0.10
	penaltyHigh     = 0.15
	penaltyMedium   = 0.05
)

// Score computes the 0..1 health score for a set of findings. A
// pipeline with no findings is perfectly healthy. Low and unknown
// risk levels carry no penalty.
func Score(findings []Finding) float64 {
	score := 1.0
	for i := range findings {
		f := &findings[i]
		if f.Status == StatusRejected {
			score -= penaltyRejected
		}
		switch f.EquivalenceLevel {
		case LevelHigh:
			score -= penaltyHigh
		case LevelMedium:
			score -= penaltyMedium
		}
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

// Summarize builds the per-level and per-status counts plus the health
// score for a set of findings.
func Summarize(findings []Finding) Summary {
	s := Summary{Total: len(findings)}
	for i := range findings {
		f := &findings[i]
		switch f.EquivalenceLevel {
		case LevelHigh:
			s.High++
		case LevelMedium:
			s.Medium++
		case LevelLow:
			s.Low++
		default:
			s.Unknown++
		}
		switch f.Status {
		case StatusPending:
			s.Pending++
		case StatusAccepted:
			s.Accepted++
		case StatusRejected:
			s.Rejected++
		case StatusBlocking:
			s.Blocking++
		}
	}
	s.OverallHealthScore = Score(findings)
	return s
}
