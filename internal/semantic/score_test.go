package semantic

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScoreEmpty(t *testing.T) {
	if got := Score(nil); got != 1.0 {
		t.Errorf("Score(nil) = %v, want 1.0", got)
	}
}

func TestScorePenalties(t *testing.T) {
	tests := []struct {
		name     string
		findings []Finding
		want     float64
	}{
		{"rejected low",
			[]Finding{{Status: StatusRejected, EquivalenceLevel: LevelLow}}, 0.90},
		{"pending high",
			[]Finding{{Status: StatusPending, EquivalenceLevel: LevelHigh}}, 0.85},
		{"blocking high",
			[]Finding{{Status: StatusBlocking, EquivalenceLevel: LevelHigh}}, 0.85},
		{"accepted high still counts its level",
			[]Finding{{Status: StatusAccepted, EquivalenceLevel: LevelHigh}}, 0.85},
		{"rejected high costs both penalties",
			[]Finding{{Status: StatusRejected, EquivalenceLevel: LevelHigh}}, 0.75},
		{"pending medium",
			[]Finding{{Status: StatusPending, EquivalenceLevel: LevelMedium}}, 0.95},
		{"pending low is free",
			[]Finding{{Status: StatusPending, EquivalenceLevel: LevelLow}}, 1.0},
		{"mixed",
			[]Finding{
				{Status: StatusRejected, EquivalenceLevel: LevelHigh},
				{Status: StatusPending, EquivalenceLevel: LevelHigh},
				{Status: StatusPending, EquivalenceLevel: LevelMedium},
				{Status: StatusAccepted, EquivalenceLevel: LevelLow},
			}, 0.55},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.findings); !almostEqual(got, tt.want) {
				t.Errorf("Score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreClampedAtZero(t *testing.T) {
	var findings []Finding
	for i := 0; i < 20; i++ {
		findings = append(findings, Finding{Status: StatusBlocking, EquivalenceLevel: LevelHigh})
	}
	if got := Score(findings); got != 0 {
		t.Errorf("Score = %v, want 0", got)
	}
}

func TestScoreOrderIndependent(t *testing.T) {
	a := []Finding{
		{Status: StatusRejected, EquivalenceLevel: LevelLow},
		{Status: StatusPending, EquivalenceLevel: LevelHigh},
		{Status: StatusPending, EquivalenceLevel: LevelMedium},
	}
	b := []Finding{a[2], a[0], a[1]}
	if Score(a) != Score(b) {
		t.Errorf("Score depends on finding order: %v vs %v", Score(a), Score(b))
	}
}

func TestSummarize(t *testing.T) {
	findings := []Finding{
		{Status: StatusPending, EquivalenceLevel: LevelHigh},
		{Status: StatusAccepted, EquivalenceLevel: LevelMedium},
		{Status: StatusRejected, EquivalenceLevel: LevelLow},
		{Status: StatusBlocking, EquivalenceLevel: "weird"},
	}
	s := Summarize(findings)

	if s.Total != 4 {
		t.Errorf("Total = %d, want 4", s.Total)
	}
	if s.High != 1 || s.Medium != 1 || s.Low != 1 || s.Unknown != 1 {
		t.Errorf("level counts = %d/%d/%d/%d, want 1/1/1/1", s.High, s.Medium, s.Low, s.Unknown)
	}
	if s.Pending != 1 || s.Accepted != 1 || s.Rejected != 1 || s.Blocking != 1 {
		t.Errorf("status counts = %d/%d/%d/%d, want 1/1/1/1", s.Pending, s.Accepted, s.Rejected, s.Blocking)
	}
	// 1.0 - 0.15 (high) - 0.05 (medium) - 0.10 (rejected) = 0.70; the
	// blocking unknown-level finding carries no level penalty.
	if !almostEqual(s.OverallHealthScore, 0.70) {
		t.Errorf("OverallHealthScore = %v, want 0.70", s.OverallHealthScore)
	}
}
