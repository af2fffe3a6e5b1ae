package referee

import (
	"context"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/domain"
)

// Scorer validates and bounds verdicts from the injected judge. It is
// pure with respect to side effects — no database writes — so it can be
// unit-tested against fixed transcript fixtures.
type Scorer struct {
	judge TranscriptJudge
}

// NewScorer creates a scorer around a judge capability.
func NewScorer(judge TranscriptJudge) *Scorer {
	return &Scorer{judge: judge}
}

// Score judges one transcript and clamps the verdict into its documented
// ranges: referee score 0–100, success score 0–10, margin integrity 0–1.
// Returns the verdict and the dollar cost of the judgment.
func (s *Scorer) Score(ctx context.Context, transcript domain.Transcript) (domain.Verdict, float64, error) {
	if len(transcript) == 0 {
		return domain.Verdict{}, 0, domain.ErrEmptyTranscript
	}

	verdict, cost, err := s.judge.Judge(ctx, transcript.Render())
	if err != nil {
		return domain.Verdict{}, cost, err
	}

	verdict.RefereeScore = clampInt(verdict.RefereeScore, 0, 100)
	verdict.SuccessScore = clampInt(verdict.SuccessScore, 0, 10)
	verdict.MarginIntegrity = clampFloat(verdict.MarginIntegrity, 0, 1)

	return verdict, cost, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
