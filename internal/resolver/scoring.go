package resolver

import (
	"context"
	"math/rand"

	"github.com/imrishuroy/go-qrscan/internal/scan"
)

// Scorer assigns a risk score in [0, 100] to a resolved URL.
type Scorer interface {
	Score(ctx context.Context, originalURL, finalURL string) int
}

// RandomScorer is a placeholder that ignores its input and returns a uniform
// score. Callers must not read anything into the result.
type RandomScorer struct{}

func (RandomScorer) Score(context.Context, string, string) int {
	return rand.Intn(scan.MaxRiskScore + 1)
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(ctx context.Context, originalURL, finalURL string) int

func (f ScorerFunc) Score(ctx context.Context, originalURL, finalURL string) int {
	return f(ctx, originalURL, finalURL)
}

func clamp(score int) int {
	if score < scan.MinRiskScore {
		return scan.MinRiskScore
	}
	if score > scan.MaxRiskScore {
		return scan.MaxRiskScore
	}
	return score
}
