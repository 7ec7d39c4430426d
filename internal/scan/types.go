package scan

import "time"

const (
	// SafetyThreshold is the lowest risk score considered unsafe.
	SafetyThreshold = 75

	// FailureRiskScore is assigned when a URL could not be resolved.
	FailureRiskScore = 99

	MinRiskScore = 0
	MaxRiskScore = 100

	// DefaultCacheTTL is how long a scan result stays in the cache.
	DefaultCacheTTL = 3600 * time.Second
)

// Scan is a persisted scan result. The same shape is written to the cache and
// returned to HTTP clients.
type Scan struct {
	ID          int64     `json:"id"`
	ScannedAt   time.Time `json:"scanned_at"`
	OriginalURL string    `json:"original_url"`
	FinalURL    string    `json:"final_url"`
	IsSafe      bool      `json:"is_safe"`
	RiskScore   int       `json:"risk_score"`
}

// Input is what the pipeline hands to the store; id and scanned_at are
// assigned there.
type Input struct {
	OriginalURL string `json:"original_url" validate:"required"`
	FinalURL    string `json:"final_url" validate:"required"`
	IsSafe      bool   `json:"is_safe"`
	RiskScore   int    `json:"risk_score" validate:"min=0,max=100"`
}

// IsSafe reports whether a risk score is below the safety threshold.
func IsSafe(riskScore int) bool {
	return riskScore < SafetyThreshold
}

// NewInput builds an Input with IsSafe derived from the score.
func NewInput(originalURL, finalURL string, riskScore int) Input {
	return Input{
		OriginalURL: originalURL,
		FinalURL:    finalURL,
		IsSafe:      IsSafe(riskScore),
		RiskScore:   riskScore,
	}
}
