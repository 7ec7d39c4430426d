package validation

import (
	"fmt"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-qrscan/internal/scan"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// is_safe is derived from risk_score; reject inputs where the two disagree.
	v.RegisterStructValidation(scanInputStructValidation, scan.Input{})

	return v
}

func scanInputStructValidation(sl validatorv10.StructLevel) {
	in := sl.Current().Interface().(scan.Input)

	if in.IsSafe != scan.IsSafe(in.RiskScore) {
		sl.ReportError(in.IsSafe, "is_safe", "IsSafe", "is_safe_matches_risk",
			fmt.Sprintf("is_safe=%t inconsistent with risk_score %d (threshold %d)", in.IsSafe, in.RiskScore, scan.SafetyThreshold))
	}
}
