// Package domain contains core business entities and types for
// pharmacogenomic drug risk classification.
//
// The engine maps a drug identified from noisy OCR text to the risk it
// poses for a specific patient given that patient's genetic variants,
// following CPIC (Clinical Pharmacogenetics Implementation Consortium)
// guidance carried in the knowledge base.
package domain

import "errors"

// RiskLabel is the clinical risk category assigned to a drug for a
// patient. The set is closed: every assessment carries exactly one of
// these values.
type RiskLabel string

const (
	RiskSafe         RiskLabel = "Safe"
	RiskAdjustDosage RiskLabel = "Adjust Dosage"
	RiskToxic        RiskLabel = "Toxic"
	RiskIneffective  RiskLabel = "Ineffective"
	RiskUnknown      RiskLabel = "Unknown"
)

// Severity grades how serious a confirmed risk is for display and
// alerting purposes.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// MatchType records how an OCR token was resolved to a generic drug
// name.
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchContains MatchType = "contains"
	MatchFuzzy    MatchType = "fuzzy"
	MatchNone     MatchType = "none"
)

// Validation errors for knowledge-base and input integrity.
var (
	ErrInvalidRiskLabel = errors.New("invalid risk label")
	ErrInvalidSeverity  = errors.New("invalid severity")
	ErrInvalidMatchType = errors.New("invalid match type")
)

// IsValid reports whether the RiskLabel is one of the closed set.
// Knowledge-base entries carrying anything else are rejected at load
// time.
func (r RiskLabel) IsValid() bool {
	switch r {
	case RiskSafe, RiskAdjustDosage, RiskToxic, RiskIneffective, RiskUnknown:
		return true
	default:
		return false
	}
}

// String returns the display form of the risk label.
func (r RiskLabel) String() string {
	return string(r)
}

// RequiresClinicalAction reports whether the label warrants clinical
// follow-up before the drug is dispensed.
func (r RiskLabel) RequiresClinicalAction() bool {
	switch r {
	case RiskToxic, RiskIneffective, RiskAdjustDosage:
		return true
	case RiskSafe:
		return false
	default:
		return true // conservative default for Unknown
	}
}

// LogFields returns structured logging fields for audit trails.
func (r RiskLabel) LogFields() map[string]any {
	return map[string]any{
		"risk_label":      string(r),
		"is_valid":        r.IsValid(),
		"requires_action": r.RequiresClinicalAction(),
	}
}

// IsValid reports whether the Severity is one of the closed set.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityNone, SeverityLow, SeverityModerate, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// String returns the display form of the severity.
func (s Severity) String() string {
	return string(s)
}

// IsValid reports whether the MatchType is one of the closed set.
func (m MatchType) IsValid() bool {
	switch m {
	case MatchExact, MatchContains, MatchFuzzy, MatchNone:
		return true
	default:
		return false
	}
}

// String returns the display form of the match type.
func (m MatchType) String() string {
	return string(m)
}
