package domain

import "time"

// DrugMatch is the result of resolving an OCR token against the alias
// table. Generic is empty when no tier of resolution succeeded.
type DrugMatch struct {
	Generic    string    `json:"generic,omitempty"`
	Confidence float64   `json:"confidence"`
	MatchType  MatchType `json:"match_type"`
	RawToken   string    `json:"raw_token,omitempty"`
}

// Matched reports whether the token resolved to a generic drug name.
func (m DrugMatch) Matched() bool {
	return m.Generic != ""
}

// VariantHit reports the confirmed risk alleles found for a single
// gene. A gene only appears in assessment output when it has at least
// one confirmed hit.
type VariantHit struct {
	Gene           string   `json:"gene"`
	MatchedAlleles []string `json:"matched_alleles"`
	RSIDs          []string `json:"rsids,omitempty"`
}

// RiskAssessment is the final output of the engine for one drug and
// one patient. It is constructed fresh per invocation and never
// mutated afterwards. ID and Timestamp are assigned by the serving
// layer, not by the core engine, so that identical inputs produce
// identical core results.
type RiskAssessment struct {
	ID        string    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`

	Drug     string    `json:"drug,omitempty"`
	OCRMatch DrugMatch `json:"ocr_match"`

	RiskLabel       RiskLabel `json:"risk_label"`
	Severity        Severity  `json:"severity"`
	ConfidenceScore float64   `json:"confidence_score"`

	GenesInvolved      []string     `json:"genes_involved,omitempty"`
	VariantHits        []VariantHit `json:"variant_hits,omitempty"`
	GainOfFunctionHits []VariantHit `json:"gain_of_function_hits,omitempty"`

	// Clinical rationale passed through verbatim from the knowledge
	// base; the engine never rewords these.
	Mechanism      string `json:"mechanism,omitempty"`
	CPICGuideline  string `json:"cpic_guideline,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}
