package service

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard/pgx-risk-engine/internal/domain"
	"github.com/pharmaguard/pgx-risk-engine/internal/knowledge"
	"github.com/pharmaguard/pgx-risk-engine/pkg/textscan"
)

// minUsableMatchConfidence is the floor below which a drug match is
// treated as no identification at all.
const minUsableMatchConfidence = 0.4

// Assessor runs the full pipeline: scan text for a drug, match the
// patient's variants against that drug's risk alleles, and classify.
// AssessRisk is a pure function of its inputs apart from debug
// logging; identical inputs always produce identical assessments.
type Assessor struct {
	kb       *knowledge.Base
	resolver *Resolver
	logger   *logrus.Logger
}

// NewAssessor wires an Assessor over a loaded knowledge base.
func NewAssessor(kb *knowledge.Base, resolver *Resolver, logger *logrus.Logger) *Assessor {
	return &Assessor{kb: kb, resolver: resolver, logger: logger}
}

// Resolver exposes the underlying resolver for callers that only need
// name resolution, such as the scan endpoint.
func (a *Assessor) Resolver() *Resolver { return a.resolver }

// KnowledgeBase exposes the loaded knowledge base.
func (a *Assessor) KnowledgeBase() *knowledge.Base { return a.kb }

// AssessRisk classifies the pharmacogenomic risk of the drug named in
// ocrText for a patient with the given variants. It never returns an
// error; inputs the engine cannot work with degrade to Unknown
// assessments with a confidence that encodes why. The returned
// assessment has no ID or timestamp; the serving layer assigns those.
func (a *Assessor) AssessRisk(ocrText string, variants []domain.PatientVariant) domain.RiskAssessment {
	candidates := textscan.ExtractCandidates(textscan.Normalize(ocrText))
	match := a.resolver.FindBestMatch(candidates)

	assessment := domain.RiskAssessment{
		Drug:     match.Generic,
		OCRMatch: match,
	}

	// No identification, or one too weak to act on.
	if !match.Matched() || match.Confidence < minUsableMatchConfidence {
		unknown := a.kb.Unknown()
		assessment.Drug = ""
		assessment.RiskLabel = domain.RiskUnknown
		assessment.Severity = domain.SeverityNone
		assessment.ConfidenceScore = 0.0
		assessment.Mechanism = unknown.Mechanism
		assessment.Recommendation = "Drug could not be identified from the scanned text. Re-scan or enter the name manually."
		a.logAssessment(assessment, len(variants))
		return assessment
	}

	// Identified, but no genomic data to assess against.
	if len(variants) == 0 {
		unknown := a.kb.Unknown()
		assessment.RiskLabel = domain.RiskUnknown
		assessment.Severity = domain.SeverityNone
		assessment.ConfidenceScore = round3(0.3)
		assessment.Mechanism = unknown.Mechanism
		assessment.Recommendation = "No patient variants supplied. Provide genotype data to assess this drug."
		a.logAssessment(assessment, 0)
		return assessment
	}

	entry, ok := a.kb.Entry(match.Generic)
	if !ok {
		unknown := a.kb.Unknown()
		assessment.RiskLabel = domain.RiskUnknown
		assessment.Severity = domain.SeverityNone
		assessment.ConfidenceScore = round3(0.5)
		assessment.Mechanism = unknown.Mechanism
		assessment.Recommendation = unknown.Recommendation
		a.logAssessment(assessment, len(variants))
		return assessment
	}

	hits := MatchVariants(variants, entry.RiskAlleles)
	gofHits := MatchVariants(variants, entry.GainOfFunction)

	assessment.GenesInvolved = hitGenes(hits)
	assessment.VariantHits = hits
	assessment.GainOfFunctionHits = gofHits
	assessment.Mechanism = entry.Mechanism
	assessment.CPICGuideline = entry.CPICGuideline

	if len(hits) > 0 {
		assessment.RiskLabel = entry.RiskLabel
		assessment.Severity = entry.Severity
		assessment.ConfidenceScore = round3(math.Min(
			0.6+0.3*match.Confidence+0.05*float64(len(hits)), 0.99))
		assessment.Recommendation = entry.Recommendation
	} else {
		assessment.RiskLabel = domain.RiskSafe
		assessment.Severity = domain.SeverityNone
		assessment.ConfidenceScore = round3(math.Min(0.7+0.25*match.Confidence, 0.95))
		assessment.Recommendation = "No risk alleles detected for this drug. Standard dosing applies."
	}

	a.logAssessment(assessment, len(variants))
	return assessment
}

func hitGenes(hits []domain.VariantHit) []string {
	if len(hits) == 0 {
		return nil
	}
	genes := make([]string, len(hits))
	for i, h := range hits {
		genes[i] = h.Gene
	}
	return genes
}

// round3 keeps confidence scores stable across platforms and
// serialization round trips.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func (a *Assessor) logAssessment(as domain.RiskAssessment, variantCount int) {
	if a.logger == nil {
		return
	}
	a.logger.WithFields(logrus.Fields{
		"drug":       as.Drug,
		"riskLabel":  as.RiskLabel,
		"severity":   as.Severity,
		"confidence": as.ConfidenceScore,
		"genes":      as.GenesInvolved,
		"variants":   variantCount,
	}).Debug("Risk assessment computed")
}
