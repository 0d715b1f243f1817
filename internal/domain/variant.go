package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// PatientVariant is one genetic variant call for the patient, as
// produced by the upstream VCF parser. Variants are read-only input;
// the engine never mutates them.
type PatientVariant struct {
	Gene       string `json:"gene"`
	StarAllele string `json:"star_allele,omitempty"`
	RSID       string `json:"rsid,omitempty"`
	HGVS       string `json:"hgvs,omitempty"`
	Genotype   string `json:"genotype"`
	Chromosome string `json:"chromosome,omitempty"`
	Position   int64  `json:"position,omitempty"`
	Ref        string `json:"ref,omitempty"`
	Alt        string `json:"alt,omitempty"`
}

// IsReference reports whether the call is homozygous reference. Such
// records exist in VCF output without the patient actually carrying
// the alternate allele and must never count as a risk hit.
func (v PatientVariant) IsReference() bool {
	return v.Genotype == "0/0" || v.Genotype == "0|0"
}

// Upstream parsers disagree on field naming (snake_case, camelCase,
// and a handful of abbreviations). UnmarshalJSON accepts every shape
// seen in the wild and normalizes into the canonical struct, so the
// matching algorithm never has to know about wire-format variance.
// Absent fields stay zero and simply never match.
func (v *PatientVariant) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	v.Gene = firstString(raw, "gene", "gene_symbol", "geneSymbol")
	v.StarAllele = firstString(raw, "star_allele", "starAllele", "star")
	v.RSID = firstString(raw, "rsid", "rs", "rsID", "rs_id")
	v.HGVS = firstString(raw, "hgvs", "hgvs_notation", "change")
	v.Genotype = firstString(raw, "genotype", "gt")
	v.Chromosome = firstString(raw, "chromosome", "chrom", "chr")
	v.Ref = firstString(raw, "ref", "reference")
	v.Alt = firstAlt(raw, "alt", "alternate")
	v.Position = firstPosition(raw, "position", "pos")

	return nil
}

// firstString returns the first of the named keys that decodes as a
// string.
func firstString(raw map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(msg, &s); err == nil {
			return s
		}
	}
	return ""
}

// firstAlt handles alternate alleles arriving as a plain string or as
// an array of strings (multi-allelic sites).
func firstAlt(raw map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(msg, &s); err == nil {
			return s
		}
		var list []string
		if err := json.Unmarshal(msg, &list); err == nil {
			return strings.Join(list, ",")
		}
	}
	return ""
}

// firstPosition handles positions arriving as a JSON number or as a
// numeric string.
func firstPosition(raw map[string]json.RawMessage, keys ...string) int64 {
	for _, key := range keys {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		var n int64
		if err := json.Unmarshal(msg, &n); err == nil {
			return n
		}
		var s string
		if err := json.Unmarshal(msg, &s); err == nil {
			if parsed, perr := strconv.ParseInt(s, 10, 64); perr == nil {
				return parsed
			}
		}
	}
	return 0
}
