package service

import (
	"sort"
	"strings"

	"github.com/pharmaguard/pgx-risk-engine/internal/domain"
)

// MatchVariants compares a patient's variants against a gene-to-allele
// risk map and returns one hit per gene that matched at least once.
// Genes are processed in ascending name order so output is stable.
// Reference-genotype variants never match. For each variant the first
// identifier that hits wins, checked star allele, then rsID, then
// HGVS substring.
func MatchVariants(variants []domain.PatientVariant, riskAlleles map[string][]string) []domain.VariantHit {
	if len(variants) == 0 || len(riskAlleles) == 0 {
		return nil
	}

	genes := make([]string, 0, len(riskAlleles))
	for g := range riskAlleles {
		genes = append(genes, g)
	}
	sort.Strings(genes)

	var hits []domain.VariantHit
	for _, gene := range genes {
		alleles := riskAlleles[gene]
		hit := domain.VariantHit{Gene: gene}
		seenAllele := make(map[string]struct{})
		seenRSID := make(map[string]struct{})

		for _, v := range variants {
			if !strings.EqualFold(v.Gene, gene) || v.IsReference() {
				continue
			}
			allele, ok := matchAllele(v, alleles)
			if !ok {
				continue
			}
			if _, dup := seenAllele[allele]; !dup {
				seenAllele[allele] = struct{}{}
				hit.MatchedAlleles = append(hit.MatchedAlleles, allele)
			}
			if v.RSID != "" {
				if _, dup := seenRSID[v.RSID]; !dup {
					seenRSID[v.RSID] = struct{}{}
					hit.RSIDs = append(hit.RSIDs, v.RSID)
				}
			}
		}

		if len(hit.MatchedAlleles) > 0 {
			hits = append(hits, hit)
		}
	}

	return hits
}

// matchAllele reports the risk-map identifier a variant matches, if
// any. Star alleles and rsIDs compare case-insensitively as whole
// strings; HGVS notations match as case-insensitive substrings since
// patient records often carry the full transcript prefix.
func matchAllele(v domain.PatientVariant, alleles []string) (string, bool) {
	if v.StarAllele != "" {
		for _, a := range alleles {
			if strings.EqualFold(v.StarAllele, a) {
				return a, true
			}
		}
	}
	if v.RSID != "" {
		for _, a := range alleles {
			if strings.EqualFold(v.RSID, a) {
				return a, true
			}
		}
	}
	if v.HGVS != "" {
		for _, a := range alleles {
			if containsFold(v.HGVS, a) {
				return a, true
			}
		}
	}
	return "", false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
