// Package service implements the risk engine: drug name resolution
// from scanned text, variant matching against risk alleles, and the
// final risk classification.
package service

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard/pgx-risk-engine/internal/domain"
	"github.com/pharmaguard/pgx-risk-engine/internal/knowledge"
	"github.com/pharmaguard/pgx-risk-engine/pkg/textscan"
)

const (
	exactConfidence    = 1.0
	containsConfidence = 0.85
	containsMinOverlap = 0.7
)

// DefaultResolverCacheSize bounds the token memoization cache when the
// configuration does not override it.
const DefaultResolverCacheSize = 4096

// Resolver maps noisy OCR tokens to generic drug names using a tiered
// strategy: exact alias lookup, then substring containment, then
// bounded fuzzy matching. Resolution is deterministic; repeated calls
// with the same token always return the same match.
type Resolver struct {
	kb     *knowledge.Base
	cache  *lru.Cache[string, domain.DrugMatch]
	logger *logrus.Logger
}

// NewResolver builds a Resolver over the given knowledge base.
// cacheSize <= 0 selects DefaultResolverCacheSize.
func NewResolver(kb *knowledge.Base, cacheSize int, logger *logrus.Logger) (*Resolver, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultResolverCacheSize
	}
	cache, err := lru.New[string, domain.DrugMatch](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Resolver{kb: kb, cache: cache, logger: logger}, nil
}

// Resolve maps a single normalized token to a drug match. A zero-value
// DrugMatch with MatchType none is returned when no tier accepts the
// token.
func (r *Resolver) Resolve(token string) domain.DrugMatch {
	if token == "" {
		return domain.DrugMatch{MatchType: domain.MatchNone}
	}

	if cached, ok := r.cache.Get(token); ok {
		return cached
	}

	match := r.resolve(token)
	r.cache.Add(token, match)
	return match
}

func (r *Resolver) resolve(token string) domain.DrugMatch {
	if generic, ok := r.kb.ResolveAlias(token); ok {
		return domain.DrugMatch{
			Generic:    generic,
			Confidence: exactConfidence,
			MatchType:  domain.MatchExact,
			RawToken:   token,
		}
	}

	if m, ok := r.resolveContains(token); ok {
		return m
	}
	if m, ok := r.resolveFuzzy(token); ok {
		return m
	}

	return domain.DrugMatch{MatchType: domain.MatchNone, RawToken: token}
}

// resolveContains accepts a token when it contains an alias or an
// alias contains it, provided the shorter string covers more than 70%
// of the longer one. The overlap floor keeps short aliases from firing
// inside unrelated long tokens.
func (r *Resolver) resolveContains(token string) (domain.DrugMatch, bool) {
	for _, alias := range r.kb.AliasKeys() {
		if !strings.Contains(token, alias) && !strings.Contains(alias, token) {
			continue
		}
		shorter, longer := len(token), len(alias)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		if float64(shorter)/float64(longer) <= containsMinOverlap {
			continue
		}
		generic, _ := r.kb.ResolveAlias(alias)
		return domain.DrugMatch{
			Generic:    generic,
			Confidence: containsConfidence,
			MatchType:  domain.MatchContains,
			RawToken:   token,
		}, true
	}
	return domain.DrugMatch{}, false
}

// resolveFuzzy scans every alias for the smallest edit distance within
// the length-dependent tolerance: two edits for tokens longer than
// seven characters, one otherwise. Confidence decays with distance
// relative to the longer string. Ties keep the lexicographically
// earliest alias because the key scan is sorted.
func (r *Resolver) resolveFuzzy(token string) (domain.DrugMatch, bool) {
	maxDist := 1
	if len(token) > 7 {
		maxDist = 2
	}

	best := domain.DrugMatch{}
	bestDist := maxDist + 1

	for _, alias := range r.kb.AliasKeys() {
		dist := textscan.Levenshtein(token, alias)
		if dist > maxDist || dist >= bestDist {
			continue
		}
		maxLen := len(token)
		if len(alias) > maxLen {
			maxLen = len(alias)
		}
		generic, _ := r.kb.ResolveAlias(alias)
		best = domain.DrugMatch{
			Generic:    generic,
			Confidence: 1.0 - float64(dist)/float64(maxLen),
			MatchType:  domain.MatchFuzzy,
			RawToken:   token,
		}
		bestDist = dist
	}

	return best, best.Matched()
}

// FindBestMatch resolves every candidate token and returns the match
// with the highest confidence. Candidates are expected longest first,
// so on equal confidence the longer token wins. An exact hit short-
// circuits the scan.
func (r *Resolver) FindBestMatch(candidates []string) domain.DrugMatch {
	best := domain.DrugMatch{MatchType: domain.MatchNone}
	for _, tok := range candidates {
		m := r.Resolve(tok)
		if !m.Matched() {
			continue
		}
		if m.Confidence > best.Confidence {
			best = m
		}
		if best.Confidence >= exactConfidence {
			break
		}
	}
	if r.logger != nil && best.Matched() {
		r.logger.WithFields(logrus.Fields{
			"generic":    best.Generic,
			"matchType":  best.MatchType,
			"confidence": best.Confidence,
			"token":      best.RawToken,
		}).Debug("Resolved drug name")
	}
	return best
}
