package textscan

import (
	"sort"
	"strings"
)

// stopWords lists tokens that appear constantly on prescription labels
// and packaging but never name a drug: dose units, form factors,
// administration schedules, and label boilerplate.
var stopWords = map[string]struct{}{
	"and": {}, "the": {}, "for": {}, "with": {}, "take": {}, "take-as": {},
	"mg": {}, "mcg": {}, "gram": {}, "grams": {}, "tablet": {}, "tablets": {},
	"tab": {}, "tabs": {}, "capsule": {}, "capsules": {}, "cap": {}, "caps": {},
	"injection": {}, "solution": {}, "suspension": {}, "syrup": {}, "cream": {},
	"ointment": {}, "patch": {}, "patches": {}, "drops": {}, "spray": {},
	"oral": {}, "topical": {}, "extended": {}, "release": {}, "delayed": {},
	"daily": {}, "once": {}, "twice": {}, "three": {}, "times": {}, "day": {},
	"days": {}, "week": {}, "hours": {}, "hour": {}, "morning": {},
	"evening": {}, "night": {}, "bedtime": {}, "food": {}, "water": {},
	"meals": {}, "mouth": {}, "needed": {}, "directed": {}, "doctor": {},
	"physician": {}, "pharmacy": {}, "pharmacist": {}, "prescription": {},
	"refill": {}, "refills": {}, "qty": {}, "quantity": {}, "lot": {},
	"exp": {}, "expires": {}, "ndc": {}, "store": {}, "keep": {}, "out": {},
	"reach": {}, "children": {}, "warning": {}, "warnings": {}, "caution": {},
	"federal": {}, "law": {}, "prohibits": {}, "transfer": {}, "use": {},
	"only": {}, "not": {}, "may": {}, "cause": {}, "drowsiness": {},
	"alcohol": {}, "generic": {}, "brand": {}, "each": {}, "contains": {},
	"inactive": {}, "ingredients": {}, "dose": {}, "dosage": {},
}

// ExtractCandidates tokenizes normalized text and returns the tokens
// that could plausibly be drug names, deduplicated and ordered longest
// first. Tokens of one or two characters and label stop words are
// dropped. The longest-first ordering is stable so equal-length tokens
// keep their order of first appearance.
func ExtractCandidates(normalized string) []string {
	if normalized == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string

	for _, tok := range strings.Fields(normalized) {
		if len(tok) <= 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i]) > len(out[j])
	})

	return out
}
