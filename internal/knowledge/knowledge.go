// Package knowledge loads and serves the pharmacogenomic knowledge
// base: the brand-to-generic alias table and the per-drug gene and
// risk-allele entries with their clinical annotations.
package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard/pgx-risk-engine/internal/domain"
)

// UnknownDrugKey is the reserved knowledge-base key whose entry is
// returned for drugs the base has no data for.
const UnknownDrugKey = "_unknown"

// Entry holds the pharmacogenomic profile of a single generic drug.
type Entry struct {
	Genes          []string            `json:"genes"`
	RiskAlleles    map[string][]string `json:"riskAlleles"`
	GainOfFunction map[string][]string `json:"gainOfFunction,omitempty"`
	RiskLabel      domain.RiskLabel    `json:"riskLabel"`
	Severity       domain.Severity     `json:"severity"`
	Mechanism      string              `json:"mechanism"`
	CPICGuideline  string              `json:"cpicGuideline,omitempty"`
	Recommendation string              `json:"recommendation"`
}

// Base is the loaded knowledge base. It is immutable after Load and
// safe for concurrent readers.
type Base struct {
	aliases   map[string]string
	aliasKeys []string
	drugs     map[string]Entry
	unknown   Entry
}

// New builds a Base directly from in-memory tables. The alias map keys
// and values must already be normalized to lowercase. Intended for
// tests; production code should use Load.
func New(aliases map[string]string, drugs map[string]Entry) (*Base, error) {
	b := &Base{
		aliases: aliases,
		drugs:   drugs,
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	b.finish()
	return b, nil
}

// Load reads the alias table and drug database from JSON files and
// validates them. Any drug entry with an invalid risk label or
// severity is a hard error; an alias pointing at a generic the
// database lacks is tolerated and logged, since resolution still
// succeeds and classification falls through to the unknown entry.
func Load(aliasPath, dbPath string, logger *logrus.Logger) (*Base, error) {
	aliasRaw, err := os.ReadFile(aliasPath)
	if err != nil {
		return nil, fmt.Errorf("reading alias table: %w", err)
	}
	var aliases map[string]string
	if err := json.Unmarshal(aliasRaw, &aliases); err != nil {
		return nil, fmt.Errorf("parsing alias table %s: %w", aliasPath, err)
	}

	dbRaw, err := os.ReadFile(dbPath)
	if err != nil {
		return nil, fmt.Errorf("reading drug database: %w", err)
	}
	var drugs map[string]Entry
	if err := json.Unmarshal(dbRaw, &drugs); err != nil {
		return nil, fmt.Errorf("parsing drug database %s: %w", dbPath, err)
	}

	normalized := make(map[string]string, len(aliases))
	for k, v := range aliases {
		normalized[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
	}

	b := &Base{
		aliases: normalized,
		drugs:   drugs,
	}
	if err := b.validate(); err != nil {
		return nil, err
	}

	if logger != nil {
		for alias, generic := range b.aliases {
			if _, ok := b.drugs[generic]; !ok {
				logger.WithFields(logrus.Fields{
					"alias":   alias,
					"generic": generic,
				}).Warn("Alias resolves to a generic with no database entry")
			}
		}
		logger.WithFields(logrus.Fields{
			"aliases": len(b.aliases),
			"drugs":   len(b.drugs),
		}).Info("Knowledge base loaded")
	}

	b.finish()
	return b, nil
}

func (b *Base) validate() error {
	for name, entry := range b.drugs {
		if name == UnknownDrugKey {
			continue
		}
		if !entry.RiskLabel.IsValid() {
			return fmt.Errorf("drug %q: %w: %q", name, domain.ErrInvalidRiskLabel, entry.RiskLabel)
		}
		if !entry.Severity.IsValid() {
			return fmt.Errorf("drug %q: %w: %q", name, domain.ErrInvalidSeverity, entry.Severity)
		}
		if len(entry.Genes) == 0 {
			return domain.NewValidationError("genes", fmt.Sprintf("drug %q lists no genes", name), entry.Genes)
		}
	}
	for alias, generic := range b.aliases {
		if alias == "" {
			return domain.NewValidationError("alias", "alias table contains an empty key", generic)
		}
	}
	return nil
}

// finish precomputes the sorted alias key slice and the fallback
// entry. Sorting the keys once makes every downstream scan over the
// alias table deterministic regardless of map iteration order.
func (b *Base) finish() {
	b.aliasKeys = make([]string, 0, len(b.aliases))
	for k := range b.aliases {
		b.aliasKeys = append(b.aliasKeys, k)
	}
	sort.Strings(b.aliasKeys)

	if u, ok := b.drugs[UnknownDrugKey]; ok {
		b.unknown = u
	} else {
		b.unknown = Entry{
			RiskLabel:      domain.RiskUnknown,
			Severity:       domain.SeverityNone,
			Mechanism:      "No pharmacogenomic data available for this drug.",
			Recommendation: "Consult a clinical pharmacist; no gene-drug interaction data on file.",
		}
	}
}

// AliasKeys returns the alias table keys in ascending lexicographic
// order. The returned slice is shared; callers must not modify it.
func (b *Base) AliasKeys() []string { return b.aliasKeys }

// ResolveAlias maps an alias (brand name, common misspelling, or the
// generic itself) to its generic drug name.
func (b *Base) ResolveAlias(alias string) (string, bool) {
	g, ok := b.aliases[alias]
	return g, ok
}

// Entry returns the knowledge-base entry for a generic drug name and
// whether the database holds one.
func (b *Base) Entry(generic string) (Entry, bool) {
	key := strings.ToLower(generic)
	if key == UnknownDrugKey {
		return b.unknown, true
	}
	e, ok := b.drugs[key]
	return e, ok
}

// Unknown returns the fallback entry used for drugs with no database
// coverage.
func (b *Base) Unknown() Entry { return b.unknown }

// Generics returns the database's generic drug names in ascending
// order, excluding the unknown fallback key.
func (b *Base) Generics() []string {
	out := make([]string, 0, len(b.drugs))
	for name := range b.drugs {
		if name == UnknownDrugKey {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
