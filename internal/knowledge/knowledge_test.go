package knowledge

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard/pgx-risk-engine/internal/domain"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func dataPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join("..", "..", "data", name)
}

func TestLoadShippedData(t *testing.T) {
	base, err := Load(dataPath(t, "alias_table.json"), dataPath(t, "pgx_database.json"), testLogger())
	require.NoError(t, err)

	generic, ok := base.ResolveAlias("plavix")
	assert.True(t, ok)
	assert.Equal(t, "clopidogrel", generic)

	entry, ok := base.Entry("clopidogrel")
	require.True(t, ok)
	assert.Equal(t, domain.RiskIneffective, entry.RiskLabel)
	assert.Equal(t, domain.SeverityHigh, entry.Severity)
	assert.Contains(t, entry.Genes, "CYP2C19")
	assert.Contains(t, entry.RiskAlleles["CYP2C19"], "*2")
	assert.Contains(t, entry.GainOfFunction["CYP2C19"], "*17")

	// Every alias target with a database entry round-trips.
	for _, alias := range base.AliasKeys() {
		g, ok := base.ResolveAlias(alias)
		require.True(t, ok)
		assert.NotEmpty(t, g)
	}
}

func TestLoadMissingFiles(t *testing.T) {
	_, err := Load("no-such-aliases.json", dataPath(t, "pgx_database.json"), testLogger())
	assert.Error(t, err)

	_, err = Load(dataPath(t, "alias_table.json"), "no-such-db.json", testLogger())
	assert.Error(t, err)
}

func TestNewValidation(t *testing.T) {
	valid := Entry{
		Genes:       []string{"CYP2D6"},
		RiskAlleles: map[string][]string{"CYP2D6": {"*4"}},
		RiskLabel:   domain.RiskToxic,
		Severity:    domain.SeverityCritical,
	}

	tests := []struct {
		name    string
		drugs   map[string]Entry
		wantErr bool
	}{
		{
			name:    "valid entry",
			drugs:   map[string]Entry{"codeine": valid},
			wantErr: false,
		},
		{
			name: "invalid risk label",
			drugs: map[string]Entry{"codeine": {
				Genes:     []string{"CYP2D6"},
				RiskLabel: "Lethal",
				Severity:  domain.SeverityHigh,
			}},
			wantErr: true,
		},
		{
			name: "invalid severity",
			drugs: map[string]Entry{"codeine": {
				Genes:     []string{"CYP2D6"},
				RiskLabel: domain.RiskToxic,
				Severity:  "extreme",
			}},
			wantErr: true,
		},
		{
			name: "no genes",
			drugs: map[string]Entry{"codeine": {
				RiskLabel: domain.RiskToxic,
				Severity:  domain.SeverityHigh,
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(map[string]string{"codeine": "codeine"}, tt.drugs)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUnknownFallback(t *testing.T) {
	base, err := New(map[string]string{}, map[string]Entry{})
	require.NoError(t, err)

	u := base.Unknown()
	assert.Equal(t, domain.RiskUnknown, u.RiskLabel)
	assert.Equal(t, domain.SeverityNone, u.Severity)

	// The reserved key is always answerable.
	e, ok := base.Entry(UnknownDrugKey)
	assert.True(t, ok)
	assert.Equal(t, u, e)
}

func TestAliasKeysSorted(t *testing.T) {
	base, err := New(map[string]string{
		"zocor":  "simvastatin",
		"plavix": "clopidogrel",
		"imuran": "azathioprine",
	}, map[string]Entry{})
	require.NoError(t, err)

	assert.Equal(t, []string{"imuran", "plavix", "zocor"}, base.AliasKeys())
}

func TestGenericsExcludesUnknown(t *testing.T) {
	base, err := Load(dataPath(t, "alias_table.json"), dataPath(t, "pgx_database.json"), testLogger())
	require.NoError(t, err)

	generics := base.Generics()
	assert.NotContains(t, generics, UnknownDrugKey)
	assert.Contains(t, generics, "warfarin")
	assert.Contains(t, generics, "codeine")
}
