package service

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard/pgx-risk-engine/internal/domain"
	"github.com/pharmaguard/pgx-risk-engine/internal/knowledge"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testBase(t *testing.T) *knowledge.Base {
	t.Helper()
	base, err := knowledge.Load("../../data/alias_table.json", "../../data/pgx_database.json", testLogger())
	require.NoError(t, err)
	return base
}

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(testBase(t), 0, testLogger())
	require.NoError(t, err)
	return r
}

func TestResolveExact(t *testing.T) {
	r := testResolver(t)

	tests := []struct {
		token   string
		generic string
	}{
		{"warfarin", "warfarin"},
		{"plavix", "clopidogrel"},
		{"coumadin", "warfarin"},
		{"zocor", "simvastatin"},
		{"5-fu", "fluorouracil"},
	}

	for _, tt := range tests {
		m := r.Resolve(tt.token)
		assert.Equal(t, tt.generic, m.Generic, "token %q", tt.token)
		assert.Equal(t, domain.MatchExact, m.MatchType)
		assert.Equal(t, 1.0, m.Confidence)
	}
}

func TestResolveContains(t *testing.T) {
	r := testResolver(t)

	// "warfarin5" contains the 8-char alias at 8/9 overlap.
	m := r.Resolve("warfarin5")
	assert.Equal(t, "warfarin", m.Generic)
	assert.Equal(t, domain.MatchContains, m.MatchType)
	assert.Equal(t, 0.85, m.Confidence)
}

func TestResolveContainsOverlapFloor(t *testing.T) {
	r := testResolver(t)

	// "6-mp" inside a much longer token fails the 0.7 overlap floor
	// and the fuzzy tier cannot bridge the gap either.
	m := r.Resolve("6-mpandsomething")
	assert.NotEqual(t, domain.MatchContains, m.MatchType)
}

func TestResolveFuzzy(t *testing.T) {
	r := testResolver(t)

	tests := []struct {
		name     string
		token    string
		generic  string
		wantType domain.MatchType
	}{
		{"one edit short token", "zocar", "simvastatin", domain.MatchFuzzy},
		{"one edit long token", "clopidogril", "clopidogrel", domain.MatchFuzzy},
		{"two edits long token", "clopidogrill", "clopidogrel", domain.MatchFuzzy},
		{"warfrin missing letter", "warfrin", "warfarin", domain.MatchFuzzy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := r.Resolve(tt.token)
			assert.Equal(t, tt.generic, m.Generic)
			assert.Equal(t, tt.wantType, m.MatchType)
			assert.Greater(t, m.Confidence, 0.0)
			assert.Less(t, m.Confidence, 1.0)
		})
	}
}

func TestResolveFuzzyDistanceBounds(t *testing.T) {
	r := testResolver(t)

	// Short tokens (<=7 chars) tolerate a single edit only.
	m := r.Resolve("zicar") // two edits from "zocor"
	assert.False(t, m.Matched(), "short token with two edits must not match, got %+v", m)

	// Long tokens tolerate at most two edits.
	m = r.Resolve("clapidigril") // three edits from "clopidogrel"
	assert.False(t, m.Matched(), "long token with three edits must not match, got %+v", m)
}

func TestResolveFuzzyConfidenceFormula(t *testing.T) {
	r := testResolver(t)

	// "warfrin" is one edit from "warfarin"; the longer string has
	// eight characters.
	m := r.Resolve("warfrin")
	require.True(t, m.Matched())
	assert.InDelta(t, 1.0-1.0/8.0, m.Confidence, 1e-9)
}

func TestResolveNoMatch(t *testing.T) {
	r := testResolver(t)

	for _, token := range []string{"xanax", "aspirin", "", "qqqqqqqq"} {
		m := r.Resolve(token)
		assert.False(t, m.Matched(), "token %q", token)
		assert.Equal(t, domain.MatchNone, m.MatchType)
	}
}

func TestResolveDeterministic(t *testing.T) {
	// Two independent resolvers over the same data must agree, and a
	// single resolver must be stable across repeated calls.
	r1 := testResolver(t)
	r2 := testResolver(t)

	tokens := []string{"warfrin", "plavix", "zocar", "clopidogril", "warfarin5"}
	for _, tok := range tokens {
		first := r1.Resolve(tok)
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, r1.Resolve(tok))
			assert.Equal(t, first, r2.Resolve(tok))
		}
	}
}

func TestFindBestMatch(t *testing.T) {
	r := testResolver(t)

	tests := []struct {
		name       string
		candidates []string
		generic    string
		matched    bool
	}{
		{
			name:       "exact beats fuzzy",
			candidates: []string{"clopidogril", "warfarin"},
			generic:    "warfarin",
			matched:    true,
		},
		{
			name:       "single fuzzy candidate",
			candidates: []string{"warfrin"},
			generic:    "warfarin",
			matched:    true,
		},
		{
			name:       "nothing matches",
			candidates: []string{"aspirin", "xanax"},
			matched:    false,
		},
		{
			name:       "empty candidates",
			candidates: nil,
			matched:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := r.FindBestMatch(tt.candidates)
			assert.Equal(t, tt.matched, m.Matched())
			if tt.matched {
				assert.Equal(t, tt.generic, m.Generic)
			}
		})
	}
}
