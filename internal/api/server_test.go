package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard/pgx-risk-engine/internal/domain"
	"github.com/pharmaguard/pgx-risk-engine/internal/knowledge"
	"github.com/pharmaguard/pgx-risk-engine/internal/service"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()

	kb, err := knowledge.Load("../../data/alias_table.json", "../../data/pgx_database.json", testLogger())
	require.NoError(t, err)
	resolver, err := service.NewResolver(kb, 0, testLogger())
	require.NoError(t, err)
	assessor := service.NewAssessor(kb, resolver, testLogger())

	opts.Version = "test"
	return NewServer(domain.ServerConfig{
		Host:         "127.0.0.1",
		Port:         0,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}, assessor, opts, testLogger())
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, Options{})

	w := doJSON(t, srv, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestAssessEndpoint(t *testing.T) {
	srv := newTestServer(t, Options{})

	w := doJSON(t, srv, http.MethodPost, "/api/v1/assess", AssessRequest{
		OCRText: "CODEINE 30MG TABLETS",
		Variants: []domain.PatientVariant{
			{Gene: "CYP2D6", StarAllele: "*4", Genotype: "1/1"},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var got domain.RiskAssessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "codeine", got.Drug)
	assert.Equal(t, domain.RiskToxic, got.RiskLabel)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.Timestamp.IsZero())
}

func TestAssessEndpointRejectsMissingText(t *testing.T) {
	srv := newTestServer(t, Options{})

	w := doJSON(t, srv, http.MethodPost, "/api/v1/assess", map[string]any{
		"variants": []any{},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScanEndpoint(t *testing.T) {
	srv := newTestServer(t, Options{})

	w := doJSON(t, srv, http.MethodPost, "/api/v1/scan", map[string]string{
		"text": "Take one PLAVIX 75MG tablet daily",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var got ScanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "clopidogrel", got.Match.Generic)
	assert.Equal(t, domain.MatchExact, got.Match.MatchType)
	assert.Contains(t, got.Candidates, "plavix")
}

func TestDrugsEndpoint(t *testing.T) {
	srv := newTestServer(t, Options{})

	w := doJSON(t, srv, http.MethodGet, "/api/v1/drugs", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Drugs []struct {
			Generic string   `json:"generic"`
			Genes   []string `json:"genes"`
		} `json:"drugs"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, len(got.Drugs), got.Count)
	assert.NotZero(t, got.Count)

	names := make([]string, 0, len(got.Drugs))
	for _, d := range got.Drugs {
		names = append(names, d.Generic)
	}
	assert.Contains(t, names, "warfarin")
	assert.NotContains(t, names, "_unknown")
}

func TestGetAssessmentWithoutStore(t *testing.T) {
	srv := newTestServer(t, Options{})

	w := doJSON(t, srv, http.MethodGet, "/api/v1/assessments/some-id", nil)

	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

// memoryStore is a test double for the assessment store.
type memoryStore struct {
	saved map[string]domain.RiskAssessment
	order []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{saved: make(map[string]domain.RiskAssessment)}
}

func (m *memoryStore) Save(_ context.Context, a domain.RiskAssessment) error {
	m.saved[a.ID] = a
	m.order = append(m.order, a.ID)
	return nil
}

func (m *memoryStore) GetByID(_ context.Context, id string) (domain.RiskAssessment, error) {
	a, ok := m.saved[id]
	if !ok {
		return domain.RiskAssessment{}, domain.ErrAssessmentNotFound
	}
	return a, nil
}

func (m *memoryStore) ListRecent(_ context.Context, limit int) ([]domain.RiskAssessment, error) {
	var out []domain.RiskAssessment
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.saved[m.order[i]])
	}
	return out, nil
}

func TestAssessPersistsAndRetrieves(t *testing.T) {
	store := newMemoryStore()
	srv := newTestServer(t, Options{Store: store})

	w := doJSON(t, srv, http.MethodPost, "/api/v1/assess", AssessRequest{
		OCRText: "WARFARIN 5MG",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var created domain.RiskAssessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Len(t, store.saved, 1)

	w = doJSON(t, srv, http.MethodGet, "/api/v1/assessments/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched domain.RiskAssessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "warfarin", fetched.Drug)

	w = doJSON(t, srv, http.MethodGet, "/api/v1/assessments/no-such-id", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListAssessments(t *testing.T) {
	store := newMemoryStore()
	srv := newTestServer(t, Options{Store: store})

	for _, text := range []string{"WARFARIN", "CODEINE", "ZOCOR"} {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/assess", AssessRequest{OCRText: text})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, srv, http.MethodGet, "/api/v1/assessments?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Assessments []domain.RiskAssessment `json:"assessments"`
		Count       int                     `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 2, got.Count)

	w = doJSON(t, srv, http.MethodGet, "/api/v1/assessments?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
