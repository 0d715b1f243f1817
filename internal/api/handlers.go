package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard/pgx-risk-engine/internal/domain"
	"github.com/pharmaguard/pgx-risk-engine/pkg/textscan"
)

// maxImageBytes bounds uploaded label scans.
const maxImageBytes = 10 << 20

// AssessRequest is the body of POST /api/v1/assess.
type AssessRequest struct {
	OCRText  string                  `json:"ocr_text" binding:"required"`
	Variants []domain.PatientVariant `json:"variants"`
}

// ScanResponse is the body of POST /api/v1/scan.
type ScanResponse struct {
	Text       string           `json:"text"`
	Candidates []string         `json:"candidates"`
	Match      domain.DrugMatch `json:"match"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   s.opts.Version,
	})
}

// handleAssess runs the full risk assessment pipeline. Results for
// identical inputs are served from the result cache when one is
// configured; cached results still get a fresh ID and timestamp.
func (s *Server) handleAssess(c *gin.Context) {
	var req AssessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	assessment, cacheHit := domain.RiskAssessment{}, false

	if s.opts.Cache != nil {
		cached, hit, err := s.opts.Cache.Get(ctx, req.OCRText, req.Variants)
		if err != nil {
			s.logger.WithError(err).Warn("Result cache lookup failed")
		} else if hit {
			assessment, cacheHit = cached, true
		}
	}

	if !cacheHit {
		assessment = s.assessor.AssessRisk(req.OCRText, req.Variants)
		if s.opts.Cache != nil {
			if err := s.opts.Cache.Set(ctx, req.OCRText, req.Variants, assessment); err != nil {
				s.logger.WithError(err).Warn("Result cache store failed")
			}
		}
	}

	assessment.ID = uuid.New().String()
	assessment.Timestamp = time.Now().UTC()

	if s.opts.Store != nil {
		if err := s.opts.Store.Save(ctx, assessment); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"assessmentID": assessment.ID,
			}).Error("Failed to persist assessment")
		}
	}

	c.JSON(http.StatusOK, assessment)
}

// handleScan resolves a drug name without classifying risk. Text
// arrives either as a JSON body or as an uploaded label image, which
// is forwarded to the OCR service first.
func (s *Server) handleScan(c *gin.Context) {
	text, ok := s.scanText(c)
	if !ok {
		return
	}

	normalized := textscan.Normalize(text)
	candidates := textscan.ExtractCandidates(normalized)
	match := s.assessor.Resolver().FindBestMatch(candidates)

	c.JSON(http.StatusOK, ScanResponse{
		Text:       normalized,
		Candidates: candidates,
		Match:      match,
	})
}

// scanText extracts the text to scan from the request, running OCR on
// an uploaded image when one is present.
func (s *Server) scanText(c *gin.Context) (string, bool) {
	if file, err := c.FormFile("image"); err == nil {
		if s.opts.OCR == nil {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "no OCR service configured"})
			return "", false
		}
		if file.Size > maxImageBytes {
			s.badRequest(c, "image too large")
			return "", false
		}
		f, err := file.Open()
		if err != nil {
			s.badRequest(c, "unreadable image upload")
			return "", false
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxImageBytes))
		if err != nil {
			s.badRequest(c, "failed reading image upload")
			return "", false
		}
		text, err := s.opts.OCR.ExtractText(c.Request.Context(), data, file.Filename)
		if err != nil {
			s.logger.WithError(err).Error("OCR extraction failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "OCR service unavailable"})
			return "", false
		}
		return text, true
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "provide a text field or an image upload")
		return "", false
	}
	return req.Text, true
}

func (s *Server) handleGetAssessment(c *gin.Context) {
	if s.opts.Store == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "no assessment store configured"})
		return
	}

	id := c.Param("id")
	assessment, err := s.opts.Store.GetByID(c.Request.Context(), id)
	if err != nil {
		if err == domain.ErrAssessmentNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "assessment not found"})
			return
		}
		s.logger.WithError(err).Error("Assessment lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "assessment lookup failed"})
		return
	}

	c.JSON(http.StatusOK, assessment)
}

func (s *Server) handleListAssessments(c *gin.Context) {
	if s.opts.Store == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "no assessment store configured"})
		return
	}

	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 200 {
			s.badRequest(c, "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	assessments, err := s.opts.Store.ListRecent(c.Request.Context(), limit)
	if err != nil {
		s.logger.WithError(err).Error("Assessment listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "assessment listing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"assessments": assessments, "count": len(assessments)})
}

// handleListDrugs reports the drugs the knowledge base covers.
func (s *Server) handleListDrugs(c *gin.Context) {
	kb := s.assessor.KnowledgeBase()

	type drugInfo struct {
		Generic  string           `json:"generic"`
		Genes    []string         `json:"genes"`
		Risk     domain.RiskLabel `json:"risk_label"`
		Severity domain.Severity  `json:"severity"`
	}

	generics := kb.Generics()
	drugs := make([]drugInfo, 0, len(generics))
	for _, name := range generics {
		entry, ok := kb.Entry(name)
		if !ok {
			continue
		}
		drugs = append(drugs, drugInfo{
			Generic:  name,
			Genes:    entry.Genes,
			Risk:     entry.RiskLabel,
			Severity: entry.Severity,
		})
	}

	c.JSON(http.StatusOK, gin.H{"drugs": drugs, "count": len(drugs)})
}

func (s *Server) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
