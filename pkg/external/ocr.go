// Package external contains clients for outside services the engine
// depends on, currently the OCR service that turns label photographs
// into text.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/pharmaguard/pgx-risk-engine/internal/domain"
)

// OCRWord is a single recognized word with its recognition confidence
// in [0,1].
type OCRWord struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// OCRResult is the OCR service's response for one image.
type OCRResult struct {
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	Words      []OCRWord `json:"words"`
}

// OCRServiceClient calls the external OCR service. Requests are rate
// limited and guarded by a circuit breaker so a degraded OCR backend
// cannot stall the engine.
type OCRServiceClient struct {
	baseURL       string
	httpClient    *http.Client
	limiter       *rate.Limiter
	breaker       *gobreaker.CircuitBreaker
	minConfidence float64
	logger        *logrus.Logger
}

// NewOCRServiceClient builds a client from configuration.
func NewOCRServiceClient(config domain.OCRConfig, logger *logrus.Logger) *OCRServiceClient {
	rl := config.RateLimit
	if rl <= 0 {
		rl = 10
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "OCR",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger != nil {
				logger.WithFields(logrus.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Warn("Circuit breaker state change")
			}
		},
	})

	return &OCRServiceClient{
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter:       rate.NewLimiter(rate.Limit(rl), rl),
		breaker:       breaker,
		minConfidence: config.MinConfidence,
		logger:        logger,
	}
}

// Recognize submits an image and returns the full OCR result.
func (c *OCRServiceClient) Recognize(ctx context.Context, image []byte, filename string) (*OCRResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.recognize(ctx, image, filename)
	})
	if err != nil {
		return nil, err
	}

	return result.(*OCRResult), nil
}

// ExtractText submits an image and returns recognized text with
// low-confidence words filtered out.
func (c *OCRServiceClient) ExtractText(ctx context.Context, image []byte, filename string) (string, error) {
	result, err := c.Recognize(ctx, image, filename)
	if err != nil {
		return "", err
	}
	return FilterWords(result, c.minConfidence), nil
}

func (c *OCRServiceClient) recognize(ctx context.Context, image []byte, filename string) (*OCRResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build OCR request: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("failed to build OCR request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build OCR request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/recognize", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create OCR request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OCR request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("OCR service returned status %d: %s", resp.StatusCode, payload)
	}

	var result OCRResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode OCR response: %w", err)
	}

	return &result, nil
}

// FilterWords rebuilds the recognized text keeping only words at or
// above the confidence floor. When the service returned no per-word
// breakdown the full text passes through unchanged.
func FilterWords(result *OCRResult, minConfidence float64) string {
	if result == nil {
		return ""
	}
	if len(result.Words) == 0 {
		return result.Text
	}

	var b bytes.Buffer
	for _, w := range result.Words {
		if w.Confidence < minConfidence {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w.Text)
	}
	return b.String()
}
