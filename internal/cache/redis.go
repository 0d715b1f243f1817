// Package cache provides an optional Redis-backed cache for risk
// assessment results. Assessments are a pure function of the scanned
// text and the patient's variants, so identical inputs can safely be
// served from cache.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pharmaguard/pgx-risk-engine/internal/domain"
)

// AssessmentCache wraps a Redis client with get/set helpers keyed on
// assessment inputs.
type AssessmentCache struct {
	redis      *redis.Client
	defaultTTL time.Duration
}

// NewAssessmentCache connects to Redis and verifies the connection.
func NewAssessmentCache(config domain.CacheConfig) (*AssessmentCache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opts.PoolSize = config.PoolSize

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &AssessmentCache{
		redis:      client,
		defaultTTL: config.DefaultTTL,
	}, nil
}

type cachedAssessment struct {
	Data     domain.RiskAssessment `json:"data"`
	CachedAt time.Time             `json:"cached_at"`
}

// Get retrieves a cached assessment for the given inputs. The second
// return value reports whether the cache held one.
func (c *AssessmentCache) Get(ctx context.Context, ocrText string, variants []domain.PatientVariant) (domain.RiskAssessment, bool, error) {
	key, err := assessmentKey(ocrText, variants)
	if err != nil {
		return domain.RiskAssessment{}, false, err
	}

	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return domain.RiskAssessment{}, false, nil
	}
	if err != nil {
		return domain.RiskAssessment{}, false, fmt.Errorf("failed to get assessment cache: %w", err)
	}

	var cached cachedAssessment
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		// Remove the corrupted entry and treat as a miss.
		c.redis.Del(ctx, key)
		return domain.RiskAssessment{}, false, nil
	}

	return cached.Data, true, nil
}

// Set caches an assessment for the given inputs. The cached copy
// carries no ID or timestamp; the serving layer assigns fresh ones on
// every hit.
func (c *AssessmentCache) Set(ctx context.Context, ocrText string, variants []domain.PatientVariant, assessment domain.RiskAssessment) error {
	key, err := assessmentKey(ocrText, variants)
	if err != nil {
		return err
	}

	assessment.ID = ""
	assessment.Timestamp = time.Time{}

	cached := cachedAssessment{
		Data:     assessment,
		CachedAt: time.Now(),
	}
	jsonData, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal assessment cache data: %w", err)
	}

	return c.redis.Set(ctx, key, jsonData, c.defaultTTL).Err()
}

// Ping checks the Redis connection.
func (c *AssessmentCache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *AssessmentCache) Close() error {
	return c.redis.Close()
}

// assessmentKey hashes the assessment inputs into a stable cache key.
// Variants marshal deterministically since struct field order is
// fixed.
func assessmentKey(ocrText string, variants []domain.PatientVariant) (string, error) {
	payload, err := json.Marshal(struct {
		Text     string                  `json:"text"`
		Variants []domain.PatientVariant `json:"variants"`
	}{Text: ocrText, Variants: variants})
	if err != nil {
		return "", fmt.Errorf("failed to build cache key: %w", err)
	}

	hash := sha256.Sum256(payload)
	return fmt.Sprintf("assessment:%x", hash[:16]), nil
}
