package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"pix-payment-service/internal/models"
)

// AuthorizationCacheInterface replays a prior authorization outcome to a
// caller retrying the same platform payment id.
type AuthorizationCacheInterface interface {
	Get(ctx context.Context, platformPaymentID string) (*models.PixPaymentResponse, error)
	Put(ctx context.Context, platformPaymentID string, outcome *models.PixPaymentResponse) error
}

// AuthorizationCache stores authorization outcomes in Redis with a TTL.
type AuthorizationCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Entry
}

var _ AuthorizationCacheInterface = (*AuthorizationCache)(nil)

// NewAuthorizationCache creates a new authorization replay cache.
func NewAuthorizationCache(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *AuthorizationCache {
	return &AuthorizationCache{
		client: client,
		ttl:    ttl,
		logger: logger.WithField("component", "repository.authorization_cache"),
	}
}

func authorizationKey(platformPaymentID string) string {
	return fmt.Sprintf("authorizations:%s", platformPaymentID)
}

// Get returns the cached outcome, or nil when none exists.
func (c *AuthorizationCache) Get(ctx context.Context, platformPaymentID string) (*models.PixPaymentResponse, error) {
	data, err := c.client.Get(ctx, authorizationKey(platformPaymentID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, &models.StorageError{Op: "get authorization outcome", Err: err}
	}

	var outcome models.PixPaymentResponse
	if err := json.Unmarshal(data, &outcome); err != nil {
		c.logger.WithError(err).WithField("paymentId", platformPaymentID).
			Warn("discarding corrupt cached authorization outcome")
		return nil, nil
	}
	return &outcome, nil
}

// Put stores the outcome for later replay.
func (c *AuthorizationCache) Put(ctx context.Context, platformPaymentID string, outcome *models.PixPaymentResponse) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to marshal authorization outcome: %w", err)
	}
	if err := c.client.Set(ctx, authorizationKey(platformPaymentID), data, c.ttl).Err(); err != nil {
		return &models.StorageError{Op: "put authorization outcome", Err: err}
	}
	return nil
}
