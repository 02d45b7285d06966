package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanGuardPrefix = "attendance:scan:"

// ScanGuardRepository debounces repeated QR scans of the same account using
// Redis keys that expire after the debounce window.
type ScanGuardRepository struct {
	client *redis.Client
}

// NewScanGuardRepository constructs the guard. A nil client disables debouncing.
func NewScanGuardRepository(client *redis.Client) *ScanGuardRepository {
	return &ScanGuardRepository{client: client}
}

// Acquire reports whether a scan for accountID may proceed. It returns false
// while a previous scan is still inside window.
func (r *ScanGuardRepository) Acquire(ctx context.Context, accountID string, window time.Duration) (bool, error) {
	if r == nil || r.client == nil || window <= 0 {
		return true, nil
	}
	key := scanGuardPrefix + accountID
	ok, err := r.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), window).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return ok, nil
}

// Release drops the debounce key so a failed scan can be retried at once.
func (r *ScanGuardRepository) Release(ctx context.Context, accountID string) error {
	if r == nil || r.client == nil {
		return nil
	}
	key := scanGuardPrefix + accountID
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}
