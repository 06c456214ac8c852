package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"segmentation_service/internal/models"
)

// ErrCacheMiss is returned when a key is not cached; callers fall through
// to the CMS.
var ErrCacheMiss = errors.New("cache miss")

type Client struct {
	rdb *redis.Client
}

func Initialize(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Test connection
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

const distributionKey = "segments:distribution"

// Segment distribution report cache

func (c *Client) SetDistribution(dist map[models.Segment]int, ttl time.Duration) error {
	ctx := context.Background()
	jsonData, err := json.Marshal(dist)
	if err != nil {
		return fmt.Errorf("failed to marshal distribution: %w", err)
	}
	return c.rdb.Set(ctx, distributionKey, jsonData, ttl).Err()
}

func (c *Client) GetDistribution() (map[models.Segment]int, error) {
	ctx := context.Background()
	val, err := c.rdb.Get(ctx, distributionKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get distribution: %w", err)
	}

	var dist map[models.Segment]int
	if err := json.Unmarshal([]byte(val), &dist); err != nil {
		return nil, fmt.Errorf("failed to unmarshal distribution: %w", err)
	}
	return dist, nil
}

func (c *Client) InvalidateDistribution() error {
	ctx := context.Background()
	return c.rdb.Del(ctx, distributionKey).Err()
}

// Per-customer stored segment cache

func segmentKey(customerID string) string {
	return "segment:" + customerID
}

func (c *Client) SetCustomerSegment(customerID string, status *models.SegmentStatus, ttl time.Duration) error {
	ctx := context.Background()
	jsonData, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal segment status: %w", err)
	}
	return c.rdb.Set(ctx, segmentKey(customerID), jsonData, ttl).Err()
}

func (c *Client) GetCustomerSegment(customerID string) (*models.SegmentStatus, error) {
	ctx := context.Background()
	val, err := c.rdb.Get(ctx, segmentKey(customerID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get segment status: %w", err)
	}

	var status models.SegmentStatus
	if err := json.Unmarshal([]byte(val), &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal segment status: %w", err)
	}
	return &status, nil
}

func (c *Client) InvalidateCustomerSegment(customerID string) error {
	ctx := context.Background()
	return c.rdb.Del(ctx, segmentKey(customerID)).Err()
}

// Close Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
