package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"meetgate/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "rate_limit:"

type Client struct {
	rdb *goredis.Client
	log *zap.Logger
	now func() time.Time
}

// NewClient connects to Redis and pings it
func NewClient(cfg *config.RedisConfig, log *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info("redis connected", zap.String("addr", cfg.Addr))
	return &Client{rdb: rdb, log: log, now: time.Now}, nil
}

// WithClock replaces the time source used to score hits
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

// Allow records a hit for key and reports whether the key stayed within limit
// hits over the sliding window
func (c *Client) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	if c.now != nil {
		now = c.now()
	}
	var card *goredis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(now.Add(-window).UnixMicro(), 10))
		pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now.UnixMicro()), Member: uuid.NewString()})
		card = pipe.ZCard(ctx, key)
		pipe.Expire(ctx, key, window)
		return nil
	})
	if err != nil {
		return false, err
	}
	return card.Val() <= int64(limit), nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Middleware limits requests per client IP and route. Without Redis, or when
// Redis fails, requests pass through.
func Middleware(rdb *Client, limit int, window time.Duration, onLimit gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || limit <= 0 {
			c.Next()
			return
		}

		key := keyPrefix + c.ClientIP() + ":" + c.FullPath()
		allowed, err := rdb.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			rdb.log.Warn("rate limit check failed, letting request through", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			onLimit(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
