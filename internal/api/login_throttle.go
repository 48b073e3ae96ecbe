package api

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"careercraft/internal/apperr"
	"careercraft/internal/metrics"
)

// 锁定标记与失败计数使用不同前缀，任何标识都无法读到另一个标识的计数。
const (
	lockKeyPrefix    = "login:lock:"
	failureKeyPrefix = "login:fail:"
)

type redisCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// LoginThrottle 基于 Redis 计数限制登录频率：每 IP+标识每小时限次，连续失败达到阈值后锁定标识。
// Redis 不可用时放行。
type LoginThrottle struct {
	redis         redisCounter
	limitPerHour  int
	lockThreshold int
	lockTTL       time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

func NewLoginThrottle(client redisCounter, limitPerHour, lockThreshold int, lockTTL time.Duration, logger *slog.Logger) *LoginThrottle {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoginThrottle{
		redis:         client,
		limitPerHour:  limitPerHour,
		lockThreshold: lockThreshold,
		lockTTL:       lockTTL,
		logger:        logger,
		now:           time.Now,
	}
}

func incrWithTTL(ctx context.Context, client redisCounter, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = client.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// Allow 在尝试登录前检查频率与锁定状态。
func (t *LoginThrottle) Allow(ctx context.Context, ip, identifier string) error {
	id := normalizeIdentifier(identifier)

	if t.limitPerHour > 0 {
		rateKey := "rate:login:" + ip + ":" + id + ":" + t.now().UTC().Format("2006010215")
		count, err := incrWithTTL(ctx, t.redis, rateKey, time.Hour)
		if err != nil {
			t.logger.WarnContext(ctx, "login rate counter unavailable", slog.Any("error", err))
		} else if count > int64(t.limitPerHour) {
			metrics.ObserveLoginThrottled("rate")
			return apperr.RateLimited("too many login attempts, try again later")
		}
	}

	if ttl, err := t.redis.TTL(ctx, lockKeyPrefix+id).Result(); err == nil && ttl > 0 {
		metrics.ObserveLoginThrottled("locked")
		return apperr.RateLimited("account temporarily locked, try again later")
	}
	return nil
}

// RecordFailure 累计失败次数，达到阈值时锁定该标识。
func (t *LoginThrottle) RecordFailure(ctx context.Context, identifier string) {
	if t.lockThreshold <= 0 {
		return
	}
	id := normalizeIdentifier(identifier)
	count, err := incrWithTTL(ctx, t.redis, failureKeyPrefix+id, t.lockTTL)
	if err != nil {
		t.logger.WarnContext(ctx, "login failure counter unavailable", slog.Any("error", err))
		return
	}
	if count >= int64(t.lockThreshold) {
		_ = t.redis.Set(ctx, lockKeyPrefix+id, "1", t.lockTTL).Err()
	}
}

// Reset 登录成功后清理失败计数。
func (t *LoginThrottle) Reset(ctx context.Context, identifier string) {
	_ = t.redis.Del(ctx, failureKeyPrefix+normalizeIdentifier(identifier)).Err()
}
