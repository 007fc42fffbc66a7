package services

import (
	"context"
	"fmt"
	goredis "github.com/redis/go-redis/v9"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"time"
)

type RateLimitService interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int64, error)
}

type rateLimitService struct {
	rdb *goredis.Client
	log *logger.Logger
}

func NewRateLimitService(rdb *goredis.Client, log *logger.Logger) RateLimitService {
	return &rateLimitService{
		rdb: rdb,
		log: log.With("service", "RateLimitService"),
	}
}

// Allow implements a fixed-window counter. The first hit in a window sets
// the TTL; subsequent hits only increment. Redis being down fails open so
// an infra outage never blocks legitimate traffic.
func (s *rateLimitService) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int64, error) {
	if s.rdb == nil || limit <= 0 {
		return true, 0, nil
	}
	redisKey := fmt.Sprintf("ratelimit:%s", key)
	count, err := s.rdb.Incr(ctx, redisKey).Result()
	if err != nil {
		s.log.Warn("Rate limit check failed, allowing request", "key", key, "error", err)
		return true, 0, nil
	}
	if count == 1 {
		if expErr := s.rdb.Expire(ctx, redisKey, window).Err(); expErr != nil {
			s.log.Warn("Failed to set rate limit TTL", "key", key, "error", expErr)
		}
	}
	return count <= int64(limit), count, nil
}
