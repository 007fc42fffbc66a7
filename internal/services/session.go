package services

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"time"
)

const sessionTTL = 30 * time.Minute

type SessionService interface {
	Touch(ctx context.Context, siteID uuid.UUID, sessionID, kind string) error
	ActiveSessions(ctx context.Context, siteID uuid.UUID) (int64, error)
}

// sessionService keeps live visitor sessions in Redis hashes. A session
// expires 30 minutes after its last page view or event, matching the usual
// web-analytics session window.
type sessionService struct {
	rdb *goredis.Client
	log *logger.Logger
}

func NewSessionService(rdb *goredis.Client, log *logger.Logger) SessionService {
	return &sessionService{
		rdb: rdb,
		log: log.With("service", "SessionService"),
	}
}

func sessionKey(siteID uuid.UUID, sessionID string) string {
	return fmt.Sprintf("session:%s:%s", siteID.String(), sessionID)
}

func (s *sessionService) Touch(ctx context.Context, siteID uuid.UUID, sessionID, kind string) error {
	if s.rdb == nil || sessionID == "" {
		return nil
	}
	key := sessionKey(siteID, sessionID)
	field := "events"
	if kind == "page_view" {
		field = "page_views"
	}
	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, key, field, 1)
	pipe.HSet(ctx, key, "last_seen", time.Now().Unix())
	pipe.Expire(ctx, key, sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn("Failed to touch session", "session_id", sessionID, "error", err)
		return err
	}
	return nil
}

// ActiveSessions counts live session keys for a site. SCAN keeps this off
// the blocking KEYS path; sites have at most a few thousand live sessions.
func (s *sessionService) ActiveSessions(ctx context.Context, siteID uuid.UUID) (int64, error) {
	if s.rdb == nil {
		return 0, nil
	}
	var count int64
	var cursor uint64
	pattern := fmt.Sprintf("session:%s:*", siteID.String())
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, pattern, 500).Result()
		if err != nil {
			return 0, err
		}
		count += int64(len(keys))
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return count, nil
}
