package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tsf-arena-backend/internal/config"
	"tsf-arena-backend/internal/models"
)

// RedisService holds the ephemeral side of the platform: live mines
// sessions, completed-game indexes and per-user rate limiting. Durable money
// state never lives here.
type RedisService struct {
	client *redis.Client
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisService{client: client}, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

func (s *RedisService) SaveMinesSession(ctx context.Context, session *models.MinesSession) error {
	key := fmt.Sprintf(KeyMinesSession, session.ID)

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal mines session: %w", err)
	}
	if err := s.client.Set(ctx, key, data, TTLMinesSession).Err(); err != nil {
		return fmt.Errorf("save mines session: %w", err)
	}

	activeKey := fmt.Sprintf(KeyUserActiveSessions, session.UserID)
	if err := s.client.SAdd(ctx, activeKey, session.ID).Err(); err != nil {
		return fmt.Errorf("index mines session: %w", err)
	}
	s.client.Expire(ctx, activeKey, TTLMinesSession)

	return nil
}

func (s *RedisService) GetMinesSession(ctx context.Context, sessionID string) (*models.MinesSession, error) {
	data, err := s.client.Get(ctx, fmt.Sprintf(KeyMinesSession, sessionID)).Result()
	if err == redis.Nil {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get mines session: %w", err)
	}

	var session models.MinesSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("unmarshal mines session: %w", err)
	}
	return &session, nil
}

func (s *RedisService) UpdateMinesSession(ctx context.Context, session *models.MinesSession) error {
	session.UpdatedAt = time.Now()

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal mines session: %w", err)
	}
	return s.client.Set(ctx, fmt.Sprintf(KeyMinesSession, session.ID), data, TTLMinesSession).Err()
}

// CompleteMinesSession moves a finished session from the active set to the
// bounded completed-games index.
func (s *RedisService) CompleteMinesSession(ctx context.Context, userID int64, sessionID string) error {
	activeKey := fmt.Sprintf(KeyUserActiveSessions, userID)
	if err := s.client.SRem(ctx, activeKey, sessionID).Err(); err != nil {
		return fmt.Errorf("remove active session: %w", err)
	}

	completedKey := fmt.Sprintf(KeyUserCompletedGames, userID)
	if err := s.client.ZAdd(ctx, completedKey, redis.Z{
		Score:  float64(time.Now().Unix()),
		Member: sessionID,
	}).Err(); err != nil {
		return fmt.Errorf("index completed session: %w", err)
	}

	// Keep only the last 100 completed games per user.
	s.client.ZRemRangeByRank(ctx, completedKey, 0, -101)

	return nil
}

func (s *RedisService) UserActiveMinesSessions(ctx context.Context, userID int64) ([]*models.MinesSession, error) {
	ids, err := s.client.SMembers(ctx, fmt.Sprintf(KeyUserActiveSessions, userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("active sessions: %w", err)
	}

	var sessions []*models.MinesSession
	for _, id := range ids {
		session, err := s.GetMinesSession(ctx, id)
		if err != nil {
			continue
		}
		if session.Status == models.SessionStatusActive {
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}

// CheckRateLimit counts an action against a per-user sliding window.
func (s *RedisService) CheckRateLimit(ctx context.Context, userID int64, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, userID, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit: %w", err)
	}
	if count == 1 {
		s.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}
