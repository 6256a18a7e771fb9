package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tle_judge/internal/domain/model"
)

// LanguageSource lists the languages the execution service can run.
type LanguageSource interface {
	Languages(ctx context.Context) ([]model.Language, error)
}

// LanguageService serves the language registry from a redis cache.
type LanguageService struct {
	source LanguageSource
	rdb    *redis.Client
	key    string
	ttl    time.Duration
	log    *zap.Logger
}

func NewLanguageService(source LanguageSource, rdb *redis.Client, key string, ttl time.Duration, log *zap.Logger) *LanguageService {
	return &LanguageService{source: source, rdb: rdb, key: key, ttl: ttl, log: log.Named("languages")}
}

// ListLanguages never fails: when the execution service is unreachable it
// returns an empty list.
func (s *LanguageService) ListLanguages(ctx context.Context) []model.Language {
	cached, err := s.rdb.Get(ctx, s.key).Bytes()
	if err == nil {
		var langs []model.Language
		if err := json.Unmarshal(cached, &langs); err == nil {
			return langs
		}
		s.log.Warn("discarding unreadable language cache", zap.String("key", s.key))
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn("language cache read failed", zap.Error(err))
	}

	langs, err := s.source.Languages(ctx)
	if err != nil {
		s.log.Error("failed to fetch languages", zap.Error(err))
		return []model.Language{}
	}

	if payload, err := json.Marshal(langs); err == nil {
		if err := s.rdb.Set(ctx, s.key, payload, s.ttl).Err(); err != nil {
			s.log.Warn("language cache write failed", zap.Error(err))
		}
	}
	return langs
}
