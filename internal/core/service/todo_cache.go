package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"todolist/internal/core/model/response"
	"todolist/internal/core/port"
)

// todoListCache stores a user's listing under a generation token. Readers
// take the generation before reading the store and writers drop it after
// writing, so a listing read before a write lands under a key that no later
// reader looks up.
type todoListCache struct {
	cache  port.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

func todosGenerationKey(userID string) string {
	return "todos:gen:" + userID
}

func todosCacheKey(userID string, generation string) string {
	return "todos:user:" + userID + ":" + generation
}

func (tc todoListCache) enabled() bool {
	return tc.cache != nil && tc.ttl > 0
}

// generation returns the current generation of userID's listing, starting a
// new one when none is stored. An empty result disables caching for the call.
func (tc todoListCache) generation(ctx context.Context, userID string) string {
	if !tc.enabled() {
		return ""
	}

	raw, err := tc.cache.Get(ctx, todosGenerationKey(userID))

	if err == nil && len(raw) > 0 {
		return string(raw)
	}

	if err != nil && !errors.Is(err, port.ErrCacheMiss) {
		tc.logger.Warn("Todo cache generation read failed", zap.String("user_id", userID), zap.Error(err))
		return ""
	}

	generation := uuid.NewString()

	if err := tc.cache.Set(ctx, todosGenerationKey(userID), []byte(generation), tc.ttl); err != nil {
		tc.logger.Warn("Todo cache generation write failed", zap.String("user_id", userID), zap.Error(err))
		return ""
	}

	return generation
}

func (tc todoListCache) get(ctx context.Context, userID string, generation string) ([]response.TodoResponse, bool) {
	if generation == "" {
		return nil, false
	}

	raw, err := tc.cache.Get(ctx, todosCacheKey(userID, generation))

	if err != nil {
		if !errors.Is(err, port.ErrCacheMiss) {
			tc.logger.Warn("Todo cache read failed", zap.String("user_id", userID), zap.Error(err))
		}

		return nil, false
	}

	var todos []response.TodoResponse

	if err := json.Unmarshal(raw, &todos); err != nil {
		tc.logger.Warn("Discarding unreadable todo cache entry", zap.String("user_id", userID), zap.Error(err))
		return nil, false
	}

	return todos, true
}

func (tc todoListCache) put(ctx context.Context, userID string, generation string, todos []response.TodoResponse) {
	if generation == "" {
		return
	}

	raw, err := json.Marshal(todos)

	if err != nil {
		return
	}

	if err := tc.cache.Set(ctx, todosCacheKey(userID, generation), raw, tc.ttl); err != nil {
		tc.logger.Warn("Todo cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// invalidate drops the generation. Call it after the store write completes.
func (tc todoListCache) invalidate(ctx context.Context, userID string) {
	if tc.cache == nil {
		return
	}

	if err := tc.cache.Delete(ctx, todosGenerationKey(userID)); err != nil {
		tc.logger.Warn("Todo cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}
