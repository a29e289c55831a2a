package questions

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"time"

	"live-quiz-service/internal/models"
	"live-quiz-service/internal/repository"
	"live-quiz-service/pkg/cache"
)

const cacheTTL = 10 * time.Minute

// Bank hands out question lists for new games. Content is pre-authored
// and read-only; a session samples once at creation and never comes back.
// Category sets are cached in redis so a classroom of back-to-back games
// on the same category does not hammer postgres.
type Bank struct {
	repo        *repository.QuestionRepository
	redisClient *cache.RedisClient
}

func NewBank(repo *repository.QuestionRepository, redisClient *cache.RedisClient) *Bank {
	return &Bank{repo: repo, redisClient: redisClient}
}

// Sample returns count questions, randomly ordered. An empty category
// draws from the whole bank.
func (b *Bank) Sample(ctx context.Context, category string, count int) ([]models.Question, error) {
	if category == "" {
		return b.repo.GetRandomQuestions(ctx, count)
	}

	pool, err := b.categoryPool(ctx, category)
	if err != nil {
		return nil, err
	}
	if len(pool) < count {
		return nil, fmt.Errorf("category %q has only %d questions, %d requested", category, len(pool), count)
	}

	sampled := make([]models.Question, len(pool))
	copy(sampled, pool)
	rand.Shuffle(len(sampled), func(i, j int) {
		sampled[i], sampled[j] = sampled[j], sampled[i]
	})
	return sampled[:count], nil
}

func (b *Bank) categoryPool(ctx context.Context, category string) ([]models.Question, error) {
	key := fmt.Sprintf("questions:category:%s", category)

	if b.redisClient != nil {
		cached, err := b.redisClient.Get(ctx, key)
		if err == nil {
			var pool []models.Question
			if err := json.Unmarshal([]byte(cached), &pool); err == nil {
				return pool, nil
			}
			log.Printf("Failed to parse cached question pool for %s, refetching", category)
		}
	}

	// Pull a generous pool once and cache it; sampling happens in memory.
	pool, err := b.repo.GetQuestionsByCategory(ctx, category, 500)
	if err != nil {
		return nil, err
	}

	if b.redisClient != nil {
		if data, err := json.Marshal(pool); err == nil {
			if err := b.redisClient.Set(ctx, key, string(data), cacheTTL); err != nil {
				log.Printf("Failed to cache question pool for %s: %v", category, err)
			}
		}
	}
	return pool, nil
}
