package statistics

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/zyvarin/zyvarin-social/app/models"
	"github.com/zyvarin/zyvarin-social/internal/pkg/cache"
	"github.com/zyvarin/zyvarin-social/internal/pkg/database"
)

const (
	cacheKeyUserSummary = "statistics:user:%d:monthly" // Format with user ID
	cacheExpiration     = 10 * time.Minute
)

// MonthlySummary is the per-user analytics snapshot for the current
// calendar month.
type MonthlySummary struct {
	PostsCreated       int64     `json:"posts_created"`
	PostsPublished     int64     `json:"posts_published"`
	PostsScheduled     int64     `json:"posts_scheduled"`
	AIGenerationsUsed  int64     `json:"ai_generations_used"`
	ConnectedPlatforms int64     `json:"connected_platforms"`
	MonthStart         time.Time `json:"month_start"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// GetMonthlySummary returns the user's analytics summary, served from the
// Redis cache when fresh.
func GetMonthlySummary(userID uint) (*MonthlySummary, error) {
	key := fmt.Sprintf(cacheKeyUserSummary, userID)
	if raw, err := cache.Get(key); err == nil && raw != "" {
		var cached MonthlySummary
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return &cached, nil
		}
	}

	summary, err := computeMonthlySummary(userID)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(summary); err == nil {
		if err := cache.Set(key, string(encoded), cacheExpiration); err != nil {
			log.Printf("Error caching analytics summary for user %d: %v", userID, err)
		}
	}
	return summary, nil
}

// InvalidateUserSummary drops the cached summary so the next read recomputes.
func InvalidateUserSummary(userID uint) {
	if err := cache.Delete(fmt.Sprintf(cacheKeyUserSummary, userID)); err != nil {
		log.Printf("Error invalidating analytics cache for user %d: %v", userID, err)
	}
}

func computeMonthlySummary(userID uint) (*MonthlySummary, error) {
	db := database.GetDB()
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	summary := &MonthlySummary{MonthStart: monthStart, GeneratedAt: now}

	if err := db.Model(&models.Post{}).
		Where("user_id = ? AND created_at >= ?", userID, monthStart).
		Count(&summary.PostsCreated).Error; err != nil {
		log.Printf("Error counting posts for user %d: %v", userID, err)
		return nil, err
	}

	if err := db.Model(&models.Post{}).
		Where("user_id = ? AND status = ? AND published_at >= ?", userID, models.PostStatusPublished, monthStart).
		Count(&summary.PostsPublished).Error; err != nil {
		log.Printf("Error counting published posts for user %d: %v", userID, err)
		return nil, err
	}

	if err := db.Model(&models.Post{}).
		Where("user_id = ? AND status = ?", userID, models.PostStatusScheduled).
		Count(&summary.PostsScheduled).Error; err != nil {
		log.Printf("Error counting scheduled posts for user %d: %v", userID, err)
		return nil, err
	}

	if err := db.Model(&models.UsageRecord{}).
		Where("user_id = ? AND kind = ? AND created_at >= ?", userID, models.UsageKindAIGeneration, monthStart).
		Count(&summary.AIGenerationsUsed).Error; err != nil {
		log.Printf("Error counting AI usage for user %d: %v", userID, err)
		return nil, err
	}

	if err := db.Model(&models.ConnectedPlatform{}).
		Where("user_id = ? AND connected = ?", userID, true).
		Count(&summary.ConnectedPlatforms).Error; err != nil {
		log.Printf("Error counting connected platforms for user %d: %v", userID, err)
		return nil, err
	}

	return summary, nil
}
