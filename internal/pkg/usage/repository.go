package usage

import (
	"time"

	"github.com/zyvarin/zyvarin-social/app/models"
	"gorm.io/gorm"
)

// Repository provides DB operations used by the usage limiter.
type Repository interface {
	GetUserPlan(userID uint) (string, error)
	CountUsageSince(userID uint, kind string, since time.Time) (int64, error)
	CreateUsageRecord(record *models.UsageRecord) error
	CountConnectedPlatforms(userID uint) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a usage repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetUserPlan(userID uint) (string, error) {
	var user models.User
	if err := r.db.Select("id", "subscription_plan").First(&user, userID).Error; err != nil {
		return "", err
	}
	return user.SubscriptionPlan, nil
}

func (r *gormRepository) CountUsageSince(userID uint, kind string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.UsageRecord{}).
		Where("user_id = ? AND kind = ? AND created_at >= ?", userID, kind, since).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) CreateUsageRecord(record *models.UsageRecord) error {
	return r.db.Create(record).Error
}

func (r *gormRepository) CountConnectedPlatforms(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ConnectedPlatform{}).
		Where("user_id = ? AND connected = ?", userID, true).
		Count(&count).Error
	return count, err
}
