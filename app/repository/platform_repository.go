package repository

import (
	"time"

	"github.com/zyvarin/zyvarin-social/app/models"
	"gorm.io/gorm"
)

// platformRepository implements the PlatformRepository interface
type platformRepository struct {
	db *gorm.DB
}

// NewPlatformRepository creates a new platform repository instance
func NewPlatformRepository(db *gorm.DB) PlatformRepository {
	return &platformRepository{db: db}
}

// GetByUserAndProvider retrieves one user/provider connection row
func (r *platformRepository) GetByUserAndProvider(userID uint, provider string) (*models.ConnectedPlatform, error) {
	var platform models.ConnectedPlatform
	err := r.db.Where("user_id = ? AND provider = ?", userID, provider).First(&platform).Error
	if err != nil {
		return nil, err
	}
	return &platform, nil
}

// ListByUser returns all connection rows for a user, connected or not
func (r *platformRepository) ListByUser(userID uint) ([]models.ConnectedPlatform, error) {
	var platforms []models.ConnectedPlatform
	err := r.db.Where("user_id = ?", userID).Order("provider ASC").Find(&platforms).Error
	return platforms, err
}

// CountConnected returns the live count of connected platforms
func (r *platformRepository) CountConnected(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ConnectedPlatform{}).
		Where("user_id = ? AND connected = ?", userID, true).
		Count(&count).Error
	return count, err
}

// Connect creates the connection row or reconnects an existing one. Rows are
// never deleted, so a reconnect flips the existing row back on.
func (r *platformRepository) Connect(userID uint, provider string) (*models.ConnectedPlatform, error) {
	now := time.Now()

	existing, err := r.GetByUserAndProvider(userID, provider)
	if err == nil {
		existing.Connected = true
		existing.ConnectedAt = &now
		existing.DisconnectedAt = nil
		if err := r.db.Save(existing).Error; err != nil {
			return nil, err
		}
		return existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	platform := &models.ConnectedPlatform{
		UserID:      userID,
		Provider:    provider,
		Connected:   true,
		ConnectedAt: &now,
	}
	if err := r.db.Create(platform).Error; err != nil {
		return nil, err
	}
	return platform, nil
}

// Disconnect flips the connection off without deleting the row
func (r *platformRepository) Disconnect(userID uint, provider string) error {
	now := time.Now()
	return r.db.Model(&models.ConnectedPlatform{}).
		Where("user_id = ? AND provider = ? AND connected = ?", userID, provider, true).
		Updates(map[string]interface{}{
			"connected":       false,
			"disconnected_at": now,
		}).Error
}
