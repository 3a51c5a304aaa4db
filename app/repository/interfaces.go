package repository

import (
	"github.com/zyvarin/zyvarin-social/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	Count() (int64, error)
}

// PostRepository defines the interface for post-related database operations
type PostRepository interface {
	Create(post *models.Post) error
	GetByID(id uint) (*models.Post, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Post, error)
	Update(post *models.Post) error
	Delete(id uint) error
	CountByUserID(userID uint) (int64, error)
}

// PlatformRepository defines the interface for connected-platform operations
type PlatformRepository interface {
	GetByUserAndProvider(userID uint, provider string) (*models.ConnectedPlatform, error)
	ListByUser(userID uint) ([]models.ConnectedPlatform, error)
	CountConnected(userID uint) (int64, error)
	Connect(userID uint, provider string) (*models.ConnectedPlatform, error)
	Disconnect(userID uint, provider string) error
}

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	ListByUser(userID uint, limit int) ([]models.Notification, error)
	MarkRead(id uint, userID uint) error
}
