package models

import "time"

// Supported social platform providers.
const (
	PlatformLinkedIn  = "linkedin"
	PlatformTwitter   = "twitter"
	PlatformDevTo     = "devto"
	PlatformPinterest = "pinterest"
)

// ConnectedPlatform records a user's link to one social provider. Disconnects
// flip Connected to false instead of deleting the row so the connection
// history stays auditable.
type ConnectedPlatform struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"not null;index:ux_connected_platforms_user_provider,unique,priority:1" json:"user_id"`
	Provider       string     `gorm:"type:varchar(32);not null;index:ux_connected_platforms_user_provider,unique,priority:2" json:"provider"`
	Connected      bool       `gorm:"default:true;index" json:"connected"`
	ConnectedAt    *time.Time `gorm:"type:timestamp;default:null" json:"connected_at,omitempty"`
	DisconnectedAt *time.Time `gorm:"type:timestamp;default:null" json:"disconnected_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsKnownProvider reports whether the provider is one we can publish to.
func IsKnownProvider(provider string) bool {
	switch provider {
	case PlatformLinkedIn, PlatformTwitter, PlatformDevTo, PlatformPinterest:
		return true
	default:
		return false
	}
}
