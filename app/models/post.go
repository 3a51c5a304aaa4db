package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Post lifecycle states.
const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
)

// Post is one composed piece of content, optionally scheduled for later
// publication to one or more connected platforms.
type Post struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	Content      string         `gorm:"type:text" json:"content" validate:"required,max=5000"`
	Platforms    string         `gorm:"type:varchar(191);default:''" json:"platforms"`
	Status       string         `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	ScheduledFor *time.Time     `gorm:"type:timestamp;default:null;index" json:"scheduled_for,omitempty"`
	PublishedAt  *time.Time     `gorm:"type:timestamp;default:null" json:"published_at,omitempty"`
	CreatedAt    time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// PlatformList splits the stored comma list into provider names.
func (p *Post) PlatformList() []string {
	if strings.TrimSpace(p.Platforms) == "" {
		return nil
	}
	parts := strings.Split(p.Platforms, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// SetPlatformList stores provider names as a comma list.
func (p *Post) SetPlatformList(providers []string) {
	cleaned := make([]string, 0, len(providers))
	for _, provider := range providers {
		if v := strings.TrimSpace(provider); v != "" {
			cleaned = append(cleaned, v)
		}
	}
	p.Platforms = strings.Join(cleaned, ",")
}

// MarkPublished flips the post to published with the given timestamp.
func (p *Post) MarkPublished(at time.Time) {
	p.Status = PostStatusPublished
	p.PublishedAt = &at
}
