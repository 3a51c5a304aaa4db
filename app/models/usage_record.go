package models

import "time"

// Usage kinds recorded per billable action.
const (
	UsageKindAIGeneration = "ai_generation"
	UsageKindPost         = "post"
)

// UsageRecord is an append-only log entry for one billable action. Rows are
// never updated or deleted; monthly usage is always derived by counting rows
// since the start of the calendar month.
type UsageRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_usage_records_user_kind_created,priority:1" json:"user_id"`
	Kind      string    `gorm:"type:varchar(32);not null;index:idx_usage_records_user_kind_created,priority:2" json:"kind"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_usage_records_user_kind_created,priority:3" json:"created_at"`
}

// IsKnownUsageKind reports whether the kind is one the limiter meters.
func IsKnownUsageKind(kind string) bool {
	switch kind {
	case UsageKindAIGeneration, UsageKindPost:
		return true
	default:
		return false
	}
}
