package usage

import (
	"errors"
	"time"

	"github.com/zyvarin/zyvarin-social/app/models"
	"github.com/zyvarin/zyvarin-social/internal/pkg/entitlements"
	"gorm.io/gorm"
)

// Limiter answers plan-limit questions for a user. All read paths fail
// closed: any repository error or missing user yields remaining=0 and
// CanUse=false, because callers sit on request-serving paths where denying
// the action is the safe default.
//
// Usage is derived by counting append-only records, so two concurrent callers
// can both pass CanUse before either records its unit. Limits here are
// advisory guardrails against runaway usage, not hard billing enforcement;
// slight overshoot under concurrent load is accepted.
type Limiter struct {
	repo Repository
	now  func() time.Time
}

// Progress is the UI-facing usage summary for one kind.
type Progress struct {
	Used       int `json:"used"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// PlatformConnectionInfo summarizes a user's platform-connection allowance.
type PlatformConnectionInfo struct {
	CanConnectMore  bool `json:"can_connect_more"`
	ConnectedCount  int  `json:"connected_count"`
	MaxAllowed      int  `json:"max_allowed"`
	Remaining       int  `json:"remaining"`
	HasReachedLimit bool `json:"has_reached_limit"`
}

// NewLimiter creates a usage limiter from an injected repository.
func NewLimiter(repo Repository) *Limiter {
	return &Limiter{repo: repo, now: time.Now}
}

// NewLimiterFromDB creates a usage limiter from a GORM DB handle.
func NewLimiterFromDB(db *gorm.DB) *Limiter {
	return NewLimiter(NewRepository(db))
}

// startOfMonth returns midnight on the 1st of t's calendar month. Allowances
// reset on the 1st regardless of signup date.
func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func limitForKind(limits entitlements.Limits, kind string) int {
	switch kind {
	case models.UsageKindAIGeneration:
		return limits.AIGenerations
	case models.UsageKindPost:
		return limits.Posts
	default:
		return 0
	}
}

// GetCurrentMonthUsage counts usage records for the user and kind since the
// start of the current calendar month. Errors count as zero.
func (l *Limiter) GetCurrentMonthUsage(userID uint, kind string) int {
	used, err := l.repo.CountUsageSince(userID, kind, startOfMonth(l.now()))
	if err != nil {
		return 0
	}
	return int(used)
}

// GetRemaining returns how many units of the kind the user may still use this
// month. Never negative.
func (l *Limiter) GetRemaining(userID uint, kind string) int {
	plan, err := l.repo.GetUserPlan(userID)
	if err != nil {
		return 0
	}
	limit := limitForKind(entitlements.GetPlanLimits(plan), kind)

	used, err := l.repo.CountUsageSince(userID, kind, startOfMonth(l.now()))
	if err != nil {
		return 0
	}

	remaining := limit - int(used)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CanUse reports whether the user has at least one unit of the kind left.
func (l *Limiter) CanUse(userID uint, kind string) bool {
	return l.GetRemaining(userID, kind) > 0
}

// GetUsageProgress returns used/total/percentage for display purposes. It is
// never used as a gating decision.
func (l *Limiter) GetUsageProgress(userID uint, kind string) Progress {
	plan, err := l.repo.GetUserPlan(userID)
	if err != nil {
		return Progress{}
	}
	total := limitForKind(entitlements.GetPlanLimits(plan), kind)

	used, err := l.repo.CountUsageSince(userID, kind, startOfMonth(l.now()))
	if err != nil {
		return Progress{Total: total}
	}

	percentage := 0
	if total > 0 {
		percentage = (int(used)*100 + total/2) / total
	}
	return Progress{Used: int(used), Total: total, Percentage: percentage}
}

// GetPlatformConnectionInfo compares the live count of connected platforms
// against the plan's platform limit.
func (l *Limiter) GetPlatformConnectionInfo(userID uint) PlatformConnectionInfo {
	closed := PlatformConnectionInfo{HasReachedLimit: true}

	plan, err := l.repo.GetUserPlan(userID)
	if err != nil {
		return closed
	}
	maxAllowed := entitlements.GetPlanLimits(plan).Platforms

	connected, err := l.repo.CountConnectedPlatforms(userID)
	if err != nil {
		closed.MaxAllowed = maxAllowed
		return closed
	}

	remaining := maxAllowed - int(connected)
	if remaining < 0 {
		remaining = 0
	}
	return PlatformConnectionInfo{
		CanConnectMore:  remaining > 0,
		ConnectedCount:  int(connected),
		MaxAllowed:      maxAllowed,
		Remaining:       remaining,
		HasReachedLimit: remaining == 0,
	}
}

// RecordUsage appends one usage event. Callers invoke this after the gated
// action succeeded; eligibility checks never record on their own, so repeated
// CanUse calls cannot double-count.
func (l *Limiter) RecordUsage(userID uint, kind string) error {
	if userID == 0 {
		return errors.New("user_id is required")
	}
	if !models.IsKnownUsageKind(kind) {
		return errors.New("unknown usage kind: " + kind)
	}
	return l.repo.CreateUsageRecord(&models.UsageRecord{UserID: userID, Kind: kind})
}
