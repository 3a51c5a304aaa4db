package usage

import (
	"errors"
	"testing"
	"time"

	"github.com/zyvarin/zyvarin-social/app/models"
	"gorm.io/gorm"
)

type fakeRepo struct {
	plans     map[uint]string
	records   []models.UsageRecord
	platforms map[uint]int64

	countErr  error
	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		plans:     make(map[uint]string),
		platforms: make(map[uint]int64),
	}
}

func (f *fakeRepo) GetUserPlan(userID uint) (string, error) {
	plan, ok := f.plans[userID]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return plan, nil
}

func (f *fakeRepo) CountUsageSince(userID uint, kind string, since time.Time) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	var count int64
	for _, rec := range f.records {
		if rec.UserID == userID && rec.Kind == kind && !rec.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) CreateUsageRecord(record *models.UsageRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeRepo) CountConnectedPlatforms(userID uint) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.platforms[userID], nil
}

func newTestLimiter(repo Repository, now time.Time) *Limiter {
	l := NewLimiter(repo)
	l.now = func() time.Time { return now }
	return l
}

func TestGetCurrentMonthUsageCountsOnlyThisMonth(t *testing.T) {
	repo := newFakeRepo()
	repo.plans[1] = "FREE"
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)

	// Three events this month, two from July.
	for i := 0; i < 3; i++ {
		repo.records = append(repo.records, models.UsageRecord{
			UserID: 1, Kind: models.UsageKindAIGeneration,
			CreatedAt: now.AddDate(0, 0, -i),
		})
	}
	repo.records = append(repo.records, models.UsageRecord{
		UserID: 1, Kind: models.UsageKindAIGeneration,
		CreatedAt: time.Date(2026, 7, 31, 23, 59, 59, 0, time.UTC),
	})
	repo.records = append(repo.records, models.UsageRecord{
		UserID: 1, Kind: models.UsageKindAIGeneration,
		CreatedAt: time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC),
	})

	l := newTestLimiter(repo, now)
	if got := l.GetCurrentMonthUsage(1, models.UsageKindAIGeneration); got != 3 {
		t.Fatalf("GetCurrentMonthUsage = %d, want 3", got)
	}
}

func TestGetRemainingNeverNegative(t *testing.T) {
	repo := newFakeRepo()
	repo.plans[1] = "FREE"
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)

	// Record far more usage than the FREE post limit allows.
	for i := 0; i < 40; i++ {
		repo.records = append(repo.records, models.UsageRecord{
			UserID: 1, Kind: models.UsageKindPost, CreatedAt: now,
		})
	}

	l := newTestLimiter(repo, now)
	if got := l.GetRemaining(1, models.UsageKindPost); got != 0 {
		t.Fatalf("GetRemaining = %d, want 0", got)
	}
	if l.CanUse(1, models.UsageKindPost) {
		t.Fatalf("expected CanUse to be false over the limit")
	}
}

func TestFreePlanExhaustedAIGenerations(t *testing.T) {
	repo := newFakeRepo()
	repo.plans[1] = "FREE"
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	// FREE allows 15 AI generations per month.
	for i := 0; i < 15; i++ {
		repo.records = append(repo.records, models.UsageRecord{
			UserID: 1, Kind: models.UsageKindAIGeneration, CreatedAt: now,
		})
	}

	l := newTestLimiter(repo, now)
	if l.CanUse(1, models.UsageKindAIGeneration) {
		t.Fatalf("expected CanUse to be false after 15 AI generations on FREE")
	}
	if got := l.GetRemaining(1, models.UsageKindAIGeneration); got != 0 {
		t.Fatalf("GetRemaining = %d, want 0", got)
	}
}

func TestUnknownUserFailsClosed(t *testing.T) {
	repo := newFakeRepo()
	l := newTestLimiter(repo, time.Now())

	if got := l.GetRemaining(99, models.UsageKindAIGeneration); got != 0 {
		t.Fatalf("GetRemaining for missing user = %d, want 0", got)
	}
	if l.CanUse(99, models.UsageKindAIGeneration) {
		t.Fatalf("expected CanUse to be false for missing user")
	}
	info := l.GetPlatformConnectionInfo(99)
	if info.CanConnectMore || !info.HasReachedLimit {
		t.Fatalf("expected platform info to fail closed, got %+v", info)
	}
}

func TestRepositoryErrorFailsClosed(t *testing.T) {
	repo := newFakeRepo()
	repo.plans[1] = "PREMIUM"
	repo.countErr = errors.New("db down")

	l := newTestLimiter(repo, time.Now())
	if got := l.GetRemaining(1, models.UsageKindPost); got != 0 {
		t.Fatalf("GetRemaining under repo error = %d, want 0", got)
	}
	if l.CanUse(1, models.UsageKindPost) {
		t.Fatalf("expected CanUse to be false under repo error")
	}
}

func TestGetUsageProgress(t *testing.T) {
	repo := newFakeRepo()
	repo.plans[1] = "CREATOR"
	now := time.Date(2026, 8, 10, 8, 0, 0, 0, time.UTC)

	// 25 of 100 AI generations used.
	for i := 0; i < 25; i++ {
		repo.records = append(repo.records, models.UsageRecord{
			UserID: 1, Kind: models.UsageKindAIGeneration, CreatedAt: now,
		})
	}

	l := newTestLimiter(repo, now)
	got := l.GetUsageProgress(1, models.UsageKindAIGeneration)
	if got.Used != 25 || got.Total != 100 || got.Percentage != 25 {
		t.Fatalf("GetUsageProgress = %+v, want used=25 total=100 percentage=25", got)
	}

	// Unknown kind has a zero limit, so percentage stays zero.
	zero := l.GetUsageProgress(1, "frobnicate")
	if zero.Total != 0 || zero.Percentage != 0 {
		t.Fatalf("unexpected progress for unknown kind: %+v", zero)
	}
}

func TestGetPlatformConnectionInfo(t *testing.T) {
	repo := newFakeRepo()
	repo.plans[1] = "FREE"
	repo.platforms[1] = 2 // FREE allows 2 platforms

	l := newTestLimiter(repo, time.Now())
	info := l.GetPlatformConnectionInfo(1)
	if info.CanConnectMore {
		t.Fatalf("expected no more connections at the limit, got %+v", info)
	}
	if !info.HasReachedLimit || info.Remaining != 0 || info.ConnectedCount != 2 || info.MaxAllowed != 2 {
		t.Fatalf("unexpected platform info: %+v", info)
	}

	repo.platforms[1] = 1
	info = l.GetPlatformConnectionInfo(1)
	if !info.CanConnectMore || info.Remaining != 1 {
		t.Fatalf("expected one remaining connection, got %+v", info)
	}
}

func TestRecordUsage(t *testing.T) {
	repo := newFakeRepo()
	repo.plans[1] = "FREE"
	now := time.Date(2026, 8, 5, 9, 0, 0, 0, time.UTC)
	l := newTestLimiter(repo, now)

	for i := 0; i < 4; i++ {
		if err := l.RecordUsage(1, models.UsageKindPost); err != nil {
			t.Fatalf("unexpected RecordUsage error: %v", err)
		}
	}
	if got := l.GetCurrentMonthUsage(1, models.UsageKindPost); got != 4 {
		t.Fatalf("GetCurrentMonthUsage after 4 records = %d, want 4", got)
	}

	if err := l.RecordUsage(1, "frobnicate"); err == nil {
		t.Fatalf("expected error for unknown usage kind")
	}
	if err := l.RecordUsage(0, models.UsageKindPost); err == nil {
		t.Fatalf("expected error for missing user id")
	}
}
