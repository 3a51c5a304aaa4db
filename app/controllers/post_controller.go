package controllers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zyvarin/zyvarin-social/app/models"
	"github.com/zyvarin/zyvarin-social/app/repository"
	"github.com/zyvarin/zyvarin-social/internal/pkg/database"
	"github.com/zyvarin/zyvarin-social/internal/pkg/entitlements"
	"github.com/zyvarin/zyvarin-social/internal/pkg/statistics"
	"github.com/zyvarin/zyvarin-social/internal/pkg/usage"
)

type createPostRequest struct {
	Content      string   `json:"content"`
	Platforms    []string `json:"platforms"`
	ScheduledFor string   `json:"scheduled_for"`
}

// HandleCreatePost creates a draft or scheduled post. Gated by the monthly
// post allowance; scheduling requires a paid plan.
func HandleCreatePost(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "malformed request body"})
	}
	if req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "content is required"})
	}
	for _, provider := range req.Platforms {
		if !models.IsKnownProvider(provider) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "unknown platform: " + provider})
		}
	}

	limiter := usage.NewLimiterFromDB(database.GetDB())
	if !limiter.CanUse(userCtx.UserID, models.UsageKindPost) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "limit_reached",
			"message": "monthly post limit reached, upgrade your plan for more",
		})
	}

	post := models.Post{
		UserID:  userCtx.UserID,
		Content: req.Content,
		Status:  models.PostStatusDraft,
	}
	post.SetPlatformList(req.Platforms)

	if req.ScheduledFor != "" {
		if !entitlements.SchedulingAllowed(userCtx.Plan) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "plan_required",
				"message": "scheduling requires a paid plan",
			})
		}
		at, err := time.Parse(time.RFC3339, req.ScheduledFor)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "scheduled_for must be RFC3339"})
		}
		if !at.After(time.Now()) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "scheduled_for must be in the future"})
		}
		post.Status = models.PostStatusScheduled
		post.ScheduledFor = &at
	}

	repo := repository.GetGlobalFactory().GetPostRepository()
	if err := repo.Create(&post); err != nil {
		log.Printf("failed to create post for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	if err := limiter.RecordUsage(userCtx.UserID, models.UsageKindPost); err != nil {
		log.Printf("failed to record post usage for user %d: %v", userCtx.UserID, err)
	}
	statistics.InvalidateUserSummary(userCtx.UserID)

	return c.Status(fiber.StatusCreated).JSON(postResponse(&post))
}

// HandleListPosts returns the caller's posts, newest first.
func HandleListPosts(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := c.QueryInt("per_page", 20)
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	repo := repository.GetGlobalFactory().GetPostRepository()
	posts, err := repo.GetByUserID(userCtx.UserID, (page-1)*perPage, perPage)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
	total, err := repo.CountByUserID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	items := make([]fiber.Map, 0, len(posts))
	for i := range posts {
		items = append(items, postResponse(&posts[i]))
	}
	return c.JSON(fiber.Map{
		"posts":    items,
		"page":     page,
		"per_page": perPage,
		"total":    total,
	})
}

// HandlePublishPost marks one of the caller's posts as published now.
func HandlePublishPost(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	post, status := loadOwnPost(c, userCtx.UserID)
	if post == nil {
		return status
	}
	if post.Status == models.PostStatusPublished {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already_published", "message": "post is already published"})
	}

	post.MarkPublished(time.Now())
	if err := repository.GetGlobalFactory().GetPostRepository().Update(post); err != nil {
		log.Printf("failed to publish post %d: %v", post.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
	statistics.InvalidateUserSummary(userCtx.UserID)

	return c.JSON(postResponse(post))
}

// HandleDeletePost soft-deletes one of the caller's posts. The post's usage
// record is kept: deleting content does not refund the monthly allowance.
func HandleDeletePost(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	post, status := loadOwnPost(c, userCtx.UserID)
	if post == nil {
		return status
	}

	if err := repository.GetGlobalFactory().GetPostRepository().Delete(post.ID); err != nil {
		log.Printf("failed to delete post %d: %v", post.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
	statistics.InvalidateUserSummary(userCtx.UserID)

	return c.JSON(fiber.Map{"ok": true})
}

// loadOwnPost fetches the :id post and checks ownership, writing the error
// response itself. A nil post means the response has been written.
func loadOwnPost(c *fiber.Ctx, userID uint) (*models.Post, error) {
	id := parseUintParam(c, "id")
	if id == 0 {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "invalid post id"})
	}

	post, err := repository.GetGlobalFactory().GetPostRepository().GetByID(id)
	if err != nil || post.UserID != userID {
		// Not revealing whether the post exists under another account.
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	}
	return post, nil
}

func postResponse(p *models.Post) fiber.Map {
	return fiber.Map{
		"id":            p.ID,
		"content":       p.Content,
		"platforms":     p.PlatformList(),
		"status":        p.Status,
		"scheduled_for": formatTimePtr(p.ScheduledFor),
		"published_at":  formatTimePtr(p.PublishedAt),
		"created_at":    p.CreatedAt.UTC().Format(time.RFC3339),
	}
}
