package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zyvarin/zyvarin-social/internal/pkg/usercontext"
)

// A paid upgrade must be visible to the session immediately; the cached plan
// is what gates scheduling, analytics and the usage summary until the next
// login.
func TestRefreshSessionPlanUpdatesCachedPlan(t *testing.T) {
	store := fibersession.New()
	app := fiber.New()

	app.Post("/login", func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		require.NoError(t, err)
		sess.Set(usercontext.KeyUserID, uint(1))
		sess.Set(usercontext.KeyUserPlan, "FREE")
		return sess.Save()
	})
	app.Post("/upgrade", func(c *fiber.Ctx) error {
		refreshSessionPlan(c, store, "CREATOR")
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/plan", func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		require.NoError(t, err)
		plan, _ := sess.Get(usercontext.KeyUserPlan).(string)
		return c.SendString(plan)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	cookie := resp.Header.Get("Set-Cookie")
	require.NotEmpty(t, cookie)

	req := httptest.NewRequest(http.MethodPost, "/upgrade", nil)
	req.Header.Set("Cookie", cookie)
	_, err = app.Test(req)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/plan", nil)
	req.Header.Set("Cookie", cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)

	body := make([]byte, 32)
	n, _ := resp.Body.Read(body)
	assert.Equal(t, "CREATOR", string(body[:n]))
}

// API-key callers carry no session; the refresh must be a no-op for them.
func TestRefreshSessionPlanSkipsAnonymous(t *testing.T) {
	store := fibersession.New()
	app := fiber.New()

	app.Post("/upgrade", func(c *fiber.Ctx) error {
		refreshSessionPlan(c, store, "CREATOR")
		sess, err := store.Get(c)
		require.NoError(t, err)
		plan, _ := sess.Get(usercontext.KeyUserPlan).(string)
		return c.SendString(plan)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/upgrade", nil))
	require.NoError(t, err)

	body := make([]byte, 32)
	n, _ := resp.Body.Read(body)
	assert.Empty(t, string(body[:n]))

	assert.NotPanics(t, func() {
		refreshSessionPlan(nil, nil, "CREATOR")
	})
}
