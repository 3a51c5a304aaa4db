package usercontext

// Shared Locals/session keys used across controllers and middlewares
const (
	KeyUserID        = "user_id"
	KeyUsername      = "username"
	KeyUserEmail     = "user_email"
	KeyUserPlan      = "user_plan"
	KeyIsAdmin       = "is_admin"
	KeyFromProtected = "from_protected"
)
