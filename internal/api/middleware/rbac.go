package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RBAC lets a request through only when the role set by Auth is one of
// allowedRoles. A request that never passed Auth is rejected as
// unauthenticated rather than forbidden.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ContextRole).(string)
			switch {
			case !ok || role == "":
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized access")
			case !allowed[role]:
				return echo.NewHTTPError(http.StatusForbidden, "access denied")
			}
			return next(c)
		}
	}
}
