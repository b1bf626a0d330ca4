package client

import "strings"

const (
	LoginPage      = "/login"
	LandingPage    = "/"
	AdminDashboard = "/admin/dashboard"
	UserDashboard  = "/user/dashboard"
)

var publicPages = map[string]bool{
	"/":                true,
	"/login":           true,
	"/signup":          true,
	"/forgot-password": true,
	"/reset-password":  true,
}

// CanAccess reports whether the current session may open the page at path.
func (c *Client) CanAccess(path string) bool {
	return c.Redirect(path) == ""
}

// Redirect returns where a navigation to path should land instead, or ""
// when it is allowed. Signed-out visitors of protected pages go to the login
// page; users opening an admin page go to their own dashboard; unknown pages
// go to the landing page.
func (c *Client) Redirect(path string) string {
	return redirectFor(path, c.Token(), c.Role())
}

func redirectFor(path, token, role string) string {
	path = strings.TrimRight(path, "/")
	if path == "" {
		path = "/"
	}
	if publicPages[path] {
		return ""
	}

	var requiredRole string
	switch {
	case strings.HasPrefix(path, "/admin/"):
		requiredRole = "admin"
	case strings.HasPrefix(path, "/user/"):
	default:
		return LandingPage
	}

	if token == "" {
		return LoginPage
	}
	if requiredRole != "" && role != requiredRole {
		if role == "admin" {
			return AdminDashboard
		}
		return UserDashboard
	}
	return ""
}
