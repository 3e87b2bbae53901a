package handler

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// bearerToken extracts the raw bearer credential from the Authorization
// header. Returns the empty string when the header is absent or not a
// Bearer scheme. Handlers forward this raw token to the identity verifier
// collaborator; they do not validate it themselves.
func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(auth, "Bearer ")
}

// getUserID reads the authenticated user id set by the JWT middleware.
// The sub claim is a decimal string.
func getUserID(c echo.Context) (uint64, bool) {
	s, ok := c.Get("user_id").(string)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
