package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/recipehub/recipe-api/internal/api/middleware"
)

// ctxUserID returns the id injected by the Auth middleware. Its absence means
// the route was registered without the middleware.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get(middleware.ContextUserID).(string)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "please authenticate")
	}
	return userID, nil
}
