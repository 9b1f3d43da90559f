package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/conclave-ai/conclave/pkg/models"
)

// extractCaller builds the caller identity from proxy headers. The
// auth proxy in front of the service is trusted to have validated
// them; requests without a user and organization are rejected.
func extractCaller(c *echo.Context) (models.Caller, error) {
	caller := models.Caller{
		UserID:          c.Request().Header.Get("X-User-ID"),
		Username:        c.Request().Header.Get("X-Username"),
		OrgID:           c.Request().Header.Get("X-Org-ID"),
		IsAdmin:         c.Request().Header.Get("X-Admin") == "true",
		IsInstanceAdmin: c.Request().Header.Get("X-Instance-Admin") == "true",
	}
	if caller.UserID == "" || caller.OrgID == "" {
		return models.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "missing identity headers")
	}
	if caller.Username == "" {
		caller.Username = caller.UserID
	}
	return caller, nil
}

// requireAdmin rejects configuration writes from non-admin callers.
func requireAdmin(caller models.Caller) error {
	if !caller.IsAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "administrator access required")
	}
	return nil
}
