package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	echo "github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callerContext(headers map[string]string) *echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func TestExtractCaller(t *testing.T) {
	c := callerContext(map[string]string{
		"X-User-ID":  "u1",
		"X-Username": "alice",
		"X-Org-ID":   "org-a",
		"X-Admin":    "true",
	})
	caller, err := extractCaller(c)
	require.NoError(t, err)
	assert.Equal(t, "u1", caller.UserID)
	assert.Equal(t, "alice", caller.Username)
	assert.Equal(t, "org-a", caller.OrgID)
	assert.True(t, caller.IsAdmin)
}

func TestExtractCallerUsernameFallsBackToID(t *testing.T) {
	c := callerContext(map[string]string{"X-User-ID": "u1", "X-Org-ID": "org-a"})
	caller, err := extractCaller(c)
	require.NoError(t, err)
	assert.Equal(t, "u1", caller.Username)
	assert.False(t, caller.IsAdmin)
}

func TestExtractCallerMissingHeaders(t *testing.T) {
	for name, headers := range map[string]map[string]string{
		"no user": {"X-Org-ID": "org-a"},
		"no org":  {"X-User-ID": "u1"},
		"neither": {},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := extractCaller(callerContext(headers))
			he, ok := err.(*echo.HTTPError)
			require.True(t, ok)
			assert.Equal(t, http.StatusUnauthorized, he.Code)
		})
	}
}
