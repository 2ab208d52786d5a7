package common

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(secret))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(SubjectKey))
	})
	return r
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	r := newAuthRouter("")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware(t *testing.T) {
	const secret = "s3cret"
	r := newAuthRouter(secret)

	valid, err := IssueToken(secret, "importer", time.Minute)
	require.NoError(t, err)
	expired, err := IssueToken(secret, "importer", -time.Minute)
	require.NoError(t, err)
	foreign, err := IssueToken("other", "importer", time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "valid", header: "Bearer " + valid, status: http.StatusOK, body: "importer"},
		{name: "missing", header: "", status: http.StatusUnauthorized, body: "Bearer token is required"},
		{name: "expired", header: "Bearer " + expired, status: http.StatusUnauthorized, body: "Token expired"},
		{name: "wrongKey", header: "Bearer " + foreign, status: http.StatusUnauthorized, body: "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestIssueToken_EmptySecret(t *testing.T) {
	_, err := IssueToken("", "x", time.Minute)
	assert.Error(t, err)
}
