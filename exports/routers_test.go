package exports

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"table-import/articles"
	"table-import/common"
	"table-import/parsers"
	"table-import/users"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := common.InitWithDSN("file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, users.AutoMigrate(db))
	require.NoError(t, articles.AutoMigrate(db))

	r := gin.New()
	RegisterRoutes(r.Group("/exports"))
	return r
}

func TestStreamExport_UsersRoundTrip(t *testing.T) {
	r := setupRouter(t)
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, common.GetDB().Create(&[]users.UserModel{
		{ID: "a", Email: "ada@example.com", Name: "Lovelace, Ada", Role: "admin", Active: true, CreatedAt: ts, UpdatedAt: ts},
		{ID: "b", Email: "grace@example.com", Name: "Grace Hopper", Role: "reader", Active: false, CreatedAt: ts, UpdatedAt: ts},
	}).Error)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exports?resource=users", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=users_")

	parser := parsers.NewTableParser[parsers.Record](w.Body.String())
	rows := parser.ConvertRows(parsers.Identity)

	assert.Equal(t, users.Columns, parser.Headers())
	require.Len(t, rows, 2)
	assert.Equal(t, "Lovelace  Ada", rows[0]["name"], "Comma inside a value is replaced")
	assert.Equal(t, "false", rows[1]["active"])
	assert.Equal(t, "2024-06-01T12:00:00Z", rows[1]["created_at"])
}

func TestStreamExport_EmptyArticles(t *testing.T) {
	r := setupRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exports?resource=articles", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "id,slug,title,body,author_id,tags,status,published_at,created_at", w.Body.String())
}

func TestStreamExport_BadRequest(t *testing.T) {
	r := setupRouter(t)

	for _, target := range []string{"/exports", "/exports?resource=comments"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}
