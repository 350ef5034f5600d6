package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/synergy-flow/internal/authz"
	"github.com/synergy-flow/internal/constants"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestResolveAllowedOrigin(t *testing.T) {
	cases := []struct {
		name    string
		origin  string
		allowed []string
		creds   bool
		want    string
	}{
		{"wildcard", "https://shop.example", []string{"*"}, false, "*"},
		{"wildcard echoes with credentials", "https://shop.example", []string{"*"}, true, "https://shop.example"},
		{"allow-list match", "https://admin.example", []string{"https://shop.example", "https://admin.example"}, false, "https://admin.example"},
		{"not allowed", "https://evil.example", []string{"https://shop.example"}, false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, resolveAllowedOrigin(tc.origin, tc.allowed, tc.creds))
		})
	}
}

func TestRequestIDPropagatesToErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/denied", abortForbidden)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/denied", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(requestIDHeader))
	env := decodeEnvelope(t, w)
	assert.Equal(t, 403, env.StatusCode)
	assert.JSONEq(t, `{"request_id":"req-123"}`, string(env.Data))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/denied", nil))
	assert.NotEmpty(t, w.Header().Get(requestIDHeader), "missing header should be generated")
}

func TestUserJWTAuthMiddlewareMissingSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(UserJWTAuthMiddleware("", nil))
	r.GET("/me/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me/ping", nil))
	assert.Equal(t, 401, decodeEnvelope(t, w).StatusCode)
}

func newRBACTestEngine(t *testing.T, role string, isSuper bool, userID uint) (*gin.Engine, *authz.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:rbac_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	svc, err := authz.NewService(db)
	require.NoError(t, err)
	require.NoError(t, svc.BootstrapBuiltinRoles())

	r := gin.New()
	admin := r.Group("/api/v1/admin")
	admin.Use(func(c *gin.Context) {
		c.Set(userIDContextKey, userID)
		c.Set(userRoleContextKey, role)
		c.Set(userIsSuperContextKey, isSuper)
	}, AdminRBACMiddleware(svc))
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status_code": 0}) }
	admin.GET("/withdrawals", ok)
	admin.POST("/withdrawals/:id/approve", ok)
	admin.POST("/coupons", ok)
	return r, svc
}

func rbacStatus(t *testing.T, r *gin.Engine, method, path string) int {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return decodeEnvelope(t, w).StatusCode
}

func TestAdminRBACMiddleware(t *testing.T) {
	t.Run("member is rejected", func(t *testing.T) {
		r, _ := newRBACTestEngine(t, constants.UserRoleMember, false, 9)
		assert.Equal(t, 403, rbacStatus(t, r, http.MethodGet, "/api/v1/admin/withdrawals"))
	})

	t.Run("super admin bypasses policies", func(t *testing.T) {
		r, _ := newRBACTestEngine(t, constants.UserRoleAdmin, true, 1)
		assert.Equal(t, 0, rbacStatus(t, r, http.MethodPost, "/api/v1/admin/coupons"))
	})

	t.Run("finance approves but cannot create coupons", func(t *testing.T) {
		r, svc := newRBACTestEngine(t, constants.UserRoleAdmin, false, 4)
		require.NoError(t, svc.SetUserRoles(4, []string{authz.RoleFinance}))
		assert.Equal(t, 0, rbacStatus(t, r, http.MethodGet, "/api/v1/admin/withdrawals"))
		assert.Equal(t, 0, rbacStatus(t, r, http.MethodPost, "/api/v1/admin/withdrawals/12/approve"))
		assert.Equal(t, 403, rbacStatus(t, r, http.MethodPost, "/api/v1/admin/coupons"))
	})

	t.Run("admin without roles sees nothing", func(t *testing.T) {
		r, _ := newRBACTestEngine(t, constants.UserRoleAdmin, false, 5)
		assert.Equal(t, 403, rbacStatus(t, r, http.MethodGet, "/api/v1/admin/withdrawals"))
	})
}
