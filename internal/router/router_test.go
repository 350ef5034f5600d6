package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/synergy-flow/internal/config"
	"github.com/synergy-flow/internal/i18n"
	"github.com/synergy-flow/internal/models"
	"github.com/synergy-flow/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type apiEnvelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

type apiTestEnv struct {
	engine    *gin.Engine
	container *provider.Container
}

func newAPITestEnv(t *testing.T) *apiTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	models.DB = db

	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT:    config.JWTConfig{SecretKey: "router-test-secret", ExpireHours: 1},
		Security: config.SecurityConfig{
			PasswordPolicy: config.PasswordPolicyConfig{MinLength: 8},
		},
		Affiliate: config.AffiliateConfig{Currency: "THB", MaxDepth: 10},
	}
	container := provider.NewContainer(cfg)
	t.Cleanup(container.Close)

	return &apiTestEnv{
		engine:    SetupRouter(cfg, container),
		container: container,
	}
}

func (e *apiTestEnv) do(t *testing.T, method, path, token string, body interface{}) apiEnvelope {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp apiEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (e *apiTestEnv) register(t *testing.T, email, referralCode string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":         email,
		"password":      "password123",
		"referral_code": referralCode,
	})
	require.Equal(t, 0, resp.StatusCode, resp.Msg)

	var result struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	require.NotEmpty(t, result.Token)
	return result.Token
}

func TestHealthz(t *testing.T) {
	env := newAPITestEnv(t)

	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestRegisterLoginAndMe(t *testing.T) {
	env := newAPITestEnv(t)
	env.register(t, "alice@test.local", "")

	login := env.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "alice@test.local",
		"password": "password123",
	})
	require.Equal(t, 0, login.StatusCode, login.Msg)
	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(login.Data, &auth))

	me := env.do(t, http.MethodGet, "/api/v1/me", auth.Token, nil)
	assert.Equal(t, 0, me.StatusCode, me.Msg)
	assert.Contains(t, string(me.Data), "alice@test.local")

	wrong := env.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "alice@test.local",
		"password": "wrong-password",
	})
	assert.Equal(t, 401, wrong.StatusCode)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	env := newAPITestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    "weak@test.local",
		"password": "short",
	})
	assert.Equal(t, 400, resp.StatusCode)
	assert.NotEmpty(t, resp.Msg)
}

func TestMeRequiresToken(t *testing.T) {
	env := newAPITestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestCheckoutWithoutReferrerIsRejected(t *testing.T) {
	env := newAPITestEnv(t)
	token := env.register(t, "orphan@test.local", "")

	resp := env.do(t, http.MethodPost, "/api/v1/checkout", token, gin.H{
		"payment_method": "wallet",
	})
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, i18n.T(i18n.LocaleEnglish, "error.referrer_required"), resp.Msg)
}

func TestInvalidReferralCodeOnRegister(t *testing.T) {
	env := newAPITestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":         "bob@test.local",
		"password":      "password123",
		"referral_code": "NOPE0000",
	})
	assert.Equal(t, 400, resp.StatusCode)
}

func TestAdminRoutesForbiddenForMembers(t *testing.T) {
	env := newAPITestEnv(t)
	token := env.register(t, "member@test.local", "")

	resp := env.do(t, http.MethodGet, "/api/v1/admin/members", token, nil)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestSuperAdminCanListMembers(t *testing.T) {
	env := newAPITestEnv(t)
	require.NoError(t, models.InitDefaultAdmin("root@test.local", "password123", "ROOT0001"))
	env.register(t, "member@test.local", "")

	login := env.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "root@test.local",
		"password": "password123",
	})
	require.Equal(t, 0, login.StatusCode, login.Msg)
	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(login.Data, &auth))

	resp := env.do(t, http.MethodGet, "/api/v1/admin/members", auth.Token, nil)
	assert.Equal(t, 0, resp.StatusCode, resp.Msg)
	assert.Contains(t, string(resp.Data), "member@test.local")

	catalog := env.do(t, http.MethodGet, "/api/v1/admin/authz/permissions/catalog", auth.Token, nil)
	assert.Equal(t, 0, catalog.StatusCode)
	assert.Contains(t, string(catalog.Data), "/admin/withdrawals/:id/approve")
}

func TestDeriveAdminPermissionModule(t *testing.T) {
	cases := map[string]string{
		"/admin/withdrawals/:id/approve": "withdrawals",
		"/admin/authz/roles":             "authz",
		"/healthz":                       "healthz",
		"":                               "system",
	}
	for object, want := range cases {
		assert.Equal(t, want, deriveAdminPermissionModule(object), object)
	}
}
