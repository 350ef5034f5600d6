package admin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/synergy-flow/internal/authz"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQueryContext(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c
}

func TestParseDashboardQuery(t *testing.T) {
	input, err := parseDashboardQuery(newQueryContext("/admin/dashboard/overview"))
	require.NoError(t, err)
	assert.Equal(t, "7d", input.Range)
	assert.Nil(t, input.From)
	assert.False(t, input.ForceRefresh)

	input, err = parseDashboardQuery(newQueryContext("/admin/dashboard/overview?range=custom&from=2026-01-01&to=2026-01-31&tz=Asia/Bangkok&force_refresh=true"))
	require.NoError(t, err)
	assert.Equal(t, "custom", input.Range)
	assert.Equal(t, "Asia/Bangkok", input.Timezone)
	assert.True(t, input.ForceRefresh)
	require.NotNil(t, input.From)
	require.NotNil(t, input.To)
	assert.True(t, input.From.Before(*input.To))

	_, err = parseDashboardQuery(newQueryContext("/admin/dashboard/overview?force_refresh=maybe"))
	assert.Error(t, err)
}

func TestRespondAuthzError(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{authz.ErrRoleBuiltin, 403},
		{fmt.Errorf("assign: %w", authz.ErrRoleNotFound), 404},
		{authz.ErrCapabilityUnknown, 400},
		{authz.ErrRoleReserved, 400},
		{authz.ErrUnavailable, 500},
		{fmt.Errorf("disk full"), 500},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/admin/authz/roles", nil)

			respondAuthzError(c, tc.err)

			var env struct {
				StatusCode int `json:"status_code"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			assert.Equal(t, tc.code, env.StatusCode)
		})
	}
}
