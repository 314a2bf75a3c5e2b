package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/sigil/services"
	"github.com/cppla/sigil/testutil"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
}

type apiClient struct {
	t     *testing.T
	r     *gin.Engine
	token string
}

func newClient(t *testing.T) *apiClient {
	t.Helper()
	cfg := testutil.Config()
	clock := time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)
	svc := services.New(testutil.DB(t), cfg, services.WithClock(func() time.Time { return clock }))
	return &apiClient{t: t, r: SetupRouter(svc)}
}

func (c *apiClient) do(method, path string, body interface{}) (int, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)
	var env envelope
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (c *apiClient) register(username string) {
	c.t.Helper()
	code, env := c.do(http.MethodPost, "/api/v1/auth/register", gin.H{"username": username, "password": "secret1", "timezone": "UTC"})
	require.Equal(c.t, http.StatusOK, code, string(env.Data))
	assert.Equal(c.t, "confirmed", env.Status)
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(c.t, json.Unmarshal(env.Data, &data))
	c.token = data.Token
}

func TestRegisterLogRecordAndSummary(t *testing.T) {
	c := newClient(t)
	c.register("uri")

	code, env := c.do(http.MethodGet, "/api/v1/tasks", nil)
	require.Equal(t, http.StatusOK, code)
	var tasks struct {
		Items []struct {
			ID  uint   `json:"id"`
			Key string `json:"key"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tasks))
	require.Len(t, tasks.Items, 4)
	deep := tasks.Items[0]
	require.Equal(t, "deep-work", deep.Key)

	code, env = c.do(http.MethodPost, "/api/v1/records", gin.H{"task_id": deep.ID, "value": 180})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "confirmed", env.Status)
	var res struct {
		XPAwarded int `json:"xp_awarded"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 15, res.XPAwarded)

	code, env = c.do(http.MethodGet, "/api/v1/progress", nil)
	require.Equal(t, http.StatusOK, code)
	var sum struct {
		RecordXP int `json:"record_xp"`
		Level    struct {
			CurrentLevel int `json:"current_level"`
		} `json:"level"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sum))
	assert.Equal(t, 15, sum.RecordXP)
	assert.Equal(t, 1, sum.Level.CurrentLevel)
}

func TestErrorsUseEnvelope(t *testing.T) {
	c := newClient(t)

	code, env := c.do(http.MethodGet, "/api/v1/progress", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, 40101, env.Code)

	code, env = c.do(http.MethodGet, "/api/v1/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, 40400, env.Code)

	c.register("vic")
	code, env = c.do(http.MethodPost, "/api/v1/economy/convert", gin.H{"amount": 4})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 40011, env.Code)
	assert.Equal(t, "amount too low", env.Message)

	code, env = c.do(http.MethodPost, "/api/v1/admin/users/1/master-bonus", nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, 40310, env.Code)

	code, env = c.do(http.MethodPost, "/api/v1/auth/login", gin.H{"username": "vic", "password": "wrong-one"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, 40106, env.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	c := newClient(t)
	c.register("wyn")

	code, _ := c.do(http.MethodGet, "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, code)
	code, env := c.do(http.MethodPost, "/api/v1/auth/logout", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "confirmed", env.Status)

	code, env = c.do(http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, 40104, env.Code)
}

func TestPublicProfileAndRecordEdit(t *testing.T) {
	c := newClient(t)
	c.register("vic")

	code, env := c.do(http.MethodGet, "/api/v1/users/vic", nil)
	require.Equal(t, http.StatusOK, code)
	var profile struct {
		ID    uint `json:"id"`
		Level int  `json:"level"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, 1, profile.Level)

	code, env = c.do(http.MethodPost, "/api/v1/records", gin.H{"value": 20})
	require.Equal(t, http.StatusOK, code)
	var logged struct {
		Record struct {
			ID uint `json:"id"`
		} `json:"record"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &logged))

	code, env = c.do(http.MethodPatch, fmt.Sprintf("/api/v1/records/%d", logged.Record.ID), gin.H{"value": 25})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "confirmed", env.Status)
	var edited struct {
		Record struct {
			Value     float64 `json:"value"`
			XPAwarded int     `json:"xp_awarded"`
		} `json:"record"`
		NewlyClaimable []string `json:"newly_claimable"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &edited))
	assert.Equal(t, 25.0, edited.Record.Value)
	assert.Equal(t, 10, edited.Record.XPAwarded)
	assert.Empty(t, edited.NewlyClaimable)
}
