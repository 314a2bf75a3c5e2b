package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/sigil/config"
	"github.com/cppla/sigil/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	config.Set(config.AppConfig{JWTSecret: "test-secret", RedisDisabled: true, DBDriver: "sqlite"})
}

func TestLimiterSetBurstAndExpiry(t *testing.T) {
	set := newLimiterSet(4)
	now := time.Now()
	assert.True(t, set.allow("a", now))
	assert.True(t, set.allow("a", now))
	assert.False(t, set.allow("a", now))
	assert.True(t, set.allow("b", now))

	later := now.Add(limiterIdle + time.Second)
	assert.True(t, set.allow("c", later))
	set.mu.Lock()
	_, kept := set.buckets["b"]
	set.mu.Unlock()
	assert.False(t, kept)
}

func TestLimiterSetSweepsAtMostOncePerInterval(t *testing.T) {
	set := newLimiterSet(4)
	t0 := time.Now()
	has := func(key string) bool {
		set.mu.Lock()
		defer set.mu.Unlock()
		_, ok := set.buckets[key]
		return ok
	}

	set.allow("a", t0)
	// sweeps, but "a" is still fresh
	set.allow("x", t0.Add(limiterIdle-30*time.Second))
	assert.True(t, has("a"))

	// "a" is expired now, yet the last sweep was too recent
	set.allow("y", t0.Add(limiterIdle+10*time.Second))
	assert.True(t, has("a"))

	set.allow("z", t0.Add(limiterIdle+limiterSweep))
	assert.False(t, has("a"))
	assert.True(t, has("x"))
}

func authRouter() *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthRequired(), func(c *gin.Context) {
		uid, _ := c.Get(ContextUserIDKey)
		utils.Success(c, gin.H{"uid": uid})
	})
	return r
}

func TestAuthRequired(t *testing.T) {
	r := authRouter()
	token, _, err := utils.GenerateToken(7, "zed", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	utils.BlacklistToken(token, time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "40104")
}

func TestRateLimitPerMinute(t *testing.T) {
	r := gin.New()
	r.GET("/ping", RateLimitPerMinute(2), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}
