package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/sigil/services"
	"github.com/cppla/sigil/utils"
)

const leaderboardCacheTTL = time.Minute

// StatsController provides public counters and the XP leaderboard.
type StatsController struct {
	svc *services.Service
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(svc *services.Service) *StatsController {
	return &StatsController{svc: svc}
}

// GetStats returns aggregate site statistics.
func (s *StatsController) GetStats(ctx *gin.Context) {
	utils.Success(ctx, s.svc.SiteStats(ctx.Request.Context()))
}

// Leaderboard returns the top users by cumulative XP. The default page is
// cached until a write that moves XP invalidates it.
func (s *StatsController) Leaderboard(ctx *gin.Context) {
	limit := 20
	if v, err := strconv.Atoi(ctx.Query("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	cacheable := limit == 20
	if cacheable {
		if b, ok := utils.CacheGetBytes(utils.LeaderboardCacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}
	items, err := s.svc.Leaderboard(ctx.Request.Context(), limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	payload := gin.H{"items": items}
	if cacheable {
		utils.CacheSetJSON(utils.LeaderboardCacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, leaderboardCacheTTL)
	}
	utils.Success(ctx, payload)
}
