package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/sigil/services"
	"github.com/cppla/sigil/utils"
)

// AchievementController lists and claims achievements.
type AchievementController struct {
	svc *services.Service
}

// NewAchievementController creates an AchievementController.
func NewAchievementController(svc *services.Service) *AchievementController {
	return &AchievementController{svc: svc}
}

// ListAchievements returns every achievement with the user's status.
func (a *AchievementController) ListAchievements(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	items, err := a.svc.ListAchievements(ctx.Request.Context(), uid)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": items})
}

// ClaimAchievement moves a claimable achievement to unlocked.
func (a *AchievementController) ClaimAchievement(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	id := strings.TrimSpace(ctx.Param("id"))
	claimed, err := a.svc.ClaimAchievement(ctx.Request.Context(), uid, id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if claimed {
		invalidateProgress(uid)
	}
	utils.Confirmed(ctx, gin.H{"id": id, "claimed": claimed})
}
