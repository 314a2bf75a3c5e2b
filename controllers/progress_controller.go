package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/sigil/services"
	"github.com/cppla/sigil/utils"
)

const progressCacheTTL = 5 * time.Minute

// ProgressController serves the derived progression views.
type ProgressController struct {
	svc *services.Service
}

// NewProgressController creates a ProgressController.
func NewProgressController(svc *services.Service) *ProgressController {
	return &ProgressController{svc: svc}
}

// Summary returns level, streaks, mastery and achievement sets. The
// envelope is cached per user until the next committed write.
func (p *ProgressController) Summary(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	key := progressKey(uid)
	if b, ok := utils.CacheGetBytes(key); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}
	sum, err := p.svc.Summary(ctx.Request.Context(), uid)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.CacheSetJSON(key, utils.JSONResponse{Code: 0, Message: "success", Data: sum}, progressCacheTTL)
	utils.Success(ctx, sum)
}

// Curve returns the active level curve.
func (p *ProgressController) Curve(ctx *gin.Context) {
	utils.Success(ctx, p.svc.Curve())
}
