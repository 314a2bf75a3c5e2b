package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/sigil/services"
	"github.com/cppla/sigil/utils"
)

// EconomyController handles bonus XP conversion, the master bonus and
// the title marketplace.
type EconomyController struct {
	svc *services.Service
}

// NewEconomyController creates an EconomyController.
func NewEconomyController(svc *services.Service) *EconomyController {
	return &EconomyController{svc: svc}
}

// ConvertXPToShards spends bonus XP for aether shards.
func (e *EconomyController) ConvertXPToShards(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	var req struct {
		Amount int `json:"amount"`
	}
	if !bindJSON(ctx, &req) {
		return
	}
	conv, err := e.svc.ConvertXPToShards(ctx.Request.Context(), uid, req.Amount)
	if err != nil {
		respondError(ctx, err)
		return
	}
	invalidateProgress(uid)
	utils.Confirmed(ctx, conv)
}

// AwardMasterBonus grants a user the one-time master bonus. Admin only.
func (e *EconomyController) AwardMasterBonus(ctx *gin.Context) {
	if !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40310, "admin only")
		return
	}
	target, ok := uintParam(ctx, "id")
	if !ok {
		return
	}
	var req struct {
		Points int `json:"points"`
	}
	if ctx.Request.ContentLength > 0 && !bindJSON(ctx, &req) {
		return
	}
	awarded, err := e.svc.AwardMasterBonus(ctx.Request.Context(), target, req.Points)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if awarded {
		invalidateProgress(target)
	}
	utils.Confirmed(ctx, gin.H{"user_id": target, "awarded": awarded})
}

// ListListings returns the active marketplace listings.
func (e *EconomyController) ListListings(ctx *gin.Context) {
	items, err := e.svc.ListActiveListings(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": items})
}

// ListTitle offers one of the user's titles for sale.
func (e *EconomyController) ListTitle(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	var req struct {
		AchievementID string `json:"achievement_id" binding:"required"`
		Price         int    `json:"price"`
	}
	if !bindJSON(ctx, &req) {
		return
	}
	listing, err := e.svc.ListTitleForSale(ctx.Request.Context(), uid, strings.TrimSpace(req.AchievementID), req.Price)
	if err != nil {
		respondError(ctx, err)
		return
	}
	invalidateProgress(uid)
	utils.Confirmed(ctx, listing)
}

// PurchaseTitle buys a listing.
func (e *EconomyController) PurchaseTitle(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	listing, err := e.svc.PurchaseTitle(ctx.Request.Context(), uid, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	invalidateProgress(uid, listing.SellerID)
	utils.Confirmed(ctx, listing)
}

// CancelListing withdraws the user's own listing.
func (e *EconomyController) CancelListing(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	listing, err := e.svc.CancelListing(ctx.Request.Context(), uid, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	invalidateProgress(uid)
	utils.Confirmed(ctx, listing)
}
