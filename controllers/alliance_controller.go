package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/sigil/services"
	"github.com/cppla/sigil/utils"
)

// AllianceController manages alliances, invitations and challenges.
type AllianceController struct {
	svc *services.Service
}

// NewAllianceController creates an AllianceController.
func NewAllianceController(svc *services.Service) *AllianceController {
	return &AllianceController{svc: svc}
}

// CreateAlliance creates an alliance led by the current user.
func (a *AllianceController) CreateAlliance(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	var req services.AllianceInput
	if !bindJSON(ctx, &req) {
		return
	}
	al, err := a.svc.CreateAlliance(ctx.Request.Context(), uid, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Confirmed(ctx, al)
}

// ListAlliances returns the alliances the user belongs to.
func (a *AllianceController) ListAlliances(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	items, err := a.svc.ListAlliances(ctx.Request.Context(), uid)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": items})
}

// GetAlliance returns one alliance with its members.
func (a *AllianceController) GetAlliance(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	al, err := a.svc.GetAlliance(ctx.Request.Context(), uid, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, al)
}

// Invite invites another user into the alliance.
func (a *AllianceController) Invite(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	var req struct {
		UserID uint `json:"user_id" binding:"required"`
	}
	if !bindJSON(ctx, &req) {
		return
	}
	inv, err := a.svc.Invite(ctx.Request.Context(), uid, ctx.Param("id"), req.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Confirmed(ctx, inv)
}

// Leave removes the current user from the alliance.
func (a *AllianceController) Leave(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	id := ctx.Param("id")
	if err := a.svc.LeaveAlliance(ctx.Request.Context(), uid, id); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Confirmed(ctx, gin.H{"id": id})
}

// Disband deletes the alliance. Creator only.
func (a *AllianceController) Disband(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	id := ctx.Param("id")
	if err := a.svc.DisbandAlliance(ctx.Request.Context(), uid, id); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Confirmed(ctx, gin.H{"id": id})
}

// ListInvitations returns the user's pending invitations.
func (a *AllianceController) ListInvitations(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	items, err := a.svc.ListInvitations(ctx.Request.Context(), uid)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": items})
}

// RespondInvitation accepts or declines an invitation.
func (a *AllianceController) RespondInvitation(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	id, ok := uintParam(ctx, "id")
	if !ok {
		return
	}
	var req struct {
		Accept bool `json:"accept"`
	}
	if !bindJSON(ctx, &req) {
		return
	}
	inv, err := a.svc.RespondInvitation(ctx.Request.Context(), uid, id, req.Accept)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Confirmed(ctx, inv)
}

// CreateChallenge challenges another alliance.
func (a *AllianceController) CreateChallenge(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	var req struct {
		OpponentID string `json:"opponent_alliance_id" binding:"required"`
	}
	if !bindJSON(ctx, &req) {
		return
	}
	ch, err := a.svc.CreateChallenge(ctx.Request.Context(), uid, ctx.Param("id"), req.OpponentID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Confirmed(ctx, ch)
}

// ListChallenges returns the challenges an alliance took part in.
func (a *AllianceController) ListChallenges(ctx *gin.Context) {
	items, err := a.svc.ListChallenges(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": items})
}

// RespondChallenge accepts or declines a pending challenge.
func (a *AllianceController) RespondChallenge(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	var req struct {
		Accept bool `json:"accept"`
	}
	if !bindJSON(ctx, &req) {
		return
	}
	ch, err := a.svc.RespondChallenge(ctx.Request.Context(), uid, ctx.Param("id"), req.Accept)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Confirmed(ctx, ch)
}

// CompleteChallenge closes an active challenge and names the winner.
func (a *AllianceController) CompleteChallenge(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	ch, err := a.svc.CompleteChallenge(ctx.Request.Context(), uid, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Confirmed(ctx, ch)
}
