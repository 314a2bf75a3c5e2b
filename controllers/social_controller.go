package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/sigil/services"
	"github.com/cppla/sigil/utils"
)

// SocialController serves friends, pacts, skills and lore.
type SocialController struct {
	svc *services.Service
}

// NewSocialController creates a SocialController.
func NewSocialController(svc *services.Service) *SocialController {
	return &SocialController{svc: svc}
}

// ListFriends returns friends and open requests.
func (s *SocialController) ListFriends(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	list, err := s.svc.ListFriends(ctx.Request.Context(), uid)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, list)
}

// SendFriendRequest sends a request to a username.
func (s *SocialController) SendFriendRequest(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if !bindJSON(ctx, &req) {
		return
	}
	f, err := s.svc.SendFriendRequest(ctx.Request.Context(), uid, req.Username)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Confirmed(ctx, f)
}

// RespondFriendRequest accepts or declines an incoming request.
func (s *SocialController) RespondFriendRequest(ctx *gin.Context) {
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
	f, err := s.svc.RespondFriendRequest(ctx.Request.Context(), uid, id, req.Accept)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Confirmed(ctx, f)
}

// RemoveFriend ends a friendship with the given user.
func (s *SocialController) RemoveFriend(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	friendID, ok := uintParam(ctx, "id")
	if !ok {
		return
	}
	if err := s.svc.RemoveFriend(ctx.Request.Context(), uid, friendID); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Confirmed(ctx, gin.H{"user_id": friendID})
}

// Pacts returns one day of pacts and the dares owed.
func (s *SocialController) Pacts(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	board, err := s.svc.Pacts(ctx.Request.Context(), uid, strings.TrimSpace(ctx.Query("date")))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, board)
}

// CreatePact adds a pact.
func (s *SocialController) CreatePact(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	var req services.PactInput
	if !bindJSON(ctx, &req) {
		return
	}
	item, err := s.svc.CreatePact(ctx.Request.Context(), uid, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Confirmed(ctx, item)
}

// CompletePact marks a pact done and pays its reward once.
func (s *SocialController) CompletePact(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	id, ok := uintParam(ctx, "id")
	if !ok {
		return
	}
	item, reward, claimable, err := s.svc.CompletePact(ctx.Request.Context(), uid, id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if reward > 0 {
		invalidateProgress(uid)
	}
	utils.Confirmed(ctx, gin.H{"pact": item, "reward": reward, "newly_claimable": claimable})
}

// DeletePact removes an open pact.
func (s *SocialController) DeletePact(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	id, ok := uintParam(ctx, "id")
	if !ok {
		return
	}
	if err := s.svc.DeletePact(ctx.Request.Context(), uid, id); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Confirmed(ctx, gin.H{"id": id})
}

// ListSkills returns the skill tree with the user's state.
func (s *SocialController) ListSkills(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	items, err := s.svc.ListSkills(ctx.Request.Context(), uid)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": items})
}

// UnlockSkill unlocks a skill the user has the level for.
func (s *SocialController) UnlockSkill(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	id := strings.TrimSpace(ctx.Param("id"))
	claimable, err := s.svc.UnlockSkill(ctx.Request.Context(), uid, id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	invalidateProgress(uid)
	utils.Confirmed(ctx, gin.H{"id": id, "newly_claimable": claimable})
}

// ListLore returns the user's lore entries.
func (s *SocialController) ListLore(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	items, err := s.svc.ListLore(ctx.Request.Context(), uid)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": items})
}

// CreateLore stores a lore entry.
func (s *SocialController) CreateLore(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	var req services.LoreInput
	if !bindJSON(ctx, &req) {
		return
	}
	entry, claimable, err := s.svc.CreateLore(ctx.Request.Context(), uid, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	invalidateProgress(uid)
	utils.Confirmed(ctx, gin.H{"entry": entry, "newly_claimable": claimable})
}
