package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/sigil/config"
	"github.com/cppla/sigil/models"
	"github.com/cppla/sigil/services"
	"github.com/cppla/sigil/utils"
)

// AuthController handles registration, sessions and profiles.
type AuthController struct {
	svc *services.Service
}

// NewAuthController creates an AuthController.
func NewAuthController(svc *services.Service) *AuthController {
	return &AuthController{svc: svc}
}

// Register creates a local account with the default task set.
func (a *AuthController) Register(ctx *gin.Context) {
	type request struct {
		Username    string `json:"username" binding:"required"`
		Password    string `json:"password" binding:"required"`
		Confirm     string `json:"confirm"`
		DisplayName string `json:"display_name"`
		Timezone    string `json:"timezone"`
	}

	var req request
	if !bindJSON(ctx, &req) {
		return
	}
	if req.Confirm != "" && req.Confirm != req.Password {
		utils.Error(ctx, http.StatusBadRequest, 40002, "passwords do not match")
		return
	}

	user, err := a.svc.Register(ctx.Request.Context(), services.RegisterInput{
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Timezone:    req.Timezone,
	}, ctx.ClientIP())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.CacheDelete(utils.LeaderboardCacheKey)

	token, expires, err := utils.GenerateToken(user.ID, user.Username, 0)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}
	utils.Confirmed(ctx, gin.H{
		"token":      token,
		"expires_at": expires,
		"user":       sanitizeUserResponseWithAdmin(*user),
	})
}

// Login exchanges credentials for a session token.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := a.svc.Authenticate(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(ctx, err)
		return
	}

	token, expires, err := utils.GenerateToken(user.ID, user.Username, 0)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}
	utils.Success(ctx, gin.H{
		"token":      token,
		"expires_at": expires,
		"user":       sanitizeUserResponseWithAdmin(*user),
	})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
		return
	}

	token := strings.TrimSpace(parts[1])
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(utils.TokenTTL())
	if claims.RegisteredClaims.ExpiresAt != nil {
		expiresAt = claims.RegisteredClaims.ExpiresAt.Time
	}

	utils.BlacklistToken(token, expiresAt)
	utils.Confirmed(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated account.
func (a *AuthController) Me(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	user, err := a.svc.GetUser(ctx.Request.Context(), uid)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, sanitizeUserResponseWithAdmin(*user))
}

// UpdateProfile patches display name, avatar and timezone.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	var req services.ProfileInput
	if !bindJSON(ctx, &req) {
		return
	}
	user, err := a.svc.UpdateProfile(ctx.Request.Context(), uid, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	invalidateProgress(uid)
	utils.Confirmed(ctx, sanitizeUserResponseWithAdmin(*user))
}

// GetUserPublic returns the public profile of a user by username.
func (a *AuthController) GetUserPublic(ctx *gin.Context) {
	uname := strings.TrimSpace(ctx.Param("username"))
	if uname == "" {
		utils.Error(ctx, http.StatusBadRequest, 40051, "missing username")
		return
	}
	var cachedID uint
	if utils.CacheGetJSON(utils.UsernameCachePrefix+uname, &cachedID) {
		if b, ok := utils.CacheGetBytes(publicProfileKey(cachedID)); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}
	user, err := a.svc.FindUser(ctx.Request.Context(), uname)
	if err != nil {
		respondError(ctx, err)
		return
	}
	info := a.svc.Curve().Resolve(user.XPTotal + user.BonusPoints)
	payload := sanitizeUserResponse(*user)
	payload["level"] = info.CurrentLevel
	payload["level_name"] = info.LevelName
	payload["tier_name"] = info.TierName

	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON(utils.UsernameCachePrefix+uname, user.ID, 24*time.Hour)
	utils.CacheSetJSON(publicProfileKey(user.ID), wrapper, 10*time.Minute)
	utils.Success(ctx, payload)
}

func sanitizeUserResponse(user models.User) gin.H {
	return gin.H{
		"id":           user.ID,
		"username":     user.Username,
		"display_name": user.DisplayName,
		"avatar_url":   user.AvatarURL,
		"created_at":   user.CreatedAt,
	}
}

func sanitizeUserResponseWithAdmin(user models.User) gin.H {
	h := sanitizeUserResponse(user)
	h["timezone"] = user.Timezone
	h["xp_total"] = user.XPTotal
	h["bonus_points"] = user.BonusPoints
	h["aether_shards"] = user.AetherShards
	h["is_admin"] = config.Get().IsAdmin(user.Username)
	return h
}
