package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/sigil/config"
	"github.com/cppla/sigil/middleware"
	"github.com/cppla/sigil/services"
	"github.com/cppla/sigil/utils"
)

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 20
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 200 {
		pageSize = s
	}
	return page, pageSize
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}

// mustUserID answers 401 and reports false when the request carries no user.
func mustUserID(ctx *gin.Context) (uint, bool) {
	uid, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
	}
	return uid, ok
}

func isAdmin(ctx *gin.Context) bool {
	unameVal, exists := ctx.Get(middleware.ContextUsernameKey)
	if !exists {
		return false
	}
	uname, _ := unameVal.(string)
	return config.Get().IsAdmin(uname)
}

// uintParam reads a positive numeric path parameter or answers 400.
func uintParam(ctx *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(ctx.Param(name)), 10, 64)
	if err != nil || n == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid "+name)
		return 0, false
	}
	return uint(n), true
}

func bindJSON(ctx *gin.Context, req interface{}) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return false
	}
	return true
}

// respondError maps a service error onto the response envelope. Unknown
// errors are logged and answered without their details.
func respondError(ctx *gin.Context, err error) {
	e := services.AsError(err)
	if e.Status >= http.StatusInternalServerError {
		utils.Sugar.Errorw("request failed", "path", ctx.FullPath(), "err", err)
		utils.Error(ctx, e.Status, e.Code, "internal server error")
		return
	}
	utils.Error(ctx, e.Status, e.Code, e.Error())
}

func userCachePrefix(uid uint) string {
	return fmt.Sprintf("%s%d:", utils.UserCachePrefix, uid)
}

func progressKey(uid uint) string { return userCachePrefix(uid) + "progress" }

func publicProfileKey(uid uint) string { return userCachePrefix(uid) + "public" }

// invalidateProgress drops every cached entry of the given users (summary
// and public profile) and the leaderboard after a write that moved XP,
// streaks or achievements has committed.
func invalidateProgress(uids ...uint) {
	for _, uid := range utils.Unique(uids) {
		utils.InvalidateByPrefix(userCachePrefix(uid))
	}
	utils.CacheDelete(utils.LeaderboardCacheKey)
}
