package controllers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/sigil/services"
	"github.com/cppla/sigil/utils"
)

// RecordController logs and edits activity records.
type RecordController struct {
	svc *services.Service
}

// NewRecordController creates a RecordController.
func NewRecordController(svc *services.Service) *RecordController {
	return &RecordController{svc: svc}
}

// LogRecord stores a record and returns the XP, mastery and alliance
// effects it produced.
func (r *RecordController) LogRecord(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	var req services.RecordInput
	if !bindJSON(ctx, &req) {
		return
	}
	res, err := r.svc.LogRecord(ctx.Request.Context(), uid, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	invalidateProgress(uid)
	utils.Confirmed(ctx, res)
}

// ListRecords pages through the user's records with optional date and task filters.
func (r *RecordController) ListRecords(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	f := services.RecordFilter{
		From:     strings.TrimSpace(ctx.Query("from")),
		To:       strings.TrimSpace(ctx.Query("to")),
		Page:     page,
		PageSize: pageSize,
	}
	if v := strings.TrimSpace(ctx.Query("task_id")); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			id := uint(n)
			f.TaskID = &id
		}
	}
	items, total, err := r.svc.ListRecords(ctx.Request.Context(), uid, f)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{
		"items": items,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}

// UpdateRecord edits a record. Granted XP is not recomputed, but task
// totals can unlock achievements.
func (r *RecordController) UpdateRecord(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	id, ok := uintParam(ctx, "id")
	if !ok {
		return
	}
	var req services.RecordPatch
	if !bindJSON(ctx, &req) {
		return
	}
	rec, fresh, err := r.svc.UpdateRecord(ctx.Request.Context(), uid, id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	invalidateProgress(uid)
	utils.Confirmed(ctx, gin.H{"record": rec, "newly_claimable": fresh})
}

// DeleteRecord soft-deletes a record.
func (r *RecordController) DeleteRecord(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	id, ok := uintParam(ctx, "id")
	if !ok {
		return
	}
	if err := r.svc.DeleteRecord(ctx.Request.Context(), uid, id); err != nil {
		respondError(ctx, err)
		return
	}
	invalidateProgress(uid)
	utils.Confirmed(ctx, gin.H{"id": id})
}
