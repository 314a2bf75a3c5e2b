package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/sigil/services"
	"github.com/cppla/sigil/utils"
)

// TaskController manages a user's task definitions.
type TaskController struct {
	svc *services.Service
}

// NewTaskController creates a TaskController.
func NewTaskController(svc *services.Service) *TaskController {
	return &TaskController{svc: svc}
}

// ListTasks returns every task of the current user.
func (t *TaskController) ListTasks(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	tasks, err := t.svc.ListTasks(ctx.Request.Context(), uid)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": tasks})
}

// GetTask returns one task.
func (t *TaskController) GetTask(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	id, ok := uintParam(ctx, "id")
	if !ok {
		return
	}
	task, err := t.svc.GetTask(ctx.Request.Context(), uid, id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, task)
}

// CreateTask adds a task definition.
func (t *TaskController) CreateTask(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	var req services.TaskInput
	if !bindJSON(ctx, &req) {
		return
	}
	task, err := t.svc.CreateTask(ctx.Request.Context(), uid, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	invalidateProgress(uid)
	utils.Confirmed(ctx, task)
}

// UpdateTask patches a task definition.
func (t *TaskController) UpdateTask(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	id, ok := uintParam(ctx, "id")
	if !ok {
		return
	}
	var req services.TaskInput
	if !bindJSON(ctx, &req) {
		return
	}
	task, err := t.svc.UpdateTask(ctx.Request.Context(), uid, id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	invalidateProgress(uid)
	utils.Confirmed(ctx, task)
}

// DeleteTask removes a task definition and keeps its records.
func (t *TaskController) DeleteTask(ctx *gin.Context) {
	uid, ok := mustUserID(ctx)
	if !ok {
		return
	}
	id, ok := uintParam(ctx, "id")
	if !ok {
		return
	}
	if err := t.svc.DeleteTask(ctx.Request.Context(), uid, id); err != nil {
		respondError(ctx, err)
		return
	}
	invalidateProgress(uid)
	utils.Confirmed(ctx, gin.H{"id": id})
}
