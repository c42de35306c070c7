package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shiftly/backend/internal/dto"
	"shiftly/backend/internal/service"
	"shiftly/backend/pkg/response"
)

// ScheduleHandler 排班模块 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// GetLatestGeneration 本周最新一次生成
// GET /api/v1/schedules/generations/latest?week_start=2026-10-19
func (h *ScheduleHandler) GetLatestGeneration(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	week, ok := mustGetWeekStart(c)
	if !ok {
		return
	}

	gen, err := h.scheduleSvc.GetLatestGeneration(c.Request.Context(), tenantID, week)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, gen)
}

// ListGenerations 本周生成历史（新 → 旧）
// GET /api/v1/schedules/generations?week_start=2026-10-19
func (h *ScheduleHandler) ListGenerations(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	week, ok := mustGetWeekStart(c)
	if !ok {
		return
	}

	items, err := h.scheduleSvc.ListGenerations(c.Request.Context(), tenantID, week)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": items})
}

// ListAssignments 本周全部排班
// GET /api/v1/schedules/assignments?week_start=2026-10-19
func (h *ScheduleHandler) ListAssignments(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	week, ok := mustGetWeekStart(c)
	if !ok {
		return
	}

	items, err := h.scheduleSvc.ListAssignments(c.Request.Context(), tenantID, week)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": items})
}

// GetMyAssignments 获取我的排班
// GET /api/v1/schedules/my?week_start=2026-10-19
func (h *ScheduleHandler) GetMyAssignments(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	workerID, ok := MustGetWorkerID(c)
	if !ok {
		return
	}
	week, ok := mustGetWeekStart(c)
	if !ok {
		return
	}

	items, err := h.scheduleSvc.GetMyAssignments(c.Request.Context(), tenantID, workerID, week)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": items})
}

// UpdateAssignment 店主改派
// PUT /api/v1/schedules/assignments/:id
func (h *ScheduleHandler) UpdateAssignment(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	ownerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 21001, "排班明细ID不能为空")
		return
	}

	var req dto.UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestWithDetails(c, 21001, "参数校验失败", err.Error())
		return
	}

	item, err := h.scheduleSvc.UpdateAssignment(c.Request.Context(), tenantID, id, ownerID, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, item)
}

// Regenerate 店主重新生成本周排班
// POST /api/v1/schedules/regenerate
func (h *ScheduleHandler) Regenerate(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	ownerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.RegenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestWithDetails(c, 21001, "参数校验失败", err.Error())
		return
	}

	gen, err := h.scheduleSvc.Regenerate(c.Request.Context(), tenantID, ownerID, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.Created(c, gen)
}

func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidWeekStart):
		response.BadRequest(c, 10001, err.Error())
	case errors.Is(err, service.ErrGenerationNotFound):
		response.NotFound(c, 21002, err.Error())
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 21003, err.Error())
	case errors.Is(err, service.ErrWorkerNotActive):
		response.BadRequest(c, 21004, err.Error())
	case errors.Is(err, service.ErrAssignmentConflict):
		response.Conflict(c, 21005, err.Error())
	case errors.Is(err, service.ErrWorkerDoubleBooked):
		response.Conflict(c, 21006, err.Error())
	case errors.Is(err, service.ErrNoActiveWorkers),
		errors.Is(err, service.ErrNoShiftTemplates),
		errors.Is(err, service.ErrNoRequirements):
		response.BadRequest(c, 21007, err.Error())
	case errors.Is(err, service.ErrTenantNotFound):
		response.NotFound(c, 21008, err.Error())
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/schedule_handler.go
