package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"salon-staff/internal/dto"
	"salon-staff/internal/service"
	"salon-staff/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ScheduleViewHandler 可用性查询与排班导出
type ScheduleViewHandler struct {
	availabilitySvc service.AvailabilityService
	exportSvc       service.ExportService
}

// NewScheduleViewHandler 创建 ScheduleViewHandler
func NewScheduleViewHandler(availabilitySvc service.AvailabilityService, exportSvc service.ExportService) *ScheduleViewHandler {
	return &ScheduleViewHandler{availabilitySvc: availabilitySvc, exportSvc: exportSvc}
}

// GetAvailability 员工在区间内的占用时段
// GET /api/v1/staff/:id/availability?from=&to=
func (h *ScheduleViewHandler) GetAvailability(c *gin.Context) {
	h.availability(c, c.Param("id"))
}

// GetMyAvailability 当前员工的占用时段
// GET /api/v1/me/availability?from=&to=
func (h *ScheduleViewHandler) GetMyAvailability(c *gin.Context) {
	staffID, ok := MustGetStaffMemberID(c)
	if !ok {
		return
	}
	h.availability(c, staffID)
}

func (h *ScheduleViewHandler) availability(c *gin.Context, staffID string) {
	var req dto.DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "from 与 to 不能为空")
		return
	}
	businessID, ok := MustGetBusinessID(c)
	if !ok {
		return
	}

	slots, err := h.availabilitySvc.GetAvailability(c.Request.Context(), businessID, staffID, &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.OK(c, gin.H{"list": slots})
}

// ExportRoster 导出排班表
// GET /api/v1/export/shifts.xlsx?from=&to=&locationId=
func (h *ScheduleViewHandler) ExportRoster(c *gin.Context) {
	var req dto.ExportShiftsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	businessID, ok := MustGetBusinessID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportRoster(c.Request.Context(), businessID, &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, filename, contentTypeXLSX, buf.Bytes())
}

// ExportStaffCalendar 导出员工日程
// GET /api/v1/staff/:id/schedule.ics?from=&to=
func (h *ScheduleViewHandler) ExportStaffCalendar(c *gin.Context) {
	var req dto.DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "from 与 to 不能为空")
		return
	}
	businessID, ok := MustGetBusinessID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportStaffCalendar(c.Request.Context(), businessID, c.Param("id"), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, filename, contentTypeICS, buf.Bytes())
}

func (h *ScheduleViewHandler) handleExportError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Error(c, http.StatusInternalServerError, 17001, "生成导出文件失败")
	default:
		response.InternalError(c)
	}
}
