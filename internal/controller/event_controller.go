package controller

import (
	"bytes"
	"fmt"
	"net/http"
	"social_events_backend/internal/model"
	"social_events_backend/internal/service"
	"social_events_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

type EventController struct {
	EventService      *service.EventService
	AssistanceService *service.AssistanceService
	StorageService    *service.StorageService
	ExportService     *service.ExportService
}

func NewEventController(
	eventService *service.EventService,
	assistanceService *service.AssistanceService,
	storageService *service.StorageService,
	exportService *service.ExportService,
) *EventController {
	return &EventController{
		EventService:      eventService,
		AssistanceService: assistanceService,
		StorageService:    storageService,
		ExportService:     exportService,
	}
}

// CreateEventRequest 日期为 ISO 8601 字符串
// swagger:model CreateEventRequest
type CreateEventRequest struct {
	Name           string `json:"name" binding:"required"`
	Image          string `json:"image"`
	Location       string `json:"location" binding:"required"`
	Description    string `json:"description" binding:"required"`
	EventStartDate string `json:"eventStart_date" binding:"required"`
	EventEndDate   string `json:"eventEnd_date" binding:"required"`
	NParticipators int    `json:"n_participators" binding:"required,min=1"`
	Type           string `json:"type" binding:"required"`
}

// UpdateEventRequest 部分更新
// swagger:model UpdateEventRequest
type UpdateEventRequest struct {
	Name           *string `json:"name" binding:"omitempty,min=1"`
	Image          *string `json:"image"`
	Location       *string `json:"location"`
	Description    *string `json:"description"`
	EventStartDate *string `json:"eventStart_date"`
	EventEndDate   *string `json:"eventEnd_date"`
	NParticipators *int    `json:"n_participators" binding:"omitempty,min=1"`
	Type           *string `json:"type"`
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := util.ParseDateTime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateEvent godoc
// @Summary 创建活动
// @Tags 活动
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body CreateEventRequest true "活动信息"
// @Success 201 {object} util.Response{data=object} "创建成功"
// @Failure 400 {object} util.Response "参数错误"
// @Router /api/events [post]
func (c *EventController) CreateEvent(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	start, err := util.ParseDateTime(req.EventStartDate)
	if err != nil {
		util.BadRequest(ctx, "Invalid eventStart_date")
		return
	}
	end, err := util.ParseDateTime(req.EventEndDate)
	if err != nil {
		util.BadRequest(ctx, "Invalid eventEnd_date")
		return
	}

	event := &model.Event{
		OwnerID:        claims.UserID,
		Name:           req.Name,
		Image:          req.Image,
		Location:       req.Location,
		Description:    req.Description,
		EventStartDate: start,
		EventEndDate:   end,
		NParticipators: req.NParticipators,
		Type:           req.Type,
	}
	if err := c.EventService.CreateEvent(ctx.Request.Context(), event); err != nil {
		handleError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"id": event.ID})
}

// GetEvents godoc
// @Summary 未开始的活动
// @Tags 活动
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Event} "成功"
// @Router /api/events [get]
func (c *EventController) GetEvents(ctx *gin.Context) {
	events, err := c.EventService.ListUpcoming(ctx.Request.Context(), time.Now())
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, events)
}

// GetBestEvents godoc
// @Summary 推荐活动
// @Description 按组织者已结束活动的平均评分排序
// @Tags 活动
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Event} "成功"
// @Router /api/events/best [get]
func (c *EventController) GetBestEvents(ctx *gin.Context) {
	events, err := c.EventService.ListBest(ctx.Request.Context(), time.Now())
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, events)
}

// SearchEvents godoc
// @Summary 搜索活动
// @Tags 活动
// @Produce  json
// @Security ApiKeyAuth
// @Param   location query string false "地点"
// @Param   keyword query string false "名称关键字"
// @Param   date query string false "开始日期 YYYY-MM-DD"
// @Success 200 {object} util.Response{data=[]model.Event} "成功"
// @Failure 400 {object} util.Response "日期格式错误"
// @Router /api/events/search [get]
func (c *EventController) SearchEvents(ctx *gin.Context) {
	events, err := c.EventService.Search(ctx.Request.Context(), model.EventFilter{
		Keyword:  ctx.Query("keyword"),
		Location: ctx.Query("location"),
		Date:     ctx.Query("date"),
	})
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, events)
}

// GetEvent godoc
// @Summary 活动详情
// @Tags 活动
// @Produce  json
// @Security ApiKeyAuth
// @Param   eventID path int true "活动ID"
// @Success 200 {object} util.Response{data=model.Event} "成功"
// @Failure 404 {object} util.Response "活动不存在"
// @Router /api/events/{eventID} [get]
func (c *EventController) GetEvent(ctx *gin.Context) {
	eventID, ok := pathID(ctx, "eventID", "event")
	if !ok {
		return
	}

	event, err := c.EventService.GetEvent(ctx.Request.Context(), eventID)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, event)
}

// UpdateEvent godoc
// @Summary 编辑活动
// @Description 仅组织者可编辑
// @Tags 活动
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   eventID path int true "活动ID"
// @Param   body body UpdateEventRequest true "需要修改的字段"
// @Success 200 {object} util.Response{data=model.Event} "成功"
// @Failure 403 {object} util.Response "不是组织者"
// @Router /api/events/{eventID} [put]
func (c *EventController) UpdateEvent(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	eventID, ok := pathID(ctx, "eventID", "event")
	if !ok {
		return
	}

	var req UpdateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	start, err := parseOptionalDate(req.EventStartDate)
	if err != nil {
		util.BadRequest(ctx, "Invalid eventStart_date")
		return
	}
	end, err := parseOptionalDate(req.EventEndDate)
	if err != nil {
		util.BadRequest(ctx, "Invalid eventEnd_date")
		return
	}

	event, err := c.EventService.UpdateEvent(ctx.Request.Context(), claims.UserID, eventID, service.EventUpdate{
		Name:           req.Name,
		Image:          req.Image,
		Location:       req.Location,
		Description:    req.Description,
		EventStartDate: start,
		EventEndDate:   end,
		NParticipators: req.NParticipators,
		Type:           req.Type,
	})
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, event)
}

// DeleteEvent godoc
// @Summary 删除活动
// @Tags 活动
// @Produce  json
// @Security ApiKeyAuth
// @Param   eventID path int true "活动ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response "不是组织者"
// @Router /api/events/{eventID} [delete]
func (c *EventController) DeleteEvent(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	eventID, ok := pathID(ctx, "eventID", "event")
	if !ok {
		return
	}

	if err := c.EventService.DeleteEvent(ctx.Request.Context(), claims.UserID, eventID); err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// UploadImage godoc
// @Summary 上传活动图片
// @Tags 活动
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   eventID path int true "活动ID"
// @Param   image formData file true "图片"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/events/{eventID}/image [post]
func (c *EventController) UploadImage(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	eventID, ok := pathID(ctx, "eventID", "event")
	if !ok {
		return
	}

	// 先校验归属，避免为无权限的请求写入存储
	if _, err := c.EventService.RequireOwner(ctx.Request.Context(), claims.UserID, eventID); err != nil {
		handleError(ctx, err)
		return
	}

	header, err := ctx.FormFile("image")
	if err != nil {
		util.BadRequest(ctx, "Image file is required")
		return
	}

	url, err := c.StorageService.UploadImage(ctx.Request.Context(), "events", header)
	if err != nil {
		handleError(ctx, err)
		return
	}

	if err := c.EventService.SetImage(ctx.Request.Context(), claims.UserID, eventID, url); err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"image": url})
}

// GetEventAssistances godoc
// @Summary 活动参与者
// @Tags 活动
// @Produce  json
// @Security ApiKeyAuth
// @Param   eventID path int true "活动ID"
// @Success 200 {object} util.Response{data=[]model.Assistant} "成功"
// @Router /api/events/{eventID}/assistances [get]
func (c *EventController) GetEventAssistances(ctx *gin.Context) {
	eventID, ok := pathID(ctx, "eventID", "event")
	if !ok {
		return
	}

	assistants, err := c.AssistanceService.GetEventAssistances(ctx.Request.Context(), eventID)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, assistants)
}

// GetUserEventAssistance godoc
// @Summary 某用户在活动中的参与记录
// @Tags 活动
// @Produce  json
// @Security ApiKeyAuth
// @Param   eventID path int true "活动ID"
// @Param   userID path int true "用户ID"
// @Success 200 {object} util.Response{data=model.Assistant} "成功"
// @Failure 404 {object} util.Response "未参加"
// @Router /api/events/{eventID}/assistances/{userID} [get]
func (c *EventController) GetUserEventAssistance(ctx *gin.Context) {
	eventID, ok := pathID(ctx, "eventID", "event")
	if !ok {
		return
	}
	userID, ok := pathID(ctx, "userID", "user")
	if !ok {
		return
	}

	assistant, err := c.AssistanceService.GetUserEventAssistance(ctx.Request.Context(), eventID, userID)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, assistant)
}

// LeaveEvent godoc
// @Summary 退出活动
// @Tags 活动
// @Produce  json
// @Security ApiKeyAuth
// @Param   eventID path int true "活动ID"
// @Success 200 {object} util.Response{data=model.AssistanceOutcome} "成功"
// @Router /api/events/{eventID}/assistances [delete]
func (c *EventController) LeaveEvent(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	eventID, ok := pathID(ctx, "eventID", "event")
	if !ok {
		return
	}

	outcome, err := c.AssistanceService.LeaveEvent(ctx.Request.Context(), claims.UserID, eventID)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Outcome(ctx, http.StatusOK, outcome.Message, outcome)
}

// ExportAssistances godoc
// @Summary 导出参与者
// @Description 组织者导出参与者和评价为 xlsx
// @Tags 活动
// @Produce  application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security ApiKeyAuth
// @Param   eventID path int true "活动ID"
// @Success 200 {file} file "xlsx 文件"
// @Failure 403 {object} util.Response "不是组织者"
// @Router /api/events/{eventID}/assistances/export [get]
func (c *EventController) ExportAssistances(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	eventID, ok := pathID(ctx, "eventID", "event")
	if !ok {
		return
	}

	event, err := c.EventService.RequireOwner(ctx.Request.Context(), claims.UserID, eventID)
	if err != nil {
		handleError(ctx, err)
		return
	}

	assistants, err := c.AssistanceService.GetEventAssistances(ctx.Request.Context(), eventID)
	if err != nil {
		handleError(ctx, err)
		return
	}

	var buf bytes.Buffer
	if err := c.ExportService.WriteEventAssistancesXLSX(&buf, event, assistants); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="event_%d_assistances.xlsx"`, event.ID))
	ctx.Data(http.StatusOK, util.MimeXLSX, buf.Bytes())
}
