package controller

import (
	"net/http"
	"social_events_backend/internal/model"
	"social_events_backend/internal/service"
	"social_events_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

type AssistanceController struct {
	AssistanceService *service.AssistanceService
}

func NewAssistanceController(assistanceService *service.AssistanceService) *AssistanceController {
	return &AssistanceController{AssistanceService: assistanceService}
}

// JoinEvent godoc
// @Summary 参加活动
// @Description 重复参加返回 ALREADY_JOINED
// @Tags 参与
// @Produce  json
// @Security ApiKeyAuth
// @Param   eventID path int true "活动ID"
// @Success 200 {object} util.Response{data=model.AssistanceOutcome} "成功"
// @Failure 404 {object} util.Response "活动不存在"
// @Router /api/assistances/{eventID} [post]
func (c *AssistanceController) JoinEvent(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	eventID, ok := pathID(ctx, "eventID", "event")
	if !ok {
		return
	}

	if _, err := c.AssistanceService.ResolveEvent(ctx.Request.Context(), eventID); err != nil {
		handleError(ctx, err)
		return
	}

	outcome, err := c.AssistanceService.CreateAssistance(ctx.Request.Context(), claims.UserID, eventID)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Outcome(ctx, http.StatusOK, outcome.Message, outcome)
}

// GetAssistance godoc
// @Summary 查询参与记录
// @Tags 参与
// @Produce  json
// @Security ApiKeyAuth
// @Param   userID path int true "用户ID"
// @Param   eventID path int true "活动ID"
// @Success 200 {object} util.Response{data=model.Assistance} "成功"
// @Failure 404 {object} util.Response "未参加"
// @Router /api/assistances/{userID}/{eventID} [get]
func (c *AssistanceController) GetAssistance(ctx *gin.Context) {
	userID, ok := pathID(ctx, "userID", "user")
	if !ok {
		return
	}
	eventID, ok := pathID(ctx, "eventID", "event")
	if !ok {
		return
	}

	assistance, err := c.AssistanceService.GetAssistanceOfUserForEvent(ctx.Request.Context(), userID, eventID)
	if err != nil {
		handleError(ctx, err)
		return
	}
	if assistance == nil {
		handleError(ctx, util.ErrAssistanceNotFound)
		return
	}
	util.Success(ctx, assistance)
}

// RateAssistance godoc
// @Summary 评价活动
// @Description 活动结束后才能评分，分数 0 到 10
// @Tags 参与
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   eventID path int true "活动ID"
// @Param   body body model.AssistanceRating true "评分和评论"
// @Success 200 {object} util.Response{data=model.AssistanceOutcome} "成功"
// @Failure 400 {object} util.Response "活动未结束或分数无效"
// @Failure 404 {object} util.Response "未参加"
// @Router /api/assistances/{eventID} [put]
func (c *AssistanceController) RateAssistance(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	eventID, ok := pathID(ctx, "eventID", "event")
	if !ok {
		return
	}

	var rating model.AssistanceRating
	if err := ctx.ShouldBindJSON(&rating); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	outcome, err := c.AssistanceService.RateAssistance(ctx.Request.Context(), claims.UserID, eventID, rating, time.Now())
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Outcome(ctx, http.StatusOK, outcome.Message, outcome)
}

// RemoveAssistant godoc
// @Summary 组织者移除参与者
// @Tags 参与
// @Produce  json
// @Security ApiKeyAuth
// @Param   userID path int true "用户ID"
// @Param   eventID path int true "活动ID"
// @Success 200 {object} util.Response{data=model.AssistanceOutcome} "成功"
// @Failure 403 {object} util.Response "不是组织者"
// @Router /api/assistances/{userID}/{eventID} [delete]
func (c *AssistanceController) RemoveAssistant(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	userID, ok := pathID(ctx, "userID", "user")
	if !ok {
		return
	}
	eventID, ok := pathID(ctx, "eventID", "event")
	if !ok {
		return
	}

	outcome, err := c.AssistanceService.RemoveAssistant(ctx.Request.Context(), claims.UserID, userID, eventID)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Outcome(ctx, http.StatusOK, outcome.Message, outcome)
}
