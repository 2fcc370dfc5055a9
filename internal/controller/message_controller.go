package controller

import (
	"social_events_backend/internal/service"
	"social_events_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

type MessageController struct {
	MessageService *service.MessageService
}

func NewMessageController(messageService *service.MessageService) *MessageController {
	return &MessageController{MessageService: messageService}
}

// SendMessageRequest 私信
// swagger:model SendMessageRequest
type SendMessageRequest struct {
	Content        string `json:"content" binding:"required"`
	UserIDReceived uint   `json:"user_id_received" binding:"required"`
}

// SendMessage godoc
// @Summary 发送私信
// @Tags 私信
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body SendMessageRequest true "私信内容"
// @Success 201 {object} util.Response{data=model.Message} "发送成功"
// @Failure 400 {object} util.Response "不能发给自己或内容为空"
// @Failure 404 {object} util.Response "接收者不存在"
// @Router /api/messages [post]
func (c *MessageController) SendMessage(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	msg, err := c.MessageService.SendMessage(ctx.Request.Context(), claims.UserID, req.UserIDReceived, req.Content, time.Now())
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Created(ctx, msg)
}

// GetContacts godoc
// @Summary 给我发过私信的用户
// @Tags 私信
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.User} "成功"
// @Router /api/messages/users [get]
func (c *MessageController) GetContacts(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}

	users, err := c.MessageService.GetContacts(ctx.Request.Context(), claims.UserID)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, users)
}

// GetConversation godoc
// @Summary 与某用户的会话
// @Tags 私信
// @Produce  json
// @Security ApiKeyAuth
// @Param   userID path int true "对方用户ID"
// @Success 200 {object} util.Response{data=[]model.Message} "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/messages/{userID} [get]
func (c *MessageController) GetConversation(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	otherID, ok := pathID(ctx, "userID", "user")
	if !ok {
		return
	}

	messages, err := c.MessageService.GetConversation(ctx.Request.Context(), claims.UserID, otherID)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, messages)
}
