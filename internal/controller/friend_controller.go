package controller

import (
	"social_events_backend/internal/service"
	"social_events_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type FriendController struct {
	FriendshipService *service.FriendshipService
}

func NewFriendController(friendshipService *service.FriendshipService) *FriendController {
	return &FriendController{FriendshipService: friendshipService}
}

// GetFriendRequests godoc
// @Summary 收到的好友申请
// @Tags 好友
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.User} "成功"
// @Router /api/friends/requests [get]
func (c *FriendController) GetFriendRequests(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}

	users, err := c.FriendshipService.GetPotentialFriends(ctx.Request.Context(), claims.UserID)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, users)
}

// GetFriends godoc
// @Summary 我的好友
// @Tags 好友
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.User} "成功"
// @Router /api/friends [get]
func (c *FriendController) GetFriends(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}

	users, err := c.FriendshipService.GetFriends(ctx.Request.Context(), claims.UserID)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, users)
}

// SendFriendRequest godoc
// @Summary 发送好友申请
// @Description 对方已向我申请时直接成为好友
// @Tags 好友
// @Produce  json
// @Security ApiKeyAuth
// @Param   userID path int true "目标用户ID"
// @Success 200 {object} util.Response{data=model.FriendRequestOutcome} "成功"
// @Failure 400 {object} util.Response "不能申请自己"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/friends/{userID} [post]
func (c *FriendController) SendFriendRequest(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	targetID, ok := pathID(ctx, "userID", "user")
	if !ok {
		return
	}

	if err := c.FriendshipService.RequireUser(ctx.Request.Context(), targetID); err != nil {
		handleError(ctx, err)
		return
	}

	outcome, err := c.FriendshipService.CreateFriendRequest(ctx.Request.Context(), claims.UserID, targetID)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Outcome(ctx, friendshipStatusCode(outcome), outcome.Message, outcome)
}

// AcceptFriendRequest godoc
// @Summary 接受好友申请
// @Tags 好友
// @Produce  json
// @Security ApiKeyAuth
// @Param   userID path int true "申请人ID"
// @Success 200 {object} util.Response{data=model.FriendRequestOutcome} "成功"
// @Failure 400 {object} util.Response "不能接受自己的申请"
// @Failure 404 {object} util.Response "申请不存在"
// @Router /api/friends/{userID} [put]
func (c *FriendController) AcceptFriendRequest(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	externalID, ok := pathID(ctx, "userID", "user")
	if !ok {
		return
	}

	outcome, err := c.FriendshipService.AcceptFriendRequest(ctx.Request.Context(), claims.UserID, externalID)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Outcome(ctx, friendshipStatusCode(outcome), outcome.Message, outcome)
}

// DeleteFriend godoc
// @Summary 撤回申请、拒绝申请或删除好友
// @Tags 好友
// @Produce  json
// @Security ApiKeyAuth
// @Param   userID path int true "对方用户ID"
// @Success 200 {object} util.Response{data=model.FriendRequestOutcome} "成功"
// @Failure 404 {object} util.Response "关系不存在"
// @Router /api/friends/{userID} [delete]
func (c *FriendController) DeleteFriend(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	externalID, ok := pathID(ctx, "userID", "user")
	if !ok {
		return
	}

	outcome, err := c.FriendshipService.DeleteFriendRequestOrFriendship(ctx.Request.Context(), claims.UserID, externalID)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Outcome(ctx, friendshipStatusCode(outcome), outcome.Message, outcome)
}
