package controller

import (
	"social_events_backend/internal/repository"
	"social_events_backend/internal/service"
	"social_events_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

// UserController 处理用户相关的HTTP请求
type UserController struct {
	UserService       *service.UserService
	EventService      *service.EventService
	AssistanceService *service.AssistanceService
	FriendshipService *service.FriendshipService
	StorageService    *service.StorageService
}

func NewUserController(
	userService *service.UserService,
	eventService *service.EventService,
	assistanceService *service.AssistanceService,
	friendshipService *service.FriendshipService,
	storageService *service.StorageService,
) *UserController {
	return &UserController{
		UserService:       userService,
		EventService:      eventService,
		AssistanceService: assistanceService,
		FriendshipService: friendshipService,
		StorageService:    storageService,
	}
}

// UpdateUserRequest 部分更新，未传字段保持原值
// swagger:model UpdateUserRequest
type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1"`
	LastName *string `json:"last_name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=8"`
	Image    *string `json:"image"`
}

// GetUsers godoc
// @Summary 获取用户列表
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.User} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/users [get]
func (c *UserController) GetUsers(ctx *gin.Context) {
	users, err := c.UserService.ListUsers(ctx.Request.Context())
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, users)
}

// SearchUsers godoc
// @Summary 搜索用户
// @Description 名字、姓氏或邮箱包含关键字
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Param   s query string false "关键字"
// @Success 200 {object} util.Response{data=[]model.User} "成功"
// @Router /api/users/search [get]
func (c *UserController) SearchUsers(ctx *gin.Context) {
	users, err := c.UserService.SearchUsers(ctx.Request.Context(), ctx.Query("s"))
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, users)
}

// GetUser godoc
// @Summary 获取用户详情
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Param   userID path int true "用户ID"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/users/{userID} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	userID, ok := pathID(ctx, "userID", "user")
	if !ok {
		return
	}

	user, err := c.UserService.GetUser(ctx.Request.Context(), userID)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// UpdateMe godoc
// @Summary 编辑当前用户资料
// @Tags 用户
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body UpdateUserRequest true "需要修改的字段"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 409 {object} util.Response "邮箱已被注册"
// @Router /api/users [put]
func (c *UserController) UpdateMe(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.UserService.UpdateProfile(ctx.Request.Context(), claims.UserID, service.UserUpdate{
		Name:     req.Name,
		LastName: req.LastName,
		Email:    req.Email,
		Password: req.Password,
		Image:    req.Image,
	})
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// DeleteMe godoc
// @Summary 删除当前用户
// @Description 同时删除其活动、参与记录、好友关系和私信，并注销当前令牌
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/users [delete]
func (c *UserController) DeleteMe(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}

	if err := c.UserService.DeleteUser(ctx.Request.Context(), claims); err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// UploadImage godoc
// @Summary 上传头像
// @Tags 用户
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   image formData file true "图片"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 400 {object} util.Response "文件无效"
// @Router /api/users/image [post]
func (c *UserController) UploadImage(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}

	header, err := ctx.FormFile("image")
	if err != nil {
		util.BadRequest(ctx, "Image file is required")
		return
	}

	url, err := c.StorageService.UploadImage(ctx.Request.Context(), "users", header)
	if err != nil {
		handleError(ctx, err)
		return
	}

	if err := c.UserService.SetImage(ctx.Request.Context(), claims.UserID, url); err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"image": url})
}

// GetUserEvents godoc
// @Summary 用户创建的活动
// @Description scope 由路由决定：全部、future、finished、current
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Param   userID path int true "用户ID"
// @Success 200 {object} util.Response{data=[]model.Event} "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/users/{userID}/events [get]
func (c *UserController) GetUserEvents(scope repository.EventScope) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, ok := pathID(ctx, "userID", "user")
		if !ok {
			return
		}

		events, err := c.EventService.ListByOwner(ctx.Request.Context(), userID, scope, time.Now())
		if err != nil {
			handleError(ctx, err)
			return
		}
		util.Success(ctx, events)
	}
}

// GetUserAssistances godoc
// @Summary 用户参加的活动及评价
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Param   userID path int true "用户ID"
// @Success 200 {object} util.Response{data=[]model.EventWithAssistance} "成功"
// @Router /api/users/{userID}/assistances [get]
func (c *UserController) GetUserAssistances(scope repository.EventScope) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, ok := pathID(ctx, "userID", "user")
		if !ok {
			return
		}

		events, err := c.AssistanceService.GetUserAssistances(ctx.Request.Context(), userID, scope, time.Now())
		if err != nil {
			handleError(ctx, err)
			return
		}
		util.Success(ctx, events)
	}
}

// GetUserFriends godoc
// @Summary 指定用户的好友
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Param   userID path int true "用户ID"
// @Success 200 {object} util.Response{data=[]model.User} "成功"
// @Router /api/users/{userID}/friends [get]
func (c *UserController) GetUserFriends(ctx *gin.Context) {
	userID, ok := pathID(ctx, "userID", "user")
	if !ok {
		return
	}

	if err := c.FriendshipService.RequireUser(ctx.Request.Context(), userID); err != nil {
		handleError(ctx, err)
		return
	}

	friends, err := c.FriendshipService.GetFriends(ctx.Request.Context(), userID)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, friends)
}

// GetUserStatistics godoc
// @Summary 用户统计
// @Description 组织活动的平均评分、评论数、评论数低于该用户的用户占比
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Param   userID path int true "用户ID"
// @Success 200 {object} util.Response{data=model.UserStatistics} "成功"
// @Router /api/users/{userID}/statistics [get]
func (c *UserController) GetUserStatistics(ctx *gin.Context) {
	userID, ok := pathID(ctx, "userID", "user")
	if !ok {
		return
	}

	stats, err := c.AssistanceService.GetUserStatistics(ctx.Request.Context(), userID, time.Now())
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
