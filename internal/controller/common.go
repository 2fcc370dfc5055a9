package controller

import (
	"errors"
	"net/http"
	"social_events_backend/internal/model"
	"social_events_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// handleError 把服务层错误映射为 HTTP 状态码，未知错误按 500 记录
func handleError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrUserNotFound),
		errors.Is(err, util.ErrEventNotFound),
		errors.Is(err, util.ErrAssistanceNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrNotEventOwner):
		util.Forbidden(ctx, err.Error())
	case errors.Is(err, util.ErrEmailRegistered):
		util.Error(ctx, http.StatusConflict, err.Error())
	case errors.Is(err, util.ErrInvalidCredentials):
		util.Error(ctx, http.StatusUnauthorized, err.Error())
	case errors.Is(err, util.ErrEventNotFinished),
		errors.Is(err, util.ErrInvalidPunctuation),
		errors.Is(err, util.ErrInvalidEventDates),
		errors.Is(err, util.ErrSelfMessage),
		errors.Is(err, util.ErrEmptyMessage),
		errors.Is(err, util.ErrInvalidImage),
		errors.Is(err, util.ErrImageTooLarge),
		errors.Is(err, util.ErrPasswordTooShort),
		errors.Is(err, util.ErrInvalidDate):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// friendshipStatusCode 自我申请/自我接受为 400，找不到为 404，其余结果为 200
func friendshipStatusCode(outcome model.FriendRequestOutcome) int {
	switch outcome.Outcome {
	case model.FriendCannotSelfRequest.Outcome, model.FriendCannotSelfAccept.Outcome:
		return http.StatusBadRequest
	case model.FriendNotFound.Outcome:
		return http.StatusNotFound
	default:
		return http.StatusOK
	}
}

// pathID 解析路径参数，失败时已写入 400 响应
func pathID(ctx *gin.Context, param, label string) (uint, bool) {
	id, ok := util.ParseID(ctx.Param(param))
	if !ok {
		util.BadRequest(ctx, "Invalid "+label+" ID")
	}
	return id, ok
}

// currentUser 认证中间件之后调用
func currentUser(ctx *gin.Context) (*util.Claims, bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return nil, false
	}
	return claims, true
}
