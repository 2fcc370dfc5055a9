package app

import (
	"social_events_backend/docs"
	"social_events_backend/internal/config"
	"social_events_backend/internal/middleware"
	"social_events_backend/internal/repository"
	"social_events_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, s *services, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg, s.user, repos.token))
	{
		authGroup.POST("/logout", c.auth.Logout)

		a.registerUserRoutes(authGroup, c)
		a.registerEventRoutes(authGroup, c)
		a.registerAssistanceRoutes(authGroup, c)
		a.registerFriendRoutes(authGroup, c)
		a.registerMessageRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerUserRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/users", c.user.GetUsers)
	rg.PUT("/users", c.user.UpdateMe)
	rg.DELETE("/users", c.user.DeleteMe)
	rg.GET("/users/search", c.user.SearchUsers)
	rg.POST("/users/image", c.user.UploadImage)
	rg.GET("/users/:userID", c.user.GetUser)

	// 用户组织的活动
	rg.GET("/users/:userID/events", c.user.GetUserEvents(repository.EventScopeAll))
	rg.GET("/users/:userID/events/future", c.user.GetUserEvents(repository.EventScopeFuture))
	rg.GET("/users/:userID/events/finished", c.user.GetUserEvents(repository.EventScopeFinished))
	rg.GET("/users/:userID/events/current", c.user.GetUserEvents(repository.EventScopeCurrent))

	// 用户参加的活动
	rg.GET("/users/:userID/assistances", c.user.GetUserAssistances(repository.EventScopeAll))
	rg.GET("/users/:userID/assistances/future", c.user.GetUserAssistances(repository.EventScopeFuture))
	rg.GET("/users/:userID/assistances/finished", c.user.GetUserAssistances(repository.EventScopeFinished))

	rg.GET("/users/:userID/friends", c.user.GetUserFriends)
	rg.GET("/users/:userID/statistics", c.user.GetUserStatistics)
}

func (a *App) registerEventRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.POST("/events", c.event.CreateEvent)
	rg.GET("/events", c.event.GetEvents)
	rg.GET("/events/best", c.event.GetBestEvents)
	rg.GET("/events/search", c.event.SearchEvents)
	rg.GET("/events/:eventID", c.event.GetEvent)
	rg.PUT("/events/:eventID", c.event.UpdateEvent)
	rg.DELETE("/events/:eventID", c.event.DeleteEvent)
	rg.POST("/events/:eventID/image", c.event.UploadImage)

	rg.GET("/events/:eventID/assistances", c.event.GetEventAssistances)
	rg.DELETE("/events/:eventID/assistances", c.event.LeaveEvent)
	rg.GET("/events/:eventID/assistances/export", c.event.ExportAssistances)
	rg.GET("/events/:eventID/assistances/:userID", c.event.GetUserEventAssistance)
}

func (a *App) registerAssistanceRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.POST("/assistances/:eventID", c.assistance.JoinEvent)
	rg.PUT("/assistances/:eventID", c.assistance.RateAssistance)
	rg.GET("/assistances/:userID/:eventID", c.assistance.GetAssistance)
	rg.DELETE("/assistances/:userID/:eventID", c.assistance.RemoveAssistant)
}

func (a *App) registerFriendRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/friends", c.friend.GetFriends)
	rg.GET("/friends/requests", c.friend.GetFriendRequests)
	rg.POST("/friends/:userID", c.friend.SendFriendRequest)
	rg.PUT("/friends/:userID", c.friend.AcceptFriendRequest)
	rg.DELETE("/friends/:userID", c.friend.DeleteFriend)
}

func (a *App) registerMessageRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.POST("/messages", c.message.SendMessage)
	rg.GET("/messages/users", c.message.GetContacts)
	rg.GET("/messages/:userID", c.message.GetConversation)
}
