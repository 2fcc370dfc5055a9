package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"social_events_backend/internal/config"
	"social_events_backend/internal/controller"
	"social_events_backend/internal/middleware"
	"social_events_backend/internal/repository"
	"social_events_backend/internal/service"
	"social_events_backend/pkg/configwatcher"
	"social_events_backend/pkg/database"
	"social_events_backend/pkg/logger"
	"social_events_backend/pkg/monitoring"
	"social_events_backend/pkg/security"
	"social_events_backend/pkg/tracing"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const gaugeRefreshInterval = time.Minute

type App struct {
	Config     *config.Config
	ConfigPath string
	Router     *gin.Engine
	DB         *gorm.DB
	Redis      *redis.Client

	repos           *repositories
	services        *services
	tracerProvider  *sdktrace.TracerProvider
	configMu        sync.Mutex
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user       *repository.UserRepository
	event      *repository.EventRepository
	friendship *repository.FriendshipRepository
	assistance *repository.AssistanceRepository
	message    *repository.MessageRepository
	token      *repository.TokenRepository
}

type services struct {
	auth       *service.AuthService
	user       *service.UserService
	event      *service.EventService
	friendship *service.FriendshipService
	assistance *service.AssistanceService
	message    *service.MessageService
	storage    *service.StorageService
	export     *service.ExportService
}

type controllers struct {
	auth       *controller.AuthController
	user       *controller.UserController
	event      *controller.EventController
	assistance *controller.AssistanceController
	friend     *controller.FriendController
	message    *controller.MessageController
	health     *controller.HealthController
}

// RegisterConfigCallback 配置文件热更新后依次回调
func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configMu.Lock()
	defer a.configMu.Unlock()
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) applyConfig(cfg *config.Config) {
	a.configMu.Lock()
	callbacks := append([]func(*config.Config){}, a.configCallbacks...)
	a.configMu.Unlock()

	for _, cb := range callbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		event:      repository.NewEventRepository(db),
		friendship: repository.NewFriendshipRepository(db),
		assistance: repository.NewAssistanceRepository(db),
		message:    repository.NewMessageRepository(db),
		token:      repository.NewTokenRepository(rdb),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.export = service.NewExportService()
	s.auth = service.NewAuthService(repos.user, repos.token, cfg)
	s.user = service.NewUserService(repos.user, repos.token, cfg.Data.CascadeOnDelete)
	s.event = service.NewEventService(repos.event, s.user, cfg.Data.CascadeOnDelete)
	s.friendship = service.NewFriendshipService(repos.friendship, s.user, cfg.Friendship.CascadeDeleteMessages)
	s.assistance = service.NewAssistanceService(repos.assistance, s.event, s.user)
	s.message = service.NewMessageService(repos.message, s.user)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		user:       controller.NewUserController(s.user, s.event, s.assistance, s.friendship, s.storage),
		event:      controller.NewEventController(s.event, s.assistance, s.storage, s.export),
		assistance: controller.NewAssistanceController(s.assistance),
		friend:     controller.NewFriendController(s.friendship),
		message:    controller.NewMessageController(s.message),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.RequestID())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// refreshGauges 更新未开始活动数和待处理好友申请数
func (a *App) refreshGauges(ctx context.Context) {
	if n, err := a.services.event.CountUpcoming(ctx, time.Now()); err != nil {
		logger.Log.Warn("Failed to count upcoming events", zap.Error(err))
	} else {
		monitoring.UpcomingEvents.Set(float64(n))
	}

	if n, err := a.repos.friendship.CountPending(ctx); err != nil {
		logger.Log.Warn("Failed to count pending friend requests", zap.Error(err))
	} else {
		monitoring.PendingFriendRequests.Set(float64(n))
	}
}

func (a *App) startBackgroundTasks(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(gaugeRefreshInterval)
		defer ticker.Stop()

		a.refreshGauges(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.refreshGauges(ctx)
			}
		}
	}()

	if a.ConfigPath == "" {
		return
	}
	go func() {
		if err := configwatcher.WatchConfig(ctx, a.ConfigPath, a.applyConfig); err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

// New 在已建立的连接上组装仓储、服务、控制器和路由
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	app.repos = app.initRepositories(db, rdb)
	app.services = app.initServices(app.repos, cfg)
	controllers := app.initControllers(app.services, db, rdb)

	// 好友删除时是否级联删除私信，支持热更新
	friendship := app.services.friendship
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		friendship.SetCascadeDeleteMessages(newCfg.Friendship.CascadeDeleteMessages)
		logger.Log.Info("Friendship settings updated",
			zap.Bool("cascade_delete_messages", newCfg.Friendship.CascadeDeleteMessages))
	})

	// 监控初始化
	monitoring.Init()

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, app.repos, app.services, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

// NewApp 初始化日志、数据库、Redis 和追踪，configPath 为空时不监听配置变更
func NewApp(cfg *config.Config, configPath string) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := New(cfg, db, rdb)
	app.ConfigPath = configPath

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("social-events", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracerProvider = tp
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.startBackgroundTasks(ctx)

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
