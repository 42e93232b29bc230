package app

import (
	"context"
	"course_sync/internal/config"
	"course_sync/internal/controller"
	"course_sync/internal/remote"
	"course_sync/internal/repository"
	"course_sync/internal/service"
	"course_sync/internal/util"
	"course_sync/pkg/configwatcher"
	"course_sync/pkg/database"
	"course_sync/pkg/logger"
	"course_sync/pkg/monitoring"
	"course_sync/pkg/security"
	"course_sync/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config    *config.Config
	ConfigDir string
	Router    *gin.Engine
	DB        *gorm.DB
	Redis     *redis.Client
	Store     repository.KVStore

	repos           *repositories
	services        *services
	tracerProvider  *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	progress   *repository.ProgressRepository
	enrollment *repository.EnrollmentRepository
	user       *repository.UserRepository
}

type services struct {
	backend     *remote.Client
	storage     *service.StorageService
	sync        *service.SyncService
	scheduler   *service.SyncScheduler
	catalog     *service.CatalogService
	completion  *service.CompletionService
	certificate *service.CertificateService
	user        *service.UserService
}

type controllers struct {
	health      *controller.HealthController
	session     *controller.SessionController
	course      *controller.CourseController
	progress    *controller.ProgressController
	certificate *controller.CertificateController
	sync        *controller.SyncController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ReloadConfig 配置文件变更后调用
func (a *App) ReloadConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

// initStore 按 storage.driver 选择本地键值存储
func (a *App) initStore(cfg *config.Config) (repository.KVStore, error) {
	switch cfg.Storage.Driver {
	case util.DriverMemory:
		return repository.NewMemoryKVStore(), nil
	case util.DriverRedis:
		rdb, err := database.InitRedis(context.Background(), &cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.Redis = rdb
		return repository.NewRedisKVStore(rdb, cfg.Storage.KeyPrefix), nil
	default:
		db, err := database.InitDB(cfg)
		if err != nil {
			return nil, err
		}
		a.DB = db
		return repository.NewGormKVStore(db), nil
	}
}

func (a *App) initRepositories(store repository.KVStore) *repositories {
	return &repositories{
		progress:   repository.NewProgressRepository(store),
		enrollment: repository.NewEnrollmentRepository(store),
		user:       repository.NewUserRepository(store),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, store repository.KVStore) *services {
	s := &services{}

	s.backend = remote.NewClient(&cfg.Backend)
	s.storage = service.NewStorageService(&cfg.Archive)
	s.sync = service.NewSyncService(s.backend, repos.progress, repos.user, cfg.Sync.Timeout)
	if cfg.Sync.Enabled {
		s.scheduler = service.NewSyncScheduler(s.sync, cfg.Sync.Interval, cfg.Sync.InitialDelay)
	}
	s.catalog = service.NewCatalogService(s.backend, store, repos.enrollment)
	s.completion = service.NewCompletionService(s.catalog, repos.progress, s.sync)
	s.certificate = service.NewCertificateService(s.catalog, repos.progress, repos.user, s.backend, s.storage)
	s.user = service.NewUserService(s.backend, repos.user, s.sync, s.scheduler)

	return s
}

func (a *App) initControllers(s *services, repos *repositories, store repository.KVStore) *controllers {
	return &controllers{
		health:      controller.NewHealthController(store),
		session:     controller.NewSessionController(s.user),
		course:      controller.NewCourseController(s.catalog, repos.progress, s.sync),
		progress:    controller.NewProgressController(repos.progress, s.catalog, s.completion, s.certificate),
		certificate: controller.NewCertificateController(s.certificate),
		sync:        controller.NewSyncController(s.sync),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) registerDefaultCallbacks() {
	a.RegisterConfigCallback(func(cfg *config.Config) {
		scheduler := a.services.scheduler
		if scheduler == nil {
			return
		}
		if !cfg.Sync.Enabled {
			scheduler.Stop()
			return
		}
		if err := scheduler.UpdateInterval(cfg.Sync.Interval, cfg.Sync.InitialDelay); err != nil {
			logger.Log.Error("Failed to apply new sync interval", zap.Error(err))
		}
	})
}

func NewApp(cfg *config.Config) *App {
	if err := logger.InitLogger(cfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	a := &App{}
	store, err := a.initStore(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize local store", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
		log.Fatalf("Failed to initialize local store: %v", err)
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		a.tracerProvider = tp
	}

	return a.build(cfg, store)
}

// Build 使用给定的本地存储组装应用
func Build(cfg *config.Config, store repository.KVStore) *App {
	return (&App{}).build(cfg, store)
}

func (a *App) build(cfg *config.Config, store repository.KVStore) *App {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	a.Config = cfg
	a.Store = store
	a.repos = a.initRepositories(store)
	a.services = a.initServices(a.repos, cfg, store)
	controllers := a.initControllers(a.services, a.repos, store)

	// 监控初始化
	monitoring.Init()

	router := gin.New()
	router.Use(gin.Recovery())
	a.Router = router

	a.setupMiddlewares(router, cfg)
	a.registerRoutes(router, controllers, a.repos)
	a.registerDefaultCallbacks()

	return a
}

// startBackgroundTasks 冷启动：已有登录用户时后台同步一次并开始定时同步
func (a *App) startBackgroundTasks() {
	user, err := a.repos.user.Current(context.Background())
	if err != nil {
		logger.Log.Error("Failed to read stored user", zap.Error(err))
		return
	}
	if user == nil {
		logger.Log.Info("No stored user, waiting for login before syncing")
		return
	}

	a.services.sync.SyncAllInBackground()
	if a.services.scheduler != nil {
		if err := a.services.scheduler.Start(); err != nil {
			logger.Log.Error("Failed to start sync scheduler", zap.Error(err))
		}
	}
}

// SyncOnce 前台执行一次全量同步，用于 -sync-now
func (a *App) SyncOnce() (*service.SyncReport, error) {
	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Sync.Timeout)
	defer cancel()
	return a.services.sync.SyncAll(ctx)
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	a.startBackgroundTasks()

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	if a.ConfigDir != "" {
		go func() {
			if err := configwatcher.WatchConfig(watchCtx, a.ConfigDir, a.ReloadConfig); err != nil {
				logger.Log.Warn("Config hot reload disabled", zap.Error(err))
			}
		}()
	}

	// 等待中断信号优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	stopWatch()
	a.Shutdown(srv)
	logger.Log.Info("Server exiting")
}

// Shutdown 停止定时同步，等待进行中的后台同步结束
func (a *App) Shutdown(srv *http.Server) {
	if a.services.scheduler != nil {
		a.services.scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Log.Error("Server forced to shutdown", zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		a.services.sync.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(a.Config.Sync.Timeout):
		logger.Log.Warn("Background sync still running at shutdown")
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
	logger.Log.Sync()
}
