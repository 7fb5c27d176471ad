// Package server contains the HTTP handlers and routing for the vidtube API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vidtube/internal/auth"
	"vidtube/internal/bootstrap"
	"vidtube/internal/config"
	"vidtube/internal/events"
	"vidtube/internal/featureflags"
	"vidtube/internal/media"
	"vidtube/internal/middleware"
	"vidtube/internal/repository"
	"vidtube/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config              *config.Config
	db                  *gorm.DB
	redis               *redis.Client
	app                 *fiber.App
	promMiddleware      *fiberprometheus.FiberPrometheus
	store               media.Store
	publisher           events.Publisher
	tokens              *auth.TokenIssuer
	featureFlags        *featureflags.Manager
	userService         *service.UserService
	videoService        *service.VideoService
	commentService      *service.CommentService
	playlistService     *service.PlaylistService
	subscriptionService *service.SubscriptionService
}

// Deps are the already-initialized collaborators of a Server.
type Deps struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Store     media.Store
	Publisher events.Publisher
}

// NewServer connects to the database, Redis, the media host and the broker, then builds the server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		return nil, err
	}

	store, err := media.NewS3Store(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("media store initialization failed: %w", err)
	}

	return NewServerWithDeps(cfg, Deps{
		DB:        db,
		Redis:     redisClient,
		Store:     store,
		Publisher: events.NewPublisher(cfg.AMQPURL),
	})
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("media store is required")
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NoopPublisher{}
	}

	userRepo := repository.NewUserRepository(deps.DB, deps.Redis)
	videoRepo := repository.NewVideoRepository(deps.DB)
	commentRepo := repository.NewCommentRepository(deps.DB)
	playlistRepo := repository.NewPlaylistRepository(deps.DB)
	subscriptionRepo := repository.NewSubscriptionRepository(deps.DB)
	historyRepo := repository.NewWatchHistoryRepository(deps.DB)

	s := &Server{
		config:         cfg,
		db:             deps.DB,
		redis:          deps.Redis,
		promMiddleware: middleware.InitMetrics("vidtube-api"),
		store:          deps.Store,
		publisher:      deps.Publisher,
		tokens:         auth.NewTokenIssuer(cfg),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	s.userService = service.NewUserService(userRepo, historyRepo, deps.Store, s.tokens, auth.NewRevoker(deps.Redis), deps.Publisher)
	s.videoService = service.NewVideoService(videoRepo, historyRepo, deps.Store, deps.Publisher, s.featureFlags)
	s.commentService = service.NewCommentService(commentRepo, videoRepo, s.userService.IsAdmin)
	s.playlistService = service.NewPlaylistService(playlistRepo, videoRepo)
	s.subscriptionService = service.NewSubscriptionService(subscriptionRepo, userRepo)

	return s, nil
}

// NewApp builds a Fiber app with the full middleware chain and routes.
func (s *Server) NewApp() *fiber.App {
	bodyLimit := s.config.BodyLimitMB << 20
	if bodyLimit <= 0 {
		bodyLimit = fiber.DefaultBodyLimit
	}
	app := fiber.New(fiber.Config{
		AppName:      "vidtube API",
		ErrorHandler: ErrorHandler,
		BodyLimit:    bodyLimit,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PATCH,PUT,DELETE,OPTIONS",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, please try again later")
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api/v1")
	api.Get("/healthcheck", s.ReadinessCheck)
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "vidtube Metrics Dashboard",
	}))

	authRequired := s.AuthRequired()
	uploadDir := s.config.UploadTempDir
	uploadMax := s.config.UploadMaxBytes()

	users := api.Group("/users")
	users.Post("/register",
		middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"),
		middleware.StageUploads(uploadDir, uploadMax, "avatar", "coverImage"),
		s.Register)
	users.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	users.Post("/refreshToken", middleware.RateLimit(s.redis, 30, 5*time.Minute, "refresh"), s.RefreshToken)
	users.Post("/logout", authRequired, s.Logout)
	users.Post("/updatePassword", authRequired,
		middleware.RateLimitWithPolicy(s.redis, 5, 10*time.Minute, middleware.FailClosed, "update_password"),
		s.UpdatePassword)
	users.Get("/getUserInfo", authRequired, s.GetUserInfo)
	users.Patch("/updateAccDetails", authRequired, s.UpdateAccountDetails)
	users.Patch("/updateAvatar", authRequired,
		middleware.StageUploads(uploadDir, uploadMax, "avatar"), s.UpdateAvatar)
	users.Patch("/updateCoverImage", authRequired,
		middleware.StageUploads(uploadDir, uploadMax, "coverImage"), s.UpdateCoverImage)
	users.Get("/c/:username", authRequired, s.GetChannelProfile)
	users.Get("/getWatchedHistory", authRequired, s.GetWatchHistory)

	videos := api.Group("/videos")
	videos.Get("/", s.OptionalAuth(), s.ListVideos)
	videos.Post("/", authRequired,
		middleware.RateLimit(s.redis, 20, time.Hour, "publish_video"),
		middleware.StageUploads(uploadDir, uploadMax, "videoFile", "thumbnail"),
		s.PublishVideo)
	// Specific routes before the generic /:videoId routes
	videos.Patch("/toggle/publish/:videoId", authRequired, s.TogglePublish)
	videos.Get("/:videoId", authRequired, s.GetVideo)
	videos.Patch("/:videoId", authRequired,
		middleware.StageUploads(uploadDir, uploadMax, "thumbnail"), s.UpdateVideo)
	videos.Delete("/:videoId", authRequired, s.DeleteVideo)

	comments := api.Group("/comments", authRequired)
	comments.Patch("/c/:commentId", s.UpdateComment)
	comments.Delete("/c/:commentId", s.DeleteComment)
	comments.Get("/:videoId", s.GetComments)
	comments.Post("/:videoId", middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.CreateComment)

	playlists := api.Group("/playlists", authRequired)
	playlists.Post("/", s.CreatePlaylist)
	playlists.Post("/createPlaylist", s.CreatePlaylist)
	playlists.Get("/user/:userId", s.GetUserPlaylists)
	playlists.Patch("/:playlistId/videos/:videoId", s.ChangePlaylistVideo)
	playlists.Get("/:playlistId", s.GetPlaylist)
	playlists.Patch("/:playlistId", s.UpdatePlaylist)
	playlists.Delete("/:playlistId", s.DeletePlaylist)

	subscriptions := api.Group("/subscriptions", authRequired)
	subscriptions.Post("/c/:channelId", s.ToggleSubscription)
	subscriptions.Get("/c/:channelId", s.GetChannelSubscribers)
	subscriptions.Get("/u/:subscriberId", s.GetSubscribedChannels)

	admin := api.Group("/admin", authRequired, s.AdminRequired())
	admin.Get("/feature-flags", s.GetFeatureFlags)
	admin.Get("/users", s.ListAdmins)
	admin.Post("/users/:username/promote", s.PromoteToAdmin)
	admin.Post("/users/:username/demote", s.DemoteFromAdmin)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether the database and Redis are reachable.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.publisher.Close(); err != nil {
		middleware.Logger.Error("error closing event publisher", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
