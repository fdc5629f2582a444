package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"anoa.com/dailydebate/internal/config"
	"anoa.com/dailydebate/internal/middleware"
	"anoa.com/dailydebate/internal/scheduler"
	"anoa.com/dailydebate/pkg/calendar"

	answerHttp "anoa.com/dailydebate/internal/modules/answer/delivery/http"
	answerRepo "anoa.com/dailydebate/internal/modules/answer/repository"
	answerService "anoa.com/dailydebate/internal/modules/answer/service"

	eventHttp "anoa.com/dailydebate/internal/modules/event/delivery/http"
	eventService "anoa.com/dailydebate/internal/modules/event/service"

	identityRepo "anoa.com/dailydebate/internal/modules/identity/repository"
	identityService "anoa.com/dailydebate/internal/modules/identity/service"

	influenceHttp "anoa.com/dailydebate/internal/modules/influence/delivery/http"
	influenceRepo "anoa.com/dailydebate/internal/modules/influence/repository"
	influenceService "anoa.com/dailydebate/internal/modules/influence/service"

	leaderboardHttp "anoa.com/dailydebate/internal/modules/leaderboard/delivery/http"
	leaderboardRepo "anoa.com/dailydebate/internal/modules/leaderboard/repository"
	leaderboardService "anoa.com/dailydebate/internal/modules/leaderboard/service"

	questionHttp "anoa.com/dailydebate/internal/modules/question/delivery/http"
	questionRepo "anoa.com/dailydebate/internal/modules/question/repository"
	questionService "anoa.com/dailydebate/internal/modules/question/service"

	statHttp "anoa.com/dailydebate/internal/modules/stat/delivery/http"
	statRepo "anoa.com/dailydebate/internal/modules/stat/repository"
	statService "anoa.com/dailydebate/internal/modules/stat/service"

	settlementRepo "anoa.com/dailydebate/internal/modules/settlement/repository"
	settlementService "anoa.com/dailydebate/internal/modules/settlement/service"

	streakRepo "anoa.com/dailydebate/internal/modules/streak/repository"
	streakService "anoa.com/dailydebate/internal/modules/streak/service"

	userHttp "anoa.com/dailydebate/internal/modules/user/delivery/http"
	userRepo "anoa.com/dailydebate/internal/modules/user/repository"
	userService "anoa.com/dailydebate/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	scheduler   *scheduler.Scheduler
	logger      zerolog.Logger
}

// NewServer wires every module onto one gin engine. redisClient may be nil;
// caching, pub/sub and the rollover lock are then disabled.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, cal calendar.Calendar, logger zerolog.Logger) (*Server, error) {
	events := eventService.NewPublisher(redisClient, logger)

	settlementSvc := settlementService.NewSettlementService(settlementRepo.NewSettlementRepository(db), logger)
	influenceSvc := influenceService.NewInfluenceService(influenceRepo.NewInfluenceRepository(db))
	influenceHandler := influenceHttp.NewInfluenceHandler(influenceSvc)

	questionSvc := questionService.NewQuestionService(questionRepo.NewQuestionRepository(db), settlementSvc, influenceSvc, events, cal, logger)
	questionHandler := questionHttp.NewQuestionHandler(questionSvc)

	streakSvc := streakService.NewStreakService(streakRepo.NewStreakRepository(db), cal, logger)
	answerSvc := answerService.NewAnswerService(answerRepo.NewAnswerRepository(db), streakSvc, events, redisClient, cfg.ResultsCacheTTL, logger)
	answerHandler := answerHttp.NewAnswerHandler(answerSvc)

	identitySvc := identityService.NewIdentityService(identityRepo.NewIdentityRepository(db), logger)

	userRepository := userRepo.NewUserRepository(db)
	authSvc := userService.NewAuthService(userRepository, identitySvc, cfg.JWTSecret, cfg.JWTTTL, logger)
	authHandler := userHttp.NewAuthHandler(authSvc)

	leaderboardSvc := leaderboardService.NewLeaderboardService(leaderboardRepo.NewLeaderboardRepository(db))
	leaderboardHandler := leaderboardHttp.NewLeaderboardHandler(leaderboardSvc)

	statSvc := statService.NewStatService(statRepo.NewStatRepository(db))
	statHandler := statHttp.NewStatHandler(statSvc)

	eventHandler := eventHttp.NewEventHandler(redisClient, logger)

	sched := scheduler.NewScheduler(cfg.Timezone, logger.With().Str("component", "scheduler").Logger())
	rolloverJob := scheduler.NewRolloverJob(questionSvc, redisClient, cfg.RolloverCron, cfg.RolloverLockTTL, logger)
	if err := sched.Register(rolloverJob); err != nil {
		return nil, err
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger, "/metrics", "/healthz"))

	authMiddleware := middleware.NewAuthMiddleware(userRepository, cfg.JWTSecret)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	// Public routes (no auth required)
	user := api.Group("/user")
	{
		user.POST("/register", authHandler.Register)
		user.POST("/login", authHandler.Login)
		user.GET("/me", authMiddleware.RequireAuth(), authHandler.Me)
	}

	debate := api.Group("/debate")
	{
		debate.GET("/ws", eventHandler.HandleWebSocket)
		debate.GET("/leaderboard", leaderboardHandler.GetLeaderboard)
		debate.GET("/stats", statHandler.GetOverview)

		debate.GET("/question/active", questionHandler.GetActive)
		debate.GET("/question/:id", questionHandler.GetByID)
		debate.GET("/question/:id/results", answerHandler.GetResults)
		debate.GET("/question/:id/answers", answerHandler.ListAnswers)
		debate.GET("/question/:id/top", answerHandler.TopAnswers)
		debate.GET("/question/:id/influence", influenceHandler.GetQuestionRanking)
		debate.GET("/question/:id/my-answer", authMiddleware.RequireAuth(), answerHandler.MyAnswer)
		debate.POST("/question/:id/answer", authMiddleware.OptionalAuth(), answerHandler.CreateAnswer)

		likes := debate.Group("/answers/:answerId/like")
		likes.Use(authMiddleware.RequireAuth())
		{
			likes.POST("", answerHandler.Like)
			likes.DELETE("", answerHandler.Unlike)
		}
	}

	// Admin routes
	admin := api.Group("")
	admin.Use(authMiddleware.RequireAuth(), authMiddleware.RequireAdmin())
	{
		admin.POST("/questions", questionHandler.CreateQuestion)
		admin.POST("/admin/rollover", questionHandler.Rollover)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		scheduler:   sched,
		logger:      logger,
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests
// and waits for a running rollover to finish.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		<-s.scheduler.Stop().Done()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	select {
	case <-s.scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		s.logger.Warn().Msg("scheduler did not stop before shutdown deadline")
	}
	return err
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	for _, origin := range strings.Split(allowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:4200"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
