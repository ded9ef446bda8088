package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/starbound-health/navigator-backend/internal/clients/oracle"
	redisclient "github.com/starbound-health/navigator-backend/internal/clients/redis"
	"github.com/starbound-health/navigator-backend/internal/db"
	"github.com/starbound-health/navigator-backend/internal/handlers"
	"github.com/starbound-health/navigator-backend/internal/middleware"
	"github.com/starbound-health/navigator-backend/internal/pkg/logger"
	"github.com/starbound-health/navigator-backend/internal/repos/engage"
	eventrepo "github.com/starbound-health/navigator-backend/internal/repos/event"
	factorrepo "github.com/starbound-health/navigator-backend/internal/repos/factor"
	followuprepo "github.com/starbound-health/navigator-backend/internal/repos/followup"
	insightrepo "github.com/starbound-health/navigator-backend/internal/repos/insight"
	profilestaterepo "github.com/starbound-health/navigator-backend/internal/repos/profilestate"
	snapshotrepo "github.com/starbound-health/navigator-backend/internal/repos/snapshot"
	userrepo "github.com/starbound-health/navigator-backend/internal/repos/user"
	"github.com/starbound-health/navigator-backend/internal/server"
	"github.com/starbound-health/navigator-backend/internal/services"
	"github.com/starbound-health/navigator-backend/internal/sse"
	"github.com/starbound-health/navigator-backend/internal/taxonomy"
	"github.com/starbound-health/navigator-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	catalogPath := utils.GetEnv("CATALOG_PATH", "configs/resource_catalog.yaml", log)
	vocabPath := utils.GetEnv("VOCAB_PATH", "", log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()
	if err = db.AutoMigrateAll(thePG); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}

	// Vocabulary
	registry := taxonomy.DefaultRegistry()
	if vocabPath != "" {
		registry, err = taxonomy.RegistryFromFile(vocabPath)
		if err != nil {
			log.Error("Could not load vocabulary file", "path", vocabPath, "error", err)
			os.Exit(1)
		}
	}

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := userrepo.NewUserRepo(thePG, log)
	userTokenRepo := userrepo.NewUserTokenRepo(thePG, log)
	eventRepo := eventrepo.NewEventRepo(thePG, log)
	factorRepo := factorrepo.NewFactorRepo(thePG, log)
	stateRepo := profilestaterepo.NewProfileStateRepo(thePG, log)
	fuRepo := followuprepo.NewFollowUpRepo(thePG, log)
	snapRepo := snapshotrepo.NewSnapshotRepo(thePG, log)
	insightRepo := insightrepo.NewInsightRepo(thePG, log)
	habitRepo := engage.NewHabitRepo(thePG, log)
	nudgeRepo := engage.NewNudgeRepo(thePG, log)
	chatRepo := engage.NewChatThreadRepo(thePG, log)
	feedbackRepo := engage.NewFeedbackRepo(thePG, log)

	// SSE
	log.Info("Setting up SSE hub now...")
	sseHub := sse.NewSSEHub(log)

	// Coordination
	coord, err := redisclient.NewCoordinator(log)
	if err != nil {
		log.Warn("Redis unavailable; falling back to in-process coordination", "error", err)
		coord = redisclient.NewMemoryCoordinator()
	}
	var bus redisclient.SSEBus
	if b, berr := redisclient.NewSSEBus(log); berr != nil {
		log.Warn("Redis SSE bus unavailable; events stay on this instance", "error", berr)
	} else {
		bus = b
		if ferr := bus.StartForwarder(context.Background(), sseHub.Broadcast); ferr != nil {
			log.Warn("Could not start SSE forwarder", "error", ferr)
		}
	}

	// Services
	log.Info("Setting up Services from main...")
	oracleClient := oracle.NewClient(log)
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(thePG, log, userRepo)
	ingestService := services.NewIngestService(thePG, log, eventRepo, factorRepo, stateRepo, fuRepo, snapRepo, insightRepo, oracleClient, coord, registry, sseHub, bus)
	profileService := services.NewProfileService(thePG, log, factorRepo, stateRepo)
	followUpService := services.NewFollowUpService(thePG, log, fuRepo)
	patternService := services.NewPatternService(thePG, log, factorRepo, insightRepo, coord, sseHub, bus)
	sweepIntervalMin := utils.GetEnvAsInt("PATTERN_SWEEP_INTERVAL_MIN", 60, log)
	if sweepIntervalMin > 0 {
		patternService.StartSweeper(context.Background(), time.Duration(sweepIntervalMin)*time.Minute)
	}
	catalogService, err := services.NewCatalogService(log, catalogPath)
	if err != nil {
		log.Error("Could not load resource catalog", "path", catalogPath, "error", err)
		os.Exit(1)
	}
	habitService := services.NewHabitService(thePG, log, habitRepo)
	nudgeService := services.NewNudgeService(thePG, log, nudgeRepo)
	chatService := services.NewChatThreadService(thePG, log, chatRepo)
	feedbackService := services.NewFeedbackService(thePG, log, feedbackRepo)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	sseHandler := handlers.NewSSEHandler(log, sseHub)
	ingestHandler := handlers.NewIngestHandler(ingestService)
	profileHandler := handlers.NewProfileHandler(profileService, snapRepo)
	followUpHandler := handlers.NewFollowUpHandler(followUpService)
	patternHandler := handlers.NewPatternHandler(patternService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	habitHandler := handlers.NewHabitHandler(habitService)
	nudgeHandler := handlers.NewNudgeHandler(nudgeService)
	chatHandler := handlers.NewChatThreadHandler(chatService)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:     authHandler,
		AuthMiddleware:  authMiddleware,
		UserHandler:     userHandler,
		SSEHandler:      sseHandler,
		IngestHandler:   ingestHandler,
		ProfileHandler:  profileHandler,
		FollowUpHandler: followUpHandler,
		PatternHandler:  patternHandler,
		CatalogHandler:  catalogHandler,
		HabitHandler:    habitHandler,
		NudgeHandler:    nudgeHandler,
		ChatHandler:     chatHandler,
		FeedbackHandler: feedbackHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
