package main

import (
	"log"

	api "xpress-backend/cmd/api"
	authdomain "xpress-backend/internal/auth/domain"
	authRepo "xpress-backend/internal/auth/repository"
	authUsecase "xpress-backend/internal/auth/usecase"
	"xpress-backend/internal/quota"
	trackerdomain "xpress-backend/internal/tracker/domain"
	trackerRepo "xpress-backend/internal/tracker/repository"
	trackerUsecase "xpress-backend/internal/tracker/usecase"
	xauthdomain "xpress-backend/internal/xauth/domain"
	xauthRepo "xpress-backend/internal/xauth/repository"
	xauthUsecase "xpress-backend/internal/xauth/usecase"
	"xpress-backend/pkg/ai"
	"xpress-backend/pkg/config"
	"xpress-backend/pkg/database"
	"xpress-backend/pkg/xapi"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&authdomain.User{},
		&authdomain.RefreshToken{},
		&trackerdomain.TrackedAccount{},
		&trackerdomain.Post{},
		&trackerdomain.ReplyContext{},
		&quota.RateLimitState{},
		&xauthdomain.XCredential{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	accountRepo := trackerRepo.NewAccountRepository(db)
	postRepo := trackerRepo.NewPostRepository(db)
	contextRepo := trackerRepo.NewContextRepository(db)
	credRepo := xauthRepo.NewCredentialRepository(db)

	// Per-user upstream call gate backed by the database so the window
	// survives restarts.
	gate := quota.NewGate(quota.NewGormStore(db), cfg.RateLimitMinutes)

	// X API clients: app-credentialed reader plus the OAuth flow for
	// publishing through connected user accounts.
	xClient := xapi.NewHTTPClient(cfg.XBearerToken)
	oauthService := xapi.NewOAuthService(cfg.XClientID, cfg.XClientSecret, cfg.XCallbackURL)

	// AI reply generator
	aiService, err := ai.NewReplyService(ai.Config{
		Provider:     ai.ProviderType(cfg.AIProvider),
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		OpenAIModel:  cfg.OpenAIModel,
		OpenAIBase:   cfg.OpenAIBase,
	})
	if err != nil {
		log.Printf("[WARN] AI service unavailable, reply suggestions disabled: %v", err)
	}

	// Initialize use cases (dependency injection)
	authUc := authUsecase.NewAuthUsecase(userRepo, cfg)
	fetcher := trackerUsecase.NewFetcher(xClient, gate)
	replyUc := trackerUsecase.NewReplyUsecase(postRepo)
	trackerUc := trackerUsecase.NewTrackerUsecase(accountRepo, postRepo, contextRepo, fetcher, replyUc, aiService, cfg.FetchPostLimit)
	xauthUc := xauthUsecase.NewXAuthUsecase(credRepo, oauthService, xClient)
	dispatchUc := trackerUsecase.NewDispatchUsecase(postRepo, replyUc, xauthUc, gate)

	// Initialize HTTP handler and start the server
	handler := api.NewHandler(authUc, trackerUc, replyUc, dispatchUc, xauthUc, cfg)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
