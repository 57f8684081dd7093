package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"rentalhub/internal/adapter/api"
	"rentalhub/internal/adapter/api/handler"
	apimiddleware "rentalhub/internal/adapter/api/middleware"
	"rentalhub/internal/adapter/api/router"
	"rentalhub/internal/adapter/repository"
	"rentalhub/internal/domain/entity"
	domainrepo "rentalhub/internal/domain/repository"
	"rentalhub/internal/domain/service"
	"rentalhub/internal/infrastructure/firebase"
	"rentalhub/internal/infrastructure/queue"
	"rentalhub/internal/infrastructure/ratelimit"
	"rentalhub/internal/infrastructure/storage"
	"rentalhub/internal/infrastructure/websocket"
	"rentalhub/internal/usecase"
	"rentalhub/pkg/config"
	"rentalhub/pkg/logger"
)

// backend holds the store and identity services for the selected driver. Optional services stay nil
// interfaces when the driver does not provide them.
type backend struct {
	listings      domainrepo.ListingRepository
	transactions  domainrepo.TransactionRepository
	users         domainrepo.UserRepository
	conversations domainrepo.ConversationRepository
	notifications domainrepo.NotificationRepository

	files    service.FileUploadService
	verifier apimiddleware.TokenVerifier
	identity usecase.IdentityDeleter
	emails   usecase.EmailResolver
	push     usecase.PushSender

	close func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Setup(os.Stdout, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var b *backend
	if cfg.StoreDriver == config.StoreDriverMemory {
		b = memoryBackend(ctx, cfg)
	} else {
		b, err = firestoreBackend(ctx, cfg)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("Failed to initialize Firebase")
		}
	}
	defer b.close()

	limiter := newLimiter(cfg)

	var events usecase.EventPublisher = queue.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		publisher := queue.NewPublisher(cfg.RabbitMQURL, cfg.RentalEventsQueue)
		defer publisher.Close()
		events = publisher
		go queue.Consume(ctx, cfg.RabbitMQURL, cfg.RentalEventsQueue, queue.LogEvent)
	}

	var gateway service.PaymentGateway
	if cfg.KhaltiSecretKey != "" {
		gateway = service.NewKhaltiPaymentService(cfg.KhaltiSecretKey, cfg.KhaltiBaseURL, cfg.KhaltiReturnURL, cfg.KhaltiWebsiteURL)
	}

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	notificationUseCase := usecase.NewNotificationUseCase(b.notifications, b.users, wsManager, b.push)
	listingUseCase := usecase.NewListingUseCase(b.listings, b.conversations, b.files, limiter)
	rentalUseCase := usecase.NewRentalUseCase(b.listings, b.transactions, gateway, notificationUseCase, events, limiter)
	ratingUseCase := usecase.NewRatingUseCase(b.listings)
	moderationUseCase := usecase.NewModerationUseCase(b.listings, b.users, b.conversations, b.identity, notificationUseCase, events, limiter)
	conversationUseCase := usecase.NewConversationUseCase(b.conversations, b.listings, wsManager, limiter)
	userUseCase := usecase.NewUserUseCase(b.users, b.files, b.emails, notificationUseCase, limiter)

	handler.Setup(handler.UseCases{
		Listings:      listingUseCase,
		Rentals:       rentalUseCase,
		Ratings:       ratingUseCase,
		Moderation:    moderationUseCase,
		Conversations: conversationUseCase,
		Notifications: notificationUseCase,
		Users:         userUseCase,
	})
	handler.SetupHealthHandler(cfg.StoreDriver)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(apimiddleware.RequestLogger())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(b.verifier)
	adminMiddleware := apimiddleware.NewAdminMiddleware(b.users)
	wsHandler := handler.NewWebSocketHandler(wsManager, listingUseCase)

	var routeLimiter ratelimit.Limiter = ratelimit.Disabled{}
	if limiter != nil {
		routeLimiter = limiter
	}
	router.Setup(e, authMiddleware, adminMiddleware, routeLimiter, wsHandler)

	go func() {
		logger.Info("Starting server on port %s (store: %s)", cfg.ServerPort, cfg.StoreDriver)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			logger.L().Fatal().Err(err).Msg("Server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}

func firestoreBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	var opt option.ClientOption
	if cfg.FirebaseServiceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(cfg.FirebaseServiceAccountJSON))
	} else {
		logger.Info("Using Firebase service account from file: %s", cfg.FirebaseServiceAccountPath)
		opt = option.WithCredentialsFile(cfg.FirebaseServiceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{
		ProjectID:     cfg.FirebaseProject,
		StorageBucket: cfg.StorageBucket,
	}, opt)
	if err != nil {
		return nil, err
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, err
	}

	messagingClient, err := firebaseApp.Messaging(ctx)
	if err != nil {
		return nil, err
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		return nil, err
	}

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opt)
	if err != nil {
		firestoreClient.Close()
		return nil, err
	}

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)

	return &backend{
		listings:      repository.NewFirestoreListingRepository(firestoreClient),
		transactions:  repository.NewFirestoreTransactionRepository(firestoreClient),
		users:         repository.NewFirestoreUserRepository(firestoreClient),
		conversations: repository.NewFirestoreConversationRepository(firestoreClient),
		notifications: repository.NewFirestoreNotificationRepository(firestoreClient),
		files:         storageClient,
		verifier:      firebaseAuthClient,
		identity:      firebaseAuthClient,
		emails:        firebaseAuthClient,
		push:          firebase.NewPushClient(messagingClient),
		close: func() {
			storageClient.Close()
			firestoreClient.Close()
		},
	}, nil
}

// memoryBackend runs everything in process. Tokens are "dev:<uid>".
func memoryBackend(ctx context.Context, cfg *config.Config) *backend {
	logger.Warn("Using in-memory store; data is lost on restart and dev tokens are accepted")

	b := &backend{
		listings:      repository.NewMemoryListingRepository(),
		transactions:  repository.NewMemoryTransactionRepository(),
		users:         repository.NewMemoryUserRepository(),
		conversations: repository.NewMemoryConversationRepository(),
		notifications: repository.NewMemoryNotificationRepository(),
		files:         storage.NewMemoryStorage(),
		verifier:      apimiddleware.DevTokenVerifier{},
		close:         func() {},
	}

	for _, uid := range cfg.AdminUIDs {
		admin := &entity.User{ID: uid, Role: entity.RoleAdmin, KYCStatus: entity.KYCStatusNone}
		if err := b.users.Create(ctx, admin); err != nil {
			logger.Warn("Failed to seed admin %s: %v", uid, err)
		}
	}
	return b
}

// newLimiter returns nil when rate limiting is disabled.
func newLimiter(cfg *config.Config) ratelimit.Limiter {
	if !cfg.RateLimitEnabled {
		return nil
	}
	if cfg.RedisAddr == "" {
		return ratelimit.NewMemoryLimiter(nil)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return ratelimit.NewRedisLimiter(client, nil)
}
