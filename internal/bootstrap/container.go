package bootstrap

import (
	"context"
	"log"

	"ai-tutor-be/internal/config"
	"ai-tutor-be/internal/controller"
	"ai-tutor-be/internal/handler"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/pkg/serverutils"
	"ai-tutor-be/internal/repository/memory"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/internal/service"
	"ai-tutor-be/internal/websocket"
	"ai-tutor-be/pkg/embedding"
	"ai-tutor-be/pkg/ingest"
	llmFactory "ai-tutor-be/pkg/llm/factory"
	"ai-tutor-be/pkg/pipeline"
	vsFactory "ai-tutor-be/pkg/vectorstore/factory"

	pktNats "ai-tutor-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController     controller.IAuthController
	SessionController  controller.ISessionController
	ChatController     controller.IChatController
	StudyController    controller.IStudyController
	DocumentController controller.IDocumentController
	UserController     controller.IUserController

	// Background services (exposed for main.go to run)
	IndexerService service.IIndexerService
	SessionService service.ISessionService
	AuthService    service.IAuthService

	// WebSockets & notification
	WsHandler    *handler.WsHandler
	WebSocketHub *websocket.Hub

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Job bus for the indexing pipeline
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI providers
	embeddingProvider, err := embedding.NewEmbeddingProvider(
		cfg.Ai.EmbeddingProvider,
		cfg.Ai.GeminiApiKey,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.EmbeddingModel,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize embedding provider: %v", err)
	}
	log.Printf("[INFO] Using embedding provider: %s (%s)", cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel)

	llmProvider, err := llmFactory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.GeminiApiKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM provider: %v", err)
	}
	log.Printf("[INFO] Using LLM provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	index, err := vsFactory.NewIndex(cfg.Vectorstore.Provider, db, cfg.Vectorstore.ChromemDir, embeddingProvider)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize vector index: %v", err)
	}
	log.Printf("[INFO] Using vectorstore: %s", cfg.Vectorstore.Provider)

	orchestrator := pipeline.New(llmProvider, index, sysLogger, cfg.Ai.RetrievalK, cfg.Ai.HistoryWindow)
	ingestor := ingest.New(ingest.NewSplitter(ingest.DefaultChunkSize, ingest.DefaultChunkOverlap))

	// In-process ownership cache for hot conversation paths
	sessionCache := memory.NewSessionCache()

	// 4. Infrastructure: NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 5. Services
	authMiddleware := serverutils.NewAuthMiddleware(cfg.Auth.JwtSecret, uowFactory, rdb, sysLogger)

	publisherService := service.NewPublisherService(cfg.Ai.IndexTopicName, pubSub)
	indexerService := service.NewIndexerService(
		pubSub,
		cfg.Ai.IndexTopicName,
		uowFactory,
		ingestor,
		index,
		natsPub,
		sysLogger,
	)

	authService := service.NewAuthService(uowFactory, natsPub, rdb, sysLogger, cfg.Auth.JwtSecret, cfg.Auth.TokenTTLHours)
	sessionService := service.NewSessionService(uowFactory, sessionCache, index, natsPub, sysLogger, cfg.Upload.Dir)
	chatService := service.NewChatService(sessionService, orchestrator, sysLogger)
	studyService := service.NewStudyService(uowFactory, sessionService, orchestrator, sysLogger, cfg.Ai.RetrieveAllLimit)
	documentService := service.NewDocumentService(uowFactory, sessionService, publisherService, sysLogger, cfg.Upload.Dir, cfg.Upload.MaxSizeMB)
	userService := service.NewUserService(uowFactory)

	// 6. Notification worker: NATS events -> websocket pushes
	notifService := service.NewNotificationService(natsSub, wsHub, wsLogger)
	if natsSub != nil {
		go notifService.Start()
	}

	wsHandler := handler.NewWsHandler(wsHub, authMiddleware, wsLogger)

	return &Container{
		AuthController:     controller.NewAuthController(authService, authMiddleware),
		SessionController:  controller.NewSessionController(sessionService, chatService, authMiddleware),
		ChatController:     controller.NewChatController(chatService, authMiddleware, sysLogger),
		StudyController:    controller.NewStudyController(studyService, authMiddleware),
		DocumentController: controller.NewDocumentController(documentService, authMiddleware),
		UserController:     controller.NewUserController(userService, authMiddleware),

		IndexerService: indexerService,
		SessionService: sessionService,
		AuthService:    authService,

		WsHandler:    wsHandler,
		WebSocketHub: wsHub,

		Logger: sysLogger,
	}
}
