package bootstrap

import (
	"context"
	"log"

	"alrah-ai-be/internal/config"
	"alrah-ai-be/internal/controller"
	"alrah-ai-be/internal/pkg/logger"
	"alrah-ai-be/internal/repository/memory"
	"alrah-ai-be/internal/repository/unitofwork"
	"alrah-ai-be/internal/service"
	"alrah-ai-be/internal/voicecall"
	"alrah-ai-be/pkg/dispatch"
	"alrah-ai-be/pkg/embedding"
	"alrah-ai-be/pkg/llm/factory"
	"alrah-ai-be/pkg/speech"

	pktNats "alrah-ai-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatbotController controller.IChatbotController
	QueryController   controller.IQueryController
	CallController    controller.ICallController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Shared by the bot entrypoint
	ChatbotService  service.IChatbotService
	SessionService  service.ISessionService
	SessionRegistry *memory.ActiveSessionRegistry
	Logger          logger.ILogger

	// Voice call infrastructure
	VoiceCallHub *voicecall.Hub

	DispatchPool *dispatch.Pool
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Providers
	var embeddingProvider embedding.Provider
	if cfg.Ai.LLMProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	} else {
		embeddingProvider = embedding.NewOpenAIProvider(cfg.Keys.OpenAI, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", cfg.Ai.EmbeddingModel)
	}

	llmProvider, err := factory.NewProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Keys.OpenAI,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	transcriber := speech.NewOpenAITranscriber(cfg.Keys.OpenAI, cfg.Ai.WhisperModel)
	synthesizer := speech.NewOpenAISynthesizer(cfg.Keys.OpenAI, cfg.Ai.TTSModel, cfg.Ai.TTSVoice)

	// Shared worker pool for all provider calls
	pool := dispatch.NewPool(cfg.App.WorkerCount)

	// Volatile active-session tracking
	sessionRegistry := memory.NewActiveSessionRegistry()

	// 3.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
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

	// Voice call hub
	callLogger := logger.NewIsolatedLogger("logs/voicecall.log")
	callHub := voicecall.NewHub(rdb, callLogger)
	go callHub.Run()

	// 4. Services
	publisherService := service.NewPublisherService(pubSub, cfg.Keys.ExchangeTopic)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.ExchangeTopic,
		uowFactory,
		natsPub,
	)

	sessionService := service.NewSessionService(uowFactory)

	chatbotService := service.NewChatbotService(
		uowFactory,
		sessionService,
		embeddingProvider,
		llmProvider,
		transcriber,
		synthesizer,
		pool,
		publisherService,
		sysLogger,
		cfg.Ai.QueryLanguage,
	)

	notifService := service.NewNotificationService(natsSub, callHub, callLogger)
	if natsSub != nil {
		go notifService.Start()
	}

	callHandler := voicecall.NewHandler(
		callHub,
		chatbotService,
		sessionService,
		sessionRegistry,
		cfg.Profiles.Voice,
		callLogger,
	)

	// 5. Controllers
	return &Container{
		ChatbotController: controller.NewChatbotController(sessionService),
		QueryController:   controller.NewQueryController(chatbotService, sessionService, cfg.Profiles.API),
		CallController:    controller.NewCallController(&cfg.Call, callHub, callHandler, callLogger),

		ConsumerService: consumerService,

		ChatbotService:  chatbotService,
		SessionService:  sessionService,
		SessionRegistry: sessionRegistry,
		Logger:          sysLogger,

		VoiceCallHub: callHub,
		DispatchPool: pool,
	}
}
