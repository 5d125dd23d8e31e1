package bootstrap

import (
	"ai-manuscript-be/internal/config"
	"ai-manuscript-be/internal/controller"
	"ai-manuscript-be/internal/handler"
	"ai-manuscript-be/internal/pkg/logger"
	"ai-manuscript-be/internal/repository/memory"
	"ai-manuscript-be/internal/service"
	"ai-manuscript-be/internal/websocket"
	"ai-manuscript-be/pkg/chatbot"
	"ai-manuscript-be/pkg/gateway"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Container struct {
	// Controllers
	AssistantController controller.IAssistantController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	StreamHandler *handler.StreamHandler
	WebSocketHub  *websocket.Hub
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Storage (in-memory; sessions are ephemeral by design)
	sessionRepo := memory.NewSessionRepository()

	// 4. AI Gateway
	geminiClient := chatbot.NewClient(cfg.Keys.GoogleGemini, cfg.Ai.GeminiModel)
	aiGateway := gateway.NewGeminiGateway(geminiClient)

	// 5. WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/stream.log")
	wsHub := websocket.NewHub(wsLogger)
	go wsHub.Run()

	// 6. Services
	assistantService := service.NewAssistantService(
		sessionRepo,
		aiGateway,
		pubSub,
		cfg.Keys.SessionEventTopic,
		sysLogger,
	)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.SessionEventTopic,
		wsHub,
		wsLogger,
	)

	// 7. Controllers & Handlers
	assistantController := controller.NewAssistantController(assistantService)
	streamHandler := handler.NewStreamHandler(wsHub, wsLogger)

	return &Container{
		AssistantController: assistantController,
		ConsumerService:     consumerService,
		StreamHandler:       streamHandler,
		WebSocketHub:        wsHub,
	}
}
