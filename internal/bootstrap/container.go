package bootstrap

import (
	"context"
	"log"

	"insightai-be/internal/config"
	"insightai-be/internal/controller"
	"insightai-be/internal/metrics"
	"insightai-be/internal/pkg/logger"
	"insightai-be/internal/repository/implementation"
	"insightai-be/internal/repository/memory"
	"insightai-be/internal/service"
	"insightai-be/internal/websocket"
	"insightai-be/pkg/llm/factory"
	pktNats "insightai-be/pkg/nats"
	"insightai-be/pkg/viz"
	"insightai-be/pkg/warehouse"
	"insightai-be/pkg/workflow"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	Version = "1.0.0"

	runFinishedTopic = "analysis_runs.finished"
	runHistoryTable  = "analysis_runs"
)

type Container struct {
	// Controllers
	AnalyzeController controller.IAnalyzeController
	HealthController  controller.IHealthController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	ActivityService *service.ActivityService

	WebSocketHub *websocket.Hub
	Metrics      *metrics.Metrics
	Logger       logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{}

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c.Logger = sysLogger
	c.Metrics = metrics.New()

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	rdb := connectRedis(cfg.App.RedisURL, sysLogger)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	var natsPub *pktNats.Publisher
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		var err error
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
		} else {
			c.closers = append(c.closers, natsPub.Close)
		}
		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS Subscriber", map[string]interface{}{"error": err.Error()})
		} else {
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	// 4. Warehouse
	schemaProvider := warehouse.NewCachedSchemaProvider(
		warehouse.NewGormSchemaProvider(db, sysLogger, true, runHistoryTable),
		rdb,
		cfg.Cache.SchemaTTL,
		sysLogger,
	)
	executor := warehouse.NewGormExecutor(db, sysLogger)

	// 5. Capabilities and Engine
	llmProvider, err := factory.NewLLMProvider(factory.ProviderConfig{
		Provider:      cfg.Ai.LLMProvider,
		Model:         cfg.Ai.LLMModel,
		BaseURL:       cfg.Ai.LLMBaseURL,
		APIKey:        cfg.Ai.LLMAPIKey,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	engine := workflow.NewEngine(
		schemaProvider,
		executor,
		workflow.NewSQLArchitect(llmProvider, sysLogger),
		viz.NewResolver(llmProvider, sysLogger),
		sysLogger,
	)

	// 6. WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)

	// 7. Services
	runRepo := implementation.NewAnalysisRunRepository(db)
	progressRepo := memory.NewProgressRepository()

	c.ActivityService = service.NewActivityService(natsSub, c.WebSocketHub, sysLogger)

	// Without NATS the recorder hands events straight to the activity feed.
	var sink service.EventSink = c.ActivityService
	if natsPub != nil {
		sink = natsPub
	}
	c.ConsumerService = service.NewConsumerService(pubSub, runFinishedTopic, runRepo, sink, sysLogger)

	publisherService := service.NewPublisherService(runFinishedTopic, pubSub)
	analyzeService := service.NewAnalyzeService(
		engine,
		schemaProvider,
		executor,
		runRepo,
		progressRepo,
		publisherService,
		c.Metrics,
		sysLogger,
	)

	// 8. Controllers
	c.AnalyzeController = controller.NewAnalyzeController(analyzeService, c.WebSocketHub, sysLogger)
	c.HealthController = controller.NewHealthController(Version)

	return c
}

// Start launches the background workers. They stop when ctx is done.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)
	c.ActivityService.Start(ctx)
	return c.ConsumerService.Consume(ctx)
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

func connectRedis(url string, log logger.ILogger) *redis.Client {
	if url == "" {
		log.Info("Bootstrap", "REDIS_URL not set, schema cache is in-process only", nil)
		return nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("Bootstrap", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: url}
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Warn("Bootstrap", "Failed to connect to Redis, continuing without it", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	return rdb
}
