package bootstrap

import (
	"context"
	"log"
	"math/rand"
	"time"

	"ai-discovery-be/internal/config"
	"ai-discovery-be/internal/controller"
	"ai-discovery-be/internal/pkg/logger"
	"ai-discovery-be/internal/repository/memory"
	"ai-discovery-be/internal/repository/unitofwork"
	"ai-discovery-be/internal/service"
	"ai-discovery-be/pkg/agent"
	"ai-discovery-be/pkg/artifact"
	"ai-discovery-be/pkg/events"
	"ai-discovery-be/pkg/facilitation"
	"ai-discovery-be/pkg/llm/factory"
	"ai-discovery-be/pkg/technique"

	pktNats "ai-discovery-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const artifactTopic = "discovery.artifacts"

type Container struct {
	// Controllers
	DiscoveryController controller.IDiscoveryController
	HealthController    controller.IHealthController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	DiscoveryService service.IDiscoveryService
	Logger           *logger.ZapLogger

	closers []func()
}

// NewContainer wires the application. A nil db selects the in-memory store.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.IsProduction())
	c := &Container{Logger: sysLogger}

	var uowFactory unitofwork.RepositoryFactory
	storage := "postgres"
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	} else {
		storage = "memory"
		uowFactory = memory.NewStore()
		sysLogger.Warn("BOOTSTRAP", "No database configured, sessions are kept in memory", nil)
	}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Agent runtime
	llmProvider, err := factory.NewLLMProvider(context.Background(), factory.Config{
		Provider:    cfg.Ai.LLMProvider,
		Model:       cfg.Ai.LLMModel,
		BaseURL:     cfg.Ai.BaseURL,
		APIKey:      cfg.Ai.APIKey,
		Temperature: cfg.Ai.Temperature,
	})
	if err != nil {
		log.Fatalf("Failed to initialize LLM provider: %v", err)
	}

	catalog := technique.Default()
	seed := cfg.Discovery.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	resolver := facilitation.NewResolver(catalog, rand.New(rand.NewSource(seed)))
	builder := agent.NewLLMBuilder(llmProvider, resolver)
	registry := memory.NewRunnerRegistry(cfg.Discovery.RegistryIdleTTL)

	// 4. NATS
	var eventPublisher events.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			eventPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 5. Artifacts (Redis)
	var recorder *artifact.Recorder
	var artifactStore artifact.Store = artifact.NopStore{}
	if cfg.Discovery.ArtifactsEnabled {
		recorder = artifact.NewRecorder(pubSub, artifactTopic, sysLogger)
		if cfg.App.RedisURL != "" {
			rdb := newRedisClient(cfg.App.RedisURL)
			artifactStore = artifact.NewRedisStore(rdb, cfg.Discovery.ArtifactTTL)
			c.closers = append(c.closers, func() { _ = rdb.Close() })
		} else {
			sysLogger.Warn("BOOTSTRAP", "Artifacts enabled without REDIS_URL, artifacts are discarded", nil)
		}
	}

	// 6. Services
	discoveryService := service.NewDiscoveryService(
		uowFactory,
		registry,
		builder,
		catalog,
		eventPublisher,
		recorder,
		sysLogger,
	)
	c.DiscoveryService = discoveryService
	c.ConsumerService = service.NewArtifactConsumerService(pubSub, artifactTopic, artifactStore, sysLogger)

	// 7. Controllers
	c.DiscoveryController = controller.NewDiscoveryController(discoveryService, cfg.Auth.JWTSecret)
	c.HealthController = controller.NewHealthController(storage, registry.Len)

	return c
}

func newRedisClient(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: url,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}
	return rdb
}

// Close releases bus connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
