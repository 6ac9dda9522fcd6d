package bootstrap

import (
	"context"
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"katiba-reader-be/internal/config"
	"katiba-reader-be/internal/controller"
	"katiba-reader-be/internal/pkg/logger"
	"katiba-reader-be/internal/repository/implementation"
	"katiba-reader-be/internal/service"
	"katiba-reader-be/pkg/cache"
	"katiba-reader-be/pkg/constitution/content"
	"katiba-reader-be/pkg/constitution/relations"
	"katiba-reader-be/pkg/constitution/search"
	"katiba-reader-be/pkg/constitution/validate"
)

type Container struct {
	// Controllers
	ConstitutionController controller.IConstitutionController
	UserController         controller.IUserController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	ContentStore *content.Store
	Logger       logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	validator := validate.New()

	// 2. Cache Backend
	var store cache.Store
	if cfg.Cache.Backend == "memory" {
		store = cache.NewMemoryStore(sysLogger)
		log.Println("[INFO] Using Cache Backend: MEMORY")
	} else {
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
		store = cache.NewRedisStore(rdb, sysLogger)
		log.Println("[INFO] Using Cache Backend: REDIS")
	}

	// 3. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 4. Domain Engines
	contentStore := content.NewStore(cfg.Constitution.DataFilePath, store, sysLogger)
	processor := search.NewQueryProcessor(validator, sysLogger)
	highlighter := search.NewHighlighter(sysLogger)
	engine := search.NewEngine(contentStore, processor, highlighter, validator, store, sysLogger)
	graph := relations.NewGraph(contentStore, validator, store, sysLogger)

	// 5. Repositories
	viewRepo := implementation.NewContentViewRepository(db)
	progressRepo := implementation.NewReadingProgressRepository(db)
	bookmarkRepo := implementation.NewBookmarkRepository(db)

	// 6. Services
	publisherService := service.NewPublisherService(cfg.Constitution.ViewTopicName, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Constitution.ViewTopicName,
		viewRepo,
		store,
		sysLogger,
	)

	progressService := service.NewProgressService(progressRepo, bookmarkRepo, validator, sysLogger)
	analyticsService := service.NewAnalyticsService(
		publisherService,
		viewRepo,
		contentStore,
		validator,
		store,
		sysLogger,
	)

	recommender := relations.NewRecommender(
		contentStore,
		graph,
		progressService,
		service.NewPopularitySource(analyticsService),
		validator,
		store,
		sysLogger,
	)

	constitutionService := service.NewConstitutionService(
		contentStore,
		engine,
		graph,
		recommender,
		validator,
		store,
		sysLogger,
	)

	// 7. Controllers
	return &Container{
		ConstitutionController: controller.NewConstitutionController(constitutionService, analyticsService),
		UserController:         controller.NewUserController(progressService),

		ConsumerService: consumerService,

		ContentStore: contentStore,
		Logger:       sysLogger,
	}
}
