package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"argus/internal/bot"
	"argus/internal/cache"
	"argus/internal/chart"
	"argus/internal/config"
	"argus/internal/db"
	"argus/internal/domain"
	"argus/internal/handler"
	"argus/internal/job"
	"argus/internal/ml/features"
	"argus/internal/ml/inference"
	"argus/internal/ml/predictions"
	"argus/internal/ml/registry"
	"argus/internal/ml/training"
	"argus/internal/provider"
	"argus/internal/repository"
	"argus/internal/service"
	signalengine "argus/internal/signal"
	"argus/internal/universe"
	"argus/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "argus/docs"
)

const appVersion = "1.0.0"

var (
	loadEnvFunc             = godotenv.Load
	loadConfigFunc          = config.Load
	initPostgresFunc        = db.InitPostgres
	initRedisFunc           = cache.InitRedis
	initTracerFunc          = tracing.InitTracer
	newBarRepoFunc          = repository.NewBarRepository
	newSignalRepoFunc       = repository.NewSignalRepository
	newSignalImageRepoFunc  = repository.NewSignalImageRepository
	newOutcomeRepoFunc      = repository.NewOutcomeRepository
	newConversationRepoFunc = repository.NewConversationRepository
	newUniverseRepoFunc     = repository.NewUniverseRepository
	newUniverseManagerFunc  = universe.NewManager
	newMarketProviderFunc   = func(cfg *config.Config) *provider.YahooProvider {
		return provider.NewYahooProvider(time.Duration(cfg.MarketDataTimeoutSecs)*time.Second, cfg.MarketDataProxyURL)
	}
	newDetectorFunc        = signalengine.NewDetector
	newChartRendererFunc   = chart.NewRenderer
	newStockServiceFunc    = service.NewStockService
	newScreenerServiceFunc = service.NewScreenerService
	newSignalServiceFunc   = func(
		tracer trace.Tracer,
		marketData service.SignalMarketData,
		signalRepo service.SignalStore,
		engine service.SignalEngine,
		imageRepo service.SignalImageRepository,
		chartRender service.SignalChartRenderer,
		outcomes service.OutcomeStore,
		cfg *config.Config,
	) *service.SignalService {
		return service.NewSignalService(tracer, marketData, signalRepo, engine).
			WithImages(imageRepo, chartRender).
			WithOutcomes(outcomes).
			WithDedupeWindow(time.Duration(cfg.SignalDedupeHours) * time.Hour).
			WithConcurrency(cfg.DetectConcurrency).
			WithOutcomeHorizon(cfg.OutcomeHorizonDays)
	}
	newAdvisorServiceFunc = func(
		tracer trace.Tracer,
		cfg *config.Config,
		conversations service.ConversationStore,
		quotes service.AdvisorQuotes,
		signals service.AdvisorSignals,
	) *service.AdvisorService {
		return service.NewAdvisorService(tracer, cfg.OpenAIAPIKey, cfg.OpenAIModel, conversations, quotes, signals).
			WithMaxHistory(cfg.AdvisorMaxHistory)
	}
	newModelTrainerFunc = buildModelTrainer
	newRefresherFunc    = func(
		tracer trace.Tracer,
		cfg *config.Config,
		symbols job.SymbolSource,
		quotes job.QuoteFetcher,
		store *cache.Store,
		screener job.ScreenerInvalidator,
	) *job.Refresher {
		return job.NewRefresher(tracer, symbols, quotes, store, screener).
			WithBatching(cfg.RefreshBatchSize, time.Duration(cfg.RefreshBatchDelayMs)*time.Millisecond)
	}
	newSchedulerFunc = func(
		tracer trace.Tracer,
		refresher *job.Refresher,
		symbols job.SymbolSource,
		signalService *service.SignalService,
		broadcast job.SignalBroadcaster,
		trainer job.ModelTrainer,
	) *job.Scheduler {
		sched := job.NewScheduler(tracer, refresher, symbols, signalService).
			WithResolver(signalService).
			WithImageMaintainer(signalService).
			WithBroadcaster(broadcast)
		if trainer != nil {
			sched = sched.WithTrainer(trainer)
		}
		return sched
	}
	startSchedulerFunc     = func(s *job.Scheduler, ctx context.Context) { go s.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newSignalHubFunc       = handler.NewSignalHub
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// multiBroadcaster fans freshly detected signals out to every connected
// surface.
type multiBroadcaster []job.SignalBroadcaster

func (m multiBroadcaster) BroadcastSignals(signals []domain.Signal) {
	for _, b := range m {
		b.BroadcastSignals(signals)
	}
}

// @title           Argus API
// @version         1.0
// @description     Stock screening and signal detection service with OpenTelemetry tracing.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	cacheStore := cache.NewStore(cache.Client)

	// Create repositories and run migrations
	barRepo := newBarRepoFunc(db.Pool, tracer)
	signalRepo := newSignalRepoFunc(db.Pool, tracer)
	signalImageRepo := newSignalImageRepoFunc(db.Pool, tracer)
	outcomeRepo := newOutcomeRepoFunc(db.Pool, tracer)
	conversationRepo := newConversationRepoFunc(db.Pool, tracer)
	universeRepo := newUniverseRepoFunc(db.Pool, tracer)

	if db.Pool != nil {
		migrations := []struct {
			name string
			run  func(context.Context) error
		}{
			{"bars", barRepo.RunMigrations},
			{"signals", signalRepo.RunMigrations},
			{"signal images", signalImageRepo.RunMigrations},
			{"signal outcomes", outcomeRepo.RunMigrations},
			{"conversations", conversationRepo.RunMigrations},
			{"universe", universeRepo.RunMigrations},
		}
		for _, m := range migrations {
			if err := m.run(ctx); err != nil {
				log.Fatalf("failed to run %s migrations: %v", m.name, err)
			}
		}
	}

	universeManager := newUniverseManagerFunc(tracer, universeRepo, cacheStore)
	if db.Pool != nil {
		if added, err := universeManager.EnsureSeeded(ctx); err != nil {
			log.Printf("universe seeding failed: %v", err)
		} else if added > 0 {
			log.Printf("universe seeded with %d symbols", added)
		}
	}

	// Create provider and services
	marketData := newMarketProviderFunc(cfg)
	detector := newDetectorFunc(nil)
	chartRenderer := newChartRendererFunc()

	stockService := newStockServiceFunc(tracer, marketData, universeManager, barRepo, cacheStore)
	screenerService := newScreenerServiceFunc(tracer, universeManager, marketData, cacheStore, cfg.ScreenerConcurrency)
	signalService := newSignalServiceFunc(tracer, marketData, signalRepo, detector, signalImageRepo, chartRenderer, outcomeRepo, cfg)
	advisorService := newAdvisorServiceFunc(tracer, cfg, conversationRepo, stockService, signalService)

	// Outward surfaces: websocket hub and Telegram bot
	hub := newSignalHubFunc()
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	alerts := startTelegramBotFunc(stockService, signalService, screenerService, advisorService)

	// Background cycles (stopped by ctx cancel)
	if cfg.SchedulerEnabled {
		fanout := multiBroadcaster{hub}
		if alerts != nil {
			fanout = append(fanout, alerts)
		}
		trainer := newModelTrainerFunc(ctx, tracer, cfg, barRepo, universeManager, signalRepo)
		refresher := newRefresherFunc(tracer, cfg, universeManager, marketData, cacheStore, screenerService)
		sched := newSchedulerFunc(tracer, refresher, universeManager, signalService, fanout, trainer)
		startSchedulerFunc(sched, ctx)
	} else {
		log.Println("scheduler disabled, background refresh and detection off")
	}

	// Create handlers and routes
	h := newHandlerFunc(tracer, stockService, screenerService, signalService).
		WithUniverse(universeManager).
		WithHub(hub).
		WithHealthInfo(appVersion, cfg.Environment, cacheStore, func(ctx context.Context) bool {
			return db.Pool != nil && db.Pool.Ping(ctx) == nil
		})

	r := newRouterFunc()
	r.Use(otelgin.Middleware("argus"))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

// buildModelTrainer assembles the nightly model cycle. Returns nil when the
// cycle is disabled or the database is unavailable, which drops the trainer
// from the scheduler.
func buildModelTrainer(
	ctx context.Context,
	tracer trace.Tracer,
	cfg *config.Config,
	barRepo *repository.BarRepository,
	universeManager *universe.Manager,
	signalRepo *repository.SignalRepository,
) job.ModelTrainer {
	if !cfg.MLEnabled {
		return nil
	}
	if db.Pool == nil {
		log.Println("ML_ENABLED set but no database, model cycle disabled")
		return nil
	}

	featureRepo := features.NewRepository(db.Pool, tracer)
	registryRepo := registry.NewRepository(db.Pool, tracer)
	predictionRepo := predictions.NewRepository(db.Pool, tracer)
	for name, migrate := range map[string]func(context.Context) error{
		"ml features":    featureRepo.RunMigrations,
		"ml registry":    registryRepo.RunMigrations,
		"ml predictions": predictionRepo.RunMigrations,
	} {
		if err := migrate(ctx); err != nil {
			log.Fatalf("failed to run %s migrations: %v", name, err)
		}
	}

	trainingSvc := training.NewService(tracer, featureRepo, registryRepo, training.Config{
		TrainWindowDays:   cfg.MLTrainWindowDays,
		MinTrainSamples:   cfg.MLMinTrainSamples,
		EnableAnomaly:     true,
		IForestTrees:      cfg.MLIForestTrees,
		IForestSampleSize: cfg.MLIForestSample,
	})
	inferenceSvc := inference.NewService(tracer, featureRepo, registryRepo, predictionRepo, signalRepo, inference.Config{
		LongThreshold:    cfg.MLLongThreshold,
		ShortThreshold:   cfg.MLShortThreshold,
		AnomalyThreshold: cfg.MLAnomalyThresh,
	})

	return service.NewMLService(
		tracer, barRepo, universeManager, nil, featureRepo,
		trainingSvc, inferenceSvc, predictionRepo,
		service.MLServiceConfig{TrainWindowDays: cfg.MLTrainWindowDays},
	)
}
