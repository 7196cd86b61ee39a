package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"argus/internal/cache"
	"argus/internal/chart"
	"argus/internal/config"
	"argus/internal/db"
	mcpserver "argus/internal/mcp"
	"argus/internal/provider"
	"argus/internal/repository"
	"argus/internal/service"
	signalengine "argus/internal/signal"
	"argus/internal/universe"
	"argus/pkg/tracing"

	"github.com/joho/godotenv"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/trace"
)

const defaultMCPHTTPMaxBodyBytes int64 = 1 << 20 // 1MiB

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newBarRepoFunc         = repository.NewBarRepository
	newSignalRepoFunc      = repository.NewSignalRepository
	newSignalImageRepoFunc = repository.NewSignalImageRepository
	newUniverseRepoFunc    = repository.NewUniverseRepository
	newUniverseManagerFunc = universe.NewManager
	newMarketProviderFunc  = func(cfg *config.Config) *provider.YahooProvider {
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
		cfg *config.Config,
	) *service.SignalService {
		return service.NewSignalService(tracer, marketData, signalRepo, engine).
			WithImages(imageRepo, chartRender).
			WithDedupeWindow(time.Duration(cfg.SignalDedupeHours) * time.Hour).
			WithConcurrency(cfg.DetectConcurrency)
	}
	newMCPServerFunc  = mcpserver.NewServer
	newMCPHandlerFunc = mcpserver.NewHTTPTransportHandler
	runStdioFunc      = func(ctx context.Context, server *sdkmcp.Server) error {
		return server.Run(ctx, &sdkmcp.StdioTransport{})
	}
	startHTTPServerFunc  = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFn = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify    = ossignal.Notify
	waitForSignalFunc    = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Schema is owned by the server binary; this one only reads and
	// writes through it.
	cacheStore := cache.NewStore(cache.Client)
	barRepo := newBarRepoFunc(db.Pool, tracer)
	signalRepo := newSignalRepoFunc(db.Pool, tracer)
	signalImageRepo := newSignalImageRepoFunc(db.Pool, tracer)
	universeRepo := newUniverseRepoFunc(db.Pool, tracer)
	universeManager := newUniverseManagerFunc(tracer, universeRepo, cacheStore)

	marketData := newMarketProviderFunc(cfg)
	detector := newDetectorFunc(nil)
	chartRenderer := newChartRendererFunc()

	stockService := newStockServiceFunc(tracer, marketData, universeManager, barRepo, cacheStore)
	screenerService := newScreenerServiceFunc(tracer, universeManager, marketData, cacheStore, cfg.ScreenerConcurrency)
	signalService := newSignalServiceFunc(tracer, marketData, signalRepo, detector, signalImageRepo, chartRenderer, cfg)

	mcpSrv := newMCPServerFunc(tracer, stockService, screenerService, signalService, universeManager, mcpserver.ServerConfig{
		RequestTimeout: time.Duration(cfg.MCPRequestTimeoutSecs) * time.Second,
	})

	transport := strings.ToLower(strings.TrimSpace(cfg.MCPTransport))
	switch transport {
	case "", "stdio":
		if err := runStdioFunc(ctx, mcpSrv); err != nil {
			log.Fatalf("mcp stdio server failed: %v", err)
		}
	case "http":
		if err := runHTTPMode(ctx, cancel, cfg, mcpSrv); err != nil {
			log.Fatalf("mcp http server failed: %v", err)
		}
	default:
		log.Fatalf("unsupported MCP_TRANSPORT: %s", cfg.MCPTransport)
	}
}

func runHTTPMode(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, mcpSrv *sdkmcp.Server) error {
	if !cfg.MCPHTTPEnabled {
		return fmt.Errorf("MCP_HTTP_ENABLED must be true when MCP_TRANSPORT=http")
	}
	if strings.TrimSpace(cfg.MCPAuthToken) == "" {
		return fmt.Errorf("MCP_AUTH_TOKEN is required when MCP_TRANSPORT=http")
	}

	handler := newMCPHandlerFunc(mcpSrv, mcpserver.HTTPHandlerConfig{
		AuthToken:       cfg.MCPAuthToken,
		RateLimitPerMin: cfg.MCPRateLimitPerMin,
		MaxBodyBytes:    defaultMCPHTTPMaxBodyBytes,
	})

	addr := net.JoinHostPort(cfg.MCPHTTPBind, fmt.Sprintf("%d", cfg.MCPHTTPPort))
	srv := &http.Server{Addr: addr, Handler: handler}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Printf("mcp http server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFn(srv, shutdownCtx); err != nil {
		return fmt.Errorf("mcp server forced to shutdown: %w", err)
	}
	return nil
}
