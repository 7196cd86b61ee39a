package main

import (
	"context"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"argus/internal/cache"
	"argus/internal/chart"
	"argus/internal/config"
	mcpserver "argus/internal/mcp"
	"argus/internal/provider"
	"argus/internal/repository"
	"argus/internal/service"
	signalengine "argus/internal/signal"
	"argus/internal/universe"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainMCPStdio(t *testing.T) {
	restore := stubMCPDeps(t, "stdio")
	defer restore()

	called := false
	origRunStdio := runStdioFunc
	runStdioFunc = func(ctx context.Context, server *sdkmcp.Server) error {
		called = true
		return nil
	}
	defer func() { runStdioFunc = origRunStdio }()

	main()

	if !called {
		t.Fatal("expected stdio transport to run")
	}
}

func TestMainMCPHTTP(t *testing.T) {
	restore := stubMCPDeps(t, "http")
	defer restore()

	httpStarted := false
	started := make(chan struct{})
	origStartHTTP := startHTTPServerFunc
	origNotify := setupSignalNotify
	origWait := waitForSignalFunc
	origShutdown := shutdownHTTPServerFn

	startHTTPServerFunc = func(*http.Server) error {
		httpStarted = true
		close(started)
		return http.ErrServerClosed
	}
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) { <-started }
	shutdownHTTPServerFn = func(*http.Server, context.Context) error { return nil }

	defer func() {
		startHTTPServerFunc = origStartHTTP
		setupSignalNotify = origNotify
		waitForSignalFunc = origWait
		shutdownHTTPServerFn = origShutdown
	}()

	main()

	if !httpStarted {
		t.Fatal("expected http transport to start")
	}
}

func TestMainMCPHTTPRequiresToken(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := &config.Config{
		MCPHTTPEnabled: true,
		MCPHTTPBind:    "127.0.0.1",
		MCPHTTPPort:    8090,
	}
	srv := sdkmcp.NewServer(&sdkmcp.Implementation{Name: "test"}, nil)

	err := runHTTPMode(ctx, cancel, cfg, srv)
	if err == nil {
		t.Fatal("expected missing token error")
	}
	if !strings.Contains(err.Error(), "MCP_AUTH_TOKEN is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func stubMCPDeps(t *testing.T, transport string) func() {
	t.Helper()

	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origNewBarRepo := newBarRepoFunc
	origNewSignalRepo := newSignalRepoFunc
	origNewSignalImageRepo := newSignalImageRepoFunc
	origNewUniverseRepo := newUniverseRepoFunc
	origNewUniverseManager := newUniverseManagerFunc
	origNewProvider := newMarketProviderFunc
	origNewDetector := newDetectorFunc
	origNewChartRenderer := newChartRendererFunc
	origNewStockService := newStockServiceFunc
	origNewScreenerService := newScreenerServiceFunc
	origNewSignalService := newSignalServiceFunc
	origNewMCPServer := newMCPServerFunc
	origNewMCPHandler := newMCPHandlerFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			MCPTransport:          transport,
			MCPHTTPEnabled:        true,
			MCPHTTPBind:           "127.0.0.1",
			MCPHTTPPort:           8090,
			MCPAuthToken:          "secret",
			MCPRequestTimeoutSecs: 1,
			MCPRateLimitPerMin:    60,
		}
	}
	initPostgresFunc = func(context.Context) {}
	initRedisFunc = func(context.Context) error { return nil }
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newBarRepoFunc = func(repository.PgxPool, trace.Tracer) *repository.BarRepository { return nil }
	newSignalRepoFunc = func(repository.PgxPool, trace.Tracer) *repository.SignalRepository { return nil }
	newSignalImageRepoFunc = func(repository.PgxPool, trace.Tracer) *repository.SignalImageRepository {
		return nil
	}
	newUniverseRepoFunc = func(repository.PgxPool, trace.Tracer) *repository.UniverseRepository { return nil }
	newUniverseManagerFunc = func(trace.Tracer, universe.Repository, *cache.Store) *universe.Manager {
		return nil
	}
	newMarketProviderFunc = func(*config.Config) *provider.YahooProvider {
		return provider.NewYahooProvider(time.Second, "")
	}
	newDetectorFunc = func(func() time.Time) *signalengine.Detector { return signalengine.NewDetector(nil) }
	newChartRendererFunc = func() *chart.Renderer { return nil }
	newStockServiceFunc = func(
		trace.Tracer, service.MarketData, service.StockUniverse, service.StockBarSink, *cache.Store,
	) *service.StockService {
		return nil
	}
	newScreenerServiceFunc = func(
		trace.Tracer, service.ScreenerUniverse, service.ScreenerMarketData, *cache.Store, int,
	) *service.ScreenerService {
		return nil
	}
	newSignalServiceFunc = func(
		trace.Tracer,
		service.SignalMarketData,
		service.SignalStore,
		service.SignalEngine,
		service.SignalImageRepository,
		service.SignalChartRenderer,
		*config.Config,
	) *service.SignalService {
		return nil
	}
	newMCPServerFunc = func(
		trace.Tracer,
		mcpserver.StockReader,
		mcpserver.ScreenerRunner,
		mcpserver.SignalReaderWriter,
		mcpserver.UniverseReader,
		mcpserver.ServerConfig,
	) *sdkmcp.Server {
		return sdkmcp.NewServer(&sdkmcp.Implementation{Name: "test-mcp"}, nil)
	}
	newMCPHandlerFunc = func(server *sdkmcp.Server, cfg mcpserver.HTTPHandlerConfig) http.Handler {
		return http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	}

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		newBarRepoFunc = origNewBarRepo
		newSignalRepoFunc = origNewSignalRepo
		newSignalImageRepoFunc = origNewSignalImageRepo
		newUniverseRepoFunc = origNewUniverseRepo
		newUniverseManagerFunc = origNewUniverseManager
		newMarketProviderFunc = origNewProvider
		newDetectorFunc = origNewDetector
		newChartRendererFunc = origNewChartRenderer
		newStockServiceFunc = origNewStockService
		newScreenerServiceFunc = origNewScreenerService
		newSignalServiceFunc = origNewSignalService
		newMCPServerFunc = origNewMCPServer
		newMCPHandlerFunc = origNewMCPHandler
	}
}
