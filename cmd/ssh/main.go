package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"argus/internal/cache"
	"argus/internal/config"
	"argus/internal/db"
	"argus/internal/ml/predictions"
	"argus/internal/provider"
	"argus/internal/repository"
	"argus/internal/service"
	signalengine "argus/internal/signal"
	"argus/internal/sshd"
	"argus/internal/tui"
	"argus/internal/universe"
	"argus/pkg/tracing"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	gossh "golang.org/x/crypto/ssh"
)

var (
	loadEnvFunc             = godotenv.Load
	loadConfigFunc          = config.Load
	initPostgresFunc        = db.InitPostgres
	initRedisFunc           = cache.InitRedis
	initTracerFunc          = tracing.InitTracer
	newTerminalUserRepoFunc = repository.NewTerminalUserRepository
	newBarRepoFunc          = repository.NewBarRepository
	newSignalRepoFunc       = repository.NewSignalRepository
	newOutcomeRepoFunc      = repository.NewOutcomeRepository
	newConversationRepoFunc = repository.NewConversationRepository
	newUniverseRepoFunc     = repository.NewUniverseRepository
	newUniverseManagerFunc  = universe.NewManager
	newMarketProviderFunc   = func(cfg *config.Config) *provider.YahooProvider {
		return provider.NewYahooProvider(time.Duration(cfg.MarketDataTimeoutSecs)*time.Second, cfg.MarketDataProxyURL)
	}
	newDetectorFunc        = signalengine.NewDetector
	newStockServiceFunc    = service.NewStockService
	newScreenerServiceFunc = service.NewScreenerService
	newSignalServiceFunc   = func(
		tracer trace.Tracer,
		marketData service.SignalMarketData,
		signalRepo service.SignalStore,
		engine service.SignalEngine,
		outcomeRepo service.OutcomeStore,
		cfg *config.Config,
	) *service.SignalService {
		return service.NewSignalService(tracer, marketData, signalRepo, engine).
			WithOutcomes(outcomeRepo).
			WithDedupeWindow(time.Duration(cfg.SignalDedupeHours) * time.Hour)
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
	// Stats-only ML assembly: the nightly trainer lives in the server
	// binary, the dashboard just reads direction-call accuracy.
	newModelStatsFunc = func(tracer trace.Tracer, cfg *config.Config) *service.MLService {
		if !cfg.MLEnabled {
			return nil
		}
		if db.Pool == nil {
			log.Println("ML stats need Postgres, hiding model accuracy")
			return nil
		}
		predictionRepo := predictions.NewRepository(db.Pool, tracer)
		return service.NewMLService(tracer, nil, nil, nil, nil, nil, nil, predictionRepo,
			service.MLServiceConfig{TrainWindowDays: cfg.MLTrainWindowDays})
	}
	newSSHServerFunc      = sshd.NewServer
	startSSHServerFunc    = func(srv *sshd.Server) error { return srv.Start() }
	shutdownSSHServerFunc = func(srv *sshd.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify     = ossignal.Notify
	waitForSignalFunc     = func(quit <-chan os.Signal) { <-quit }
)

type options struct {
	provisionUser string
	displayName   string
	keyLine       string
	keyFile       string
}

func parseOptions(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("argus-ssh", flag.ContinueOnError)
	fs.StringVar(&opts.provisionUser, "add-user", "", "provision a terminal user with this username, then exit")
	fs.StringVar(&opts.displayName, "display-name", "", "display name for -add-user (defaults to the key comment)")
	fs.StringVar(&opts.keyLine, "key", "", "authorized_keys line for -add-user")
	fs.StringVar(&opts.keyFile, "key-file", "", "path to a public key file for -add-user")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.provisionUser == "" {
		if opts.keyLine != "" || opts.keyFile != "" {
			return options{}, fmt.Errorf("-key and -key-file require -add-user")
		}
		return opts, nil
	}
	if (opts.keyLine == "") == (opts.keyFile == "") {
		return options{}, fmt.Errorf("-add-user needs exactly one of -key or -key-file")
	}
	return opts, nil
}

// terminalUserFromKey parses an authorized_keys line into an upsert-ready
// user row. The stored key is re-marshaled so formatting quirks in the
// input never reach the database.
func terminalUserFromKey(username, displayName, keyLine string) (repository.TerminalUser, error) {
	key, comment, _, _, err := gossh.ParseAuthorizedKey([]byte(keyLine))
	if err != nil {
		return repository.TerminalUser{}, fmt.Errorf("parse public key: %w", err)
	}
	if displayName == "" {
		displayName = comment
	}
	return repository.TerminalUser{
		Username:    username,
		DisplayName: displayName,
		PublicKey:   strings.TrimSpace(string(gossh.MarshalAuthorizedKey(key))),
		KeyType:     key.Type(),
		Fingerprint: gossh.FingerprintSHA256(key),
		IsActive:    true,
	}, nil
}

type userProvisioner interface {
	UpsertUser(ctx context.Context, u repository.TerminalUser) (int64, error)
}

func provisionUser(ctx context.Context, store userProvisioner, opts options) error {
	keyLine := opts.keyLine
	if opts.keyFile != "" {
		raw, err := os.ReadFile(opts.keyFile)
		if err != nil {
			return fmt.Errorf("read key file: %w", err)
		}
		keyLine = string(raw)
	}
	user, err := terminalUserFromKey(opts.provisionUser, opts.displayName, keyLine)
	if err != nil {
		return err
	}
	id, err := store.UpsertUser(ctx, user)
	if err != nil {
		return err
	}
	log.Printf("terminal user %s provisioned: id=%d fingerprint=%s", user.Username, id, user.Fingerprint)
	return nil
}

func main() {
	loadEnvFunc()

	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		log.Fatalf("invalid flags: %v", err)
	}

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

	terminalUsers := newTerminalUserRepoFunc(db.Pool, tracer)
	if db.Pool != nil {
		if err := terminalUsers.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run terminal user migrations: %v", err)
		}
	}

	if opts.provisionUser != "" {
		if db.Pool == nil {
			log.Fatal("DATABASE_URL is required to provision terminal users")
		}
		if err := provisionUser(ctx, terminalUsers, opts); err != nil {
			log.Fatalf("provision user: %v", err)
		}
		return
	}

	if !cfg.SSHEnabled {
		log.Fatal("SSH_ENABLED must be true to run the terminal server")
	}

	cacheStore := cache.NewStore(cache.Client)

	barRepo := newBarRepoFunc(db.Pool, tracer)
	signalRepo := newSignalRepoFunc(db.Pool, tracer)
	outcomeRepo := newOutcomeRepoFunc(db.Pool, tracer)
	conversationRepo := newConversationRepoFunc(db.Pool, tracer)
	universeRepo := newUniverseRepoFunc(db.Pool, tracer)

	universeManager := newUniverseManagerFunc(tracer, universeRepo, cacheStore)
	marketData := newMarketProviderFunc(cfg)
	detector := newDetectorFunc(nil)

	stockService := newStockServiceFunc(tracer, marketData, universeManager, barRepo, cacheStore)
	screenerService := newScreenerServiceFunc(tracer, universeManager, marketData, cacheStore, cfg.ScreenerConcurrency)
	signalService := newSignalServiceFunc(tracer, marketData, signalRepo, detector, outcomeRepo, cfg)
	advisorService := newAdvisorServiceFunc(tracer, cfg, conversationRepo, stockService, signalService)

	base := tui.Services{
		Screener:    screenerService,
		Signals:     signalService,
		Performance: signalService,
	}
	if advisorService != nil && advisorService.Enabled() {
		base.Advisor = advisorService
	}
	if models := newModelStatsFunc(tracer, cfg); models != nil {
		base.Models = models
	}

	srv, err := newSSHServerFunc(tracer, terminalUsers, base, sshd.Config{
		Bind:        cfg.SSHBind,
		Port:        cfg.SSHPort,
		HostKeyPath: cfg.SSHHostKeyPath,
	})
	if err != nil {
		log.Fatalf("failed to create SSH server: %v", err)
	}

	go func() {
		if err := startSSHServerFunc(srv); err != nil {
			log.Fatalf("SSH server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("shutting down terminal server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := shutdownSSHServerFunc(srv, shutdownCtx); err != nil {
		log.Printf("SSH server shutdown error: %v", err)
	}
	log.Println("terminal server stopped")
}
