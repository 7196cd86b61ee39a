package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"argus/internal/cache"
	"argus/internal/config"
	"argus/internal/provider"
	"argus/internal/repository"
	"argus/internal/service"
	signalengine "argus/internal/signal"
	"argus/internal/sshd"
	"argus/internal/tui"
	"argus/internal/universe"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	gossh "golang.org/x/crypto/ssh"
)

func testAuthorizedKeyLine(t *testing.T) (gossh.PublicKey, string) {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	key, err := gossh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("wrap key: %v", err)
	}
	return key, strings.TrimSpace(string(gossh.MarshalAuthorizedKey(key)))
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.provisionUser != "" {
		t.Fatalf("expected empty provision user, got %q", opts.provisionUser)
	}

	opts, err = parseOptions([]string{"-add-user", "dana", "-key", "ssh-ed25519 AAAA dana"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.provisionUser != "dana" || opts.keyLine == "" {
		t.Fatalf("unexpected options: %+v", opts)
	}

	if _, err := parseOptions([]string{"-add-user", "dana"}); err == nil {
		t.Fatal("expected error when no key source is given")
	}
	if _, err := parseOptions([]string{"-add-user", "dana", "-key", "x", "-key-file", "y"}); err == nil {
		t.Fatal("expected error when both key sources are given")
	}
	if _, err := parseOptions([]string{"-key", "x"}); err == nil {
		t.Fatal("expected error for -key without -add-user")
	}
}

func TestTerminalUserFromKey(t *testing.T) {
	key, line := testAuthorizedKeyLine(t)

	user, err := terminalUserFromKey("dana", "", line+" dana@laptop")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Username != "dana" {
		t.Fatalf("expected username dana, got %q", user.Username)
	}
	if user.DisplayName != "dana@laptop" {
		t.Fatalf("expected display name from key comment, got %q", user.DisplayName)
	}
	if user.KeyType != "ssh-ed25519" {
		t.Fatalf("unexpected key type %q", user.KeyType)
	}
	if user.Fingerprint != gossh.FingerprintSHA256(key) {
		t.Fatalf("unexpected fingerprint %q", user.Fingerprint)
	}
	if user.PublicKey != line {
		t.Fatalf("expected re-marshaled key %q, got %q", line, user.PublicKey)
	}
	if !user.IsActive {
		t.Fatal("expected provisioned user to be active")
	}

	user, err = terminalUserFromKey("dana", "Dana K.", line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.DisplayName != "Dana K." {
		t.Fatalf("expected explicit display name to win, got %q", user.DisplayName)
	}

	if _, err := terminalUserFromKey("dana", "", "not a key"); err == nil {
		t.Fatal("expected error for malformed key line")
	}
}

type recordingProvisioner struct {
	user   repository.TerminalUser
	called bool
}

func (r *recordingProvisioner) UpsertUser(_ context.Context, u repository.TerminalUser) (int64, error) {
	r.user = u
	r.called = true
	return 42, nil
}

func TestProvisionUserReadsKeyFile(t *testing.T) {
	key, line := testAuthorizedKeyLine(t)
	path := filepath.Join(t.TempDir(), "id_ed25519.pub")
	if err := os.WriteFile(path, []byte(line+"\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	store := &recordingProvisioner{}
	opts := options{provisionUser: "dana", keyFile: path}
	if err := provisionUser(context.Background(), store, opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.called {
		t.Fatal("expected upsert to be called")
	}
	if store.user.Username != "dana" || store.user.Fingerprint != gossh.FingerprintSHA256(key) {
		t.Fatalf("unexpected upserted user: %+v", store.user)
	}

	opts.keyFile = filepath.Join(t.TempDir(), "missing.pub")
	if err := provisionUser(context.Background(), store, opts); err == nil {
		t.Fatal("expected error for missing key file")
	}
}

func TestMainSSHBootstrap(t *testing.T) {
	origArgs := os.Args
	os.Args = []string{"argus-ssh"}
	defer func() { os.Args = origArgs }()

	restore := stubSSHDeps()
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func stubSSHDeps() func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origNewTerminalUserRepo := newTerminalUserRepoFunc
	origNewBarRepo := newBarRepoFunc
	origNewSignalRepo := newSignalRepoFunc
	origNewOutcomeRepo := newOutcomeRepoFunc
	origNewConversationRepo := newConversationRepoFunc
	origNewUniverseRepo := newUniverseRepoFunc
	origNewUniverseManager := newUniverseManagerFunc
	origNewMarketProvider := newMarketProviderFunc
	origNewDetector := newDetectorFunc
	origNewStockService := newStockServiceFunc
	origNewScreenerService := newScreenerServiceFunc
	origNewSignalService := newSignalServiceFunc
	origNewAdvisorService := newAdvisorServiceFunc
	origNewModelStats := newModelStatsFunc
	origNewSSHServer := newSSHServerFunc
	origStartSSHServer := startSSHServerFunc
	origShutdownSSHServer := shutdownSSHServerFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{SSHEnabled: true, SSHBind: "127.0.0.1", SSHPort: 2222}
	}
	initPostgresFunc = func(context.Context) {}
	initRedisFunc = func(context.Context) error { return nil }
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newTerminalUserRepoFunc = func(repository.PgxPool, trace.Tracer) *repository.TerminalUserRepository {
		return nil
	}
	newBarRepoFunc = func(repository.PgxPool, trace.Tracer) *repository.BarRepository { return nil }
	newSignalRepoFunc = func(repository.PgxPool, trace.Tracer) *repository.SignalRepository { return nil }
	newOutcomeRepoFunc = func(repository.PgxPool, trace.Tracer) *repository.OutcomeRepository { return nil }
	newConversationRepoFunc = func(repository.PgxPool, trace.Tracer) *repository.ConversationRepository {
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
		trace.Tracer, service.SignalMarketData, service.SignalStore, service.SignalEngine, service.OutcomeStore, *config.Config,
	) *service.SignalService {
		return nil
	}
	newAdvisorServiceFunc = func(
		trace.Tracer, *config.Config, service.ConversationStore, service.AdvisorQuotes, service.AdvisorSignals,
	) *service.AdvisorService {
		return nil
	}
	newModelStatsFunc = func(trace.Tracer, *config.Config) *service.MLService { return nil }
	newSSHServerFunc = func(trace.Tracer, sshd.UserStore, tui.Services, sshd.Config) (*sshd.Server, error) {
		return &sshd.Server{}, nil
	}
	startSSHServerFunc = func(*sshd.Server) error { return nil }
	shutdownSSHServerFunc = func(*sshd.Server, context.Context) error { return nil }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		newTerminalUserRepoFunc = origNewTerminalUserRepo
		newBarRepoFunc = origNewBarRepo
		newSignalRepoFunc = origNewSignalRepo
		newOutcomeRepoFunc = origNewOutcomeRepo
		newConversationRepoFunc = origNewConversationRepo
		newUniverseRepoFunc = origNewUniverseRepo
		newUniverseManagerFunc = origNewUniverseManager
		newMarketProviderFunc = origNewMarketProvider
		newDetectorFunc = origNewDetector
		newStockServiceFunc = origNewStockService
		newScreenerServiceFunc = origNewScreenerService
		newSignalServiceFunc = origNewSignalService
		newAdvisorServiceFunc = origNewAdvisorService
		newModelStatsFunc = origNewModelStats
		newSSHServerFunc = origNewSSHServer
		startSSHServerFunc = origStartSSHServer
		shutdownSSHServerFunc = origShutdownSSHServer
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
	}
}
