package sshd

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/charmbracelet/ssh"
	"go.opentelemetry.io/otel/trace"
	gossh "golang.org/x/crypto/ssh"

	"argus/internal/repository"
	"argus/internal/tui"
)

type stubUserStore struct {
	user           *repository.TerminalUser
	findErr        error
	gotFingerprint string
	lastLoginID    int64
}

func (s *stubUserStore) FindByFingerprint(_ context.Context, fingerprint string) (*repository.TerminalUser, error) {
	s.gotFingerprint = fingerprint
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.user, nil
}

func (s *stubUserStore) UpdateLastLogin(_ context.Context, userID int64) error {
	s.lastLoginID = userID
	return nil
}

// stubSSHContext satisfies ssh.Context for auth callback tests.
type stubSSHContext struct {
	context.Context
	sync.Mutex
	login  string
	values map[any]any
}

func newStubSSHContext(login string) *stubSSHContext {
	return &stubSSHContext{Context: context.Background(), login: login, values: map[any]any{}}
}

func (c *stubSSHContext) User() string          { return c.login }
func (c *stubSSHContext) SessionID() string     { return "test-session" }
func (c *stubSSHContext) ClientVersion() string { return "SSH-2.0-test" }
func (c *stubSSHContext) ServerVersion() string { return "SSH-2.0-test" }
func (c *stubSSHContext) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 50000}
}
func (c *stubSSHContext) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 2222}
}
func (c *stubSSHContext) Permissions() *ssh.Permissions { return nil }
func (c *stubSSHContext) SetValue(key, value any)       { c.values[key] = value }

func (c *stubSSHContext) Value(key any) any {
	if v, ok := c.values[key]; ok {
		return v
	}
	return c.Context.Value(key)
}

func testPublicKey(t *testing.T) ssh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	key, err := gossh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("wrap key: %v", err)
	}
	return key
}

func testServer(store *stubUserStore) *Server {
	return &Server{
		users:  store,
		base:   tui.Services{},
		tracer: trace.NewNoopTracerProvider().Tracer("test"),
	}
}

func TestAuthorizeAcceptsKnownKey(t *testing.T) {
	store := &stubUserStore{user: &repository.TerminalUser{ID: 7, Username: "dana", IsActive: true}}
	srv := testServer(store)
	key := testPublicKey(t)
	ctx := newStubSSHContext("dana")

	if !srv.authorize(ctx, key) {
		t.Fatal("expected known key to be authorized")
	}
	if want := gossh.FingerprintSHA256(key); store.gotFingerprint != want {
		t.Errorf("looked up fingerprint %q, want %q", store.gotFingerprint, want)
	}
	user, ok := ctx.Value(authedUserKey{}).(*repository.TerminalUser)
	if !ok || user == nil {
		t.Fatal("expected resolved user on the connection context")
	}
	if user.ID != 7 {
		t.Errorf("context user ID = %d, want 7", user.ID)
	}
}

func TestAuthorizeRejectsUnknownKey(t *testing.T) {
	store := &stubUserStore{}
	srv := testServer(store)
	ctx := newStubSSHContext("stranger")

	if srv.authorize(ctx, testPublicKey(t)) {
		t.Fatal("expected unknown key to be rejected")
	}
	if _, ok := ctx.values[authedUserKey{}]; ok {
		t.Error("rejected connection should not carry a user")
	}
}

func TestAuthorizeRejectsOnLookupError(t *testing.T) {
	store := &stubUserStore{findErr: errors.New("connection refused")}
	srv := testServer(store)

	if srv.authorize(newStubSSHContext("dana"), testPublicKey(t)) {
		t.Fatal("expected lookup error to reject the key")
	}
}

func TestSessionServicesStampsIdentity(t *testing.T) {
	srv := testServer(&stubUserStore{})

	svc := srv.sessionServices(&repository.TerminalUser{ID: 7, Username: "dana"})
	if svc.UserID != 7 || svc.Username != "dana" {
		t.Errorf("services identity = (%d, %q), want (7, dana)", svc.UserID, svc.Username)
	}
	if got := svc.ChatID(); got != tui.SSHChatIDOffset-7 {
		t.Errorf("ChatID() = %d, want %d", got, tui.SSHChatIDOffset-7)
	}

	svc = srv.sessionServices(&repository.TerminalUser{ID: 8, Username: "dana", DisplayName: "Dana K."})
	if svc.Username != "Dana K." {
		t.Errorf("display name should win, got %q", svc.Username)
	}
}

func TestNewServerGeneratesHostKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "test_ed25519")
	cfg := Config{Bind: "127.0.0.1", Port: 2222, HostKeyPath: keyPath}

	srv, err := NewServer(trace.NewNoopTracerProvider().Tracer("test"), &stubUserStore{}, tui.Services{}, cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if got := srv.Addr(); got != "127.0.0.1:2222" {
		t.Errorf("Addr() = %q, want 127.0.0.1:2222", got)
	}
	if _, err := os.Stat(keyPath); err != nil {
		t.Errorf("expected host key at %s: %v", keyPath, err)
	}
}
