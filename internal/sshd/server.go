package sshd

import (
	"context"
	"errors"
	"log"
	"net"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"go.opentelemetry.io/otel/trace"
	gossh "golang.org/x/crypto/ssh"

	"argus/internal/repository"
	"argus/internal/tui"
)

// UserStore resolves SSH public keys to terminal users.
type UserStore interface {
	FindByFingerprint(ctx context.Context, fingerprint string) (*repository.TerminalUser, error)
	UpdateLastLogin(ctx context.Context, userID int64) error
}

// Config carries the listener settings for the terminal server.
type Config struct {
	Bind        string
	Port        int
	HostKeyPath string
}

// Server hosts the terminal dashboard over SSH. Auth is public-key
// only: a key is admitted when its SHA256 fingerprint matches an
// active terminal user.
type Server struct {
	users  UserStore
	base   tui.Services
	tracer trace.Tracer
	srv    *ssh.Server
}

// authedUserKey carries the resolved user from the auth callback to
// the session handler on the connection context.
type authedUserKey struct{}

// NewServer builds the wish server. A host key is generated at
// cfg.HostKeyPath when none exists yet.
func NewServer(tracer trace.Tracer, users UserStore, base tui.Services, cfg Config) (*Server, error) {
	s := &Server{users: users, base: base, tracer: tracer}

	// Middleware runs last to first: logging wraps the connection,
	// activeterm rejects sessions without a PTY before the program
	// starts.
	srv, err := wish.NewServer(
		wish.WithAddress(net.JoinHostPort(cfg.Bind, strconv.Itoa(cfg.Port))),
		wish.WithHostKeyPath(cfg.HostKeyPath),
		wish.WithPublicKeyAuth(s.authorize),
		wish.WithMiddleware(
			bm.Middleware(s.sessionHandler),
			activeterm.Middleware(),
			logging.Middleware(),
		),
	)
	if err != nil {
		return nil, err
	}
	s.srv = srv
	return s, nil
}

func (s *Server) authorize(ctx ssh.Context, key ssh.PublicKey) bool {
	_, span := s.tracer.Start(ctx, "sshd.authorize")
	defer span.End()

	fingerprint := gossh.FingerprintSHA256(key)
	user, err := s.users.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		log.Printf("sshd: fingerprint lookup failed for login %q: %v", ctx.User(), err)
		return false
	}
	if user == nil {
		log.Printf("sshd: rejected key %s for login %q", fingerprint, ctx.User())
		return false
	}
	ctx.SetValue(authedUserKey{}, user)
	return true
}

func (s *Server) sessionHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	user, _ := sess.Context().Value(authedUserKey{}).(*repository.TerminalUser)
	if user == nil {
		wish.Fatalln(sess, "unauthorized")
		return nil, nil
	}

	if err := s.users.UpdateLastLogin(sess.Context(), user.ID); err != nil {
		log.Printf("sshd: last login update for %s: %v", user.Username, err)
	}
	log.Printf("sshd: session start user=%s chat_id=%d", user.Username, tui.SSHChatIDOffset-user.ID)

	return tui.NewAppModel(s.sessionServices(user)), []tea.ProgramOption{tea.WithAltScreen()}
}

// sessionServices stamps the shared service handles with the session
// identity.
func (s *Server) sessionServices(user *repository.TerminalUser) tui.Services {
	svc := s.base
	svc.UserID = user.ID
	svc.Username = user.Username
	if user.DisplayName != "" {
		svc.Username = user.DisplayName
	}
	return svc
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	log.Printf("sshd: terminal listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for active sessions.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Addr reports the configured listen address.
func (s *Server) Addr() string {
	return s.srv.Addr
}
