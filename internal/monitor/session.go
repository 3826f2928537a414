package monitor

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/fleetwatch/internal/config"
	"github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/logger"
	"github.com/rileyhilliard/fleetwatch/pkg/sshutil"
)

// State is a session's connectivity.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// Dialer opens connections to configured hosts.
type Dialer interface {
	Dial(ctx context.Context, host config.Host) (sshutil.Conn, error)
}

// Session owns at most one live connection to a host and serializes every
// command on it. Connections are opened lazily and replaced when they stop
// answering.
type Session struct {
	host   config.Host
	dialer Dialer
	log    logger.Logger

	// mu is the execution lock. It guards conn.
	mu    sync.Mutex
	conn  sshutil.Conn
	state atomic.Int32
}

// NewSession creates a disconnected session for host.
func NewSession(host config.Host, dialer Dialer, log logger.Logger) *Session {
	if log == nil {
		log = logger.Noop()
	}
	return &Session{
		host:   host,
		dialer: dialer,
		log:    log,
	}
}

// Name returns the configured host name.
func (s *Session) Name() string {
	return s.host.Name
}

// Host returns the host this session connects to.
func (s *Session) Host() config.Host {
	return s.host
}

// State reads the connectivity flag without taking the execution lock.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Connected reports whether the last known state is Connected. The connection
// may have died since; EnsureConnected is the authoritative check.
func (s *Session) Connected() bool {
	return s.State() == Connected
}

// EnsureConnected opens a connection if there is none or the current one no
// longer answers. Failures are CONNECT errors and leave the session disconnected.
func (s *Session) EnsureConnected(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureConnectedLocked(ctx)
}

func (s *Session) ensureConnectedLocked(ctx context.Context) error {
	if s.conn != nil {
		if s.conn.IsActive() {
			return nil
		}
		s.log.Info("connection to %s went stale, reconnecting", s.host.Name)
		s.dropLocked()
	}

	s.state.Store(int32(Connecting))

	dialCtx := ctx
	if s.host.Timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, s.host.Timeout)
		defer cancel()
	}

	start := time.Now()
	conn, err := s.dialer.Dial(dialCtx, s.host)
	if err != nil {
		s.state.Store(int32(Disconnected))
		s.log.Warn("connect to %s (%s:%d) failed: %s", s.host.Name, s.host.Hostname, s.host.Port, errors.Summarize(err))
		if errors.IsCode(err, errors.ErrConnect) {
			return err
		}
		return errors.NewConnectionError(s.host.Name, err)
	}

	s.conn = conn
	s.state.Store(int32(Connected))
	s.log.Info("connected to %s (%s:%d) in %s", s.host.Name, s.host.Hostname, s.host.Port, time.Since(start).Round(time.Millisecond))
	return nil
}

// Run executes cmd and returns stdout and stderr with surrounding whitespace
// trimmed. If the transport fails the connection is dropped so the next call
// reconnects; this call is not retried. A non-zero exit status is not an error.
func (s *Session) Run(ctx context.Context, cmd string) (stdout, stderr string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureConnectedLocked(ctx); err != nil {
		return "", "", err
	}

	runCtx := ctx
	if s.host.CommandTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.host.CommandTimeout)
		defer cancel()
	}

	out, errOut, runErr := s.conn.Run(runCtx, cmd)
	if runErr != nil {
		s.log.Warn("command on %s failed, dropping connection: %s", s.host.Name, runErr)
		s.dropLocked()
		return "", "", errors.NewCommandError(s.host.Name, cmd, runErr)
	}

	return strings.TrimSpace(string(out)), strings.TrimSpace(string(errOut)), nil
}

// Close releases the connection. It never fails and may be called from any
// state, any number of times. A command in flight finishes first.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		s.state.Store(int32(Disconnected))
		return
	}
	s.dropLocked()
	s.log.Info("disconnected from %s", s.host.Name)
}

func (s *Session) dropLocked() {
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.log.Debug("close %s: %s", s.host.Name, err)
		}
		s.conn = nil
	}
	s.state.Store(int32(Disconnected))
}
