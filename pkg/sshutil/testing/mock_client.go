package testing

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"time"

	"github.com/rileyhilliard/fleetwatch/pkg/sshutil"
)

// ErrConnectionLost is returned by Run once a MockClient has been dropped or closed.
var ErrConnectionLost = errors.New("connection lost")

// CommandResponse defines a canned response for a specific command pattern.
type CommandResponse struct {
	Stdout string
	Stderr string
	Error  error

	// Delay holds the command open before it answers.
	Delay time.Duration
}

// MockClient simulates one SSH connection for testing.
// Commands are answered from canned responses; anything unknown behaves like
// a missing binary (empty stdout, an error on stderr, no transport error).
type MockClient struct {
	mu       sync.Mutex
	host     string
	active   bool
	closed   bool
	closes   int
	runs     []string
	commands map[string]CommandResponse
	patterns []string
	gauge    *Gauge
	panicOn  string
}

var _ sshutil.Conn = (*MockClient)(nil)

// NewMockClient creates an active mock connection to host.
func NewMockClient(host string) *MockClient {
	return &MockClient{
		host:     host,
		active:   true,
		commands: make(map[string]CommandResponse),
	}
}

// IsActive reports false once the client has been dropped or closed.
func (m *MockClient) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active && !m.closed
}

// Run answers cmd from the registered responses.
func (m *MockClient) Run(ctx context.Context, cmd string) ([]byte, []byte, error) {
	m.mu.Lock()
	if m.closed || !m.active {
		m.mu.Unlock()
		return nil, nil, ErrConnectionLost
	}
	m.runs = append(m.runs, cmd)
	resp, ok := m.lookup(cmd)
	gauge := m.gauge
	panicOn := m.panicOn
	m.mu.Unlock()

	if panicOn != "" && regexp.MustCompile(panicOn).MatchString(cmd) {
		panic("mock client: " + cmd)
	}

	if gauge != nil {
		gauge.enter()
		defer gauge.leave()
	}

	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}

	if !ok {
		return nil, []byte("sh: command not found"), nil
	}
	if resp.Error != nil {
		return nil, nil, resp.Error
	}
	return []byte(resp.Stdout), []byte(resp.Stderr), nil
}

// lookup finds an exact match first, then the first matching pattern in
// registration order. Callers hold m.mu.
func (m *MockClient) lookup(cmd string) (CommandResponse, bool) {
	if resp, ok := m.commands[cmd]; ok {
		return resp, true
	}
	for _, pattern := range m.patterns {
		if matched, _ := regexp.MatchString(pattern, cmd); matched {
			return m.commands[pattern], true
		}
	}
	return CommandResponse{}, false
}

// Close marks the connection as closed. Every call is counted.
func (m *MockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.closes++
	return nil
}

// Drop simulates the remote end going away: IsActive turns false and Run fails.
func (m *MockClient) Drop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = false
}

// SetCommandResponse registers a canned response for a command.
// The pattern can be an exact string or a regex pattern.
func (m *MockClient) SetCommandResponse(pattern string, resp CommandResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.commands[pattern]; !exists {
		m.patterns = append(m.patterns, pattern)
	}
	m.commands[pattern] = resp
}

// PanicOn makes Run panic for commands matching pattern.
func (m *MockClient) PanicOn(pattern string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicOn = pattern
}

// GetHost returns the host name.
func (m *MockClient) GetHost() string {
	return m.host
}

// CloseCount returns how many times Close was called.
func (m *MockClient) CloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

// Closed reports whether Close was called at least once.
func (m *MockClient) Closed() bool {
	return m.CloseCount() > 0
}

// Commands returns every command Run accepted, in order.
func (m *MockClient) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.runs))
	copy(out, m.runs)
	return out
}

// Gauge measures how many commands run at once across any number of clients.
type Gauge struct {
	mu      sync.Mutex
	current int
	max     int
	total   int
}

func (g *Gauge) enter() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current++
	g.total++
	if g.current > g.max {
		g.max = g.current
	}
}

func (g *Gauge) leave() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current--
}

// Max returns the highest number of commands seen in flight together.
func (g *Gauge) Max() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.max
}

// Total returns how many commands were measured.
func (g *Gauge) Total() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.total
}
