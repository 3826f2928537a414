package testing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rileyhilliard/fleetwatch/internal/config"
	"github.com/rileyhilliard/fleetwatch/pkg/sshutil"
)

// MockDialer hands out MockClients keyed by host name and records every dial.
type MockDialer struct {
	mu       sync.Mutex
	setup    func(host config.Host, c *MockClient)
	failures map[string]error
	clients  map[string][]*MockClient
	gauge    *Gauge

	// Delay holds each dial open before it answers.
	Delay time.Duration
}

// NewMockDialer creates a dialer. setup, when non-nil, scripts every new client.
func NewMockDialer(setup func(host config.Host, c *MockClient)) *MockDialer {
	return &MockDialer{
		setup:    setup,
		failures: make(map[string]error),
		clients:  make(map[string][]*MockClient),
	}
}

// Dial returns a fresh MockClient for host, or the injected failure.
func (d *MockDialer) Dial(ctx context.Context, host config.Host) (sshutil.Conn, error) {
	if d.Delay > 0 {
		select {
		case <-time.After(d.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err, ok := d.failures[host.Name]; ok {
		d.clients[host.Name] = append(d.clients[host.Name], nil)
		return nil, err
	}

	c := NewMockClient(host.Name)
	c.gauge = d.gauge
	if d.setup != nil {
		d.setup(host, c)
	}
	d.clients[host.Name] = append(d.clients[host.Name], c)
	return c, nil
}

// FailHost makes every dial to name fail with err. A nil err clears the failure.
func (d *MockDialer) FailHost(name string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.failures, name)
		return
	}
	d.failures[name] = err
}

// Unreachable is a convenience for FailHost with a dial-style error.
func (d *MockDialer) Unreachable(name string) {
	d.FailHost(name, fmt.Errorf("dial tcp %s:22: connect: connection refused", name))
}

// UseGauge attaches g to every client dialed from now on.
func (d *MockDialer) UseGauge(g *Gauge) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gauge = g
}

// Dials returns how many times name was dialed, failed attempts included.
func (d *MockDialer) Dials(name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.clients[name])
}

// Clients returns the clients handed out for name, oldest first.
func (d *MockDialer) Clients(name string) []*MockClient {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*MockClient
	for _, c := range d.clients[name] {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Last returns the newest client handed out for name, or nil.
func (d *MockDialer) Last(name string) *MockClient {
	clients := d.Clients(name)
	if len(clients) == 0 {
		return nil
	}
	return clients[len(clients)-1]
}

// All returns every client handed out, across hosts.
func (d *MockDialer) All() []*MockClient {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*MockClient
	for _, list := range d.clients {
		for _, c := range list {
			if c != nil {
				out = append(out, c)
			}
		}
	}
	return out
}
