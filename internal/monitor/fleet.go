package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rileyhilliard/fleetwatch/internal/config"
	"github.com/rileyhilliard/fleetwatch/internal/logger"
)

// Fleet owns one Session per configured host and fans work out to them
// through a shared WorkerPool.
type Fleet struct {
	sessions  []*Session
	pool      *WorkerPool
	collector *Collector
	log       logger.Logger
	closeOnce sync.Once
}

// NewFleet creates a session per host, in order, and starts a pool of
// workers goroutines.
func NewFleet(hosts []config.Host, dialer Dialer, workers int, log logger.Logger) *Fleet {
	if log == nil {
		log = logger.Noop()
	}
	sessions := make([]*Session, len(hosts))
	for i, h := range hosts {
		sessions[i] = NewSession(h, dialer, log)
	}
	return &Fleet{
		sessions:  sessions,
		pool:      NewWorkerPool(workers),
		collector: NewCollector(log),
		log:       log,
	}
}

// Hosts returns host names in declaration order.
func (f *Fleet) Hosts() []string {
	names := make([]string, len(f.sessions))
	for i, s := range f.sessions {
		names[i] = s.Name()
	}
	return names
}

// Session returns the session at index i.
func (f *Fleet) Session(i int) *Session {
	return f.sessions[i]
}

// Workers returns the pool width.
func (f *Fleet) Workers() int {
	return f.pool.Size()
}

// PollOnce collects every host in parallel and returns one entry per host in
// declaration order. Cancelling ctx stops nothing already submitted; those
// tasks finish against their own timeouts.
func (f *Fleet) PollOnce(ctx context.Context) FleetSnapshot {
	taskCtx := context.WithoutCancel(ctx)

	handles := make([]*Handle[Utilization], len(f.sessions))
	for i, s := range f.sessions {
		h, err := Submit(f.pool, func() Utilization {
			return f.collector.Collect(taskCtx, s)
		})
		if err != nil {
			f.log.Error("submit %s: %s", s.Name(), err)
			continue
		}
		handles[i] = h
	}

	values, errs := Await(handles)

	snapshot := FleetSnapshot{Hosts: make([]HostStatus, len(f.sessions))}
	for i, s := range f.sessions {
		u := values[i]
		if errs[i] != nil {
			f.log.Error("collect %s: %s", s.Name(), errs[i])
			u = Utilization{Err: errs[i], CollectedAt: time.Now()}
		}
		snapshot.Hosts[i] = HostStatus{Name: s.Name(), Utilization: u}
	}
	snapshot.Taken = time.Now()
	return snapshot
}

// ConnectAll opens every session in parallel. Failures are logged and
// reported, never returned as an error: the host shows up as failed in the
// next poll and is retried then.
func (f *Fleet) ConnectAll(ctx context.Context) []ConnectResult {
	taskCtx := context.WithoutCancel(ctx)

	handles := make([]*Handle[ConnectResult], len(f.sessions))
	for i, s := range f.sessions {
		h, err := Submit(f.pool, func() ConnectResult {
			start := time.Now()
			err := s.EnsureConnected(taskCtx)
			return ConnectResult{Name: s.Name(), Err: err, Elapsed: time.Since(start)}
		})
		if err != nil {
			f.log.Error("submit %s: %s", s.Name(), err)
			continue
		}
		handles[i] = h
	}

	values, errs := Await(handles)

	results := make([]ConnectResult, len(f.sessions))
	failed := 0
	for i, s := range f.sessions {
		r := values[i]
		if errs[i] != nil {
			r = ConnectResult{Name: s.Name(), Err: errs[i]}
		}
		if r.Err != nil {
			failed++
		}
		results[i] = r
	}
	f.log.Info("connected to %d of %d hosts", len(results)-failed, len(results))
	return results
}

// DisconnectAll closes every session. It never fails.
func (f *Fleet) DisconnectAll() {
	for _, s := range f.sessions {
		s.Close()
	}
}

// Close disconnects every session and stops the worker pool. Only the first
// call does anything.
func (f *Fleet) Close() {
	f.closeOnce.Do(func() {
		f.DisconnectAll()
		f.pool.Close()
	})
}
