// Package monitor polls a fleet of hosts over SSH.
//
// # Key Components
//
//	Session     - One host's connection: lazy connect, liveness check, reconnect on demand
//	Collector   - Runs the cpu, memory and disk probes on a Session and parses them
//	WorkerPool  - Fixed set of goroutines shared by every fan-out
//	Fleet       - One Session per host; PollOnce, ConnectAll, DisconnectAll
//	Run         - The refresh loop: poll, render, sleep
//
// # Cycle
//
// Each cycle submits one collection task per host to the pool, waits for all
// of them, and reassembles the results in host declaration order. A host that
// can't be reached, times out or prints something unexpected becomes an error
// entry for that cycle only; the other hosts are unaffected and the host is
// retried on the next cycle.
//
// # Concurrency
//
// At most WorkerPool.Size commands are in flight at once. A Session's
// execution lock allows one command per connection. Cancelling the loop's
// context stops the loop at the next boundary; commands already running finish
// against their own timeouts before the sessions are closed.
package monitor
