package sshutil

import "context"

// Conn is one live connection able to run commands.
// Both the real Client and test doubles satisfy this interface.
type Conn interface {
	// IsActive reports whether the connection still works. It may block for
	// one round trip.
	IsActive() bool

	// Run executes cmd and returns stdout and stderr. A non-zero exit status
	// is not an error; err is set only when the command couldn't run or its
	// output couldn't be read.
	Run(ctx context.Context, cmd string) (stdout, stderr []byte, err error)

	// Close closes the connection.
	Close() error
}

var _ Conn = (*Client)(nil)
