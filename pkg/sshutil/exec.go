package sshutil

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"

	"golang.org/x/crypto/ssh"
)

// Run executes cmd in a fresh session and returns both output channels.
// A non-zero exit status is not an error: the command ran and its output is returned.
// If ctx ends first the session is closed and ctx's error is returned.
func (c *Client) Run(ctx context.Context, cmd string) (stdout, stderr []byte, err error) {
	session, err := c.Client.NewSession()
	if err != nil {
		return nil, nil, fmt.Errorf("open session: %w", err)
	}
	defer session.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	session.Stdout = &stdoutBuf
	session.Stderr = &stderrBuf

	if err := session.Start(cmd); err != nil {
		return nil, nil, fmt.Errorf("start command: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- session.Wait() }()

	select {
	case err = <-done:
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		session.Close()
		<-done
		return stdoutBuf.Bytes(), stderrBuf.Bytes(), ctx.Err()
	}

	if err != nil {
		var exitErr *ssh.ExitError
		if !stderrors.As(err, &exitErr) {
			return stdoutBuf.Bytes(), stderrBuf.Bytes(), fmt.Errorf("run command: %w", err)
		}
	}

	return stdoutBuf.Bytes(), stderrBuf.Bytes(), nil
}
