package sshutil

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kevinburke/ssh_config"
	"github.com/rileyhilliard/fleetwatch/internal/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DefaultPort is used when neither the target nor ~/.ssh/config names one.
const DefaultPort = 22

// DefaultKeepaliveTimeout bounds IsActive when the target has no Timeout.
const DefaultKeepaliveTimeout = 5 * time.Second

// Target describes one host to dial. Exactly one of Password and KeyFile should be set.
type Target struct {
	// Name labels the host in errors. Defaults to Hostname.
	Name string

	// Hostname is an address or an alias from ~/.ssh/config.
	Hostname string
	Port     int
	User     string

	Password string
	KeyFile  string

	// Timeout bounds the TCP dial plus the SSH handshake, and later each
	// IsActive keepalive. Zero means no dial bound.
	Timeout time.Duration

	// StrictHostKeyChecking verifies the host key against KnownHostsPath.
	// When false any host key is accepted.
	StrictHostKeyChecking bool

	// KnownHostsPath defaults to ~/.ssh/known_hosts.
	KnownHostsPath string
}

func (t Target) label() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Hostname
}

// Client wraps an SSH connection with additional metadata.
type Client struct {
	*ssh.Client
	Host    string // The name used to connect
	Address string // The resolved address (host:port)

	keepaliveTimeout time.Duration
}

// matchWarningOnce ensures the SSH config Match directive warning is only shown once per process.
var matchWarningOnce sync.Once

// WarningHandler is a function that handles warning messages.
// If nil, warnings are printed to stderr via log.Printf.
var WarningHandler func(message string)

// emitWarning sends a warning through the configured handler or falls back to log.Printf.
func emitWarning(message string) {
	if WarningHandler != nil {
		WarningHandler(message)
	} else {
		log.Printf("Warning: %s", message)
	}
}

// Dial opens an SSH connection to t. Every failure is a CONNECT error naming the host.
func Dial(ctx context.Context, t Target) (*Client, error) {
	settings := resolveSSHSettings(t, filepath.Join(homeDir(), ".ssh", "config"))

	config, err := buildSSHConfig(t)
	if err != nil {
		return nil, connectError(t, err)
	}

	address := settings.address()
	dialer := net.Dialer{Timeout: t.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		cerr := errors.NewConnectionError(t.label(), err)
		cerr.Suggestion = suggestionForDialError(err)
		return nil, cerr
	}

	// The handshake has no timeout of its own in x/crypto/ssh.
	if t.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(t.Timeout))
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, config)
	if !stop() && err == nil {
		// ctx fired after the handshake finished but already closed conn.
		sshConn.Close()
		err = ctx.Err()
	}
	if err != nil {
		conn.Close()

		// Check for host key mismatch error (provides detailed suggestion)
		var hostKeyErr *HostKeyMismatchError
		if stderrors.As(err, &hostKeyErr) {
			cerr := errors.NewConnectionError(t.label(), hostKeyErr)
			cerr.Suggestion = hostKeyErr.Suggestion()
			return nil, cerr
		}
		if ctx.Err() != nil {
			return nil, errors.NewConnectionError(t.label(), ctx.Err())
		}

		cerr := errors.NewConnectionError(t.label(), err)
		cerr.Suggestion = suggestionForHandshakeError(err)
		return nil, cerr
	}
	_ = conn.SetDeadline(time.Time{})

	return &Client{
		Client:  ssh.NewClient(sshConn, chans, reqs),
		Host:    t.label(),
		Address: address,

		keepaliveTimeout: t.Timeout,
	}, nil
}

func connectError(t Target, err error) error {
	var fwErr *errors.Error
	if stderrors.As(err, &fwErr) {
		fwErr.Host = t.label()
		return fwErr
	}
	return errors.NewConnectionError(t.label(), err)
}

// Close closes the SSH connection.
func (c *Client) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

// IsActive reports whether the connection still answers a global request.
// Servers that don't know the keepalive request still reply, so only a
// transport failure or a reply slower than the target's Timeout counts as
// inactive. A half-open connection never replies at all.
func (c *Client) IsActive() bool {
	if c.Client == nil {
		return false
	}
	timeout := c.keepaliveTimeout
	if timeout <= 0 {
		timeout = DefaultKeepaliveTimeout
	}

	// Buffered so the sender can exit once the caller has closed the connection.
	reply := make(chan error, 1)
	go func() {
		_, _, err := c.Client.SendRequest("keepalive@openssh.com", true, nil)
		reply <- err
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-reply:
		return err == nil
	case <-timer.C:
		return false
	}
}

// sshSettings holds resolved SSH connection parameters.
type sshSettings struct {
	hostname string
	port     string
}

// address returns the host:port string for dialing.
func (s *sshSettings) address() string {
	return net.JoinHostPort(s.hostname, s.port)
}

// resolveSSHSettings resolves t.Hostname through the ssh config at configPath.
// HostName always applies; Port only when the target left the default.
func resolveSSHSettings(t Target, configPath string) *sshSettings {
	port := t.Port
	if port == 0 {
		port = DefaultPort
	}
	settings := &sshSettings{
		hostname: t.Hostname,
		port:     strconv.Itoa(port),
	}

	// The kevinburke/ssh_config library doesn't support Match, so only the
	// content before the first Match block is parsed.
	content, matchLine, err := preprocessSSHConfig(configPath)
	if err != nil {
		return settings
	}

	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return settings
	}

	hostFound := false

	if hostname, _ := cfg.Get(t.Hostname, "HostName"); hostname != "" {
		settings.hostname = hostname
		hostFound = true
	}

	if cfgPort, _ := cfg.Get(t.Hostname, "Port"); cfgPort != "" {
		hostFound = true
		if port == DefaultPort {
			settings.port = cfgPort
		}
	}

	// Only warn about Match block if host wasn't found - it might be defined after the Match
	if matchLine > 0 && !hostFound && net.ParseIP(t.Hostname) == nil {
		matchWarningOnce.Do(func() {
			emitWarning(fmt.Sprintf(
				"Host '%s' not found in SSH config (config has a Match block at line %d that may hide later entries). "+
					"If this host is defined after line %d, move it earlier in ~/.ssh/config.",
				t.Hostname, matchLine, matchLine))
		})
	}

	return settings
}

// buildSSHConfig creates an SSH client config from the target's credential.
func buildSSHConfig(t Target) (*ssh.ClientConfig, error) {
	var authMethods []ssh.AuthMethod

	switch {
	case t.Password != "":
		authMethods = append(authMethods,
			ssh.Password(t.Password),
			ssh.KeyboardInteractive(passwordChallenge(t.Password)))
	case t.KeyFile != "":
		keyAuth, err := keyFileAuth(expandPath(t.KeyFile))
		if err != nil {
			var encErr *EncryptedKeyError
			if stderrors.As(err, &encErr) {
				return nil, errors.WrapWithCode(err, errors.ErrConnect,
					fmt.Sprintf("SSH key for '%s' is encrypted", t.label()),
					"fleetwatch can't prompt for passphrases. Use an unencrypted key or a password.")
			}
			return nil, errors.WrapWithCode(err, errors.ErrConnect,
				fmt.Sprintf("Can't load SSH key for '%s'", t.label()),
				"Check key_filename points at a readable private key")
		}
		authMethods = append(authMethods, keyAuth)
	default:
		return nil, errors.New(errors.ErrConnect,
			fmt.Sprintf("No credential for '%s'", t.label()),
			"Set password or key_filename for this server")
	}

	var hostKeyCallback ssh.HostKeyCallback
	if t.StrictHostKeyChecking {
		knownHostsPath := t.KnownHostsPath
		if knownHostsPath == "" {
			knownHostsPath = filepath.Join(homeDir(), ".ssh", "known_hosts")
		}
		var err error
		hostKeyCallback, err = createHostKeyCallback(knownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load known_hosts: %w", err)
		}
	} else {
		hostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // host key checking is opt-in
	}

	return &ssh.ClientConfig{
		User:            t.User,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         t.Timeout,
	}, nil
}

// passwordChallenge answers keyboard-interactive prompts with the password.
// Some servers disable the plain password method but accept this one.
func passwordChallenge(password string) ssh.KeyboardInteractiveChallenge {
	return func(user, instruction string, questions []string, echos []bool) ([]string, error) {
		answers := make([]string, len(questions))
		for i := range questions {
			answers[i] = password
		}
		return answers, nil
	}
}

// keyFileAuth returns an auth method using a private key file.
// Returns EncryptedKeyError if the key requires a passphrase.
func keyFileAuth(keyPath string) (ssh.AuthMethod, error) {
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, err
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if stderrors.As(err, &missing) ||
			strings.Contains(err.Error(), "encrypted") ||
			isEncryptedPEM(key) {
			return nil, &EncryptedKeyError{Path: keyPath}
		}
		return nil, err
	}

	return ssh.PublicKeys(signer), nil
}

// Helper functions

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

func suggestionForDialError(err error) string {
	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") {
		return "Is SSH running on that box? Try: ssh <host>"
	}
	if strings.Contains(errStr, "no route to host") || strings.Contains(errStr, "network is unreachable") {
		return "Can't route to the host. Check your network connection."
	}
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "i/o timeout") {
		return "Connection timed out. Host might be offline or blocked by a firewall."
	}
	if strings.Contains(errStr, "no such host") {
		return "The hostname doesn't resolve. Check the hostname field or your ~/.ssh/config alias."
	}
	return "Make sure the host is reachable: ping <host>"
}

func suggestionForHandshakeError(err error) string {
	errStr := err.Error()
	if strings.Contains(errStr, "unable to authenticate") || strings.Contains(errStr, "no supported methods") {
		return "Auth failed. Check username and the password or key_filename for this server."
	}
	if strings.Contains(errStr, "host key") {
		return "Host key issue. Try connecting manually first: ssh <host>"
	}
	if strings.Contains(errStr, "i/o timeout") {
		return "The SSH handshake timed out. Raise timeout for this server if the link is slow."
	}
	return "Something went wrong during SSH setup. Try: ssh <host>"
}

// EncryptedKeyError is returned when an SSH key requires a passphrase.
type EncryptedKeyError struct {
	Path string
}

func (e *EncryptedKeyError) Error() string {
	return fmt.Sprintf("SSH key at %s is encrypted (passphrase protected)", e.Path)
}

// HostKeyMismatchError provides helpful context when known_hosts verification fails.
type HostKeyMismatchError struct {
	Hostname     string
	ReceivedType string
	KnownHosts   string
	Want         []knownhosts.KnownKey
}

func (e *HostKeyMismatchError) Error() string {
	return fmt.Sprintf("host key mismatch for %s: server sent %s key", e.Hostname, e.ReceivedType)
}

// Suggestion returns actionable steps to fix the host key mismatch.
func (e *HostKeyMismatchError) Suggestion() string {
	host := e.Hostname
	// Strip port if present (e.g., "host:22" -> "host")
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	var wantTypes []string
	for _, k := range e.Want {
		wantTypes = append(wantTypes, k.Key.Type())
	}
	wantStr := "unknown"
	if len(wantTypes) > 0 {
		wantStr = strings.Join(wantTypes, ", ")
	}

	return fmt.Sprintf(
		"The server's host key doesn't match what's in known_hosts.\n"+
			"  Known types: %s\n"+
			"  Server sent: %s\n\n"+
			"  To update known_hosts with all key types:\n"+
			"    ssh-keyscan -t rsa,ecdsa,ed25519 %s >> %s\n\n"+
			"  Or remove the old entry:\n"+
			"    ssh-keygen -R %s",
		wantStr, e.ReceivedType, host, e.KnownHosts, host)
}

// preprocessSSHConfig reads the SSH config and returns content up to the first Match directive.
// Returns the original content if no Match directive is found.
// Also returns the line number where Match was found (0 if not found).
func preprocessSSHConfig(configPath string) ([]byte, int, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, 0, err
	}

	lines := strings.Split(string(content), "\n")
	var result []string
	matchLine := 0

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(strings.ToLower(trimmed), "match ") {
			matchLine = i + 1
			break
		}
		result = append(result, line)
	}

	return []byte(strings.Join(result, "\n")), matchLine, nil
}

// isEncryptedPEM checks if PEM data contains encryption markers.
func isEncryptedPEM(data []byte) bool {
	return bytes.Contains(data, []byte("ENCRYPTED")) ||
		bytes.Contains(data, []byte("Proc-Type: 4,ENCRYPTED"))
}

// createHostKeyCallback wraps the knownhosts callback to provide better error messages.
func createHostKeyCallback(knownHostsPath string) (ssh.HostKeyCallback, error) {
	if _, err := os.Stat(knownHostsPath); os.IsNotExist(err) {
		dir := filepath.Dir(knownHostsPath)
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create .ssh directory: %w", err)
		}
		if err := os.WriteFile(knownHostsPath, []byte{}, 0600); err != nil {
			return nil, fmt.Errorf("failed to create known_hosts: %w", err)
		}
	}

	callback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, err
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := callback(hostname, remote, key)
		if err != nil {
			var keyErr *knownhosts.KeyError
			if stderrors.As(err, &keyErr) && len(keyErr.Want) > 0 {
				return &HostKeyMismatchError{
					Hostname:     hostname,
					ReceivedType: key.Type(),
					KnownHosts:   knownHostsPath,
					Want:         keyErr.Want,
				}
			}
		}
		return err
	}, nil
}
