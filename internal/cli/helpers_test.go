package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rileyhilliard/fleetwatch/internal/config"
	"github.com/rileyhilliard/fleetwatch/internal/monitor"
	"github.com/rileyhilliard/fleetwatch/internal/ui"
	sshtest "github.com/rileyhilliard/fleetwatch/pkg/sshutil/testing"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	ui.DisableColors()
	os.Exit(m.Run())
}

// writeConfig writes a password-auth config with one server per name and
// logs going to the test's temp dir. It returns the config path.
func writeConfig(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()

	var b strings.Builder
	b.WriteString("global:\n  username: ops\n  password: secret\n")
	fmt.Fprintf(&b, "log:\n  file: %s\n", filepath.Join(dir, "fleetwatch.log"))
	b.WriteString("servers:\n")
	for i, name := range names {
		fmt.Fprintf(&b, "  - name: %s\n    hostname: 10.0.0.%d\n", name, i+1)
	}

	path := filepath.Join(dir, "fleetwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

// withDialer makes every command dial through d.
func withDialer(t *testing.T, d monitor.Dialer) {
	t.Helper()
	orig := newDialer
	newDialer = func(*config.Config) monitor.Dialer { return d }
	t.Cleanup(func() { newDialer = orig })
}

func healthyDialer() *sshtest.MockDialer {
	return sshtest.NewMockDialer(func(_ config.Host, c *sshtest.MockClient) {
		sshtest.WithProbes(c, sshtest.HealthyHost)
	})
}
