package monitor

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/logger"
)

// Probe commands. Their output shapes are what ParseCPU, ParseMemory and
// ParseDisk expect.
const (
	CPUCommand    = "top -bn1 | grep 'Cpu(s)' | awk '{print $2}'"
	MemoryCommand = "free | grep Mem | awk '{print $2,$3,$4}'"
	DiskCommand   = "df -h | grep '^/dev'"
)

// Collector runs the three probes against one session and folds every failure
// into the returned Utilization.
type Collector struct {
	log logger.Logger
	now func() time.Time
}

// NewCollector creates a collector that logs per-host failures to log.
func NewCollector(log logger.Logger) *Collector {
	if log == nil {
		log = logger.Noop()
	}
	return &Collector{log: log, now: time.Now}
}

// Collect runs cpu, memory and disk probes in that order and stops at the
// first failure. It never returns an error: failures land in Utilization.Err.
func (c *Collector) Collect(ctx context.Context, s *Session) Utilization {
	start := c.now()

	u, err := c.collect(ctx, s)
	if err != nil {
		c.log.Warn("collect %s: %s", s.Name(), errors.Summarize(err))
		u = Utilization{Err: err}
	}

	u.CollectedAt = start
	u.Elapsed = c.now().Sub(start)
	return u
}

func (c *Collector) collect(ctx context.Context, s *Session) (Utilization, error) {
	cpuOut, err := probe(ctx, s, "cpu", CPUCommand)
	if err != nil {
		return Utilization{}, err
	}
	cpu, err := ParseCPU(cpuOut.stdout)
	if err != nil {
		return Utilization{}, cpuOut.explain(s.Name(), err)
	}

	memOut, err := probe(ctx, s, "memory", MemoryCommand)
	if err != nil {
		return Utilization{}, err
	}
	mem, err := ParseMemory(memOut.stdout)
	if err != nil {
		return Utilization{}, memOut.explain(s.Name(), err)
	}

	diskOut, err := probe(ctx, s, "disk", DiskCommand)
	if err != nil {
		return Utilization{}, err
	}
	disks, err := ParseDisk(diskOut.stdout)
	if err != nil {
		return Utilization{}, diskOut.explain(s.Name(), err)
	}

	return Utilization{
		CPUPercent: cpu,
		Memory:     mem,
		Disks:      disks,
	}, nil
}

type probeOutput struct {
	name   string
	stdout string
	stderr string
}

func probe(ctx context.Context, s *Session, name, cmd string) (probeOutput, error) {
	stdout, stderr, err := s.Run(ctx, cmd)
	if err != nil {
		return probeOutput{}, err
	}
	return probeOutput{name: name, stdout: stdout, stderr: stderr}, nil
}

// explain tags a parse error with the host and, when the probe printed nothing
// but complained on stderr, with that complaint.
func (p probeOutput) explain(host string, err error) error {
	var fwErr *errors.Error
	if !stderrors.As(err, &fwErr) {
		fwErr = errors.NewParseError(p.name, err.Error())
	}
	fwErr.Host = host
	if p.stdout == "" && p.stderr != "" {
		fwErr.Cause = fmt.Errorf("stderr: %s", p.stderr)
	}
	return fwErr
}
