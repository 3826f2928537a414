package monitor

import (
	"time"
)

// MemoryUsage is the parsed output of the memory probe, in MiB.
type MemoryUsage struct {
	TotalMB      float64
	UsedMB       float64
	FreeMB       float64
	UsagePercent float64
}

// DiskUsage is one mounted filesystem as printed by df -h.
// Sizes keep df's human-readable units ("50G", "512M").
type DiskUsage struct {
	Filesystem   string
	Total        string
	Used         string
	Available    string
	UsagePercent float64
	MountPoint   string
}

// DiskTable maps mount points to disks and remembers insertion order.
// Replacing an existing mount keeps its original position.
type DiskTable struct {
	order []string
	disks map[string]DiskUsage
}

// NewDiskTable returns an empty table.
func NewDiskTable() *DiskTable {
	return &DiskTable{disks: make(map[string]DiskUsage)}
}

// Set inserts or replaces the entry for d.MountPoint.
func (t *DiskTable) Set(d DiskUsage) {
	if _, exists := t.disks[d.MountPoint]; !exists {
		t.order = append(t.order, d.MountPoint)
	}
	t.disks[d.MountPoint] = d
}

// Get returns the entry for mount.
func (t *DiskTable) Get(mount string) (DiskUsage, bool) {
	if t == nil {
		return DiskUsage{}, false
	}
	d, ok := t.disks[mount]
	return d, ok
}

// Len returns the number of mounts.
func (t *DiskTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// All returns the entries in insertion order.
func (t *DiskTable) All() []DiskUsage {
	if t == nil {
		return nil
	}
	out := make([]DiskUsage, 0, len(t.order))
	for _, mount := range t.order {
		out = append(out, t.disks[mount])
	}
	return out
}

// Root returns the disk mounted at "/", or else the first one inserted.
// ok is false when the table is empty.
func (t *DiskTable) Root() (DiskUsage, bool) {
	if t.Len() == 0 {
		return DiskUsage{}, false
	}
	if d, ok := t.disks["/"]; ok {
		return d, true
	}
	return t.disks[t.order[0]], true
}

// Utilization is one host's result for one cycle. Either Err is set and the
// metric fields are zero, or Err is nil and all three probes succeeded.
type Utilization struct {
	CPUPercent float64
	Memory     MemoryUsage
	Disks      *DiskTable

	Err error

	CollectedAt time.Time
	Elapsed     time.Duration
}

// OK reports whether the probes succeeded.
func (u Utilization) OK() bool {
	return u.Err == nil
}

// HostStatus pairs a host name with its utilization for one cycle.
type HostStatus struct {
	Name        string
	Utilization Utilization
}

// FleetSnapshot is the result of one poll, one entry per configured host in
// declaration order.
type FleetSnapshot struct {
	Taken time.Time
	Hosts []HostStatus
}

// Failed returns how many hosts reported an error.
func (s FleetSnapshot) Failed() int {
	n := 0
	for _, h := range s.Hosts {
		if h.Utilization.Err != nil {
			n++
		}
	}
	return n
}

// ConnectResult reports one host's outcome from Fleet.ConnectAll.
type ConnectResult struct {
	Name    string
	Err     error
	Elapsed time.Duration
}
