package monitor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rileyhilliard/fleetwatch/internal/errors"
)

const kbPerMB = 1024

// ParseCPU reads the single usage figure printed by the cpu probe.
func ParseCPU(output string) (float64, error) {
	s := strings.TrimSpace(output)
	if s == "" {
		return 0, errors.NewParseError("cpu", "empty output")
	}
	// Some top builds print "12.5%us," in the usage column.
	s = strings.TrimSuffix(s, "%us,")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.NewParseError("cpu", fmt.Sprintf("'%s' is not a number", strings.TrimSpace(output)))
	}
	return v, nil
}

// ParseMemory reads "total used free" in KB, as printed by the memory probe.
func ParseMemory(output string) (MemoryUsage, error) {
	fields := strings.Fields(output)
	if len(fields) != 3 {
		return MemoryUsage{}, errors.NewParseError("memory",
			fmt.Sprintf("want 3 fields (total used free), got %d", len(fields)))
	}

	var kb [3]int64
	for i := range kb {
		v, err := strconv.ParseInt(fields[i], 10, 64)
		if err != nil {
			return MemoryUsage{}, errors.NewParseError("memory", fmt.Sprintf("'%s' is not an integer", fields[i]))
		}
		kb[i] = v
	}

	total, used, free := kb[0], kb[1], kb[2]
	if total <= 0 {
		return MemoryUsage{}, errors.NewParseError("memory", "total is zero")
	}

	return MemoryUsage{
		TotalMB:      float64(total) / kbPerMB,
		UsedMB:       float64(used) / kbPerMB,
		FreeMB:       float64(free) / kbPerMB,
		UsagePercent: float64(used) / float64(total) * 100,
	}, nil
}

// ParseDisk reads df -h lines. Lines with fewer than six columns are skipped;
// a percent column that isn't a number fails the whole parse.
func ParseDisk(output string) (*DiskTable, error) {
	table := NewDiskTable()
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 6 {
			continue
		}

		pct, err := strconv.ParseFloat(strings.TrimSuffix(fields[4], "%"), 64)
		if err != nil {
			return nil, errors.NewParseError("disk", fmt.Sprintf("'%s' is not a percentage", fields[4]))
		}

		table.Set(DiskUsage{
			Filesystem:   fields[0],
			Total:        fields[1],
			Used:         fields[2],
			Available:    fields[3],
			UsagePercent: pct,
			MountPoint:   fields[5],
		})
	}
	return table, nil
}
