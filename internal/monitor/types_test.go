package monitor

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskTable_Root(t *testing.T) {
	t.Run("slash wins regardless of position", func(t *testing.T) {
		table := NewDiskTable()
		table.Set(DiskUsage{MountPoint: "/boot", Used: "1G"})
		table.Set(DiskUsage{MountPoint: "/", Used: "9G"})

		root, ok := table.Root()
		require.True(t, ok)
		assert.Equal(t, "9G", root.Used)
	})

	t.Run("first inserted without slash", func(t *testing.T) {
		table := NewDiskTable()
		table.Set(DiskUsage{MountPoint: "/var", Used: "3G"})
		table.Set(DiskUsage{MountPoint: "/home", Used: "4G"})

		root, ok := table.Root()
		require.True(t, ok)
		assert.Equal(t, "/var", root.MountPoint)
	})

	t.Run("empty", func(t *testing.T) {
		_, ok := NewDiskTable().Root()
		assert.False(t, ok)
	})

	t.Run("nil table", func(t *testing.T) {
		var table *DiskTable
		_, ok := table.Root()
		assert.False(t, ok)
		assert.Equal(t, 0, table.Len())
		assert.Nil(t, table.All())
		_, ok = table.Get("/")
		assert.False(t, ok)
	})
}

func TestDiskTable_SetReplaces(t *testing.T) {
	table := NewDiskTable()
	table.Set(DiskUsage{MountPoint: "/", Used: "1G"})
	table.Set(DiskUsage{MountPoint: "/data", Used: "2G"})
	table.Set(DiskUsage{MountPoint: "/", Used: "5G"})

	assert.Equal(t, 2, table.Len())
	d, ok := table.Get("/")
	require.True(t, ok)
	assert.Equal(t, "5G", d.Used)
	assert.Equal(t, "/", table.All()[0].MountPoint)
}

func TestFleetSnapshot_Failed(t *testing.T) {
	snap := FleetSnapshot{Hosts: []HostStatus{
		{Name: "a"},
		{Name: "b", Utilization: Utilization{Err: stderrors.New("down")}},
		{Name: "c"},
	}}
	assert.Equal(t, 1, snap.Failed())
	assert.True(t, snap.Hosts[0].Utilization.OK())
	assert.False(t, snap.Hosts[1].Utilization.OK())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "connecting", Connecting.String())
	assert.Equal(t, "connected", Connected.String())
	assert.Equal(t, "unknown", State(42).String())
}
