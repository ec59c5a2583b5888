package ioctl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sysfsWriter(t *testing.T, root string) func(name string, files map[string]string) {
	return func(name string, files map[string]string) {
		for f, content := range files {
			p := filepath.Join(root, name, f)
			require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
			require.NoError(t, os.WriteFile(p, []byte(content+"\n"), 0o644))
		}
	}
}

func TestBlockDevices(t *testing.T) {
	root := t.TempDir()
	mk := sysfsWriter(t, root)
	mk("sda", map[string]string{
		"dev":                       "8:0",
		"size":                      "2048000",
		"ro":                        "0",
		"removable":                 "0",
		"queue/logical_block_size":  "512",
		"queue/physical_block_size": "4096",
		"device/vendor":             "ATA",
		"device/model":              "VBOX HARDDISK",
	})
	mk("sda1", map[string]string{"dev": "8:1", "size": "2000", "partition": "1", "device/model": "x"})
	mk("loop0", map[string]string{"dev": "7:0", "size": "100"})
	mk("nvme0n1", map[string]string{
		"dev":                      "259:0",
		"size":                     "4096",
		"removable":                "1",
		"ro":                       "1",
		"queue/logical_block_size": "4096",
		"device/model":             "Samsung SSD",
	})

	disks, err := blockDevices(root, "/dev")
	require.NoError(t, err)
	require.Len(t, disks, 2)

	byName := map[string]BlockDevice{}
	for _, d := range disks {
		byName[d.Name] = d
	}
	sda := byName["sda"]
	assert.Equal(t, "/dev/sda", sda.Path)
	assert.Equal(t, "ATA VBOX HARDDISK", sda.Model)
	assert.Equal(t, uint64(2048000*512), sda.Size)
	assert.Equal(t, uint64(512), sda.LogicalSectorSize)
	assert.Equal(t, uint64(4096), sda.PhysicalSectorSize)
	assert.False(t, sda.Removable)

	nvme := byName["nvme0n1"]
	assert.Equal(t, "Samsung SSD", nvme.Model)
	assert.Equal(t, uint64(4096), nvme.LogicalSectorSize)
	assert.Equal(t, uint64(4096), nvme.PhysicalSectorSize)
	assert.True(t, nvme.Removable)
	assert.True(t, nvme.ReadOnly)
}

func TestBlockDevicesSkipsUnreadableSize(t *testing.T) {
	root := t.TempDir()
	mk := sysfsWriter(t, root)
	mk("sda", map[string]string{"dev": "8:0", "device/model": "BROKEN"})
	mk("sdb", map[string]string{"dev": "8:16", "size": "409600", "device/model": "GOOD"})

	disks, err := blockDevices(root, "/dev")
	require.NoError(t, err)
	require.Len(t, disks, 1)
	assert.Equal(t, "sdb", disks[0].Name)
	assert.Equal(t, uint64(409600*512), disks[0].Size)
}
