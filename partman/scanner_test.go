package partman

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomasphansen/deepin-installer-reborn/disk/parted"
	"github.com/thomasphansen/deepin-installer-reborn/disk/table"
	"github.com/thomasphansen/deepin-installer-reborn/sys/info/storage"
)

func testIndex() *storage.Index {
	idx := storage.NewIndex()
	idx.Labels["/dev/sda1"] = "root"
	idx.Labels["/dev/sda2"] = "bogus"
	idx.PartLabels["/dev/sda1"] = "primary"
	idx.OsTypes["/dev/sda1"] = storage.OsLinux
	idx.OsTypes["/dev/sdd1"] = storage.OsWindows
	idx.Mounts = append(idx.Mounts, storage.MountItem{Path: "/dev/sda1", MountPoint: "/"},
		storage.MountItem{Path: "/dev/sda5", MountPoint: "swap"})
	return idx
}

func newScanFixture() *fakeLib {
	lib := newFakeLib()
	_, parts := mbrDisk()
	lib.addDevice("/dev/sda", table.DTypeMBR, parts...)
	lib.addDevice("/dev/sdb", table.DTypeRAW)
	lib.addDevice("/dev/sdc", table.DTypeMac)
	lib.addDevice("/dev/sdx", table.DTypeGPT)
	lib.probeErr["/dev/sdx"] = errors.New("input/output error")
	lib.addDevice("/dev/sdd", table.DTypeGPT,
		parted.Partition{Num: 1, Type: parted.PartitionNormal, Start: 2048, End: 309247, FsType: "ntfs"})
	return lib
}

func TestScanDevices(t *testing.T) {
	lib := newScanFixture()
	s := NewScanner(lib, staticIndex{testIndex()}, &fakeUsage{}, func() bool { return true }, false)

	devices, err := s.ScanDevices(context.Background())
	require.NoError(t, err)

	paths := make([]string, 0, len(devices))
	for _, d := range devices {
		paths = append(paths, d.Path)
	}
	// 不支持的分区表与探测失败的设备被跳过, 不影响之后的设备.
	assert.Equal(t, []string{"/dev/sda", "/dev/sdb", "/dev/sdd"}, paths)

	sda := devices[0]
	assert.Equal(t, TableMsDos, sda.Table)
	assert.Equal(t, 4, sda.MaxPrimaryPartitions)
	assert.Equal(t, "ATA FAKE", sda.Model)
	require.Len(t, sda.Partitions, 5)
	p1 := sda.Partitions[0]
	assert.Equal(t, "root", p1.Label)
	assert.Equal(t, "primary", p1.PartLabel)
	assert.Equal(t, storage.OsLinux, p1.Os)
	assert.True(t, p1.Busy)
	assert.Empty(t, p1.MountPoint)

	ext := sda.Partitions[1]
	assert.Equal(t, PartitionExtended, ext.Type)
	assert.Empty(t, ext.Label)

	assert.True(t, sda.Partitions[3].Busy)
	for _, p := range sda.Partitions {
		assert.Equal(t, "/dev/sda", p.DevicePath)
		assert.Equal(t, int64(512), p.SectorSize)
		if p.Type == PartitionUnallocated {
			assert.False(t, p.Busy)
			assert.Empty(t, p.Label)
			assert.Equal(t, storage.OsEmpty, p.Os)
		}
	}

	sdb := devices[1]
	assert.Equal(t, TableGPT, sdb.Table)
	assert.Equal(t, table.GPTDefaultPartEntryCount, sdb.MaxPrimaryPartitions)
	require.Len(t, sdb.Partitions, 1)
	assert.Equal(t, PartitionUnallocated, sdb.Partitions[0].Type)

	sdd := devices[2]
	assert.Equal(t, TableGPT, sdd.Table)
	assert.Equal(t, FsNTFS, sdd.Partitions[0].Fs)
	assert.Equal(t, storage.OsWindows, sdd.Partitions[0].Os)
	assert.False(t, sdd.Partitions[0].Busy)

	// 每个打开的句柄都被释放.
	assert.Equal(t, 3, lib.opened)
	assert.Equal(t, lib.opened, lib.destroyed)
	assert.Empty(t, lib.calls)
}

func TestScanDevicesLegacyBoot(t *testing.T) {
	lib := newFakeLib()
	lib.addDevice("/dev/sdb", table.DTypeRAW)
	s := NewScanner(lib, nil, nil, func() bool { return false }, false)

	devices, err := s.ScanDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, TableMsDos, devices[0].Table)
	assert.Equal(t, 4, devices[0].MaxPrimaryPartitions)
	require.Len(t, devices[0].Partitions, 1)
	assert.Equal(t, int64(409599), devices[0].Partitions[0].EndSector)
}

func TestScanDevicesSkipRemovable(t *testing.T) {
	lib := newFakeLib()
	lib.addDevice("/dev/sda", table.DTypeRAW)
	usb := lib.addDevice("/dev/sdb", table.DTypeRAW)
	usb.Removable = true

	devices, err := NewScanner(lib, nil, nil, nil, true).ScanDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "/dev/sda", devices[0].Path)

	devices, err = NewScanner(lib, nil, nil, nil, false).ScanDevices(context.Background())
	require.NoError(t, err)
	assert.Len(t, devices, 2)
}

func TestScanDevicesCancelled(t *testing.T) {
	lib := newScanFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	devices, err := NewScanner(lib, nil, nil, nil, false).ScanDevices(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, devices)
	assert.Zero(t, lib.opened)
}

func TestScanDevicesUnsupportedKind(t *testing.T) {
	lib := newFakeLib()
	dev := lib.addDevice("/dev/sdc", table.DTypeMac)
	s := NewScanner(lib, nil, nil, nil, false)

	_, err := s.scanDevice(dev, storage.NewIndex())
	assert.Equal(t, UnsupportedTable, KindOf(err))
}
