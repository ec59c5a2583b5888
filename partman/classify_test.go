package partman

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomasphansen/deepin-installer-reborn/disk/filesystem/fossick"
	"github.com/thomasphansen/deepin-installer-reborn/disk/parted"
	"github.com/thomasphansen/deepin-installer-reborn/disk/table"
)

func TestClassifyType(t *testing.T) {
	tests := []struct {
		native parted.PartitionType
		want   PartitionType
		ok     bool
	}{
		{parted.PartitionNormal, PartitionNormal, true},
		{parted.PartitionExtended, PartitionExtended, true},
		{parted.PartitionFreespace | parted.PartitionLogical, PartitionUnallocated, true},
		{parted.PartitionLogical, PartitionLogical, true},
		{parted.PartitionFreespace, PartitionUnallocated, true},
		{parted.PartitionMetadata, "", false},
		{parted.PartitionMetadata | parted.PartitionLogical, "", false},
		{parted.PartitionProtected, "", false},
		{parted.PartitionExtended | parted.PartitionLogical, "", false},
		{parted.PartitionFreespace | parted.PartitionExtended, "", false},
	}
	for _, tt := range tests {
		got, ok := ClassifyType(tt.native)
		assert.Equal(t, tt.ok, ok, "native type %#x", int(tt.native))
		assert.Equal(t, tt.want, got, "native type %#x", int(tt.native))
	}
}

func mbrDisk() (*parted.Device, []parted.Partition) {
	dev := &parted.Device{Path: "/dev/sda", Length: 409600, SectorSize: 512}
	return dev, []parted.Partition{
		{Num: 1, Type: parted.PartitionNormal, Start: 2048, End: 206847, FsType: "ext4", TypeID: "0x83"},
		{Num: 2, Type: parted.PartitionExtended, Start: 206848, End: 409599, TypeID: "0x05"},
		{Num: 5, Type: parted.PartitionLogical, Start: 208896, End: 309247, FsType: "linux-swap(v1)", TypeID: "0x82"},
	}
}

func TestReadPartitionsMBR(t *testing.T) {
	dev, parts := mbrDisk()
	disk := parted.NewDiskWithPartitions(dev, table.DTypeMBR, parts)
	usage := &fakeUsage{values: map[string][2]int64{"/dev/sda1": {1000, 2000}}}

	got := ReadPartitions(disk, usage)
	require.Len(t, got, 5)

	assert.Equal(t, PartitionNormal, got[0].Type)
	assert.Equal(t, "/dev/sda1", got[0].Path)
	assert.Equal(t, FsExt4, got[0].Fs)
	assert.Equal(t, int64(1000), got[0].Freespace)
	assert.Equal(t, int64(2000), got[0].Length)

	assert.Equal(t, PartitionExtended, got[1].Type)
	assert.Equal(t, "/dev/sda2", got[1].Path)
	assert.Zero(t, got[1].Length)

	assert.Equal(t, PartitionUnallocated, got[2].Type)
	assert.Empty(t, got[2].Path)
	assert.Equal(t, int64(206848), got[2].StartSector)
	assert.Equal(t, int64(208894), got[2].EndSector)

	assert.Equal(t, PartitionLogical, got[3].Type)
	assert.Equal(t, "/dev/sda5", got[3].Path)
	assert.Equal(t, FsLinuxSwap, got[3].Fs)

	assert.Equal(t, PartitionUnallocated, got[4].Type)
	assert.Equal(t, int64(309248), got[4].StartSector)
	assert.Equal(t, int64(409599), got[4].EndSector)

	for _, p := range got {
		assert.Equal(t, "/dev/sda", p.DevicePath)
		assert.Equal(t, int64(512), p.SectorSize)
	}

	// 未分配与扩展分区不查询用量.
	assert.Equal(t, []usageCall{
		{"/dev/sda1", fossick.EXT4},
		{"/dev/sda5", fossick.Swap},
	}, usage.calls)
}

func TestReadPartitionsInactiveSwap(t *testing.T) {
	dev, parts := mbrDisk()
	disk := parted.NewDiskWithPartitions(dev, table.DTypeMBR, parts)

	got := ReadPartitions(disk, &fakeUsage{})
	swap := got[3]
	require.Equal(t, FsLinuxSwap, swap.Fs)
	want := int64(309247-208896+1) * 512
	assert.Equal(t, want, swap.Length)
	assert.Equal(t, want, swap.Freespace)
	assert.Equal(t, swap.ByteLength(), swap.Length)
}

func TestReadPartitionsActiveSwap(t *testing.T) {
	dev, parts := mbrDisk()
	disk := parted.NewDiskWithPartitions(dev, table.DTypeMBR, parts)
	usage := &fakeUsage{values: map[string][2]int64{"/dev/sda5": {4096, 8192}}}

	got := ReadPartitions(disk, usage)
	assert.Equal(t, int64(4096), got[3].Freespace)
	assert.Equal(t, int64(8192), got[3].Length)
}

func TestReadPartitionsGPTEFI(t *testing.T) {
	dev := &parted.Device{Path: "/dev/nvme0n1", Length: 409600, SectorSize: 512}
	disk := parted.NewDiskWithPartitions(dev, table.DTypeGPT, []parted.Partition{
		{Num: 1, Type: parted.PartitionNormal, Start: 2048, End: 206847, FsType: "fat32", Flags: []table.Flag{table.FlagBoot, table.FlagESP}},
		{Num: 2, Type: parted.PartitionNormal, Start: 206848, End: 409566, FsType: "xfs"},
		{Num: 3, Type: parted.PartitionNormal, Start: 100, End: 2000, FsType: "fat32"},
	})
	usage := &fakeUsage{}

	got := ReadPartitions(disk, usage)
	// 分区3与分区1之间的空隙为未分配区域.
	require.Len(t, got, 4)
	assert.Equal(t, PartitionUnallocated, got[1].Type)
	assert.Equal(t, int64(2001), got[1].StartSector)
	byNum := map[int]*Partition{}
	for _, p := range got {
		byNum[p.PartitionNumber] = p
	}
	assert.Equal(t, "/dev/nvme0n1p1", byNum[1].Path)
	assert.Equal(t, FsEFI, byNum[1].Fs)
	assert.Equal(t, FsXfs, byNum[2].Fs)
	// 没有 esp 标志的 fat 分区保持原类型.
	assert.Equal(t, FsFat32, byNum[3].Fs)
	// 用量查询失败时保持0.
	assert.Zero(t, byNum[2].Length)
	assert.Contains(t, usage.calls, usageCall{"/dev/nvme0n1p1", fossick.FAT32})
}

func TestReadPartitionsFreshDisk(t *testing.T) {
	dev := &parted.Device{Path: "/dev/sdb", Length: 409600, SectorSize: 512}
	disk := parted.NewDiskWithPartitions(dev, table.DTypeGPT, nil)
	usage := &fakeUsage{}

	got := ReadPartitions(disk, usage)
	require.Len(t, got, 1)
	assert.Equal(t, PartitionUnallocated, got[0].Type)
	assert.Equal(t, int64(2048), got[0].StartSector)
	assert.Equal(t, int64(409566), got[0].EndSector)
	assert.Empty(t, usage.calls)
}
