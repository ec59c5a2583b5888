package partman

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomasphansen/deepin-installer-reborn/disk/filesystem/fossick"
	"github.com/thomasphansen/deepin-installer-reborn/disk/table"
	"github.com/tidwall/gjson"
)

func TestGetFsTypeByName(t *testing.T) {
	tests := map[string]FsType{
		"ext4":           FsExt4,
		"EXT3":           FsExt3,
		"linux-swap(v1)": FsLinuxSwap,
		"linux-swap":     FsLinuxSwap,
		"vfat":           FsFat32,
		"fat16":          FsFat16,
		"hfs+":           FsHfsPlus,
		"lvm2 pv":        FsLVM2PV,
		" ntfs ":         FsNTFS,
		"efi":            FsEFI,
		"zfs":            FsUnknown,
		"":               FsUnknown,
	}
	for name, want := range tests {
		assert.Equal(t, want, GetFsTypeByName(name), name)
	}
}

func TestFsTypeNames(t *testing.T) {
	names := FsTypeNames()
	require.Len(t, names, int(FsEmpty)+1)
	assert.Equal(t, "unknown", names[0])
	assert.Equal(t, "empty", names[len(names)-1])
	for _, name := range names {
		assert.Equal(t, name, GetFsTypeByName(name).String())
	}
}

func TestFsTypeFilesystem(t *testing.T) {
	assert.Equal(t, fossick.FAT32, FsEFI.Filesystem())
	assert.Equal(t, fossick.Swap, FsLinuxSwap.Filesystem())
	assert.Equal(t, fossick.Unknown, FsEmpty.Filesystem())
	assert.Equal(t, fossick.Unknown, FsUnknown.Filesystem())
	assert.Equal(t, fossick.EXT4, FsExt4.Filesystem())
	assert.Equal(t, fossick.HFSPlus, FsHfsPlus.Filesystem())
}

func TestFsTypeJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Fs FsType `json:"fs"`
	}{FsLinuxSwap})
	require.NoError(t, err)
	assert.JSONEq(t, `{"fs":"linux-swap"}`, string(b))

	var fs FsType
	require.NoError(t, json.Unmarshal([]byte(`"vfat"`), &fs))
	assert.Equal(t, FsFat32, fs)
	assert.Error(t, json.Unmarshal([]byte(`7`), &fs))
}

func TestDecodeOperations(t *testing.T) {
	ops, err := DecodeOperations([]byte(`[
		{"type": "new_table", "table": "gpt", "new_partition": {"device_path": "/dev/sdb"}},
		{"type": "create", "new_partition": {"type": "normal", "fs": "efi", "device_path": "/dev/sdb",
			"partition_number": 1, "start_sector": 2048, "end_sector": 1050623, "mount_point": "/boot/efi"}},
		{"type": "delete", "partition_orig": {"device_path": "/dev/sda", "partition_number": 3}},
		{"type": "set_flag", "flag": "esp", "flag_state": true, "new_partition": {"device_path": "/dev/sdb", "partition_number": 1}}
	]`))
	require.NoError(t, err)
	require.Len(t, ops, 4)
	assert.Equal(t, TableGPT, ops[0].Table)
	assert.Equal(t, FsEFI, ops[1].NewPartition.Fs)
	assert.Equal(t, int64(1050623), ops[1].NewPartition.EndSector)
	assert.Equal(t, 3, ops[2].PartitionOrig.PartitionNumber)
	assert.Equal(t, table.FlagESP, ops[3].Flag)
	assert.True(t, ops[3].FlagState)

	_, err = DecodeOperations([]byte(`[{"type": "resize", "new_partition": {}}]`))
	assert.ErrorContains(t, err, "operation 0")
	_, err = DecodeOperations([]byte(`[{"type": "new_table", "table": "mac"}]`))
	assert.Error(t, err)
	_, err = DecodeOperations([]byte(`{`))
	assert.Error(t, err)
}

func TestPartitionHelpers(t *testing.T) {
	p := &Partition{StartSector: 2048, EndSector: 4095, SectorSize: 4096, Flags: []table.Flag{table.FlagBoot}}
	assert.Equal(t, int64(2048*4096), p.ByteLength())
	assert.True(t, p.HasFlag(table.FlagBoot))
	assert.False(t, p.HasFlag(table.FlagESP))
	assert.Equal(t, table.DTypeMBR, TableMsDos.DiskType())
	assert.Equal(t, table.DTypeRAW, TableNone.DiskType())
}

func TestErrorKind(t *testing.T) {
	base := errors.New("boom")
	err := newError(ApplyFailure, 2, base)
	assert.Equal(t, "apply_failure at operation 2: boom", err.Error())
	assert.Equal(t, base, errors.Cause(err))

	wrapped := errors.Wrap(err, "manual part")
	assert.Equal(t, ApplyFailure, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, ErrorKind(""), KindOf(base))
	assert.Equal(t, "boot_flag_failure: boom", newError(BootFlagFailure, -1, base).Error())
}

func TestDevicesJSON(t *testing.T) {
	dev := &Device{
		Path: "/dev/sda", Model: "ATA FAKE", Length: 409600, SectorSize: 512, Table: TableMsDos, MaxPrimaryPartitions: 4,
		Partitions: []*Partition{
			{Type: PartitionNormal, Fs: FsExt4, Path: "/dev/sda1", PartitionNumber: 1, StartSector: 2048, EndSector: 206847, SectorSize: 512, Os: OsType("linux"), Busy: true},
			{Type: PartitionUnallocated, Fs: FsUnknown, PartitionNumber: -1, StartSector: 206848, EndSector: 409599, SectorSize: 512},
		},
	}
	out, err := DevicesJSON([]*Device{dev, {Path: "/dev/sdb", Length: 2048, SectorSize: 512, Table: TableGPT}})
	require.NoError(t, err)
	require.True(t, gjson.Valid(out))

	assert.Equal(t, int64(2), gjson.Get(out, "#").Int())
	assert.Equal(t, "/dev/sda", gjson.Get(out, "0.path").String())
	assert.Equal(t, "200 MiB", gjson.Get(out, "0.size").String())
	assert.Equal(t, "ext4", gjson.Get(out, "0.partitions.0.fs").String())
	assert.True(t, gjson.Get(out, "0.partitions.0.busy").Bool())
	assert.Equal(t, "unallocated", gjson.Get(out, "0.partitions.1.type").String())
	assert.Equal(t, "gpt", gjson.Get(out, "1.table").String())
	assert.Equal(t, "1.0 MiB", gjson.Get(out, "1.size").String())

	text := DevicesText([]*Device{dev})
	assert.Contains(t, text, "Device: /dev/sda (ATA FAKE), 200 MiB, msdos, max primary 4")
	assert.Contains(t, text, "/dev/sda1")
	assert.Contains(t, text, "unallocated")
}
