package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomasphansen/deepin-installer-reborn/util/command"
)

type fakeRunner struct {
	stdout string
	exit   int
	calls  [][]string
}

func (f *fakeRunner) Run(name string, args ...string) command.Result {
	f.calls = append(f.calls, append([]string{name}, args...))
	return command.Result{Cmdline: name, Exit: f.exit, Stdout: f.stdout}
}

func TestParseLinkDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Symlink("../../sda1", filepath.Join(dir, `EFI\x20System`)))
	require.NoError(t, os.Symlink("/dev/nvme0n1p2", filepath.Join(dir, "root")))

	items, err := parseLinkDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "EFI System", items[filepath.Join(filepath.Dir(filepath.Dir(dir)), "sda1")])
	assert.Equal(t, "root", items["/dev/nvme0n1p2"])

	_, err = parseLinkDir(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestParseLsblk(t *testing.T) {
	out := `{
	  "blockdevices": [
	    {"name": "/dev/sda", "label": null, "partlabel": null, "children": [
	      {"name": "/dev/sda1", "label": "ESP", "partlabel": "EFI system partition"},
	      {"name": "/dev/sda2", "label": "rootfs", "partlabel": null}
	    ]},
	    {"name": "/dev/sdb", "label": "usb", "partlabel": null}
	  ]
	}`
	labels, partLabels, err := parseLsblk(out)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"/dev/sda1": "ESP", "/dev/sda2": "rootfs", "/dev/sdb": "usb"}, labels)
	assert.Equal(t, map[string]string{"/dev/sda1": "EFI system partition"}, partLabels)

	_, _, err = parseLsblk("{")
	assert.Error(t, err)
}

func TestParseOsProber(t *testing.T) {
	out := "/dev/sda1@/efi/Microsoft/Boot/bootmgfw.efi:Windows Boot Manager:Windows:efi\n" +
		"/dev/sdb2:Debian GNU/Linux 12 (bookworm):Debian:linux\n" +
		"/dev/sdc3:Mac OS X:MacOSX:macosx\n" +
		"/dev/sdd1:Windows 10:Windows:chain\n" +
		"/dev/sde1:Some OS:Other:chain\n" +
		"garbage\n"
	items := parseOsProber(out)
	assert.Equal(t, map[string]OsType{
		"/dev/sda1": OsWindows,
		"/dev/sdb2": OsLinux,
		"/dev/sdc3": OsMac,
		"/dev/sdd1": OsWindows,
		"/dev/sde1": OsUnknown,
	}, items)
}

func TestGetOsTypeItemsFailure(t *testing.T) {
	r := &fakeRunner{exit: 1}
	_, err := GetOsTypeItems(r, "")
	assert.Error(t, err)
	assert.Equal(t, [][]string{{DefaultOsProber}}, r.calls)
}

func TestParseSwaps(t *testing.T) {
	content := "Filename\t\t\t\tType\t\tSize\t\tUsed\t\tPriority\n" +
		"/dev/sda3                               partition\t2097148\t\t1024\t\t-2\n" +
		"/swapfile                               file\t\t1048572\t\t0\t\t-3\n"
	ss := parseSwaps(content)
	require.Len(t, ss, 2)
	assert.Equal(t, "/dev/sda3", ss[0].Filename)
	assert.Equal(t, int64(2097148*1024), ss[0].Size)
	assert.Equal(t, int64(1024*1024), ss[0].Used)
	assert.Equal(t, -2, ss[0].Priority)
	assert.Equal(t, "Swap-/dev/sda3:(Used/Total:1.0MiB/2.0GiB)", ss[0].Brief)

	s, ok := ActiveSwap(ss, "/dev/sda3")
	assert.True(t, ok)
	assert.Equal(t, "partition", s.Type)
	_, ok = ActiveSwap(ss, "/swapfile")
	assert.False(t, ok)
}

func TestMountItems(t *testing.T) {
	parts := []disk.PartitionStat{
		{Device: "/dev/sda2", Mountpoint: "/"},
		{Device: "/dev/sda1", Mountpoint: "/boot/efi"},
		{Device: "proc", Mountpoint: "/proc"},
	}
	swaps := []Swap{{Filename: "/dev/sda3", Type: "partition"}, {Filename: "/swapfile", Type: "file"}}
	items := mountItems(parts, swaps)
	assert.Equal(t, []MountItem{
		{Path: "/dev/sda2", MountPoint: "/"},
		{Path: "/dev/sda1", MountPoint: "/boot/efi"},
		{Path: "/dev/sda3", MountPoint: "swap"},
	}, items)
}

func TestBuilderBuild(t *testing.T) {
	b := &Builder{
		Labels: func() (map[string]string, error) {
			return map[string]string{"/dev/sda1": "ESP"}, nil
		},
		PartLabels: func() (map[string]string, error) {
			return nil, errors.New("no partlabel")
		},
		OsTypes: func() (map[string]OsType, error) {
			return map[string]OsType{"/dev/sda2": OsLinux}, nil
		},
		Mounts: func() ([]MountItem, error) {
			return []MountItem{{Path: "/dev/sda2", MountPoint: "/"}}, nil
		},
	}
	idx := b.Build(context.Background())
	assert.Equal(t, "ESP", idx.Label("/dev/sda1"))
	assert.NotNil(t, idx.PartLabels)
	assert.Empty(t, idx.PartLabel("/dev/sda1"))
	assert.Equal(t, OsLinux, idx.OsType("/dev/sda2"))
	assert.Equal(t, OsEmpty, idx.OsType("/dev/sda1"))
	assert.True(t, idx.Busy("/dev/sda2"))
	assert.False(t, idx.Busy("/dev/sda1"))
	mp, ok := idx.MountPoint("/dev/sda2")
	assert.True(t, ok)
	assert.Equal(t, "/", mp)
}

func TestBuilderEmpty(t *testing.T) {
	idx := new(Builder).Build(context.Background())
	assert.Empty(t, idx.Labels)
	assert.Empty(t, idx.Mounts)
	assert.Equal(t, OsEmpty, idx.OsType("/dev/sda1"))
}
