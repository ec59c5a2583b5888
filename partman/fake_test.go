package partman

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/thomasphansen/deepin-installer-reborn/disk/filesystem/fossick"
	"github.com/thomasphansen/deepin-installer-reborn/disk/parted"
	"github.com/thomasphansen/deepin-installer-reborn/disk/table"
	"github.com/thomasphansen/deepin-installer-reborn/sys/info/storage"
	"github.com/thomasphansen/deepin-installer-reborn/util/command"
)

type closeCounter struct {
	n *int
}

func (c closeCounter) Close() error {
	*c.n++
	return nil
}

// fakeLib 内存中的底层分区库, 记录所有修改类调用.
type fakeLib struct {
	mu       sync.Mutex
	devices  []*parted.Device
	types    map[string]table.DiskType
	parts    map[string][]parted.Partition
	probeErr map[string]error
	// failOn 修改类调用的描述包含该子串时返回错误.
	failOn    string
	calls     []string
	opened    int
	destroyed int
}

func newFakeLib() *fakeLib {
	return &fakeLib{
		types:    map[string]table.DiskType{},
		parts:    map[string][]parted.Partition{},
		probeErr: map[string]error{},
	}
}

func (f *fakeLib) addDevice(path string, dt table.DiskType, parts ...parted.Partition) *parted.Device {
	dev := &parted.Device{Path: path, Model: "ATA FAKE", Length: 409600, SectorSize: 512, Heads: 255, Sectors: 63, Cylinders: 25}
	f.devices = append(f.devices, dev)
	f.types[path] = dt
	f.parts[path] = parts
	return dev
}

func (f *fakeLib) ProbeAll() ([]*parted.Device, error) {
	return f.devices, nil
}

func (f *fakeLib) ProbeDiskType(dev *parted.Device) (table.DiskType, error) {
	if err := f.probeErr[dev.Path]; err != nil {
		return table.DTypeRAW, err
	}
	return f.types[dev.Path], nil
}

func (f *fakeLib) OpenDisk(dev *parted.Device) (*parted.Disk, error) {
	d := parted.NewDiskWithPartitions(dev, f.types[dev.Path], f.parts[dev.Path])
	d.AttachCloser(closeCounter{&f.destroyed})
	f.opened++
	return d, nil
}

func (f *fakeLib) NewFreshDisk(dev *parted.Device, dt table.DiskType) (*parted.Disk, error) {
	d := parted.NewDiskWithPartitions(dev, dt, nil)
	d.AttachCloser(closeCounter{&f.destroyed})
	f.opened++
	return d, nil
}

func (f *fakeLib) record(format string, args ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := fmt.Sprintf(format, args...)
	f.calls = append(f.calls, call)
	if f.failOn != "" && strings.Contains(call, f.failOn) {
		return errors.Errorf("native failure: %s", call)
	}
	return nil
}

func (f *fakeLib) NewTable(device string, dt table.DiskType) error {
	return f.record("new-table %s %s", device, dt)
}

func (f *fakeLib) CreatePartition(device string, pt parted.PartitionType, fs string, start, end int64) error {
	return f.record("create %s %d %s %d-%d", device, pt, fs, start, end)
}

func (f *fakeLib) DeletePartition(device string, num int) error {
	return f.record("delete %s %d", device, num)
}

func (f *fakeLib) ResizePartition(device string, num int, start, end int64) error {
	return f.record("resize %s %d %d-%d", device, num, start, end)
}

func (f *fakeLib) SetFlag(device string, num int, flag table.Flag, state bool) error {
	return f.record("set-flag %s %d %s %v", device, num, flag, state)
}

type fakeFormatter struct {
	calls []string
	fail  bool
}

func (f *fakeFormatter) Format(device string, fs fossick.Filesystem, label string) error {
	f.calls = append(f.calls, fmt.Sprintf("%s %s %s", device, fs, label))
	if f.fail {
		return errors.New("mkfs failed")
	}
	return nil
}

type usageCall struct {
	path string
	fs   fossick.Filesystem
}

type fakeUsage struct {
	calls  []usageCall
	values map[string][2]int64
}

func (f *fakeUsage) Usage(path string, fs fossick.Filesystem) (int64, int64, error) {
	f.calls = append(f.calls, usageCall{path, fs})
	v, ok := f.values[path]
	if !ok {
		return 0, 0, errors.New("no usage")
	}
	return v[0], v[1], nil
}

type staticIndex struct {
	idx *storage.Index
}

func (s staticIndex) Build(context.Context) *storage.Index {
	return s.idx
}

type fakeRunner struct {
	mu    sync.Mutex
	calls []string
	exit  int
}

func (r *fakeRunner) Run(name string, args ...string) command.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	line := strings.Join(append([]string{name}, args...), " ")
	r.calls = append(r.calls, line)
	return command.Result{Cmdline: line, Exit: r.exit}
}
