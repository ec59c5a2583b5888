package partman

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomasphansen/deepin-installer-reborn/disk/table"
	"github.com/thomasphansen/deepin-installer-reborn/util/command"
)

func writeScript(t *testing.T, name string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/bash\nexit 0\n"), 0o755))
	return path
}

func newTestManager(lib *fakeLib, runner command.Runner) *Manager {
	scanner := NewScanner(lib, nil, &fakeUsage{}, func() bool { return false }, false)
	return NewManager(scanner, NewExecutor(lib, &fakeFormatter{}), runner, "")
}

func TestManagerRefreshDevices(t *testing.T) {
	lib := newScanFixture()
	m := newTestManager(lib, &fakeRunner{})
	m.Start()
	defer m.Stop()

	res := <-m.RefreshDevices()
	require.NoError(t, res.Err)
	assert.Len(t, res.Devices, 3)

	// 每次刷新都得到新的快照.
	again := <-m.RefreshDevices()
	require.NoError(t, again.Err)
	require.Len(t, again.Devices, 3)
	assert.NotSame(t, res.Devices[0], again.Devices[0])
	assert.Equal(t, res.Devices[0].Path, again.Devices[0].Path)
}

func TestManagerAutoPart(t *testing.T) {
	runner := &fakeRunner{}
	m := newTestManager(newFakeLib(), runner)
	m.Start()
	defer m.Stop()

	script := writeScript(t, "auto.sh")
	res := <-m.AutoPart(script)
	assert.True(t, res.OK)
	assert.NoError(t, res.Err)
	assert.Equal(t, []string{"bash " + script}, runner.calls)

	res = <-m.AutoPart(filepath.Join(t.TempDir(), "missing.sh"))
	assert.False(t, res.OK)
	assert.Equal(t, ScriptNotFound, KindOf(res.Err))
	// 脚本不存在时不执行.
	assert.Len(t, runner.calls, 1)

	runner.exit = 2
	res = <-m.AutoPart(script)
	assert.False(t, res.OK)
	assert.Equal(t, ScriptFailure, KindOf(res.Err))
}

func TestManagerManualPart(t *testing.T) {
	lib := newFakeLib()
	m := newTestManager(lib, &fakeRunner{})
	m.Start()
	defer m.Stop()

	ops := []Operation{
		numberedCreate(1, FsExt4, MountPointRoot, 2048, 206847),
		numberedCreate(2, FsExt4, MountPointBoot, 206848, 309247),
	}
	res := <-m.ManualPart(ops)
	require.NoError(t, res.Err)
	assert.True(t, res.OK)
	assert.Equal(t, "set-flag /dev/sda 2 boot true", lib.calls[len(lib.calls)-1])

	res = <-m.ManualPart([]Operation{numberedCreate(3, FsXfs, "/data", 309248, 409599)})
	assert.False(t, res.OK)
	assert.Equal(t, BootPartitionNotFound, KindOf(res.Err))
}

func TestManagerRunsRequestsInOrder(t *testing.T) {
	runner := &fakeRunner{}
	m := newTestManager(newFakeLib(), runner)

	scripts := []string{writeScript(t, "a.sh"), writeScript(t, "b.sh"), writeScript(t, "c.sh")}
	var results []<-chan Result
	for _, s := range scripts {
		results = append(results, m.AutoPart(s))
	}
	m.Start()
	defer m.Stop()
	for _, ch := range results {
		assert.True(t, (<-ch).OK)
	}
	assert.Equal(t, []string{"bash " + scripts[0], "bash " + scripts[1], "bash " + scripts[2]}, runner.calls)
}

// serialRunner 检查同一时刻只有一个请求在执行.
type serialRunner struct {
	running int32
	overlap int32
	count   int32
}

func (r *serialRunner) Run(name string, args ...string) command.Result {
	if atomic.AddInt32(&r.running, 1) > 1 {
		atomic.StoreInt32(&r.overlap, 1)
	}
	time.Sleep(time.Millisecond)
	atomic.AddInt32(&r.count, 1)
	atomic.AddInt32(&r.running, -1)
	return command.Result{}
}

func TestManagerSerializesConcurrentCallers(t *testing.T) {
	runner := &serialRunner{}
	m := newTestManager(newFakeLib(), runner)
	m.Start()
	defer m.Stop()

	script := writeScript(t, "auto.sh")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, (<-m.AutoPart(script)).OK)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(8), atomic.LoadInt32(&runner.count))
	assert.Zero(t, atomic.LoadInt32(&runner.overlap))
}

func TestManagerStop(t *testing.T) {
	lib := newFakeLib()
	lib.addDevice("/dev/sda", table.DTypeRAW)
	runner := &fakeRunner{}
	m := newTestManager(lib, runner)

	pending := m.AutoPart(writeScript(t, "auto.sh"))
	refresh := m.RefreshDevices()
	m.Stop()

	res := <-pending
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, ErrManagerStopped)
	assert.ErrorIs(t, (<-refresh).Err, ErrManagerStopped)
	assert.Empty(t, runner.calls)
	assert.Zero(t, lib.opened)

	// 停止后提交的请求立即结束, 重复 Stop 与 Start 无效果.
	m.Start()
	m.Stop()
	assert.ErrorIs(t, (<-m.ManualPart(nil)).Err, ErrManagerStopped)
}

func TestManagerStopWaitsForRunning(t *testing.T) {
	runner := &serialRunner{}
	m := newTestManager(newFakeLib(), runner)
	m.Start()

	ch := m.AutoPart(writeScript(t, "auto.sh"))
	assert.True(t, (<-ch).OK)
	m.Stop()
	assert.Equal(t, int32(1), atomic.LoadInt32(&runner.count))

	select {
	case <-m.done:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit")
	}
}
