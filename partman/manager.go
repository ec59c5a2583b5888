package partman

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/thomasphansen/deepin-installer-reborn/util/command"
	"github.com/thomasphansen/deepin-installer-reborn/util/logger"
)

// DevicesResult RefreshDevices 的结果.
type DevicesResult struct {
	Devices []*Device
	Err     error
}

// Result AutoPart 与 ManualPart 的结果, 失败时 Err 为 *Error 或 ErrManagerStopped.
type Result struct {
	OK  bool
	Err error
}

type request struct {
	name  string
	run   func(ctx context.Context)
	abort func(err error)
}

// Manager 分区管理入口. 所有请求按提交顺序在同一个工作协程中逐个执行,
// 请求开始执行后不可取消.
type Manager struct {
	scanner  *Scanner
	executor *Executor
	runner   command.Runner
	shell    string

	mu      sync.Mutex
	queue   []request
	started bool
	stopped bool
	wake    chan struct{}
	quit    chan struct{}
	done    chan struct{}
}

// NewManager 创建管理器, shell 用于执行自动分区脚本, 为空时使用 bash.
func NewManager(scanner *Scanner, executor *Executor, runner command.Runner, shell string) *Manager {
	if shell == "" {
		shell = "bash"
	}
	return &Manager{
		scanner:  scanner,
		executor: executor,
		runner:   runner,
		shell:    shell,
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start 启动工作协程, 重复调用无效果.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started || m.stopped {
		return
	}
	m.started = true
	go m.loop()
}

// Stop 等待正在执行的请求完成后退出, 尚未开始的请求以 ErrManagerStopped 结束.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		<-m.done
		return
	}
	m.stopped = true
	started := m.started
	m.mu.Unlock()

	close(m.quit)
	if started {
		<-m.done
	} else {
		m.drain()
		close(m.done)
	}
}

func (m *Manager) loop() {
	defer close(m.done)
	ctx := context.Background()
	for {
		select {
		case <-m.quit:
			m.drain()
			return
		case <-m.wake:
		}
		for {
			r, ok := m.pop()
			if !ok {
				break
			}
			logger.Debugf("Manager run request %s", r.name)
			r.run(ctx)
		}
	}
}

func (m *Manager) pop() (request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped || len(m.queue) == 0 {
		return request{}, false
	}
	r := m.queue[0]
	m.queue = m.queue[1:]
	return r, true
}

func (m *Manager) drain() {
	m.mu.Lock()
	pending := m.queue
	m.queue = nil
	m.mu.Unlock()
	for _, r := range pending {
		r.abort(ErrManagerStopped)
	}
}

func (m *Manager) submit(r request) {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		r.abort(ErrManagerStopped)
		return
	}
	m.queue = append(m.queue, r)
	m.mu.Unlock()
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// RefreshDevices 重新扫描所有设备.
func (m *Manager) RefreshDevices() <-chan DevicesResult {
	ch := make(chan DevicesResult, 1)
	m.submit(request{
		name: "refresh-devices",
		run: func(ctx context.Context) {
			devices, err := m.scanner.ScanDevices(ctx)
			ch <- DevicesResult{Devices: devices, Err: err}
		},
		abort: func(err error) { ch <- DevicesResult{Err: err} },
	})
	return ch
}

// AutoPart 执行自动分区脚本, 脚本退出码为0时成功.
func (m *Manager) AutoPart(scriptPath string) <-chan Result {
	ch := make(chan Result, 1)
	m.submit(request{
		name: "auto-part",
		run: func(context.Context) {
			ch <- m.autoPart(scriptPath)
		},
		abort: func(err error) { ch <- Result{Err: err} },
	})
	return ch
}

func (m *Manager) autoPart(scriptPath string) Result {
	if _, err := os.Stat(scriptPath); err != nil {
		logger.Errorf("partition script file not found: %s", scriptPath)
		return Result{Err: newError(ScriptNotFound, -1, errors.Wrapf(err, "stat %s", scriptPath))}
	}
	logger.Infof("AutoPart run %s %s", m.shell, scriptPath)
	if err := m.runner.Run(m.shell, scriptPath).AsError(); err != nil {
		return Result{Err: newError(ScriptFailure, -1, err)}
	}
	return Result{OK: true}
}

// ManualPart 按顺序执行操作列表.
func (m *Manager) ManualPart(operations []Operation) <-chan Result {
	ch := make(chan Result, 1)
	ops := append([]Operation{}, operations...)
	m.submit(request{
		name: "manual-part",
		run: func(context.Context) {
			if err := m.executor.Apply(ops); err != nil {
				ch <- Result{Err: err}
				return
			}
			ch <- Result{OK: true}
		},
		abort: func(err error) { ch <- Result{Err: err} },
	})
	return ch
}
