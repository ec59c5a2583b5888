package command

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/go-cmd/cmd"
	"github.com/pkg/errors"
	"github.com/thomasphansen/deepin-installer-reborn/util/logger"
)

// Result 一次外部命令执行的结果.
type Result struct {
	Cmdline string
	Exit    int
	Stdout  string
	Stderr  string
	Err     error // 命令未能启动或被中断时非空.
}

// Success 命令启动成功且退出码为0时返回true.
func (r Result) Success() bool {
	return r.Err == nil && r.Exit == 0
}

// AsError 将失败的执行结果转换为 error, 成功时返回nil.
func (r Result) AsError() error {
	if r.Err != nil {
		return errors.Wrapf(r.Err, "failed to run `%s`", r.Cmdline)
	}
	if r.Exit != 0 {
		return errors.Errorf("`%s` exited with %d: %s", r.Cmdline, r.Exit, strings.TrimSpace(r.Stderr))
	}
	return nil
}

// Runner 外部命令执行器.
type Runner interface {
	Run(name string, args ...string) Result
}

// NewRunner 返回执行器; dryRun 为true时仅记录命令而不执行.
func NewRunner(dryRun bool) Runner {
	if dryRun {
		return dryRunner{}
	}
	return execRunner{}
}

type execRunner struct{}

func (execRunner) Run(name string, args ...string) Result {
	c := cmd.NewCmd(name, args...)
	status := <-c.Start()
	r := Result{
		Cmdline: cmdline(name, args),
		Exit:    status.Exit,
		Err:     status.Error,
	}
	if len(status.Stdout) != 0 {
		r.Stdout = strings.Join(status.Stdout, "\n")
	}
	if len(status.Stderr) != 0 {
		r.Stderr = strings.Join(status.Stderr, "\n")
	}
	if !r.Success() {
		logger.Warnf("failed to execute `%s`. return-code: %d, error: %v, stderr: %s",
			r.Cmdline, r.Exit, r.Err, r.Stderr)
	}
	return r
}

type dryRunner struct{}

func (dryRunner) Run(name string, args ...string) Result {
	line := cmdline(name, args)
	logger.Infof("dry-run: %s", line)
	return Result{Cmdline: line}
}

func cmdline(name string, args []string) string {
	return strings.TrimSpace(name + " " + strings.Join(args, " "))
}

var commandNameWithGOOS = map[string]string{
	"windows": "cmd.exe",
	"linux":   "bash",
}

var commandArgsWithGOOS = map[string][]string{
	"windows": {"/C"},
	"linux":   {"-c"},
}

// ExecV1 通过系统shell执行格式化后的命令行.
func ExecV1(r Runner, format string, formatArgs ...any) Result {
	name, ok := commandNameWithGOOS[runtime.GOOS]
	if !ok {
		name = "bash"
	}
	args := append([]string{}, commandArgsWithGOOS[runtime.GOOS]...)
	args = append(args, fmt.Sprintf(format, formatArgs...))
	return r.Run(name, args...)
}
