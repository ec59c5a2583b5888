package storage

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/thomasphansen/deepin-installer-reborn/util/basic"
	"github.com/thomasphansen/deepin-installer-reborn/util/command"
	"github.com/thomasphansen/deepin-installer-reborn/util/logger"
)

// Builder 元数据索引构建器, 各来源可替换.
type Builder struct {
	Labels     func() (map[string]string, error)
	PartLabels func() (map[string]string, error)
	OsTypes    func() (map[string]OsType, error)
	Mounts     func() ([]MountItem, error)
}

// NewBuilder 返回读取真实系统状态的构建器.
// osProber 为空时不探测操作系统, 所有分区的 OsType 均为 OsEmpty.
func NewBuilder(runner command.Runner, osProber string) *Builder {
	b := &Builder{
		Labels: func() (map[string]string, error) {
			labels, err := ParseLabelDir()
			if err != nil {
				logger.Debugf("label dir unavailable, fallback to lsblk: %v", err)
				labels, _, err = LsblkLabels(runner)
			}
			return labels, err
		},
		PartLabels: func() (map[string]string, error) {
			partLabels, err := ParsePartLabelDir()
			if err != nil {
				logger.Debugf("partlabel dir unavailable, fallback to lsblk: %v", err)
				_, partLabels, err = LsblkLabels(runner)
			}
			return partLabels, err
		},
		Mounts: ParseMountItems,
	}
	if osProber != "" {
		b.OsTypes = func() (map[string]OsType, error) {
			return GetOsTypeItems(runner, osProber)
		}
	}
	return b
}

// Build 并发读取四个来源并生成索引.
// 单个来源失败仅记录告警, 对应字段保持为空集合.
func (b *Builder) Build(ctx context.Context) *Index {
	idx := NewIndex()
	tasks := make([]func(), 0, 4)
	if b.Labels != nil {
		tasks = append(tasks, func() {
			if m, err := b.Labels(); err != nil {
				logger.Warnf("Build failed to read labels: %v", err)
			} else if m != nil {
				idx.Labels = m
			}
		})
	}
	if b.PartLabels != nil {
		tasks = append(tasks, func() {
			if m, err := b.PartLabels(); err != nil {
				logger.Warnf("Build failed to read partition labels: %v", err)
			} else if m != nil {
				idx.PartLabels = m
			}
		})
	}
	if b.OsTypes != nil {
		tasks = append(tasks, func() {
			if m, err := b.OsTypes(); err != nil {
				logger.Warnf("Build failed to detect os types: %v", err)
			} else if m != nil {
				idx.OsTypes = m
			}
		})
	}
	if b.Mounts != nil {
		tasks = append(tasks, func() {
			if m, err := b.Mounts(); err != nil {
				logger.Warnf("Build failed to read mount items: %v", err)
			} else if m != nil {
				idx.Mounts = m
			}
		})
	}
	if len(tasks) == 0 {
		return idx
	}

	wg := new(sync.WaitGroup)
	pool, err := ants.NewPoolWithFunc(len(tasks), func(i interface{}) {
		defer wg.Done()
		i.(func())()
	})
	if err != nil {
		logger.Warnf("Build can not init pool, run sequentially: %v", err)
		for _, task := range tasks {
			task()
		}
		return idx
	}
	defer pool.Release()

	for _, task := range tasks {
		if basic.Cancelled(ctx) {
			logger.Warnf("Build cancelled: %v", ctx.Err())
			break
		}
		wg.Add(1)
		if err = pool.Invoke(task); err != nil {
			wg.Done()
			logger.Warnf("Build invoke err=%v", err)
			task()
		}
	}
	wg.Wait()
	return idx
}
