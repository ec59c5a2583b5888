package partman

// GetBootPartition 选出需要设置启动标志的分区, 优先级依次为:
// EFI 分区, 挂载到 /boot 的分区, 挂载到 / 的分区.
// 每条规则都遍历整个操作列表, 都不满足时返回 Path 为空的分区.
func GetBootPartition(operations []Operation) Partition {
	rules := []func(p *Partition) bool{
		func(p *Partition) bool { return p.Fs == FsEFI },
		func(p *Partition) bool { return p.MountPoint == MountPointBoot },
		func(p *Partition) bool { return p.MountPoint == MountPointRoot },
	}
	for _, match := range rules {
		for i := range operations {
			if match(&operations[i].NewPartition) {
				return operations[i].NewPartition
			}
		}
	}
	return Partition{}
}
