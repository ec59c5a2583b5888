package storage

import (
	"strings"

	"github.com/thomasphansen/deepin-installer-reborn/util/command"
)

const DefaultOsProber = "os-prober"

// GetOsTypeItems 运行 os-prober 识别各分区上已安装的操作系统.
func GetOsTypeItems(runner command.Runner, prober string) (map[string]OsType, error) {
	if prober == "" {
		prober = DefaultOsProber
	}
	res := runner.Run(prober)
	if err := res.AsError(); err != nil {
		return nil, err
	}
	return parseOsProber(res.Stdout), nil
}

// parseOsProber 解析 os-prober 的输出.
//
// 示例:
// ```
// /dev/sda1@/efi/Microsoft/Boot/bootmgfw.efi:Windows Boot Manager:Windows:efi
// /dev/sdb2:Debian GNU/Linux 12 (bookworm):Debian:linux
// /dev/sdc3:Mac OS X:MacOSX:macosx
// ```
func parseOsProber(out string) map[string]OsType {
	items := map[string]OsType{}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(strings.TrimSpace(line), ":")
		if len(fields) < 4 {
			continue
		}
		path, _, _ := strings.Cut(fields[0], "@")
		if path == "" {
			continue
		}
		items[path] = osTypeOf(fields[1], fields[2], fields[3])
	}
	return items
}

func osTypeOf(longName, label, kind string) OsType {
	switch strings.ToLower(kind) {
	case "linux":
		return OsLinux
	case "macosx":
		return OsMac
	}
	if strings.Contains(strings.ToLower(longName), "windows") ||
		strings.Contains(strings.ToLower(label), "windows") {
		return OsWindows
	}
	return OsUnknown
}
