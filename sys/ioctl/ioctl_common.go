package ioctl

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

// GeneratePartDeviceName 由磁盘路径与分区号生成分区设备路径.
// 磁盘路径以数字结尾时(nvme0n1, mmcblk0, loop0)需要插入"p"分隔符.
func GeneratePartDeviceName(diskPath string, partIndex int) string {
	if diskPath == "" || partIndex <= 0 {
		return ""
	}
	endWithDigit := unicode.IsDigit(rune(diskPath[len(diskPath)-1]))
	partSuffix := strconv.Itoa(partIndex)
	if endWithDigit {
		partSuffix = "p" + partSuffix
	}
	return diskPath + partSuffix
}

// FallbackGeometry 按 255 磁头/63 扇区的 BIOS 兼容方式计算几何信息.
func FallbackGeometry(bytes uint64) Geometry {
	g := Geometry{Heads: DefaultHeads, Sectors: DefaultSectorsPerTrack}
	g.Cylinders = int64(bytes / 512 / uint64(g.Heads*g.Sectors))
	return g
}

// UdevDecode 解码 udev 对设备链接名中特殊字符的 \xNN 转义.
func UdevDecode(s string) (string, error) {
	// 参考 https://github.com/systemd/systemd/blob/main/src/shared/device-nodes.c#L19
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+4 <= len(s) && s[i+1] == 'x' {
			v, err := hex.DecodeString(s[i+2 : i+4])
			if err != nil {
				return b.String(), err
			}
			b.Write(v)
			i += 3
		} else {
			b.WriteByte(s[i])
		}
	}
	return b.String(), nil
}

// ResolveDevicePath 解析 /dev/disk/by-* 与 /dev/mapper 下的链接, 返回真实设备路径.
// 非设备路径或解析失败时原样返回.
func ResolveDevicePath(p string) string {
	if !strings.HasPrefix(p, "/dev/") {
		return p
	}
	target, err := filepath.EvalSymlinks(p)
	if err != nil {
		return p
	}
	return target
}

func sysfsExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func readUint(path string) (uint64, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(content)), 10, 64)
}

func readString(path string) string {
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(content))
}
