package storage

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/thomasphansen/deepin-installer-reborn/sys/ioctl"
	"github.com/thomasphansen/deepin-installer-reborn/util/basic"
)

// SwapInfo 读取当前活动的交换设备.
func SwapInfo() ([]Swap, error) {
	return swapInfo(ioctl.ProcSwaps)
}

func swapInfo(procSwaps string) ([]Swap, error) {
	bs, err := os.ReadFile(procSwaps)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", procSwaps)
	}
	return parseSwaps(string(bs)), nil
}

func parseSwaps(content string) (ss []Swap) {
	for _, line := range strings.Split(content, "\n") {
		lineItems := strings.Fields(line)
		// 跳过表头 "Filename Type Size Used Priority".
		if len(lineItems) < 5 || !strings.HasPrefix(lineItems[0], "/") {
			continue
		}
		s := Swap{
			Filename: ioctl.ResolveDevicePath(lineItems[0]),
			Type:     lineItems[1],
			Size:     basic.MustInt64(lineItems[2]) * 1024,
			Used:     basic.MustInt64(lineItems[3]) * 1024,
			Priority: int(basic.MustInt64(lineItems[4])),
		}
		s.Brief = fmt.Sprintf("Swap-%s:(Used/Total:%s/%s)",
			s.Filename,
			basic.TrimAllSpace(humanize.IBytes(uint64(s.Used))),
			basic.TrimAllSpace(humanize.IBytes(uint64(s.Size))))
		ss = append(ss, s)
	}
	return ss
}

// ActiveSwap 返回 path 对应的活动交换设备.
func ActiveSwap(swaps []Swap, path string) (Swap, bool) {
	for _, s := range swaps {
		if s.Filename == path && s.Type == "partition" {
			return s, true
		}
	}
	return Swap{}, false
}
