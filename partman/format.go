package partman

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/tidwall/sjson"
)

// DevicesJSON 将设备列表导出为JSON数组, 每个设备附加可读的容量字段 "size".
func DevicesJSON(devices []*Device) (json_ string, err error) {
	json_ = "[]"
	for i, d := range devices {
		json_, err = sjson.Set(json_, "-1", d)
		if err != nil {
			return "", errors.Errorf("failed to set device %s to json, %v", d.Path, err)
		}
		json_, err = sjson.Set(json_, fmt.Sprintf("%d.size", i), humanize.IBytes(uint64(d.Length*d.SectorSize)))
		if err != nil {
			return "", errors.Errorf("failed to set size of device %s to json, %v", d.Path, err)
		}
	}
	return json_, nil
}

// DevicesText 以类似 parted print free 的文本格式输出设备列表.
//
// 示例:
// ```
// Device: /dev/sda (ATA VBOX HARDDISK), 20 GiB, msdos, max primary 4
// Number  Type         Path        Fs          Start        End       Size  Label  Os     Busy
//
//	1  normal       /dev/sda1   ext4         2048   41943039     20 GiB  root   linux  true
//
// ```
func DevicesText(devices []*Device) string {
	var b strings.Builder
	for _, d := range devices {
		fmt.Fprintf(&b, "Device: %s (%s), %s, %s, max primary %d\n",
			d.Path, d.Model, humanize.IBytes(uint64(d.Length*d.SectorSize)), d.Table, d.MaxPrimaryPartitions)
		fmt.Fprintf(&b, "%6s  %-11s  %-14s  %-10s  %10s  %10s  %9s  %-8s  %-7s  %s\n",
			"Number", "Type", "Path", "Fs", "Start", "End", "Size", "Label", "Os", "Busy")
		for _, p := range d.Partitions {
			fmt.Fprintf(&b, "%6d  %-11s  %-14s  %-10s  %10d  %10d  %9s  %-8s  %-7s  %v\n",
				p.PartitionNumber, p.Type, p.Path, p.Fs, p.StartSector, p.EndSector,
				humanize.IBytes(uint64(p.ByteLength())), p.Label, p.Os, p.Busy)
		}
		b.WriteString("\n")
	}
	return b.String()
}
