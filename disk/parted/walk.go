package parted

import (
	"sort"

	"github.com/thomasphansen/deepin-installer-reborn/disk/table"
)

// alignBytes 分区起始对齐粒度, 分区表头部至此之前的区域视为元数据.
const alignBytes = 1 << 20

// Partitions 按起始扇区顺序遍历分区表, 返回值与 libparted 的 ped_disk_next_partition 一致:
//   - 分区表头部与 GPT 尾部备份表为 Metadata;
//   - 主分区之间的空隙为 Freespace;
//   - 扩展分区之后紧跟其中的逻辑分区, 每个EBR为 Metadata|Logical, 空隙为 Freespace|Logical.
func (d *Disk) Partitions() []Partition {
	var primaries, logicals []Partition
	for _, p := range d.parts {
		if p.Type&PartitionLogical != 0 {
			logicals = append(logicals, p)
		} else {
			primaries = append(primaries, p)
		}
	}
	byStart := func(ps []Partition) {
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].Start < ps[j].Start })
	}
	byStart(primaries)
	byStart(logicals)

	out := make([]Partition, 0, 2*len(d.parts)+3)
	head := d.headSectors(primaries)
	if head > 0 {
		out = append(out, region(PartitionMetadata, 0, head-1))
	}
	cursor := head
	for _, p := range primaries {
		if p.Start > cursor && cursor <= d.lastUsable {
			out = append(out, region(PartitionFreespace, cursor, min64(p.Start-1, d.lastUsable)))
		}
		out = append(out, p)
		if p.Type&PartitionExtended != 0 {
			out = append(out, walkExtended(p, logicals)...)
		}
		if p.End+1 > cursor {
			cursor = p.End + 1
		}
	}
	if cursor <= d.lastUsable {
		out = append(out, region(PartitionFreespace, cursor, d.lastUsable))
		cursor = d.lastUsable + 1
	}
	if tail := d.Device.Length - 1; d.Type == table.DTypeGPT && cursor <= tail {
		out = append(out, region(PartitionMetadata, cursor, tail))
	}
	return out
}

// headSectors 分区表头部元数据区域的长度.
func (d *Disk) headSectors(primaries []Partition) int64 {
	head := alignBytes / d.Device.SectorSize
	if len(primaries) > 0 && primaries[0].Start < head {
		head = primaries[0].Start
	}
	if head < d.firstUsable {
		head = d.firstUsable
	}
	if head > d.Device.Length {
		head = d.Device.Length
	}
	return head
}

func walkExtended(ext Partition, logicals []Partition) []Partition {
	out := make([]Partition, 0, 2*len(logicals)+1)
	cursor := ext.Start
	for _, l := range logicals {
		if l.Start < ext.Start || l.End > ext.End {
			continue
		}
		ebr := l.ebr
		if ebr <= 0 || ebr >= l.Start {
			ebr = l.Start - 1
		}
		if ebr > cursor {
			out = append(out, region(PartitionFreespace|PartitionLogical, cursor, ebr-1))
		}
		out = append(out, region(PartitionMetadata|PartitionLogical, ebr, l.Start-1))
		out = append(out, l)
		cursor = l.End + 1
	}
	if cursor <= ext.End {
		out = append(out, region(PartitionFreespace|PartitionLogical, cursor, ext.End))
	}
	return out
}

func region(t PartitionType, start, end int64) Partition {
	return Partition{Num: -1, Type: t, Start: start, End: end}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
