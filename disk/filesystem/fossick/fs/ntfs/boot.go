package ntfs

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
	"github.com/thomasphansen/deepin-installer-reborn/util/command"
)

const OEMName = "NTFS    "

// BootHeader NTFS分区启动扇区中与卷几何相关的字段.
type BootHeader struct {
	JMP               []byte `struc:"[3]byte"`       // 0x00 | JMP 指令
	OEM               []byte `struc:"[8]byte"`       // 0x03 | OEM 标识
	BytesPerSector    uint16 `struc:"uint16,little"` // 0x0B | 每扇区字节数
	SectorsPerCluster uint8  `struc:"uint8"`         // 0x0D | 每簇扇区数
	Unused0x0E        []byte `struc:"[26]byte"`      // 0x0E | --
	TotalSectors      int64  `struc:"int64,little"`  // 0x28 | 总扇区数
	MFTClusterStartNo int64  `struc:"int64,little"`  // 0x30 | $MFT簇号
}

// ParseBootHeader 解析并校验启动扇区.
func ParseBootHeader(r io.ReaderAt) (*BootHeader, error) {
	boot := make([]byte, 512)
	if _, err := r.ReadAt(boot, 0); err != nil {
		return nil, errors.Wrap(err, "read ntfs boot sector")
	}
	bh := new(BootHeader)
	if err := struc.Unpack(bytes.NewReader(boot), bh); err != nil {
		return nil, errors.Wrap(err, "decode ntfs boot sector")
	}
	if string(bh.OEM) != OEMName {
		return nil, errors.New("invalid ntfs oem name")
	}
	if bh.BytesPerSector == 0 || bh.SectorsPerCluster == 0 {
		return nil, errors.New("invalid ntfs geometry")
	}
	return bh, nil
}

func (bh *BootHeader) ClusterSize() int64 {
	return int64(bh.BytesPerSector) * int64(bh.SectorsPerCluster)
}

// Size 卷的字节大小.
func (bh *BootHeader) Size() int64 {
	return bh.TotalSectors * int64(bh.BytesPerSector)
}

var freeClustersPattern = regexp.MustCompile(`Free Clusters:\s*(\d+)`)

// FreeBytes 通过 ntfsinfo 读取卷位图统计出的空闲字节数.
func FreeBytes(runner command.Runner, device string, clusterSize int64) (int64, error) {
	res := runner.Run("ntfsinfo", "-mf", device)
	if err := res.AsError(); err != nil {
		return 0, err
	}
	return parseFreeClusters(res.Stdout, clusterSize)
}

func parseFreeClusters(out string, clusterSize int64) (int64, error) {
	m := freeClustersPattern.FindStringSubmatch(out)
	if m == nil {
		return 0, errors.New("ntfsinfo output has no free clusters")
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, fmt.Sprintf("parse free clusters %q", m[1]))
	}
	return n * clusterSize, nil
}
