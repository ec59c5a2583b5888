package table

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
	"strings"
	"unicode/utf16"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

// GPT GPT磁盘信息结构.
// 具体见：https://en.wikipedia.org/wiki/GUID_Partition_Table.
type GPT struct {
	SectorSize       int64
	Header           GPTHeader
	PartitionEntries []GPTPartitionEntry
}

// GPTHeader 位于GPT磁盘的LBA1数据(若为Backup GPT，则是LBA-1).
type GPTHeader struct {
	Signature                 []byte `struc:"[8]byte"`       // 0x00, 8, EFI签名 ("EFI PART").
	Revision                  uint32 `struc:"uint32,little"` // 0x08, 4, 版本号信息.
	HeaderSize                uint32 `struc:"uint32,little"` // 0x0C, 4, 表头数据字节大小.
	HeaderCRC32               uint32 `struc:"uint32,little"` // 0x10, 4, 表头数据0x00-HeaderSize之间数据的校验和.
	Reserved                  []byte `struc:"[4]byte"`       // 0x14, 4, 保留.
	CurrentLBA                int64  `struc:"int64,little"`  // 0x18, 8, 当前分区表头数据所处的LBA.
	BackupLBA                 int64  `struc:"int64,little"`  // 0x20, 8, 备份分区表头数据所处的LBA.
	FirstUsableLBA            int64  `struc:"int64,little"`  // 0x28, 8, 首个可用于分区的LBA.
	LastUsableLBA             int64  `struc:"int64,little"`  // 0x30, 8, 最后一个可用于分区的LBA.
	GUID                      []byte `struc:"[16]byte"`      // 0x38, 16, mixed endian, 磁盘GUID.
	StartingLBAForPartEntries int64  `struc:"int64,little"`  // 0x48, 8, 分区表项起始LBA（通常为2）.
	NumberOfPartEntriesArray  int    `struc:"int32,little"`  // 0x50, 4, 分区表项数组的成员个数.
	PartEntrySize             int    `struc:"int32,little"`  // 0x54, 4, 一个分区表项数据的字节长度.
	PartEntriesArrayCRC32     uint32 `struc:"uint32,little"` // 0x58, 4, 分区表项数组数据的校验和.
}

func (gh *GPTHeader) GUIDInMixedEndian() string {
	return GUIDToString(gh.GUID)
}

// GPTPartitionEntry GPT磁盘的一项分区表项数据.
type GPTPartitionEntry struct {
	Index         int      `struc:"skip"`              // 分区位置索引.
	PartTypeGUID  []byte   `struc:"[16]byte"`          // 0x00, 16, mixed endian, 分区类型GUID.
	UniqGUID      []byte   `struc:"[16]byte"`          // 0x10, 16, mixed endian, 唯一编码GUID.
	FirstLBAIndex int64    `struc:"int64,little"`      // 0x20, 8, 起始LBA(包含).
	LastLBAIndex  int64    `struc:"int64,little"`      // 0x28, 8, 结束LBA(包含).
	AttrFlags     uint64   `struc:"uint64,little"`     // 0x30, 8, 属性, 例如位2表示传统BIOS可引导.
	PartitionName []uint16 `struc:"[36]uint16,little"` // 0x38, 72, 分区名称, 36 个 UTF-16LE 代码单元.
}

const gptAttrLegacyBIOSBootable = 1 << 2

// ReadGPT 读取位于LBA1的主GPT表头及其分区表项数组.
func ReadGPT(r io.ReaderAt, sectorSize int64) (*GPT, error) {
	hdr := make([]byte, sectorSize)
	if _, err := r.ReadAt(hdr, sectorSize); err != nil {
		return nil, errors.Wrap(err, "read gpt header")
	}
	gpt := &GPT{SectorSize: sectorSize}
	if err := struc.Unpack(bytes.NewReader(hdr), &gpt.Header); err != nil {
		return nil, errors.Wrap(err, "decode gpt header")
	}
	h := &gpt.Header
	if string(h.Signature) != GPTSignature {
		return nil, errors.New("invalid gpt signature")
	}
	if h.HeaderSize < GPTHeaderSize || int64(h.HeaderSize) > sectorSize {
		return nil, errors.Errorf("invalid gpt header size %d", h.HeaderSize)
	}
	if headerCRC(hdr[:h.HeaderSize]) != h.HeaderCRC32 {
		return nil, errors.New("gpt header checksum mismatch")
	}
	if h.NumberOfPartEntriesArray <= 0 || h.NumberOfPartEntriesArray > GPTMaxPartEntryCount ||
		h.PartEntrySize < GPTMinEntrySize || h.PartEntrySize%8 != 0 {
		return nil, errors.Errorf("invalid gpt entry array (%d x %d)", h.NumberOfPartEntriesArray, h.PartEntrySize)
	}

	array := make([]byte, h.NumberOfPartEntriesArray*h.PartEntrySize)
	if _, err := r.ReadAt(array, h.StartingLBAForPartEntries*sectorSize); err != nil {
		return nil, errors.Wrap(err, "read gpt entry array")
	}
	if crc32.ChecksumIEEE(array) != h.PartEntriesArrayCRC32 {
		return nil, errors.New("gpt entry array checksum mismatch")
	}
	gpt.PartitionEntries = make([]GPTPartitionEntry, h.NumberOfPartEntriesArray)
	for i := range gpt.PartitionEntries {
		raw := array[i*h.PartEntrySize : i*h.PartEntrySize+GPTMinEntrySize]
		if err := struc.Unpack(bytes.NewReader(raw), &gpt.PartitionEntries[i]); err != nil {
			return nil, errors.Wrapf(err, "decode gpt entry %d", i+1)
		}
		gpt.PartitionEntries[i].Index = i + 1
	}
	return gpt, nil
}

// headerCRC 计算将CRC字段置零后的表头校验和.
func headerCRC(hdr []byte) uint32 {
	buf := append([]byte{}, hdr...)
	binary.LittleEndian.PutUint32(buf[0x10:0x14], 0)
	return crc32.ChecksumIEEE(buf)
}

// Entries 返回所有非空分区表项.
func (gpt *GPT) Entries() []Entry {
	entries := make([]Entry, 0)
	for _, p := range gpt.PartitionEntries {
		if p.IsEmpty() {
			continue
		}
		entries = append(entries, Entry{
			Index:     p.Index,
			Start:     p.FirstLBAIndex,
			End:       p.LastLBAIndex,
			TypeID:    p.PartTypeGUIDInMixedEndian(),
			TypeDesc:  p.PartTypeDesc(),
			Name:      p.DecodedPartitionName(),
			Flags:     p.Flags(),
			EBRSector: -1,
		})
	}
	return entries
}

func (gpe *GPTPartitionEntry) PartTypeGUIDInMixedEndian() string {
	return GUIDToString(gpe.PartTypeGUID)
}

func (gpe *GPTPartitionEntry) UniqGUIDInMixedEndian() string {
	return GUIDToString(gpe.UniqGUID)
}

func (gpe *GPTPartitionEntry) DecodedPartitionName() string {
	s := string(utf16.Decode(gpe.PartitionName))
	return strings.ReplaceAll(s, "\u0000", "")
}

// IsEmpty 若是空分区, 则返回True.
func (gpe *GPTPartitionEntry) IsEmpty() bool {
	return gpe.PartTypeGUIDInMixedEndian() == BlankEmptyPart
}

func (gpe *GPTPartitionEntry) PartTypeDesc() string {
	v, ok := GPTPartitionTypeDesc[gpe.PartTypeGUIDInMixedEndian()]
	if !ok {
		v = "UNKNOWN"
	}
	return v
}

// Flags 由类型GUID与属性位推导出 parted 风格的分区标志.
func (gpe *GPTPartitionEntry) Flags() []Flag {
	flags := make([]Flag, 0)
	switch guid := gpe.PartTypeGUIDInMixedEndian(); {
	case guid == GEFISystemPartition:
		flags = append(flags, FlagBoot, FlagESP)
	case guid == BIOSBootPartition:
		flags = append(flags, FlagBIOSGrub)
	case guid == LVMPartition:
		flags = append(flags, FlagLVM)
	case guid == RAIDPartition:
		flags = append(flags, FlagRAID)
	case guid == SwapPartition:
		flags = append(flags, FlagSwap)
	case guid == MicroMSR:
		flags = append(flags, FlagMSFTRes)
	}
	if gpe.AttrFlags&gptAttrLegacyBIOSBootable != 0 {
		flags = append(flags, FlagLegacyBoot)
	}
	return flags
}
