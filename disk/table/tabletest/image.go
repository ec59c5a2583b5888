// Package tabletest 生成用于测试的 MBR/GPT 磁盘镜像文件.
package tabletest

import (
	"encoding/binary"
	"encoding/hex"
	"hash/crc32"
	"os"
	"strings"
	"unicode/utf16"

	"github.com/pkg/errors"
)

const SectorSize = 512

// MBRPart 一个MBR分区表项. EBR 仅对逻辑分区有效, 表示其EBR所在的绝对扇区.
type MBRPart struct {
	Type    byte
	Start   int64
	Sectors int64
	Boot    bool
	EBR     int64
}

// GPTPart 一个GPT分区表项.
type GPTPart struct {
	TypeGUID string
	Start    int64
	End      int64
	Name     string
	Attrs    uint64
}

func create(path string, sectors int64) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err = f.Truncate(sectors * SectorSize); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func putEntry(b []byte, slot int, typ byte, start, sectors int64, boot bool) {
	e := b[446+16*slot : 446+16*(slot+1)]
	if boot {
		e[0] = 0x80
	}
	e[4] = typ
	binary.LittleEndian.PutUint32(e[8:12], uint32(start))
	binary.LittleEndian.PutUint32(e[12:16], uint32(sectors))
}

func bootRecord() []byte {
	b := make([]byte, SectorSize)
	b[510], b[511] = 0x55, 0xAA
	return b
}

// MBRImage 写出含主分区与逻辑分区的msdos镜像. 逻辑分区需要主分区中存在扩展分区(0x05).
func MBRImage(path string, sectors int64, primaries []MBRPart, logicals []MBRPart) error {
	f, err := create(path, sectors)
	if err != nil {
		return err
	}
	defer f.Close()

	mbr := bootRecord()
	binary.LittleEndian.PutUint32(mbr[440:444], 0x0e772c)
	var extStart int64 = -1
	for i, p := range primaries {
		putEntry(mbr, i, p.Type, p.Start, p.Sectors, p.Boot)
		if p.Type == 0x05 || p.Type == 0x0F {
			extStart = p.Start
		}
	}
	if _, err = f.WriteAt(mbr, 0); err != nil {
		return err
	}
	if len(logicals) > 0 && extStart < 0 {
		return errors.New("logical partitions need an extended partition")
	}
	for i, l := range logicals {
		ebr := bootRecord()
		putEntry(ebr, 0, l.Type, l.Start-l.EBR, l.Sectors, l.Boot)
		if i+1 < len(logicals) {
			next := logicals[i+1]
			putEntry(ebr, 1, 0x05, next.EBR-extStart, next.Start+next.Sectors-next.EBR, false)
		}
		if _, err = f.WriteAt(ebr, l.EBR*SectorSize); err != nil {
			return err
		}
	}
	return nil
}

// GUIDBytes 将GUID字符串编码为 mixed endian 的16字节.
func GUIDBytes(guid string) []byte {
	raw, _ := hex.DecodeString(strings.ReplaceAll(guid, "-", ""))
	if len(raw) != 16 {
		return make([]byte, 16)
	}
	out := make([]byte, 16)
	out[0], out[1], out[2], out[3] = raw[3], raw[2], raw[1], raw[0]
	out[4], out[5] = raw[5], raw[4]
	out[6], out[7] = raw[7], raw[6]
	copy(out[8:], raw[8:])
	return out
}

// GPTImage 写出含保护性MBR、主GPT表头与128项分区表项数组的镜像.
func GPTImage(path string, sectors int64, parts []GPTPart) error {
	f, err := create(path, sectors)
	if err != nil {
		return err
	}
	defer f.Close()

	pmbr := bootRecord()
	putEntry(pmbr, 0, 0xEE, 1, sectors-1, false)
	if _, err = f.WriteAt(pmbr, 0); err != nil {
		return err
	}

	const entries, entrySize = 128, 128
	array := make([]byte, entries*entrySize)
	for i, p := range parts {
		e := array[i*entrySize : (i+1)*entrySize]
		copy(e[0:16], GUIDBytes(p.TypeGUID))
		copy(e[16:32], GUIDBytes("11111111-2222-3333-4444-55555555555"+string(rune('0'+i%10))))
		binary.LittleEndian.PutUint64(e[32:40], uint64(p.Start))
		binary.LittleEndian.PutUint64(e[40:48], uint64(p.End))
		binary.LittleEndian.PutUint64(e[48:56], p.Attrs)
		for j, c := range utf16.Encode([]rune(p.Name)) {
			if j >= 36 {
				break
			}
			binary.LittleEndian.PutUint16(e[56+2*j:58+2*j], c)
		}
	}

	hdr := make([]byte, SectorSize)
	copy(hdr[0:8], "EFI PART")
	binary.LittleEndian.PutUint32(hdr[8:12], 0x00010000)
	binary.LittleEndian.PutUint32(hdr[12:16], 92)
	binary.LittleEndian.PutUint64(hdr[24:32], 1)
	binary.LittleEndian.PutUint64(hdr[32:40], uint64(sectors-1))
	binary.LittleEndian.PutUint64(hdr[40:48], 34)
	binary.LittleEndian.PutUint64(hdr[48:56], uint64(sectors-34))
	copy(hdr[56:72], GUIDBytes("B2D588EC-966D-445B-BAB3-846CE330166B"))
	binary.LittleEndian.PutUint64(hdr[72:80], 2)
	binary.LittleEndian.PutUint32(hdr[80:84], entries)
	binary.LittleEndian.PutUint32(hdr[84:88], entrySize)
	binary.LittleEndian.PutUint32(hdr[88:92], crc32.ChecksumIEEE(array))
	binary.LittleEndian.PutUint32(hdr[16:20], crc32.ChecksumIEEE(hdr[:92]))

	if _, err = f.WriteAt(hdr, SectorSize); err != nil {
		return err
	}
	_, err = f.WriteAt(array, 2*SectorSize)
	return err
}
