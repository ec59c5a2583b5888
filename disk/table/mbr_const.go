package table

const (
	MBRSignature510               = 0x55
	MBRSignature511               = 0xAA
	MBRLogicalPartitionEntryIndex = 0
	MBREBRPartitionEntryIndex     = 1
	MBRPartitionEntryCount        = 4
	MBRSize                       = 512
	MBRPartitionBootable          = 0x80
	// MBRMaxLogicalPartitions EBR 链的最大遍历长度, 防止损坏的链表成环.
	MBRMaxLogicalPartitions = 128
)

// MBRPartitionType 表示MBR结构下的分区类型.
type MBRPartitionType = byte

const (
	Empty                                 MBRPartitionType = 0x00
	FAT12                                 MBRPartitionType = 0x01
	FAT16Range16MBTo32MB                  MBRPartitionType = 0x04
	ExtendCHS                             MBRPartitionType = 0x05
	FAT16Range32MBTo2GB                   MBRPartitionType = 0x06
	NTFS                                  MBRPartitionType = 0x07
	FAT32                                 MBRPartitionType = 0x0B
	FAT32X                                MBRPartitionType = 0x0C
	FAT16X                                MBRPartitionType = 0x0E
	ExtendLBA                             MBRPartitionType = 0x0F
	HiddenNTFS                            MBRPartitionType = 0x17
	HiddenFAT32                           MBRPartitionType = 0x1B
	WindowsRecoveryEnv                    MBRPartitionType = 0x27
	WindowsDynamicExtendedPartitionMarker MBRPartitionType = 0x42
	LinuxSwap                             MBRPartitionType = 0x82
	Linux                                 MBRPartitionType = 0x83
	LinuxExtend                           MBRPartitionType = 0x85
	LinuxLVM                              MBRPartitionType = 0x8E
	FreeBSD                               MBRPartitionType = 0xA5
	MacOSXHFS                             MBRPartitionType = 0xAF
	EFIGPTProtectiveMBR                   MBRPartitionType = 0xEE
	EFISystemPartition                    MBRPartitionType = 0xEF
	VmwareSwap                            MBRPartitionType = 0xFC
	LinuxRAID                             MBRPartitionType = 0xFD
)

// MBRPartitionTypeDesc MBR分区类型的描述字典.
var MBRPartitionTypeDesc = map[MBRPartitionType]string{
	Empty:                                 "Empty",
	FAT12:                                 "FAT12",
	FAT16Range16MBTo32MB:                  "FAT16 16-32MB",
	ExtendCHS:                             "Extended, CHS",
	FAT16Range32MBTo2GB:                   "FAT16 32MB-2GB",
	NTFS:                                  "NTFS",
	FAT32:                                 "FAT32",
	FAT32X:                                "FAT32X",
	FAT16X:                                "FAT16X",
	ExtendLBA:                             "Extended, LBA",
	HiddenNTFS:                            "Hidden NTFS",
	HiddenFAT32:                           "Hidden FAT32",
	WindowsRecoveryEnv:                    "Windows recovery environment",
	WindowsDynamicExtendedPartitionMarker: "Windows dynamic extended partition marker",
	LinuxSwap:                             "Linux Swap",
	Linux:                                 "Linux",
	LinuxExtend:                           "Linux Extended",
	LinuxLVM:                              "Linux LVM",
	FreeBSD:                               "FreeBSD",
	MacOSXHFS:                             "Mac OS X HFS",
	EFIGPTProtectiveMBR:                   "EFI GPT protective MBR",
	EFISystemPartition:                    "EFI system partition",
	VmwareSwap:                            "VMware Swap",
	LinuxRAID:                             "Linux RAID",
}

// MBRExtendPartTypes MBR扩展分区类型标记集合.
var MBRExtendPartTypes = []MBRPartitionType{ExtendCHS, ExtendLBA, LinuxExtend}
