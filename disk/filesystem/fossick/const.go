package fossick

// 文件系统名称与 parted 报告的名称保持一致.
const (
	Unknown  Filesystem = ""
	EXT2     Filesystem = "ext2"
	EXT3     Filesystem = "ext3"
	EXT4     Filesystem = "ext4"
	FAT16    Filesystem = "fat16"
	FAT32    Filesystem = "fat32"
	NTFS     Filesystem = "ntfs"
	XFS      Filesystem = "xfs"
	BTRFS    Filesystem = "btrfs"
	JFS      Filesystem = "jfs"
	Swap     Filesystem = "linux-swap(v1)"
	HFSPlus  Filesystem = "hfs+"
	ReiserFS Filesystem = "reiserfs"
	Nilfs2   Filesystem = "nilfs2"
	LVM2PV   Filesystem = "lvm2 pv"
	APFS     Filesystem = "apfs"
)

const (
	EXTMagic      = "\x53\xEF"
	NTFSMagic     = "NTFS    "
	XFSMagic      = "XFSB"
	BTRFSMagic    = "_BHRfS_M"
	JFSMagic      = "JFS1"
	APFSMagic     = "NXSB"
	SwapMagic     = "SWAPSPACE2"
	SwapMagicV0   = "SWAP-SPACE"
	LVM2Label     = "LABELONE"
	LVM2Type      = "LVM2 001"
	ReiserMagic   = "ReIsEr"
	HFSPlusMagic  = "H+"
	HFSXMagic     = "HX"
	Nilfs2Magic   = "\x34\x34"
	FAT16TypeName = "FAT1"
	FAT32TypeName = "FAT32"
)

// ext 特性标志, 见 https://www.kernel.org/doc/html/latest/filesystems/ext4/globals.html.
const (
	extCompatHasJournal      = 0x4
	extIncompatExtents       = 0x40
	extIncompat64Bit         = 0x80
	extIncompatFlexBG        = 0x200
	extRoCompatHugeFile      = 0x8
	extRoCompatGDTCsum       = 0x10
	extRoCompatDirNlink      = 0x20
	extRoCompatExtraIsize    = 0x40
	extIncompatExt4Mask      = extIncompatExtents | extIncompat64Bit | extIncompatFlexBG
	extRoCompatExt4Mask      = extRoCompatHugeFile | extRoCompatGDTCsum | extRoCompatDirNlink | extRoCompatExtraIsize
	superBlockProbeSize      = 0x10000 + 0x100
	swapMagicOffsetPageSize  = 4096
	reiserSuperBlockOffset   = 0x10000 + 52
	btrfsSuperBlockMagicOffs = 0x10040
	jfsSuperBlockOffset      = 0x8000
)
