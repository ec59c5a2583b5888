package partman

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/thomasphansen/deepin-installer-reborn/disk/table"
	"github.com/thomasphansen/deepin-installer-reborn/sys/info/storage"
)

const (
	MountPointRoot = "/"
	MountPointBoot = "/boot"
)

// PartitionType 分区在模型中的类型.
type PartitionType string

const (
	PartitionNormal      PartitionType = "normal"
	PartitionExtended    PartitionType = "extended"
	PartitionLogical     PartitionType = "logical"
	PartitionUnallocated PartitionType = "unallocated"
)

// TableType 分区表类型.
type TableType string

const (
	TableNone  TableType = "none"
	TableMsDos TableType = "msdos"
	TableGPT   TableType = "gpt"
)

// DiskType 对应的底层分区表类型.
func (t TableType) DiskType() table.DiskType {
	switch t {
	case TableMsDos:
		return table.DTypeMBR
	case TableGPT:
		return table.DTypeGPT
	}
	return table.DTypeRAW
}

type OsType = storage.OsType

// Device 一块可分区的设备, 每次扫描都重新生成.
type Device struct {
	Path                 string       `json:"path"`
	Model                string       `json:"model"`
	Length               int64        `json:"length"` // 扇区数.
	SectorSize           int64        `json:"sector_size"`
	Heads                int          `json:"heads"`
	Sectors              int          `json:"sectors"`
	Cylinders            int64        `json:"cylinders"`
	Table                TableType    `json:"table"`
	MaxPrimaryPartitions int          `json:"max_primary_partitions"`
	Partitions           []*Partition `json:"partitions"`
}

// Partition 分区表中的一项. Path 为空表示"无分区".
type Partition struct {
	Type            PartitionType `json:"type"`
	Fs              FsType        `json:"fs"`
	StartSector     int64         `json:"start_sector"`
	EndSector       int64         `json:"end_sector"`
	PartitionNumber int           `json:"partition_number"`
	Path            string        `json:"path"`
	DevicePath      string        `json:"device_path"`
	SectorSize      int64         `json:"sector_size"`
	Length          int64         `json:"length"`
	Freespace       int64         `json:"freespace"`
	Label           string        `json:"label"`
	PartLabel       string        `json:"part_label"`
	Os              OsType        `json:"os"`
	Busy            bool          `json:"busy"`
	MountPoint      string        `json:"mount_point"`
	Flags           []table.Flag  `json:"flags,omitempty"`
	TypeID          string        `json:"type_id,omitempty"`
}

// ByteLength 分区扇区范围对应的字节数.
func (p *Partition) ByteLength() int64 {
	return (p.EndSector - p.StartSector + 1) * p.SectorSize
}

// HasFlag 分区是否带有指定标志.
func (p *Partition) HasFlag(flag table.Flag) bool {
	for _, f := range p.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// OperationType 分区操作类型.
type OperationType string

const (
	OperationCreate     OperationType = "create"
	OperationDelete     OperationType = "delete"
	OperationFormat     OperationType = "format"
	OperationMountPoint OperationType = "mount_point"
	OperationNewTable   OperationType = "new_table"
	OperationResize     OperationType = "resize"
	OperationSetFlag    OperationType = "set_flag"
)

// Operation 一次待执行的分区表修改.
type Operation struct {
	Type          OperationType `json:"type"`
	NewPartition  Partition     `json:"new_partition"`
	PartitionOrig *Partition    `json:"partition_orig,omitempty"`
	// Flag 与 FlagState 仅用于 SetFlag.
	Flag      table.Flag `json:"flag,omitempty"`
	FlagState bool       `json:"flag_state,omitempty"`
	// Table 仅用于 NewTable.
	Table TableType `json:"table,omitempty"`
}

// Validate 检查操作所需字段是否齐全.
func (op *Operation) Validate() error {
	switch op.Type {
	case OperationDelete, OperationResize:
		if op.PartitionOrig == nil {
			return errors.Errorf("%s operation requires partition_orig", op.Type)
		}
	case OperationSetFlag:
		if op.Flag == "" {
			return errors.New("set_flag operation requires flag")
		}
	case OperationNewTable:
		if op.Table != TableMsDos && op.Table != TableGPT {
			return errors.Errorf("new_table operation requires msdos or gpt, got %q", op.Table)
		}
	case OperationCreate, OperationFormat, OperationMountPoint:
	default:
		return errors.Errorf("unknown operation type %q", op.Type)
	}
	return nil
}

// DecodeOperations 解析JSON格式的操作列表并逐一校验.
func DecodeOperations(b []byte) ([]Operation, error) {
	var ops []Operation
	if err := json.Unmarshal(b, &ops); err != nil {
		return nil, errors.Wrap(err, "decode operations")
	}
	for i := range ops {
		if err := ops[i].Validate(); err != nil {
			return nil, errors.Wrapf(err, "operation %d", i)
		}
	}
	return ops, nil
}
