package storage

// OsType os-prober 识别出的操作系统类别.
type OsType string

const (
	OsEmpty   OsType = ""
	OsLinux   OsType = "linux"
	OsWindows OsType = "windows"
	OsMac     OsType = "mac"
	OsUnknown OsType = "unknown"
)

// Swap /proc/swaps 中的一行.
type Swap struct {
	Filename string `json:"filename"`
	Type     string `json:"type"`
	Size     int64  `json:"size"`
	Used     int64  `json:"used"`
	Priority int    `json:"priority"`
	Brief    string `json:"brief"`
}

// MountItem 已挂载的设备及其挂载点, 活动交换分区的挂载点记为 "swap".
type MountItem struct {
	Path       string `json:"path"`
	MountPoint string `json:"mount_point"`
}

// Index 一次扫描所用的元数据索引, 均以分区设备路径为键.
// 任一来源读取失败时对应字段为空集合, 不会为nil.
type Index struct {
	Labels     map[string]string
	PartLabels map[string]string
	OsTypes    map[string]OsType
	Mounts     []MountItem
}

// NewIndex 返回空索引.
func NewIndex() *Index {
	return &Index{
		Labels:     map[string]string{},
		PartLabels: map[string]string{},
		OsTypes:    map[string]OsType{},
		Mounts:     []MountItem{},
	}
}

// Label 查询卷标.
func (idx *Index) Label(path string) string {
	return idx.Labels[path]
}

func (idx *Index) PartLabel(path string) string {
	return idx.PartLabels[path]
}

// OsType 查询分区上的操作系统, 未识别时返回 OsEmpty.
func (idx *Index) OsType(path string) OsType {
	if t, ok := idx.OsTypes[path]; ok {
		return t
	}
	return OsEmpty
}

// Busy 分区当前是否已被挂载(含活动的交换分区).
func (idx *Index) Busy(path string) bool {
	for _, m := range idx.Mounts {
		if m.Path == path {
			return true
		}
	}
	return false
}

// MountPoint 返回分区的首个挂载点.
func (idx *Index) MountPoint(path string) (string, bool) {
	for _, m := range idx.Mounts {
		if m.Path == path {
			return m.MountPoint, true
		}
	}
	return "", false
}
