package lvm

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/thomasphansen/deepin-installer-reborn/util/command"
)

type PhysicalVolume struct {
	Path, VgName, PvFmt, UUID string
	Attr                      int
	AttrStr                   string
	Size, Free                int64
}

// PV attributes
const (
	PV_ATTR_MISSING = 1 << iota
	PV_ATTR_EXPORTED
	PV_ATTR_DUPLICATE
	PV_ATTR_ALLOCATABLE
	PV_ATTR_USED
)

// pvsColumns pvs 输出列, 顺序与 parsePvs 一致.
const pvsColumns = "pv_name,vg_name,pv_uuid,pv_fmt,pv_attr,pv_size,pv_free"

func parsePvAttrs(attrStr string) (int, error) {
	if len(attrStr) < 3 {
		return -1, errors.Errorf("invalid pv_attr: %s", attrStr)
	}
	attrVal := 0
	if attrStr[2] != '-' {
		attrVal += PV_ATTR_MISSING
	}
	if attrStr[1] != '-' {
		attrVal += PV_ATTR_EXPORTED
	}
	switch attrStr[0] {
	case 'd':
		attrVal += PV_ATTR_DUPLICATE
	case 'a':
		attrVal += PV_ATTR_ALLOCATABLE
	case 'u':
		attrVal += PV_ATTR_USED
	case '-':
	default:
		return -1, errors.Errorf("invalid pv_attr: %s", attrStr)
	}
	return attrVal, nil
}

// Pvs 列出物理卷, pvPaths 为空时列出全部.
func Pvs(runner command.Runner, pvPaths ...string) ([]*PhysicalVolume, error) {
	args := []string{"pvs", "-o", pvsColumns, "--noheadings", "--units", "b", "--nosuffix", "--separator", ","}
	res := runner.Run("lvm", append(args, pvPaths...)...)
	if err := res.AsError(); err != nil {
		return nil, errors.Wrapf(err, "list physical volumes %v", pvPaths)
	}
	return parsePvs(res.Stdout)
}

func parsePvs(output string) ([]*PhysicalVolume, error) {
	pvList := make([]*PhysicalVolume, 0)
	for _, pv := range strings.Split(output, "\n") {
		pv = strings.TrimSpace(pv)
		if !strings.HasPrefix(pv, "/") {
			continue
		}
		vals := strings.Split(pv, ",")
		if len(vals) < 7 {
			return nil, errors.Errorf("pvs: unexpected line %q", pv)
		}
		attrVal, err := parsePvAttrs(vals[4])
		if err != nil {
			return nil, errors.Wrap(err, "pvs")
		}
		size, err := strconv.ParseInt(vals[5], 10, 64)
		if err != nil {
			return nil, errors.Errorf("pvs: could not convert %s to int64", vals[5])
		}
		free, err := strconv.ParseInt(vals[6], 10, 64)
		if err != nil {
			return nil, errors.Errorf("pvs: could not convert %s to int64", vals[6])
		}
		pvList = append(pvList, &PhysicalVolume{
			Path:    vals[0],
			VgName:  vals[1],
			UUID:    vals[2],
			PvFmt:   vals[3],
			Attr:    attrVal,
			AttrStr: vals[4],
			Size:    size,
			Free:    free,
		})
	}
	return pvList, nil
}

func FindPv(runner command.Runner, path string) (*PhysicalVolume, error) {
	pvs, err := Pvs(runner, path)
	if err != nil {
		return nil, err
	}
	for _, pv := range pvs {
		if pv.Path == path {
			return pv, nil
		}
	}
	return nil, errors.Errorf("pv %s not found", path)
}

func (p *PhysicalVolume) IsMissing() bool {
	return p.Attr&PV_ATTR_MISSING > 0
}

func (p *PhysicalVolume) IsExported() bool {
	return p.Attr&PV_ATTR_EXPORTED > 0
}

func (p *PhysicalVolume) IsDuplicate() bool {
	return p.Attr&PV_ATTR_DUPLICATE > 0
}

func (p *PhysicalVolume) IsAllocatable() bool {
	return p.Attr&PV_ATTR_ALLOCATABLE > 0
}

func (p *PhysicalVolume) IsUsed() bool {
	return p.Attr&PV_ATTR_USED > 0
}
