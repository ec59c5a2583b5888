//go:build !linux

package ioctl

import (
	"os"

	"github.com/pkg/errors"
)

func QueryFileSize(fileName string) (uint64, error) {
	info, err := os.Stat(fileName)
	if err != nil {
		return 0, err
	}
	return uint64(info.Size()), nil
}

func QueryGeometry(_ string, size uint64) Geometry {
	return FallbackGeometry(size)
}

func BlockDevices() ([]BlockDevice, error) {
	return nil, errors.New("block device enumeration is only supported on linux")
}
