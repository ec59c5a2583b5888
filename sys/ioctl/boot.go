package ioctl

// IsBootByUEFI 当前系统是否以UEFI方式启动.
func IsBootByUEFI() bool {
	return sysfsExists(SysFirmwareEFI)
}
