package basic

import (
	"strconv"
	"strings"
)

func MustInt64(s string) int64 {
	i, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return i
}

// TrimAllSpace 移除字符串中的全部空白字符.
func TrimAllSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
