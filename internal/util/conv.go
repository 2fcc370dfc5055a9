package util

import (
	"strconv"
)

// ParseID 解析路径中的数字 ID，0 和非数字都视为无效
func ParseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
