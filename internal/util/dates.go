package util

import (
	"errors"
	"time"
)

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	TimeFormat,
	"2006-01-02 15:04",
	DateFormat,
}

// ParseDateTime 接受 ISO 8601 及常见变体，无时区时按本地时间解析
func ParseDateTime(s string) (time.Time, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("invalid date time: " + s)
}

// ValidDate 校验 YYYY-MM-DD
func ValidDate(s string) bool {
	_, err := time.Parse(DateFormat, s)
	return err == nil
}
