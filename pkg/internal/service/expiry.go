package service

import "time"

// 过期时长单位.
const (
	ExpiryStyleMinute  = "minute"
	ExpiryStyleHour    = "hour"
	ExpiryStyleDay     = "day"
	ExpiryStyleForever = "forever"
)

// ComputeExpiry 把 (数量, 单位) 换算成绝对过期时间.
// forever 返回 nil；未识别的单位宽松回退为一天（沿用既有对外行为，见 DESIGN.md）.
// 纯函数，now 由调用方传入以便测试.
func ComputeExpiry(now time.Time, value int, style string) *time.Time {
	if style == ExpiryStyleForever {
		return nil
	}

	if value < 1 {
		value = 1
	}

	var unit time.Duration

	switch style {
	case ExpiryStyleMinute:
		unit = time.Minute
	case ExpiryStyleHour:
		unit = time.Hour
	case ExpiryStyleDay:
		unit = 24 * time.Hour
	default:
		// 宽松回退：未识别单位按一天处理
		value = 1
		unit = 24 * time.Hour
	}

	t := now.Add(time.Duration(value) * unit)

	return &t
}
