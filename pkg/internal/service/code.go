package service

import (
	crand "crypto/rand"
	"fmt"
)

// GenerateCode 生成指定长度的随机数字取件码，每一位独立均匀抽取，允许前导零.
// 唯一性由调用方对照存储检查，生成器本身无状态.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("%w: code length must be positive", ErrValidation)
	}

	buf := make([]byte, length)
	out := make([]byte, length)

	filled := 0
	for filled < length {
		if _, err := crand.Read(buf[:length-filled]); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}

		for _, b := range buf[:length-filled] {
			// 拒绝采样去掉 250-255，保证各数字等概率
			if b >= 250 {
				continue
			}

			out[filled] = '0' + b%10
			filled++
		}
	}

	return string(out), nil
}
