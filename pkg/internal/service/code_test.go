package service_test

import (
	"regexp"
	"testing"

	"github.com/yeisme/filecodebox/pkg/internal/service"
)

func TestGenerateCodeFormat(t *testing.T) {
	re := regexp.MustCompile(`^\d{6}$`)

	for range 200 {
		code, err := service.GenerateCode(6)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}

		if !re.MatchString(code) {
			t.Fatalf("code %q does not match ^\\d{6}$", code)
		}
	}
}

func TestGenerateCodeLengths(t *testing.T) {
	for _, n := range []int{1, 4, 6, 10} {
		code, err := service.GenerateCode(n)
		if err != nil {
			t.Fatalf("generate length %d: %v", n, err)
		}

		if len(code) != n {
			t.Fatalf("expected length %d, got %q", n, code)
		}
	}
}

func TestGenerateCodeInvalidLength(t *testing.T) {
	if _, err := service.GenerateCode(0); err == nil {
		t.Fatal("expected error for zero length")
	}

	if _, err := service.GenerateCode(-1); err == nil {
		t.Fatal("expected error for negative length")
	}
}

func TestGenerateCodeDistribution(t *testing.T) {
	// 粗检：1000 个 6 位码中每个数字都应出现过
	seen := map[byte]bool{}

	for range 1000 {
		code, err := service.GenerateCode(6)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}

		for i := 0; i < len(code); i++ {
			seen[code[i]] = true
		}
	}

	for d := byte('0'); d <= '9'; d++ {
		if !seen[d] {
			t.Fatalf("digit %c never generated in 6000 samples", d)
		}
	}
}
