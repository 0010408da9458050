package service_test

import (
	"testing"
	"time"

	"github.com/yeisme/filecodebox/pkg/internal/service"
)

func TestComputeExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value int
		style string
		want  time.Duration // 相对 now 的偏移；-1 表示期望 nil
	}{
		{"one minute", 1, "minute", time.Minute},
		{"five minutes", 5, "minute", 5 * time.Minute},
		{"two hours", 2, "hour", 2 * time.Hour},
		{"three days", 3, "day", 3 * 24 * time.Hour},
		{"forever", 1, "forever", -1},
		{"unknown unit falls back to one day", 7, "week", 24 * time.Hour},
		{"empty unit falls back to one day", 1, "", 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := service.ComputeExpiry(now, tt.value, tt.style)

			if tt.want == -1 {
				if got != nil {
					t.Fatalf("expected nil expiry, got %v", got)
				}

				return
			}

			if got == nil {
				t.Fatal("expected expiry, got nil")
			}

			if want := now.Add(tt.want); !got.Equal(want) {
				t.Fatalf("expected %v, got %v", want, got)
			}
		})
	}
}

func TestComputeExpiryZeroValueClamped(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	got := service.ComputeExpiry(now, 0, "minute")
	if got == nil || !got.Equal(now.Add(time.Minute)) {
		t.Fatalf("expected clamp to one minute, got %v", got)
	}
}
