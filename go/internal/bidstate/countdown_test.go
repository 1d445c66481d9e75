package bidstate

import (
	"testing"
	"time"
)

func TestDeriveCountdown(t *testing.T) {
	t.Parallel()

	end := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want Countdown
	}{
		{
			name: "61 seconds remaining",
			now:  end.Add(-61 * time.Second),
			want: Countdown{Days: 0, Hours: 0, Minutes: 1, Seconds: 1},
		},
		{
			name: "past deadline is all zeros",
			now:  end.Add(5 * time.Second),
			want: Countdown{},
		},
		{
			name: "exactly at deadline",
			now:  end,
			want: Countdown{},
		},
		{
			name: "days hours minutes seconds",
			now:  end.Add(-(26*time.Hour + 3*time.Minute + 4*time.Second)),
			want: Countdown{Days: 1, Hours: 2, Minutes: 3, Seconds: 4},
		},
		{
			name: "sub-second remainder truncates",
			now:  end.Add(-1500 * time.Millisecond),
			want: Countdown{Seconds: 1},
		},
		{
			name: "naive local now against UTC end",
			now:  end.Add(-30 * time.Second).In(time.FixedZone("CET", 3600)),
			want: Countdown{Seconds: 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveCountdown(tt.now, end); got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestDeriveCountdown_MonotonicallyDecreasing(t *testing.T) {
	t.Parallel()

	end := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := end.Add(-3 * 24 * time.Hour)

	prev := int64(1<<62 - 1)
	for ; now.Before(end.Add(time.Minute)); now = now.Add(17 * time.Minute) {
		c := DeriveCountdown(now, end)
		if c.Days < 0 || c.Hours < 0 || c.Minutes < 0 || c.Seconds < 0 {
			t.Fatalf("negative field at now=%v: %+v", now, c)
		}
		total := totalMillis(c)
		if total > prev {
			t.Fatalf("countdown increased at now=%v: %d > %d", now, total, prev)
		}
		prev = total
	}
}

func totalMillis(c Countdown) int64 {
	return int64(c.Days)*msPerDay +
		int64(c.Hours)*msPerHour +
		int64(c.Minutes)*msPerMinute +
		int64(c.Seconds)*msPerSecond
}
