package expiry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWillExpireAt(t *testing.T) {
	created := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	var p Policy

	tests := []struct {
		name string
		gap  time.Duration
		want time.Time
	}{
		{"due within 90 minutes stays open until due", 30 * time.Minute, created.Add(30 * time.Minute)},
		{"exactly 90 minutes stays open until due", 90 * time.Minute, created.Add(90 * time.Minute)},
		{"within a day closes after 90 minutes", 5 * time.Hour, created.Add(90 * time.Minute)},
		{"exactly a day closes after 90 minutes", 24 * time.Hour, created.Add(90 * time.Minute)},
		{"within three days closes after 16 hours", 48 * time.Hour, created.Add(16 * time.Hour)},
		{"exactly three days closes after 16 hours", 72 * time.Hour, created.Add(16 * time.Hour)},
		{"far future closes 48 hours ahead of due", 200 * time.Hour, created.Add(200*time.Hour - 48*time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			due := created.Add(tt.gap)
			assert.Equal(t, tt.want, p.WillExpireAt(due, created))
		})
	}
}
