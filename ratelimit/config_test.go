package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate_NoWindows(t *testing.T) {
	cfg := Config{BurstLimit: 10, CooldownPeriod: time.Second}
	assert.ErrorIs(t, cfg.Validate(), ErrNoWindows)
}

func TestConfig_Validate_OneWindowIsEnough(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"second", Config{RequestsPerSecond: 1}},
		{"minute", Config{RequestsPerMinute: 10}},
		{"hour", Config{RequestsPerHour: 100}},
		{"day", Config{RequestsPerDay: 1000}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NoError(t, tc.cfg.Validate())
		})
	}
}

func TestConfig_Validate_NegativeCap(t *testing.T) {
	cfg := Config{RequestsPerMinute: 10, RequestsPerHour: -1}
	assert.Error(t, cfg.Validate())
}

func TestConfig_Windows_Order(t *testing.T) {
	cfg := Config{
		RequestsPerSecond: 1,
		RequestsPerMinute: 2,
		RequestsPerHour:   3,
		RequestsPerDay:    4,
	}
	ws := cfg.windows()
	require.Len(t, ws, 4)
	assert.Equal(t, "second", ws[0].name)
	assert.Equal(t, "day", ws[3].name)
	assert.Equal(t, 24*time.Hour, ws[3].span)
}

func TestNew_InvalidConfigFailsFast(t *testing.T) {
	_, err := New(Config{}, "edgar")
	assert.ErrorIs(t, err, ErrNoWindows)
}
