package util

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2025-01-28T10:10:10Z"
	got, ok := ParseTime(s, nil)
	require.True(t, ok)
	assert.Equal(t, s, got.UTC().Format(time.RFC3339))
}

func TestParseTimeDateUsesLocation(t *testing.T) {
	ist := time.FixedZone("IST", 19800)
	got, ok := ParseTime("2025-01-28", ist)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 28, 0, 0, 0, 0, ist).Unix(), got.Unix())
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2025, 1, 28, 4, 30, 0, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10), nil)
	require.True(t, ok)
	assert.Equal(t, ts, got.Unix())
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, ParseTimeDefault("", nil, def).Equal(def))
	assert.True(t, ParseTimeDefault("yesterday", nil, def).Equal(def))
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 7, ParseIntDefault("7", 1))
	assert.Equal(t, 1, ParseIntDefault("x", 1))
	assert.Equal(t, 1, ParseIntDefault("", 1))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.19, Round2(1.190828))
	assert.Equal(t, -2.35, Round2(-2.345000001))
	assert.Equal(t, 5.0, Clamp(-3, 5, 95))
	assert.Equal(t, 95.0, Clamp(120, 5, 95))
}
