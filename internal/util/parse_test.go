package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseElapsed(t *testing.T) {
	d, err := ParseElapsed("02:30:15")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour+30*time.Minute+15*time.Second, d)

	d, err = ParseElapsed("3-01:00:00")
	require.NoError(t, err)
	assert.Equal(t, 73*time.Hour, d)

	// batch steps carry fractional seconds
	d, err = ParseElapsed("00:00:01.123")
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)

	_, err = ParseElapsed("INVALID")
	assert.Error(t, err)

	_, err = ParseElapsed("")
	assert.Error(t, err)
}

func TestSecondTimeFormat(t *testing.T) {
	assert.Equal(t, "00:00:59", SecondTimeFormat(59))
	assert.Equal(t, "02:30:15", SecondTimeFormat(2*3600+30*60+15))
	assert.Equal(t, "3-01:00:00", SecondTimeFormat(73*3600))
}

func TestParseMemStringAsByte(t *testing.T) {
	n, err := ParseMemStringAsByte("4G")
	require.NoError(t, err)
	assert.Equal(t, uint64(4*1024*1024*1024), n)

	// ReqMem per-node suffix
	n, err = ParseMemStringAsByte("192Gn")
	require.NoError(t, err)
	assert.Equal(t, uint64(192*1024*1024*1024), n)

	// bare numbers are MB
	n, err = ParseMemStringAsByte("100")
	require.NoError(t, err)
	assert.Equal(t, uint64(100*1024*1024), n)

	_, err = ParseMemStringAsByte("lots")
	assert.Error(t, err)
}

func TestParseYearMonth(t *testing.T) {
	m, err := ParseYearMonth("2026-07")
	require.NoError(t, err)
	assert.Equal(t, 2026, m.Year())
	assert.Equal(t, time.July, m.Month())
	assert.Equal(t, 1, m.Day())

	_, err = ParseYearMonth("2026-07-01")
	assert.Error(t, err)
	_, err = ParseYearMonth("July 2026")
	assert.Error(t, err)
}

func TestMonthsBetween(t *testing.T) {
	start := time.Date(2025, 11, 15, 10, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)

	months := MonthsBetween(start, end)
	require.Len(t, months, 4)
	assert.Equal(t, time.November, months[0].Month())
	assert.Equal(t, time.February, months[3].Month())
	assert.Equal(t, 2026, months[3].Year())

	same := MonthsBetween(start, start)
	require.Len(t, same, 1)
	assert.Equal(t, 1, same[0].Day())
}

func TestPreviousMonth(t *testing.T) {
	now := time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)
	prev := PreviousMonth(now)
	assert.Equal(t, 2025, prev.Year())
	assert.Equal(t, time.December, prev.Month())
	assert.Equal(t, 1, prev.Day())
}

func TestParseStringParamList(t *testing.T) {
	list, err := ParseStringParamList("def, gpu ,bm", ",")
	require.NoError(t, err)
	assert.Equal(t, []string{"def", "gpu", "bm"}, list)

	_, err = ParseStringParamList("def,,bm", ",")
	assert.Error(t, err)
}
