package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseStampValid(t *testing.T) {
	got, err := ParseStamp("20250531T160000Z")
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, time.May, 31, 16, 0, 0, 0, time.UTC), got)
	require.Equal(t, time.UTC, got.Location())
}

func TestParseStampMalformed(t *testing.T) {
	cases := []string{
		"",
		"20250531",
		"20250531T160000",    // missing Z
		"20250531 160000Z",   // space instead of T
		"2025-05-31T16:00Z",  // punctuated
		"20250531T160000Z ",  // trailing garbage
		"2025053aT160000Z",   // non-digit date
		"20250531T16000bZ",   // non-digit time
		"202505311T160000Z",  // too long
	}
	for _, in := range cases {
		_, err := ParseStamp(in)
		require.ErrorIs(t, err, ErrMalformedStamp, "input %q", in)
	}
}

func TestParseStampOutOfRangeFieldsNormalize(t *testing.T) {
	// Shape-valid but calendar-invalid fields are handed to time.Date,
	// which normalizes instead of rejecting.
	got, err := ParseStamp("20251301T000000Z")
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestFormatStampRoundTrip(t *testing.T) {
	in := time.Date(2025, time.June, 1, 0, 30, 45, 0, time.UTC)
	text := FormatStamp(in)
	require.Equal(t, "20250601T003045Z", text)
	back, err := ParseStamp(text)
	require.NoError(t, err)
	require.True(t, back.Equal(in))
}

func TestLocalDateKeyFollowsViewerZone(t *testing.T) {
	instant, err := ParseStamp("20250531T160000Z")
	require.NoError(t, err)

	// A UTC observer stays on the 31st; a UTC+8 observer has already
	// rolled into June 1st.
	require.Equal(t, "2025-05-31", LocalDateKey(instant, time.UTC))
	require.Equal(t, "2025-06-01", LocalDateKey(instant, time.FixedZone("UTC+8", 8*3600)))
}
