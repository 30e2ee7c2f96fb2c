package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOrderDateFor(t *testing.T) {
	manila, err := time.LoadLocation("Asia/Manila")
	require.NoError(t, err)

	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, manila)
	}

	// 16:59 stays on the same day, 17:00 rolls over
	at := time.Date(2024, time.March, 4, 16, 59, 0, 0, manila)
	require.Equal(t, day(2024, time.March, 4), OrderDateFor(at, 17, manila))

	at = time.Date(2024, time.March, 4, 17, 0, 0, 0, manila)
	require.Equal(t, day(2024, time.March, 5), OrderDateFor(at, 17, manila))

	at = time.Date(2024, time.March, 4, 23, 30, 0, 0, manila)
	require.Equal(t, day(2024, time.March, 5), OrderDateFor(at, 17, manila))

	// morning order, same day
	at = time.Date(2024, time.March, 4, 8, 0, 0, 0, manila)
	require.Equal(t, day(2024, time.March, 4), OrderDateFor(at, 17, manila))

	// rollover across month end
	at = time.Date(2024, time.January, 31, 18, 0, 0, 0, manila)
	require.Equal(t, day(2024, time.February, 1), OrderDateFor(at, 17, manila))
}

func TestOrderDateForConvertsToStoreTime(t *testing.T) {
	manila, err := time.LoadLocation("Asia/Manila")
	require.NoError(t, err)

	// 09:30 UTC is 17:30 in Manila: past cutoff there even though the UTC
	// hour is not.
	at := time.Date(2024, time.March, 4, 9, 30, 0, 0, time.UTC)
	got := OrderDateFor(at, 17, manila)
	require.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, manila), got)
}
