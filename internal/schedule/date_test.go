package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateOfUsesSalonTimezone(t *testing.T) {
	manila, err := time.LoadLocation("Asia/Manila")
	require.NoError(t, err)

	// 23:30 UTC on March 2 is already March 3 in Manila (UTC+8).
	instant := time.Date(2025, time.March, 2, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, "2025-03-03", DateOf(instant, manila).String())
	assert.Equal(t, "2025-03-02", DateOf(instant, time.UTC).String())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-03")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2025, Month: time.March, Day: 3}, d)
	assert.Equal(t, Monday, d.Weekday())

	for _, bad := range []string{"", "03-03-2025", "2025/03/03", "2025-13-01", "2025-02-30"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestDateArithmetic(t *testing.T) {
	d, err := ParseDate("2025-02-27")
	require.NoError(t, err)

	// Month rollover, including a non-leap February.
	assert.Equal(t, "2025-03-02", d.AddDays(3).String())
	assert.Equal(t, 3, d.DaysUntil(Date{Year: 2025, Month: time.March, Day: 2}))

	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))
	assert.False(t, d.Before(d))
}

func TestDateJSONRoundTrip(t *testing.T) {
	d, err := ParseDate("2025-12-24")
	require.NoError(t, err)

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-12-24"`, string(raw))

	var back Date
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, d, back)

	assert.Error(t, json.Unmarshal([]byte(`"not-a-date"`), &back))
}

func TestTimeOfDayParsing(t *testing.T) {
	parsed, err := ParseTimeOfDay("09:00")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay("09:00:00"), parsed)

	parsed, err = ParseTimeOfDay("13:30:00")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay("13:30:00"), parsed)

	for _, bad := range []string{"", "9:00", "24:00", "09:60", "9am"} {
		_, err := ParseTimeOfDay(bad)
		assert.Error(t, err, "input %q", bad)
	}

	assert.True(t, TimeOfDay("09:00:00").Before("13:30:00"))
	assert.False(t, TimeOfDay("13:30:00").Before("09:00:00"))
}
