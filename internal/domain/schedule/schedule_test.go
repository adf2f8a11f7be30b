package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/trendscout/internal/domain/model"
)

func TestEmailUTCHour_NewYorkAcrossDST(t *testing.T) {
	summer := time.Date(2025, time.July, 15, 3, 0, 0, 0, time.UTC)
	winter := time.Date(2025, time.January, 15, 3, 0, 0, 0, time.UTC)

	h, err := EmailUTCHour("America/New_York", 9, summer)
	require.NoError(t, err)
	assert.Equal(t, 13, h, "EDT is UTC-4")

	h, err = EmailUTCHour("America/New_York", 9, winter)
	require.NoError(t, err)
	assert.Equal(t, 14, h, "EST is UTC-5")
}

func TestEmailUTCHour_UsesLocalDate(t *testing.T) {
	// 02:00 UTC on Jan 2 is still Jan 1 in Los Angeles.
	now := time.Date(2025, time.January, 2, 2, 0, 0, 0, time.UTC)
	h, err := EmailUTCHour("America/Los_Angeles", 20, now)
	require.NoError(t, err)
	assert.Equal(t, 4, h)
}

func TestEmailUTCHour_PositiveOffsetWraps(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	h, err := EmailUTCHour("Asia/Tokyo", 7, now)
	require.NoError(t, err)
	assert.Equal(t, 22, h)
}

func TestEmailUTCHour_EmptyTimezoneIsUTC(t *testing.T) {
	h, err := EmailUTCHour("", 5, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 5, h)
}

func TestEmailUTCHour_Errors(t *testing.T) {
	_, err := EmailUTCHour("Mars/Olympus_Mons", 9, time.Now())
	require.ErrorIs(t, err, ErrInvalidTimezone)

	_, err = EmailUTCHour("UTC", 24, time.Now())
	require.ErrorIs(t, err, ErrInvalidHour)

	_, err = EmailUTCHour("UTC", -1, time.Now())
	require.ErrorIs(t, err, ErrInvalidHour)
}

func TestAnalysisHour(t *testing.T) {
	tests := map[int]int{13: 12, 0: 23, 1: 0, 23: 22}
	for email, want := range tests {
		assert.Equal(t, want, AnalysisHour(email), "email hour %d", email)
	}
}

func TestDecide_DualWindowNonOverlap(t *testing.T) {
	user := model.ScheduledUser{
		Preference: model.UserSchedulePreference{UserID: "u1", Timezone: "UTC", LocalHour: 13},
		State:      model.ScheduleState{PendingResultsReadyForEmail: true},
	}

	at12 := time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC)
	d, err := Decide(user, at12)
	require.NoError(t, err)
	assert.Equal(t, 13, d.EmailHour)
	assert.Equal(t, 12, d.AnalysisHour)
	assert.True(t, d.RunAnalysis)
	assert.False(t, d.SendEmail)

	at13 := at12.Add(time.Hour)
	d, err = Decide(user, at13)
	require.NoError(t, err)
	assert.False(t, d.RunAnalysis)
	assert.True(t, d.SendEmail)
}

func TestDecide_EmailHourWithoutPendingResults(t *testing.T) {
	user := model.ScheduledUser{
		Preference: model.UserSchedulePreference{Timezone: "UTC", LocalHour: 8},
	}
	d, err := Decide(user, time.Date(2025, time.May, 1, 8, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, d.None())
}
