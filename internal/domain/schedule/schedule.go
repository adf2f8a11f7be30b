// Package schedule contains the timezone arithmetic used by the hourly dispatcher.
// Everything here is pure: callers pass the current time in.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/target/trendscout/internal/domain/model"
)

// HoursPerDay is the modulus for hour arithmetic.
const HoursPerDay = 24

// ErrInvalidHour is returned when a local delivery hour is outside 0..23.
var ErrInvalidHour = errors.New("local hour must be between 0 and 23")

// ErrInvalidTimezone is returned when an IANA zone name cannot be loaded.
var ErrInvalidTimezone = errors.New("invalid timezone")

// EmailUTCHour converts a user's local delivery hour into the UTC hour for the day containing now.
// The local wall clock is rebuilt on every call so daylight-saving shifts are honoured.
func EmailUTCHour(timezone string, localHour int, now time.Time) (int, error) {
	if localHour < 0 || localHour >= HoursPerDay {
		return 0, fmt.Errorf("%w: %d", ErrInvalidHour, localHour)
	}
	tz := strings.TrimSpace(timezone)
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", ErrInvalidTimezone, tz, err)
	}

	y, m, d := now.In(loc).Date()
	local := time.Date(y, m, d, localHour, 0, 0, 0, loc)
	return local.UTC().Hour(), nil
}

// AnalysisHour returns the UTC hour one hour before the email hour, wrapping at midnight.
func AnalysisHour(emailUTCHour int) int {
	return (emailUTCHour - 1 + HoursPerDay) % HoursPerDay
}

// Decision describes what the dispatcher should do for one user at one tick.
type Decision struct {
	EmailHour    int
	AnalysisHour int
	RunAnalysis  bool
	SendEmail    bool
}

// None reports whether the tick requires no action for the user.
func (d Decision) None() bool {
	return !d.RunAnalysis && !d.SendEmail
}

// Decide evaluates one user against both windows for the tick at now.
// Both conditions are always checked; they cannot both hold because the windows are one hour apart.
func Decide(user model.ScheduledUser, now time.Time) (Decision, error) {
	emailHour, err := EmailUTCHour(user.Preference.Timezone, user.Preference.LocalHour, now)
	if err != nil {
		return Decision{}, err
	}
	current := now.UTC().Hour()
	analysisHour := AnalysisHour(emailHour)

	return Decision{
		EmailHour:    emailHour,
		AnalysisHour: analysisHour,
		RunAnalysis:  analysisHour == current,
		SendEmail:    emailHour == current && user.State.PendingResultsReadyForEmail,
	}, nil
}
