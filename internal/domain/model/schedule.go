package model

import (
	"encoding/json"
	"time"
)

// UserSchedulePreference is the delivery preference owned by the user profile.
type UserSchedulePreference struct {
	UserID               string `json:"userId"`
	Email                string `json:"email"`
	BusinessDescription  string `json:"businessDescription"`
	Timezone             string `json:"timezone"`
	LocalHour            int    `json:"localHour"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
}

// ScheduleState holds the per-user flags the dispatcher mutates.
type ScheduleState struct {
	LastRunAt                   *time.Time      `json:"lastRunAt,omitempty"`
	LastEmailSentAt             *time.Time      `json:"lastEmailSentAt,omitempty"`
	PendingResultsReadyForEmail bool            `json:"pendingResultsReadyForEmail"`
	LastResultsSnapshot         json.RawMessage `json:"lastResultsSnapshot,omitempty"`
}

// ScheduledUser joins a preference with its current schedule state.
type ScheduledUser struct {
	Preference UserSchedulePreference
	State      ScheduleState
}

// TickResult aggregates what one dispatcher tick did.
type TickResult struct {
	Evaluated       int  `json:"evaluated"`
	AnalysesStarted int  `json:"analysesStarted"`
	AnalysesFailed  int  `json:"analysesFailed"`
	EmailsSent      int  `json:"emailsSent"`
	EmailsFailed    int  `json:"emailsFailed"`
	UsersSkipped    int  `json:"usersSkipped"`
	Skipped         bool `json:"skipped"`
}

// Actions reports how many runs and sends the tick performed.
func (r TickResult) Actions() int {
	return r.AnalysesStarted + r.EmailsSent
}
