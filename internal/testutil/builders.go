package testutil

import (
	"fmt"
	"time"

	"github.com/target/trendscout/internal/domain/model"
)

// VideoBuilder provides a fluent interface for building VideoRecord values for testing.
type VideoBuilder struct {
	v model.VideoRecord
}

// NewVideo creates a VideoBuilder with sensible defaults.
func NewVideo(id string) *VideoBuilder {
	return &VideoBuilder{v: model.VideoRecord{
		ID:             id,
		URL:            "https://www.tiktok.com/@creator/video/" + id,
		Description:    "video " + id,
		Author:         "creator",
		RemoteMediaURL: fmt.Sprintf("https://storage.example.com/videos/%s.mp4", id),
		StorageName:    id + ".mp4",
		Metrics:        model.EngagementMetrics{Views: 1000, Likes: 100, Comments: 10, Shares: 1},
		Hashtags:       []string{"fyp"},
	}}
}

// WithDBID sets the persisted row id.
func (b *VideoBuilder) WithDBID(id string) *VideoBuilder {
	b.v.DBID = &id
	return b
}

// WithMediaURL sets the remote media URL and derived storage name.
func (b *VideoBuilder) WithMediaURL(url, storageName string) *VideoBuilder {
	b.v.RemoteMediaURL = url
	b.v.StorageName = storageName
	return b
}

// Build returns the built video.
func (b *VideoBuilder) Build() model.VideoRecord {
	return b.v
}

// ScheduledUserBuilder provides a fluent interface for building ScheduledUser values.
type ScheduledUserBuilder struct {
	u model.ScheduledUser
}

// NewScheduledUser creates a subscribed UTC user delivering at 09:00.
func NewScheduledUser(id string) *ScheduledUserBuilder {
	return &ScheduledUserBuilder{u: model.ScheduledUser{
		Preference: model.UserSchedulePreference{
			UserID:               id,
			Email:                id + "@example.com",
			BusinessDescription:  "Artisan coffee roaster in Portland",
			Timezone:             "UTC",
			LocalHour:            9,
			NotificationsEnabled: true,
		},
	}}
}

// InZone sets the user's IANA timezone and local delivery hour.
func (b *ScheduledUserBuilder) InZone(tz string, hour int) *ScheduledUserBuilder {
	b.u.Preference.Timezone = tz
	b.u.Preference.LocalHour = hour
	return b
}

// Pending marks the user as having results waiting for email.
func (b *ScheduledUserBuilder) Pending(snapshot string) *ScheduledUserBuilder {
	b.u.State.PendingResultsReadyForEmail = true
	b.u.State.LastResultsSnapshot = []byte(snapshot)
	return b
}

// LastRunAt sets the last run timestamp.
func (b *ScheduledUserBuilder) LastRunAt(at time.Time) *ScheduledUserBuilder {
	b.u.State.LastRunAt = &at
	return b
}

// Build returns the built user.
func (b *ScheduledUserBuilder) Build() model.ScheduledUser {
	return b.u
}
