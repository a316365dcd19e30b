// Package workflow defines the durable background workflows: the
// connection-request reminder, story expiry and the daily unseen-message
// digest. Each workflow is a scheduler handler whose steps record their
// results, so a redelivered task replays completed work instead of redoing
// its external effects.
package workflow

import (
	"time"

	"github.com/google/uuid"
)

// Task kinds handled by this package
const (
	TaskKindConnectionReminder = "connection.reminder"
	TaskKindStoryExpiry        = "story.expiry"
	TaskKindDailyDigest        = "digest.daily"
)

// DigestDedupeKey keys the single recurring digest task
const DigestDedupeKey = "daily-digest"

// ReminderPayload is the payload of a connection.reminder task
type ReminderPayload struct {
	RequestID  uuid.UUID `json:"request_id"`
	FromUserID uuid.UUID `json:"from_user_id"`
	ToUserID   uuid.UUID `json:"to_user_id"`
	RemindAt   time.Time `json:"remind_at"`
}

// StoryExpiryPayload is the payload of a story.expiry task
type StoryExpiryPayload struct {
	StoryID   uuid.UUID `json:"story_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
