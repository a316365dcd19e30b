package task

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	due := time.Now().Add(time.Hour)
	tk, err := New("connection.reminder", json.RawMessage(`{"request_id":"r1"}`), due)
	require.NoError(t, err)

	assert.Equal(t, StateScheduled, tk.State)
	assert.Equal(t, due, tk.DueAt)
	assert.False(t, tk.Recurring)
	assert.Equal(t, DefaultMaxRetries, tk.MaxRetries)

	_, err = New("", nil, due)
	assert.Error(t, err)
}

func TestTask_IsDue(t *testing.T) {
	now := time.Now()
	tk, err := New("story.expiry", nil, now.Add(time.Minute))
	require.NoError(t, err)

	assert.False(t, tk.IsDue(now))
	assert.True(t, tk.IsDue(now.Add(time.Minute)))
	assert.True(t, tk.IsDue(now.Add(2*time.Minute)))

	require.NoError(t, tk.MarkRunning())
	assert.False(t, tk.IsDue(now.Add(2*time.Minute)), "running tasks are not claimable")
}

func TestTask_StepLog(t *testing.T) {
	tk, err := New("connection.reminder", nil, time.Now())
	require.NoError(t, err)

	_, ok := tk.StepResult("notify-target")
	assert.False(t, ok)

	tk.RecordStep("notify-target", json.RawMessage(`{"sent":true}`))
	result, ok := tk.StepResult("notify-target")
	require.True(t, ok)
	assert.JSONEq(t, `{"sent":true}`, string(result))
}

func TestTask_SuspendAndResume(t *testing.T) {
	now := time.Now()
	tk, err := New("story.expiry", nil, now)
	require.NoError(t, err)
	require.NoError(t, tk.MarkRunning())

	wake := now.Add(24 * time.Hour)
	tk.Suspend(wake)

	assert.Equal(t, StateSuspended, tk.State)
	assert.Equal(t, wake, tk.DueAt)
	assert.False(t, tk.IsDue(now))
	assert.True(t, tk.IsDue(wake))

	// A suspended task can be claimed again once due
	require.NoError(t, tk.MarkRunning())
	assert.Equal(t, StateRunning, tk.State)
}

func TestTask_CompleteOneShot(t *testing.T) {
	tk, err := New("story.expiry", nil, time.Now())
	require.NoError(t, err)
	require.NoError(t, tk.MarkRunning())

	require.NoError(t, tk.Complete(time.Now()))
	assert.Equal(t, StateDone, tk.State)
}

func TestTask_CompleteRecurringRearms(t *testing.T) {
	schedule, err := NewCronSchedule(9, 0, "UTC")
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	tk, err := NewRecurring("digest.daily", schedule, "daily-digest", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), tk.DueAt)

	require.NoError(t, tk.MarkRunning())
	tk.RecordStep("collect", json.RawMessage(`{}`))
	tk.RetryCount = 2

	finished := time.Date(2026, 3, 1, 9, 0, 5, 0, time.UTC)
	require.NoError(t, tk.Complete(finished))

	assert.Equal(t, StateScheduled, tk.State)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), tk.DueAt)
	assert.Empty(t, tk.Steps, "re-arm clears the step log")
	assert.Zero(t, tk.RetryCount)
}

func TestTask_FailBackoff(t *testing.T) {
	now := time.Now()
	tk, err := New("digest.daily", nil, now)
	require.NoError(t, err)
	tk.MaxRetries = 3

	tk.Fail("boom", now)
	assert.Equal(t, StateScheduled, tk.State)
	assert.Equal(t, 1, tk.RetryCount)
	assert.Equal(t, now.Add(30*time.Second), tk.DueAt)

	tk.Fail("boom", now)
	assert.Equal(t, now.Add(60*time.Second), tk.DueAt)

	tk.Fail("boom", now)
	assert.Equal(t, StateFailed, tk.State)
	assert.Equal(t, "boom", tk.LastError)
	assert.Nil(t, tk.NextRetryAt)
	assert.False(t, tk.IsDue(now.Add(time.Hour)), "failed tasks are never claimed")
}

func TestCronSchedule_Next(t *testing.T) {
	schedule, err := NewCronSchedule(9, 30, "UTC")
	require.NoError(t, err)

	before := time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)
	next, err := schedule.Next(before)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 6, 15, 9, 30, 0, 0, time.UTC), next)

	// Exactly at the fire instant rolls to the next day
	atFire := time.Date(2026, 6, 15, 9, 30, 0, 0, time.UTC)
	next, err = schedule.Next(atFire)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 6, 16, 9, 30, 0, 0, time.UTC), next)
}

func TestCronSchedule_NextInZone(t *testing.T) {
	schedule, err := NewCronSchedule(9, 0, "America/New_York")
	require.NoError(t, err)

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	after := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC) // 07:00 in New York
	next, err := schedule.Next(after)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 10, 9, 0, 0, 0, loc), next.In(loc))
}

func TestCronSchedule_Validate(t *testing.T) {
	_, err := NewCronSchedule(24, 0, "UTC")
	assert.Error(t, err)

	_, err = NewCronSchedule(9, 60, "UTC")
	assert.Error(t, err)

	_, err = NewCronSchedule(9, 0, "Not/AZone")
	assert.Error(t, err)
}

func TestNewRecurring_RequiresDedupeKey(t *testing.T) {
	schedule, err := NewCronSchedule(9, 0, "UTC")
	require.NoError(t, err)

	_, err = NewRecurring("digest.daily", schedule, "", time.Now())
	assert.Error(t, err)
}
