package task

import (
	"fmt"
	"time"

	"github.com/rainbow/backend/internal/domain/shared"
)

// CronSchedule is a structured daily schedule: fire at Hour:Minute in the
// named timezone, every day. Structured fields instead of a cron expression
// keep next-fire computation deterministic and testable.
type CronSchedule struct {
	Hour     int    `json:"hour"`
	Minute   int    `json:"minute"`
	Timezone string `json:"timezone"`
}

// NewCronSchedule creates a validated daily schedule
func NewCronSchedule(hour, minute int, timezone string) (CronSchedule, error) {
	s := CronSchedule{Hour: hour, Minute: minute, Timezone: timezone}
	if err := s.Validate(); err != nil {
		return CronSchedule{}, err
	}
	return s, nil
}

// Validate checks field ranges and that the timezone resolves
func (s CronSchedule) Validate() error {
	if s.Hour < 0 || s.Hour > 23 {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Schedule hour %d out of range", s.Hour))
	}
	if s.Minute < 0 || s.Minute > 59 {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Schedule minute %d out of range", s.Minute))
	}
	if _, err := s.location(); err != nil {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown timezone %q", s.Timezone))
	}
	return nil
}

// Next returns the first occurrence strictly after the given instant
func (s CronSchedule) Next(after time.Time) (time.Time, error) {
	loc, err := s.location()
	if err != nil {
		return time.Time{}, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown timezone %q", s.Timezone))
	}

	local := after.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), s.Hour, s.Minute, 0, 0, loc)
	if !candidate.After(after) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate, nil
}

func (s CronSchedule) location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}
