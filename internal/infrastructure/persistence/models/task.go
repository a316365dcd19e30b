package models

import (
	"encoding/json"
	"time"

	"github.com/rainbow/backend/internal/domain/task"
)

// TaskModel is the persistence model for scheduled tasks. Payload, schedule
// and the step log are stored as jsonb so a row carries everything a worker
// needs to resume after a crash.
type TaskModel struct {
	AggregateModel
	Kind        string          `gorm:"size:128;not null;index"`
	Payload     json.RawMessage `gorm:"type:jsonb"`
	State       string          `gorm:"size:16;not null;index:idx_scheduled_tasks_due"`
	DueAt       time.Time       `gorm:"not null;index:idx_scheduled_tasks_due"`
	Recurring   bool            `gorm:"not null;default:false"`
	Schedule    json.RawMessage `gorm:"type:jsonb"`
	DedupeKey   *string         `gorm:"size:255;uniqueIndex"`
	StepResults json.RawMessage `gorm:"type:jsonb"`
	RetryCount  int             `gorm:"not null;default:0"`
	MaxRetries  int             `gorm:"not null"`
	NextRetryAt *time.Time
	LastError   string `gorm:"type:text"`
}

// TableName returns the table name for TaskModel
func (TaskModel) TableName() string {
	return "scheduled_tasks"
}

// ToDomain converts TaskModel to domain Task
func (m *TaskModel) ToDomain() (*task.Task, error) {
	t := &task.Task{
		Kind:        m.Kind,
		Payload:     m.Payload,
		State:       task.State(m.State),
		DueAt:       m.DueAt,
		Recurring:   m.Recurring,
		DedupeKey:   m.DedupeKey,
		Steps:       make(task.StepLog),
		RetryCount:  m.RetryCount,
		MaxRetries:  m.MaxRetries,
		NextRetryAt: m.NextRetryAt,
		LastError:   m.LastError,
	}
	m.PopulateAggregateRoot(&t.BaseAggregateRoot)

	if len(m.Schedule) > 0 {
		var schedule task.CronSchedule
		if err := json.Unmarshal(m.Schedule, &schedule); err != nil {
			return nil, err
		}
		t.Schedule = &schedule
	}
	if len(m.StepResults) > 0 {
		if err := json.Unmarshal(m.StepResults, &t.Steps); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// FromDomain populates TaskModel from domain Task
func (m *TaskModel) FromDomain(t *task.Task) error {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.Kind = t.Kind
	m.Payload = t.Payload
	m.State = string(t.State)
	m.DueAt = t.DueAt
	m.Recurring = t.Recurring
	m.DedupeKey = t.DedupeKey
	m.RetryCount = t.RetryCount
	m.MaxRetries = t.MaxRetries
	m.NextRetryAt = t.NextRetryAt
	m.LastError = t.LastError

	m.Schedule = nil
	if t.Schedule != nil {
		data, err := json.Marshal(t.Schedule)
		if err != nil {
			return err
		}
		m.Schedule = data
	}

	m.StepResults = nil
	if len(t.Steps) > 0 {
		data, err := json.Marshal(t.Steps)
		if err != nil {
			return err
		}
		m.StepResults = data
	}
	return nil
}
