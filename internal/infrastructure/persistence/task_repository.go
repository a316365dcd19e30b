package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/shared"
	"github.com/rainbow/backend/internal/domain/task"
	"github.com/rainbow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository implements task.Repository using GORM
type GormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GormTaskRepository
func NewGormTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

// FindByID finds a task by its ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	var model models.TaskModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByDedupeKey finds a task by its dedupe key
func (r *GormTaskRepository) FindByDedupeKey(ctx context.Context, key string) (*task.Task, error) {
	var model models.TaskModel
	if err := r.db.WithContext(ctx).
		Where("dedupe_key = ?", key).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// Save inserts a new task. Tasks carrying a dedupe key insert conflict-free:
// a second row with the same key is a no-op reported as shared.ErrAlreadyExists.
func (r *GormTaskRepository) Save(ctx context.Context, t *task.Task) error {
	var model models.TaskModel
	if err := model.FromDomain(t); err != nil {
		return err
	}

	query := r.db.WithContext(ctx)
	if t.DedupeKey != nil {
		query = query.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dedupe_key"}},
			DoNothing: true,
		})
	}

	result := query.Create(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrAlreadyExists
	}
	return nil
}

// Update persists the task's current state, step log and retry fields
func (r *GormTaskRepository) Update(ctx context.Context, t *task.Task) error {
	var model models.TaskModel
	if err := model.FromDomain(t); err != nil {
		return err
	}
	model.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(&model).Error
}

// ClaimDue atomically claims up to limit eligible tasks and marks them
// running. Due scheduled/suspended rows are eligible, and so are running
// rows whose updated_at predates staleBefore: their claimer died mid-run,
// so the row returns to circulation with its step log intact. Rows are
// locked with FOR UPDATE SKIP LOCKED inside the transaction, so concurrent
// engine instances never receive the same task.
func (r *GormTaskRepository) ClaimDue(ctx context.Context, now, staleBefore time.Time, limit int) ([]*task.Task, error) {
	var claimed []*task.Task

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taskModels []models.TaskModel
		if err := tx.
			Clauses(clause.Locking{
				Strength: "UPDATE",
				Options:  "SKIP LOCKED",
			}).
			Where("(state IN ? AND due_at <= ?) OR (state = ? AND updated_at < ?)", []string{
				string(task.StateScheduled),
				string(task.StateSuspended),
			}, now, string(task.StateRunning), staleBefore).
			Order("due_at ASC").
			Limit(limit).
			Find(&taskModels).Error; err != nil {
			return err
		}

		if len(taskModels) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, len(taskModels))
		for i, m := range taskModels {
			ids[i] = m.ID
		}

		if err := tx.Model(&models.TaskModel{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"state":      string(task.StateRunning),
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		claimed = make([]*task.Task, 0, len(taskModels))
		for i := range taskModels {
			t, err := taskModels[i].ToDomain()
			if err != nil {
				return err
			}
			t.State = task.StateRunning
			claimed = append(claimed, t)
		}
		return nil
	})

	return claimed, err
}

// DeleteDoneBefore removes done tasks last updated before the cutoff
func (r *GormTaskRepository) DeleteDoneBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("state = ? AND updated_at < ?", string(task.StateDone), before).
		Delete(&models.TaskModel{})
	return result.RowsAffected, result.Error
}

// CountByState returns how many tasks sit in each state
func (r *GormTaskRepository) CountByState(ctx context.Context) (map[task.State]int64, error) {
	var rows []struct {
		State string
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&models.TaskModel{}).
		Select("state, COUNT(*) as count").
		Group("state").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[task.State]int64, len(rows))
	for _, row := range rows {
		counts[task.State(row.State)] = row.Count
	}
	return counts, nil
}
