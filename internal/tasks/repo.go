package tasks

import (
	"context"

	"gorm.io/gorm"

	"github.com/hmoralesdev/retailpoint-backend/pkg/db/models"
	"github.com/hmoralesdev/retailpoint-backend/pkg/enums"
	"github.com/hmoralesdev/retailpoint-backend/pkg/pagination"
)

// ListFilter narrows task listings.
type ListFilter struct {
	AssignedTo *int64
	Status     *enums.TaskStatus
	Page       pagination.Params
}

// StatusCounts aggregates tasks by status for dashboards.
type StatusCounts struct {
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"in_progress"`
	Completed  int64 `json:"completed"`
}

// Repository persists operational tasks.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*models.Task, error)
	List(ctx context.Context, filter ListFilter) ([]models.Task, int64, error)
	CountByStatus(ctx context.Context, assignedTo *int64) (StatusCounts, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a tasks repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}

func (r *repository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Task{}, id).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).
		Preload("Assignee").
		Where("id = ?", id).
		First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Task, int64, error) {
	page := pagination.Normalize(filter.Page)

	query := r.db.WithContext(ctx).Model(&models.Task{})
	if filter.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filter.AssignedTo)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.Task
	err := query.
		Preload("Assignee").
		Order("due_date ASC NULLS LAST, id ASC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *repository) CountByStatus(ctx context.Context, assignedTo *int64) (StatusCounts, error) {
	var rows []struct {
		Status enums.TaskStatus
		Count  int64
	}
	query := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Select("status, count(*) as count").
		Group("status")
	if assignedTo != nil {
		query = query.Where("assigned_to = ?", *assignedTo)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return StatusCounts{}, err
	}

	var counts StatusCounts
	for _, row := range rows {
		switch row.Status {
		case enums.TaskStatusPending:
			counts.Pending = row.Count
		case enums.TaskStatusInProgress:
			counts.InProgress = row.Count
		case enums.TaskStatusCompleted:
			counts.Completed = row.Count
		}
	}
	return counts, nil
}
