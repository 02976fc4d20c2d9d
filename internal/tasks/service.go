package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/hmoralesdev/retailpoint-backend/pkg/db/models"
	"github.com/hmoralesdev/retailpoint-backend/pkg/enums"
	pkgerrors "github.com/hmoralesdev/retailpoint-backend/pkg/errors"
	"github.com/hmoralesdev/retailpoint-backend/pkg/pagination"
)

// CreateInput carries the fields an admin sets when opening a task.
type CreateInput struct {
	Title       string
	Description *string
	Category    *string
	Priority    enums.TaskPriority
	DueDate     *time.Time
	AssignedTo  *int64
}

// UpdateInput patches a task; nil fields are left untouched.
type UpdateInput struct {
	Title       *string
	Description *string
	Category    *string
	Priority    *enums.TaskPriority
	DueDate     *time.Time
	AssignedTo  *int64
}

// Service manages operational tasks. Admins have full control; staff
// can list their own tasks and move their status.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Task, error)
	Update(ctx context.Context, id int64, input UpdateInput) (*models.Task, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.Task, error)
	List(ctx context.Context, filter ListFilter) ([]models.Task, pagination.Page, error)
	ListMine(ctx context.Context, staffID int64, status *enums.TaskStatus, page pagination.Params) ([]models.Task, pagination.Page, error)
	SetStatus(ctx context.Context, id, actorID int64, actorRole enums.Role, status enums.TaskStatus) (*models.Task, error)
	Stats(ctx context.Context, assignedTo *int64) (StatusCounts, error)
}

type service struct {
	repo Repository
}

// NewService builds the tasks service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tasks repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Task, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	priority := input.Priority
	if priority == "" {
		priority = enums.TaskPriorityMedium
	}
	if !priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid priority")
	}

	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Priority:    priority,
		Status:      enums.TaskStatusPending,
		DueDate:     input.DueDate,
		AssignedTo:  input.AssignedTo,
	}
	created, err := s.repo.Create(ctx, task)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create task")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id int64, input UpdateInput) (*models.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = input.Description
	}
	if input.Category != nil {
		task.Category = input.Category
	}
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid priority")
		}
		task.Priority = *input.Priority
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.AssignedTo != nil {
		task.AssignedTo = input.AssignedTo
	}

	task.Assignee = nil
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update task")
	}
	return task, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete task")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Task, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task id required")
	}
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "task not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load task")
	}
	return task, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Task, pagination.Page, error) {
	filter.Page = pagination.Normalize(filter.Page)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tasks")
	}
	return items, pagination.Page{Limit: filter.Page.Limit, Offset: filter.Page.Offset, Total: total}, nil
}

func (s *service) ListMine(ctx context.Context, staffID int64, status *enums.TaskStatus, page pagination.Params) ([]models.Task, pagination.Page, error) {
	if staffID <= 0 {
		return nil, pagination.Page{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "staff identity missing")
	}
	return s.List(ctx, ListFilter{AssignedTo: &staffID, Status: status, Page: page})
}

// SetStatus moves a task to the given status. Staff may only move tasks
// assigned to them; admins may move any task.
func (s *service) SetStatus(ctx context.Context, id, actorID int64, actorRole enums.Role, status enums.TaskStatus) (*models.Task, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}

	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if actorRole != enums.RoleAdmin {
		if task.AssignedTo == nil || *task.AssignedTo != actorID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "task assigned to someone else")
		}
	}

	task.Status = status
	task.Assignee = nil
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update task")
	}
	return task, nil
}

func (s *service) Stats(ctx context.Context, assignedTo *int64) (StatusCounts, error) {
	counts, err := s.repo.CountByStatus(ctx, assignedTo)
	if err != nil {
		return StatusCounts{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count tasks")
	}
	return counts, nil
}
