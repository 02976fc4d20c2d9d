package models

import (
	"time"

	"github.com/hmoralesdev/retailpoint-backend/pkg/enums"
)

// Task is an operational to-do assigned to a staff member.
type Task struct {
	ID          int64              `gorm:"column:id;primaryKey;autoIncrement"`
	Title       string             `gorm:"column:title;type:text;not null"`
	Description *string            `gorm:"column:description"`
	Category    *string            `gorm:"column:category"`
	Priority    enums.TaskPriority `gorm:"column:priority;type:text;not null;default:'medium'"`
	Status      enums.TaskStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	DueDate     *time.Time         `gorm:"column:due_date"`
	AssignedTo  *int64             `gorm:"column:assigned_to;index"`
	Assignee    *User              `gorm:"foreignKey:AssignedTo"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
