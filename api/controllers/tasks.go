package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/hmoralesdev/retailpoint-backend/api/middleware"
	"github.com/hmoralesdev/retailpoint-backend/api/responses"
	"github.com/hmoralesdev/retailpoint-backend/api/validators"
	taskssvc "github.com/hmoralesdev/retailpoint-backend/internal/tasks"
	"github.com/hmoralesdev/retailpoint-backend/pkg/enums"
	pkgerrors "github.com/hmoralesdev/retailpoint-backend/pkg/errors"
	"github.com/hmoralesdev/retailpoint-backend/pkg/logger"
)

type createTaskRequest struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description *string    `json:"description,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	AssignedTo  *int64     `json:"assigned_to,omitempty" validate:"omitempty,min=1"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	AssignedTo  *int64     `json:"assigned_to,omitempty" validate:"omitempty,min=1"`
}

type setTaskStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// TaskCreate opens a task, optionally assigned to a staff member.
func TaskCreate(svc taskssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createTaskRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := taskssvc.CreateInput{
			Title:       payload.Title,
			Description: payload.Description,
			Category:    payload.Category,
			DueDate:     payload.DueDate,
			AssignedTo:  payload.AssignedTo,
		}
		if payload.Priority != nil {
			priority, parseErr := enums.ParseTaskPriority(strings.TrimSpace(*payload.Priority))
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid priority"))
				return
			}
			input.Priority = priority
		}

		task, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, task)
	}
}

// TaskList returns all tasks, optionally filtered by status.
func TaskList(svc taskssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := taskssvc.ListFilter{Page: page}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseTaskStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status filter"))
				return
			}
			filter.Status = &status
		}

		tasks, pageInfo, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"tasks": tasks, "page": pageInfo})
	}
}

// TaskListMine returns the tasks assigned to the caller.
func TaskListMine(svc taskssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.TaskStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, parseErr := enums.ParseTaskStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status filter"))
				return
			}
			status = &parsed
		}

		tasks, pageInfo, err := svc.ListMine(r.Context(), middleware.UserIDFromContext(r.Context()), status, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"tasks": tasks, "page": pageInfo})
	}
}

// TaskStats returns per-status counts. Staff see their own numbers,
// admins the whole board.
func TaskStats(svc taskssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var assignedTo *int64
		if middleware.RoleFromContext(r.Context()) != enums.RoleAdmin {
			userID := middleware.UserIDFromContext(r.Context())
			assignedTo = &userID
		}

		stats, err := svc.Stats(r.Context(), assignedTo)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// TaskUpdate patches task fields.
func TaskUpdate(svc taskssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "taskID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateTaskRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := taskssvc.UpdateInput{
			Title:       payload.Title,
			Description: payload.Description,
			Category:    payload.Category,
			DueDate:     payload.DueDate,
			AssignedTo:  payload.AssignedTo,
		}
		if payload.Priority != nil {
			priority, parseErr := enums.ParseTaskPriority(strings.TrimSpace(*payload.Priority))
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid priority"))
				return
			}
			input.Priority = &priority
		}

		task, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, task)
	}
}

// TaskSetStatus moves a task along. Staff may only move their own.
func TaskSetStatus(svc taskssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "taskID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setTaskStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, parseErr := enums.ParseTaskStatus(strings.TrimSpace(payload.Status))
		if parseErr != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status"))
			return
		}

		ctx := r.Context()
		task, err := svc.SetStatus(ctx, id, middleware.UserIDFromContext(ctx), middleware.RoleFromContext(ctx), status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, task)
	}
}

// TaskDelete removes a task.
func TaskDelete(svc taskssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "taskID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
