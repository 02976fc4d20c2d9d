package enums

import "fmt"

// TaskPriority ranks how urgent a task is.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

var validTaskPriorities = []TaskPriority{
	TaskPriorityLow,
	TaskPriorityMedium,
	TaskPriorityHigh,
}

// String implements fmt.Stringer.
func (t TaskPriority) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TaskPriority.
func (t TaskPriority) IsValid() bool {
	for _, candidate := range validTaskPriorities {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTaskPriority converts raw input into a TaskPriority.
func ParseTaskPriority(value string) (TaskPriority, error) {
	for _, candidate := range validTaskPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid task priority %q", value)
}
