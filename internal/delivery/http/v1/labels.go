package v1

import "github.com/adanyl0v/go-tasks/internal/models"

func statusLabel(s models.Status) string {
	switch s {
	case models.StatusTodo:
		return "To Do"
	case models.StatusInProgress:
		return "In Progress"
	case models.StatusCompleted:
		return "Completed"
	}
	return string(s)
}

func priorityLabel(p models.Priority) string {
	switch p {
	case models.PriorityLow:
		return "Low"
	case models.PriorityMedium:
		return "Medium"
	case models.PriorityHigh:
		return "High"
	}
	return string(p)
}
