package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/adanyl0v/go-tasks/internal/models"
)

// Partition is one of the three mutually exclusive default groupings.
type Partition string

const (
	PartitionActive   Partition = "active"
	PartitionArchived Partition = "archived"
	PartitionDeleted  Partition = "deleted"
)

// ParsePartition accepts an empty string as the active partition.
func ParsePartition(s string) (Partition, error) {
	switch p := Partition(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PartitionActive, nil
	case PartitionActive, PartitionArchived, PartitionDeleted:
		return p, nil
	default:
		return "", fmt.Errorf("unknown view %q", s)
	}
}

// Criteria is a conjunction of optional predicates. A nil or empty field
// matches every task.
//
// Deleted selects between the two halves of the collection: false (the
// default) keeps only tasks without a deletion mark, true keeps only
// soft-deleted ones. Archived is ignored when nil, so the filter endpoint
// returns both archived and unarchived tasks unless asked otherwise.
type Criteria struct {
	Status   *models.Status
	Priority *models.Priority
	Archived *bool
	Keyword  string
	Deleted  bool
}

// CriteriaFor returns the criteria that select exactly one partition.
func CriteriaFor(p Partition) Criteria {
	switch p {
	case PartitionArchived:
		archived := true
		return Criteria{Archived: &archived}
	case PartitionDeleted:
		return Criteria{Deleted: true}
	default:
		archived := false
		return Criteria{Archived: &archived}
	}
}

func (c Criteria) Match(t *models.Task) bool {
	if t.Deleted() != c.Deleted {
		return false
	}
	// Deletion masks the archived flag.
	if c.Archived != nil && !c.Deleted && t.Archived != *c.Archived {
		return false
	}
	if c.Status != nil && t.Status != *c.Status {
		return false
	}
	if c.Priority != nil && t.Priority != *c.Priority {
		return false
	}
	if kw := strings.TrimSpace(c.Keyword); kw != "" {
		kw = strings.ToLower(kw)
		if !strings.Contains(strings.ToLower(t.Title), kw) &&
			!strings.Contains(strings.ToLower(t.Description), kw) {
			return false
		}
	}
	return true
}

func selectTasks(tasks []*models.Task, match func(*models.Task) bool) []*models.Task {
	out := make([]*models.Task, 0, len(tasks))
	for _, t := range tasks {
		if match(t) {
			out = append(out, t)
		}
	}
	return out
}

// overdue reports whether a live task has missed its due date.
func overdue(t *models.Task, now time.Time) bool {
	return !t.Deleted() &&
		t.Status != models.StatusCompleted &&
		t.DueDate != nil &&
		t.DueDate.Before(now)
}
