package query

import (
	"sort"
	"strings"

	"github.com/adanyl0v/go-tasks/internal/models"
)

type SortKey string

const (
	SortByID        SortKey = "id"
	SortByCreatedAt SortKey = "createdAt"
	SortByUpdatedAt SortKey = "updatedAt"
	SortByDueDate   SortKey = "dueDate"
	SortByTitle     SortKey = "title"
	SortByPriority  SortKey = "priority"
	SortByStatus    SortKey = "status"
)

// Sort orders tasks by Key, descending when Desc is set. Ties are always
// broken by ascending id.
type Sort struct {
	Key  SortKey
	Desc bool
}

func DefaultSort() Sort {
	return Sort{Key: SortByCreatedAt, Desc: true}
}

// ParseSort maps request parameters to a Sort. Unknown keys fall back to
// createdAt and any direction other than "asc" means descending.
func ParseSort(key, dir string) Sort {
	s := DefaultSort()
	switch k := SortKey(strings.TrimSpace(key)); k {
	case SortByID, SortByCreatedAt, SortByUpdatedAt, SortByDueDate,
		SortByTitle, SortByPriority, SortByStatus:
		s.Key = k
	}
	s.Desc = !strings.EqualFold(strings.TrimSpace(dir), "asc")
	return s
}

// Apply sorts tasks in place.
func (s Sort) Apply(tasks []*models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		c := s.compare(a, b)
		if c == 0 {
			return a.ID < b.ID
		}
		if s.Desc {
			return c > 0
		}
		return c < 0
	})
}

func (s Sort) compare(a, b *models.Task) int {
	switch s.Key {
	case SortByID:
		return cmpInt64(a.ID, b.ID)
	case SortByUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case SortByDueDate:
		return s.compareDueDate(a, b)
	case SortByTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case SortByPriority:
		return cmpInt64(int64(a.Priority.Rank()), int64(b.Priority.Rank()))
	case SortByStatus:
		return cmpInt64(int64(a.Status.Rank()), int64(b.Status.Rank()))
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

// compareDueDate places tasks without a due date last in either direction.
func (s Sort) compareDueDate(a, b *models.Task) int {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		if s.Desc {
			return -1
		}
		return 1
	case b.DueDate == nil:
		if s.Desc {
			return 1
		}
		return -1
	}
	return a.DueDate.Compare(*b.DueDate)
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
