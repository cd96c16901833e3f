package query

import "github.com/adanyl0v/go-tasks/internal/models"

type PageRequest struct {
	// Page is zero-based.
	Page int
	Size int
	Sort Sort
}

type Page struct {
	Content       []*models.Task
	TotalElements int
	TotalPages    int
	Size          int
	Number        int
}

// Paginate slices already sorted tasks; size must be positive. A page past
// the end yields empty content with the totals still reported.
func Paginate(tasks []*models.Task, page, size int) Page {
	total := len(tasks)
	p := Page{
		Content:       []*models.Task{},
		TotalElements: total,
		TotalPages:    (total + size - 1) / size,
		Size:          size,
		Number:        page,
	}

	if page < 0 || page >= p.TotalPages {
		return p
	}
	start := page * size
	end := min(start+size, total)
	p.Content = tasks[start:end]
	return p
}
