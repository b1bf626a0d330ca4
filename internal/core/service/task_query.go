package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/taskflow/taskflow/internal/core/domain"
	"github.com/taskflow/taskflow/internal/core/ports"
)

const (
	statusCompleted = "completed"
	statusPending   = "pending"
)

// applyTaskFilter returns the tasks matching f in the requested order. The
// input slice is not modified.
func applyTaskFilter(tasks []domain.Task, f ports.TaskFilter) ([]domain.Task, error) {
	status := strings.ToLower(strings.TrimSpace(f.Status))
	if status != "" && status != statusCompleted && status != statusPending {
		return nil, fmt.Errorf("%w: unknown status filter %q", domain.ErrInvalidTask, f.Status)
	}
	less, err := taskOrder(f.SortBy)
	if err != nil {
		return nil, err
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Bucket != "" && t.Bucket() != f.Bucket {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		done := t.Bucket() == domain.BucketCompleted
		if (status == statusCompleted && !done) || (status == statusPending && done) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		out = append(out, t)
	}

	if less != nil {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	if f.Desc {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

// taskOrder returns the comparison for a sort key. A nil func keeps the
// stored insertion order.
func taskOrder(key string) (func(a, b domain.Task) bool, error) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", "created":
		return nil, nil
	case "deadline":
		// Tasks without a deadline go last.
		return func(a, b domain.Task) bool {
			if a.Deadline == "" || b.Deadline == "" {
				return a.Deadline != "" && b.Deadline == ""
			}
			return a.Deadline < b.Deadline
		}, nil
	case "priority":
		return func(a, b domain.Task) bool { return a.Priority.Rank() < b.Priority.Rank() }, nil
	case "progress":
		return func(a, b domain.Task) bool { return a.Progress < b.Progress }, nil
	case "title":
		return func(a, b domain.Task) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }, nil
	default:
		return nil, fmt.Errorf("%w: unknown sort key %q", domain.ErrInvalidTask, key)
	}
}
