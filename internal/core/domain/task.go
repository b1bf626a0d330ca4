package domain

import (
	"fmt"
	"strings"
	"time"
)

// DeadlineLayout is the calendar-date format used for task deadlines.
const DeadlineLayout = "2006-01-02"

// Priority ranks a task.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

var priorityRank = map[Priority]int{
	PriorityHigh:   0,
	PriorityMedium: 1,
	PriorityLow:    2,
}

// ParsePriority accepts any casing of a known priority. Empty means Medium.
func ParsePriority(s string) (Priority, error) {
	if strings.TrimSpace(s) == "" {
		return PriorityMedium, nil
	}
	for p := range priorityRank {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, s)
}

// Rank orders priorities from most (0) to least urgent.
func (p Priority) Rank() int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return len(priorityRank)
}

// Bucket is the board column a task falls into.
type Bucket string

const (
	BucketToDo       Bucket = "To Do"
	BucketInProgress Bucket = "In Progress"
	BucketCompleted  Bucket = "Completed"
)

// Buckets lists the board columns in display order.
var Buckets = []Bucket{BucketToDo, BucketInProgress, BucketCompleted}

// bucketRanges holds the inclusive progress range of each bucket and the
// value a task is set to when it is dropped into the bucket.
var bucketRanges = map[Bucket]struct{ lo, hi, canonical int }{
	BucketToDo:       {0, 40, 0},
	BucketInProgress: {41, 80, 50},
	BucketCompleted:  {81, 100, 100},
}

// BucketFor derives the bucket from progress: <=40 To Do, 41-80 In Progress,
// >80 Completed.
func BucketFor(progress int) Bucket {
	switch {
	case progress <= 40:
		return BucketToDo
	case progress <= 80:
		return BucketInProgress
	default:
		return BucketCompleted
	}
}

// ParseBucket accepts the display name or a slug ("todo", "in_progress",
// "completed").
func ParseBucket(s string) (Bucket, error) {
	norm := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(s))
	for _, b := range Buckets {
		if strings.ReplaceAll(strings.ToLower(string(b)), " ", "") == norm {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidTask, s)
}

// Contains reports whether progress falls in the bucket.
func (b Bucket) Contains(progress int) bool {
	r, ok := bucketRanges[b]
	return ok && progress >= r.lo && progress <= r.hi
}

// CanonicalProgress is the progress a task takes when moved into b.
func (b Bucket) CanonicalProgress() int {
	return bucketRanges[b].canonical
}

// Task is a single entry of a user's task collection.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    Priority  `json:"priority"`
	Progress    int       `json:"progress"`
	Deadline    string    `json:"deadline,omitempty"`
	AssignedTo  string    `json:"assignedTo,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Bucket derives the task's board column from its progress.
func (t Task) Bucket() Bucket {
	return BucketFor(t.Progress)
}

// DeadlineDate parses the deadline. ok is false when no deadline is set or
// it cannot be parsed.
func (t Task) DeadlineDate() (time.Time, bool) {
	if t.Deadline == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(DeadlineLayout, t.Deadline)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Validate checks the invariants every stored task must satisfy.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if t.Progress < 0 || t.Progress > 100 {
		return fmt.Errorf("%w: progress must be between 0 and 100", ErrInvalidTask)
	}
	if _, ok := priorityRank[t.Priority]; !ok {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, t.Priority)
	}
	if t.Deadline != "" {
		if _, err := time.Parse(DeadlineLayout, t.Deadline); err != nil {
			return fmt.Errorf("%w: deadline must be YYYY-MM-DD", ErrInvalidTask)
		}
	}
	return nil
}

// TaskSnapshot is a whole task collection at one version. It is both the
// stored value and the payload of every change notification.
type TaskSnapshot struct {
	Collection string    `json:"collection"`
	Version    int64     `json:"version"`
	Tasks      []Task    `json:"tasks"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Find returns the index of the task with id, or -1.
func (s *TaskSnapshot) Find(id string) int {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// CloneTasks returns a copy of tasks that can be mutated freely.
func CloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}

// Board groups tasks into the three columns, preserving list order.
type Board struct {
	ToDo       []Task `json:"To Do"`
	InProgress []Task `json:"In Progress"`
	Completed  []Task `json:"Completed"`
}

// NewBoard buckets tasks by progress.
func NewBoard(tasks []Task) Board {
	b := Board{ToDo: []Task{}, InProgress: []Task{}, Completed: []Task{}}
	for _, t := range tasks {
		switch t.Bucket() {
		case BucketToDo:
			b.ToDo = append(b.ToDo, t)
		case BucketInProgress:
			b.InProgress = append(b.InProgress, t)
		default:
			b.Completed = append(b.Completed, t)
		}
	}
	return b
}

// TaskStats are the counters shown on the dashboards.
type TaskStats struct {
	Total      int `json:"total"`
	ToDo       int `json:"toDo"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	Pending    int `json:"pending"`
}

// NewTaskStats counts tasks per bucket. Pending is everything not Completed.
func NewTaskStats(tasks []Task) TaskStats {
	var s TaskStats
	for _, t := range tasks {
		s.Total++
		switch t.Bucket() {
		case BucketToDo:
			s.ToDo++
		case BucketInProgress:
			s.InProgress++
		default:
			s.Completed++
		}
	}
	s.Pending = s.Total - s.Completed
	return s
}

// DueTasks are the tasks whose deadline is today or tomorrow.
type DueTasks struct {
	Today    []Task `json:"today"`
	Tomorrow []Task `json:"tomorrow"`
}
