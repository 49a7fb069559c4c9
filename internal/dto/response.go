package dto

import (
	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/repository"
)

// Response is the envelope of every successful JSON response.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
	Message string      `json:"message,omitempty"`
}

func OK(data interface{}) Response {
	return Response{Success: true, Data: data}
}

func OKWithMeta(data, meta interface{}) Response {
	return Response{Success: true, Data: data, Meta: meta}
}

func OKWithMessage(data interface{}, message string) Response {
	return Response{Success: true, Data: data, Message: message}
}

// ListMeta describes one page of a list response.
type ListMeta struct {
	Count      int          `json:"count"`
	Total      *int64       `json:"total,omitempty"`
	Limit      int          `json:"limit,omitempty"`
	Offset     int          `json:"offset"`
	SearchTerm string       `json:"searchTerm,omitempty"`
	Filters    *ListFilters `json:"filters,omitempty"`
	Sorting    *ListSorting `json:"sorting,omitempty"`
}

type ListFilters struct {
	Status     string `json:"status,omitempty"`
	Priority   string `json:"priority,omitempty"`
	AssignedTo string `json:"assignedTo,omitempty"`
	Search     string `json:"search,omitempty"`
}

type ListSorting struct {
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"`
}

// NewListSorting reports the ordering a list query actually gets: unknown
// columns fall back to the default and unknown orders to descending.
func NewListSorting(allowed []string, sortBy, sortOrder string) *ListSorting {
	order := database.SortAsc
	if database.SortDescending(sortOrder) {
		order = database.SortDesc
	}
	return &ListSorting{
		SortBy:    database.SortColumn(allowed, repository.DefaultSortColumn, sortBy),
		SortOrder: order,
	}
}

// NewTaskListMeta echoes the applied options of a task list query.
func NewTaskListMeta(count int, total int64, q TaskQuery) ListMeta {
	return ListMeta{
		Count:  count,
		Total:  &total,
		Limit:  q.Limit,
		Offset: q.Offset,
		Filters: &ListFilters{
			Status:     q.Status,
			Priority:   q.Priority,
			AssignedTo: q.AssignedTo,
			Search:     q.Search,
		},
		Sorting: NewListSorting(repository.TaskSortColumns, q.SortBy, q.SortOrder),
	}
}

// CollectionMeta describes an unpaginated collection such as overdue tasks.
type CollectionMeta struct {
	Count  int    `json:"count"`
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
}
