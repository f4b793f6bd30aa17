package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	CreatePending(ctx context.Context, limit int) (CreateResult, error)
	Exists(ctx context.Context, origin, destination string) (bool, error)
	ListForCleaning(ctx context.Context, filter CleanerFilter) ([]CleanerRow, error)
	Edit(ctx context.Context, req EditRequest) (*Route, error)
}

type CreateResult struct {
	Selected  int
	Created   int
	Malformed int
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// CleanerFilter scopes the cleaner list. Sort must be one of SortableColumns.
type CleanerFilter struct {
	UserIDs   []snowflake.ID
	Sort      string
	Direction SortDirection
	Query     string
}

// SortableColumns maps public sort keys onto SQL expressions.
var SortableColumns = map[string]string{
	"created_date": "e.created_date",
	"category":     "r.category",
	"origin":       "r.origin",
	"destination":  "r.destination",
}

const DefaultCleanerSort = "created_date"

// Normalize fills defaults and rejects unknown sort keys.
func (f CleanerFilter) Normalize() (CleanerFilter, error) {
	f.Sort = strings.ToLower(strings.TrimSpace(f.Sort))
	if f.Sort == "" {
		f.Sort = DefaultCleanerSort
	}
	if _, ok := SortableColumns[f.Sort]; !ok {
		return f, ErrInvalidSort
	}
	switch SortDirection(strings.ToLower(strings.TrimSpace(string(f.Direction)))) {
	case SortAsc:
		f.Direction = SortAsc
	case SortDesc, "":
		f.Direction = SortDesc
	default:
		return f, ErrInvalidSort
	}
	f.Query = strings.TrimSpace(f.Query)
	return f, nil
}

// EditRequest carries a cleaner correction. Blank fields count as missing.
// UserIDs is the editor's company; routes of other users are not visible.
type EditRequest struct {
	UserIDs     []snowflake.ID
	ExpenseID   int64
	Origin      string
	Destination string
	Return      bool
}

var (
	ErrInvalidExpenseID = errors.New("invalid_expense_id")
	ErrInvalidSort      = errors.New("invalid_sort")
	ErrIncompleteRoute  = errors.New("incomplete_route")
	ErrNotFound         = errors.New("route_not_found")
	ErrNoMembers        = errors.New("no_members")
	ErrUnitRoute        = errors.New("unit_route_not_editable")
)
