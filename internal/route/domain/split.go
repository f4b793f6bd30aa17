package domain

import (
	"errors"
	"fmt"
	"strings"

	expensedomain "github.com/smallbiznis/canopact/internal/expense/domain"
)

const routeSeparator = ";"

var ErrMissingComment = errors.New("missing_comment")

// MalformedRouteError is returned when a comment is not "origin;destination;return".
type MalformedRouteError struct {
	Comment string
}

func (e *MalformedRouteError) Error() string {
	return fmt.Sprintf("malformed_route: %q must contain exactly two %q separators", e.Comment, routeSeparator)
}

// SplitRoute parses an expense comment of the form "origin;destination;return".
// Origin and destination are returned verbatim; only the return marker is trimmed.
func SplitRoute(comment *string) (origin, destination, returnMarker string, err error) {
	if comment == nil {
		return "", "", "", ErrMissingComment
	}
	if strings.Count(*comment, routeSeparator) != 2 {
		return "", "", "", &MalformedRouteError{Comment: *comment}
	}
	parts := strings.SplitN(*comment, routeSeparator, 3)
	return parts[0], parts[1], strings.TrimSpace(parts[2]), nil
}

// IsReturn reports whether a return marker denotes a round trip.
func IsReturn(marker string) bool {
	return strings.ContainsRune(strings.ToLower(marker), 'r')
}

// Classify derives the route category from the expense type and category.
// Anything other than a receipt-style expense declares its own distance.
func Classify(expenseType *string, category expensedomain.Category) (RouteCategory, error) {
	if _, err := category.Mode(); err != nil {
		return "", err
	}
	if expenseType == nil || *expenseType != expensedomain.ExpenseTypeExpense {
		return RouteCategoryUnit, nil
	}
	if category == expensedomain.CategoryAir {
		return RouteCategoryAir, nil
	}
	return RouteCategoryGround, nil
}
