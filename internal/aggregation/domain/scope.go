package domain

import (
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Granularity selects whose journeys are aggregated.
type Granularity string

const (
	GranularityEmployee Granularity = "employee"
	GranularityCompany  Granularity = "company"
)

var (
	ErrInvalidGranularity = errors.New("invalid_granularity")
	ErrInvalidUser        = errors.New("invalid_user")
	ErrEmptyScope         = errors.New("empty_scope")
)

func ParseGranularity(raw string) (Granularity, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(raw))) {
	case GranularityEmployee, "":
		return GranularityEmployee, nil
	case GranularityCompany:
		return GranularityCompany, nil
	default:
		return "", ErrInvalidGranularity
	}
}

// Subject is the user a dashboard is drawn for.
type Subject struct {
	UserID    snowflake.ID
	CompanyID snowflake.ID
}

// Scope is the resolved set of users whose expenses are aggregated. An employee
// scope holds exactly one id.
type Scope struct {
	Granularity Granularity
	UserIDs     []snowflake.ID
}

func (s Scope) Validate() error {
	if len(s.UserIDs) == 0 {
		return ErrEmptyScope
	}
	return nil
}
