package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	expensedomain "github.com/smallbiznis/canopact/internal/expense/domain"
)

// RouteCategory selects how a route's distance is resolved.
type RouteCategory string

const (
	RouteCategoryUnit   RouteCategory = "unit"
	RouteCategoryAir    RouteCategory = "air"
	RouteCategoryGround RouteCategory = "ground"
)

// ReturnTypeReturn is written by the cleaner when a journey is marked as a round trip.
const ReturnTypeReturn = "return"

type Route struct {
	ID            snowflake.ID           `json:"id" gorm:"primaryKey"`
	ExpenseID     int64                  `json:"expense_id" gorm:"column:expense_id;not null;uniqueIndex"`
	Category      expensedomain.Category `json:"category" gorm:"column:category;type:text;not null"`
	RouteCategory RouteCategory          `json:"route_category" gorm:"column:route_category;type:text;not null;index"`
	Origin        *string                `json:"origin" gorm:"column:origin;type:text"`
	Destination   *string                `json:"destination" gorm:"column:destination;type:text"`
	ReturnType    *string                `json:"return_type" gorm:"column:return_type;type:text"`
	Distance      *float64               `json:"distance" gorm:"column:distance"`
	Invalid       bool                   `json:"invalid" gorm:"column:invalid;not null;default:false"`
	CreatedAt     time.Time              `json:"created_at" gorm:"column:created_at;not null"`
	UpdatedAt     time.Time              `json:"updated_at" gorm:"column:updated_at;not null"`
}

func (Route) TableName() string { return "routes" }

// IsRoundTrip reports whether the stored return marker doubles the distance.
func (r Route) IsRoundTrip() bool {
	if r.ReturnType == nil {
		return false
	}
	return IsReturn(*r.ReturnType)
}

// CleanerRow is a route that needs a human to fix its origin or destination.
type CleanerRow struct {
	RouteID     snowflake.ID           `json:"route_id"`
	ExpenseID   int64                  `json:"expense_id"`
	Category    expensedomain.Category `json:"category"`
	ReportName  *string                `json:"report_name"`
	Merchant    *string                `json:"merchant"`
	Comment     *string                `json:"comment"`
	CreatedDate *time.Time             `json:"created_date"`
	Origin      *string                `json:"origin"`
	Destination *string                `json:"destination"`
	Invalid     bool                   `json:"invalid"`
	CreatedAt   time.Time              `json:"created_at"`
}
