package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	expensedomain "github.com/smallbiznis/canopact/internal/expense/domain"
)

// Carbon is the computed footprint of one journey. It only exists for routes
// with a resolved distance.
type Carbon struct {
	ID          snowflake.ID           `json:"id" gorm:"primaryKey"`
	ExpenseID   int64                  `json:"expense_id" gorm:"column:expense_id;not null;uniqueIndex"`
	Origin      *string                `json:"origin" gorm:"column:origin;type:text"`
	Destination *string                `json:"destination" gorm:"column:destination;type:text"`
	Category    expensedomain.Category `json:"category" gorm:"column:category;type:text;not null"`
	Distance    float64                `json:"distance" gorm:"column:distance;not null"`
	CO2e        float64                `json:"co2e" gorm:"column:co2e;not null"`
	CO2         float64                `json:"co2" gorm:"column:co2;not null"`
	CH4         float64                `json:"ch4" gorm:"column:ch4;not null"`
	N2O         float64                `json:"n2o" gorm:"column:n2o;not null"`
	CreatedAt   time.Time              `json:"created_at" gorm:"column:created_at;not null"`
}

func (Carbon) TableName() string { return "carbon" }

func (c Carbon) Gases() Gases {
	return Gases{CO2e: c.CO2e, CO2: c.CO2, CH4: c.CH4, N2O: c.N2O}
}

// PendingRoute is a route with a distance but no carbon row yet.
type PendingRoute struct {
	ExpenseID   int64
	Origin      *string
	Destination *string
	Category    expensedomain.Category
	Distance    float64
}
