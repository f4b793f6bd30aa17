package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ExpenseTypeExpense marks a receipt-style expense; any other type (distance, time)
// carries a declared unit count instead of a route comment.
const ExpenseTypeExpense = "expense"

type Report struct {
	ReportID   int64          `json:"report_id" gorm:"column:report_id;primaryKey;autoIncrement:false"`
	UserID     snowflake.ID   `json:"user_id" gorm:"column:user_id;not null;index"`
	ReportName *string        `json:"report_name" gorm:"column:report_name;type:text"`
	Raw        datatypes.JSON `json:"-" gorm:"column:raw"`
	CreatedAt  time.Time      `json:"created_at" gorm:"column:created_at;not null"`
	UpdatedAt  time.Time      `json:"updated_at" gorm:"column:updated_at;not null"`
}

func (Report) TableName() string { return "reports" }

type Expense struct {
	ExpenseID       int64           `json:"expense_id" gorm:"column:expense_id;primaryKey;autoIncrement:false"`
	UserID          snowflake.ID    `json:"user_id" gorm:"column:user_id;not null;index"`
	ReportID        int64           `json:"report_id" gorm:"column:report_id;not null;index"`
	ExpenseType     *string         `json:"expense_type" gorm:"column:expense_type;type:text"`
	Category        Category        `json:"category" gorm:"column:category;type:text"`
	Amount          *float64        `json:"amount" gorm:"column:amount"`
	Currency        *string         `json:"currency" gorm:"column:currency;type:text"`
	ConvertedAmount *float64        `json:"converted_amount" gorm:"column:converted_amount"`
	Comment         *string         `json:"comment" gorm:"column:comment;type:text"`
	Merchant        *string         `json:"merchant" gorm:"column:merchant;type:text"`
	UnitCount       *float64        `json:"unit_count" gorm:"column:unit_count"`
	UnitRate        *float64        `json:"unit_rate" gorm:"column:unit_rate"`
	Unit            *string         `json:"unit" gorm:"column:unit;type:text"`
	CreatedDate     *datatypes.Date `json:"created_date" gorm:"column:created_date;index"`
	TravelExpense   bool            `json:"travel_expense" gorm:"column:travel_expense;not null;default:false;index"`
	CreatedAt       time.Time       `json:"created_at" gorm:"column:created_at;not null"`
	UpdatedAt       time.Time       `json:"updated_at" gorm:"column:updated_at;not null"`
}

func (Expense) TableName() string { return "expenses" }

// ExpenseInput is one normalized line item from an ingested report.
type ExpenseInput struct {
	ExpenseID       int64
	ExpenseType     *string
	Category        string
	Amount          *float64
	Currency        *string
	ConvertedAmount *float64
	Comment         *string
	Merchant        *string
	UnitCount       *float64
	UnitRate        *float64
	Unit            *string
	CreatedDate     *time.Time
}

// NewExpense builds an Expense and derives TravelExpense from the category.
func NewExpense(userID snowflake.ID, reportID int64, in ExpenseInput) Expense {
	category := ParseCategory(in.Category)
	e := Expense{
		ExpenseID:       in.ExpenseID,
		UserID:          userID,
		ReportID:        reportID,
		ExpenseType:     in.ExpenseType,
		Category:        category,
		Amount:          in.Amount,
		Currency:        in.Currency,
		ConvertedAmount: in.ConvertedAmount,
		Comment:         in.Comment,
		Merchant:        in.Merchant,
		UnitCount:       in.UnitCount,
		UnitRate:        in.UnitRate,
		Unit:            in.Unit,
		TravelExpense:   category.IsTravel(),
	}
	if in.CreatedDate != nil {
		d := datatypes.Date(in.CreatedDate.UTC())
		e.CreatedDate = &d
	}
	return e
}

// IsUnit reports whether the expense declares its own distance.
func (e Expense) IsUnit() bool {
	if e.ExpenseType == nil {
		return true
	}
	return *e.ExpenseType != ExpenseTypeExpense
}
