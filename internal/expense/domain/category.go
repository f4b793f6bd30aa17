package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Category is the Expensify expense category. Only the travel sub-categories are
// modelled explicitly; any other value is kept verbatim and is not travel.
type Category string

const (
	CategoryAir     Category = "Car, Van and Travel Expenses: Air"
	CategoryBus     Category = "Car, Van and Travel Expenses: Bus"
	CategoryCarHire Category = "Car, Van and Travel Expenses: Car Hire"
	CategoryFuel    Category = "Car, Van and Travel Expenses: Fuel"
	CategoryTaxi    Category = "Car, Van and Travel Expenses: Taxi"
	CategoryTrain   Category = "Car, Van and Travel Expenses: Train"
)

// TravelCategories lists the categories that count as travel expenses.
var TravelCategories = []Category{
	CategoryAir,
	CategoryBus,
	CategoryCarHire,
	CategoryFuel,
	CategoryTaxi,
	CategoryTrain,
}

// TravelMode is the emission-factor mode a travel category maps to.
type TravelMode string

const (
	ModeCar   TravelMode = "car"
	ModeTaxi  TravelMode = "taxi"
	ModeTrain TravelMode = "train"
	ModeAir   TravelMode = "air"
	ModeBus   TravelMode = "bus"
)

var ErrInvalidCategory = errors.New("invalid_category")

// InvalidCategoryError reports a category outside the travel enumeration.
type InvalidCategoryError struct {
	Category string
	Valid    []Category
}

func (e *InvalidCategoryError) Error() string {
	valid := make([]string, 0, len(e.Valid))
	for _, c := range e.Valid {
		valid = append(valid, string(c))
	}
	return fmt.Sprintf("invalid_category: %q must be one of [%s]", e.Category, strings.Join(valid, ", "))
}

func (e *InvalidCategoryError) Is(target error) bool {
	return target == ErrInvalidCategory
}

func NewInvalidCategoryError(category string) error {
	return &InvalidCategoryError{Category: category, Valid: TravelCategories}
}

func ParseCategory(raw string) Category {
	return Category(strings.TrimSpace(raw))
}

func (c Category) IsTravel() bool {
	switch c {
	case CategoryAir, CategoryBus, CategoryCarHire, CategoryFuel, CategoryTaxi, CategoryTrain:
		return true
	default:
		return false
	}
}

// Mode returns the travel mode used to pick emission factors.
func (c Category) Mode() (TravelMode, error) {
	switch c {
	case CategoryCarHire, CategoryFuel:
		return ModeCar, nil
	case CategoryTaxi:
		return ModeTaxi, nil
	case CategoryTrain:
		return ModeTrain, nil
	case CategoryAir:
		return ModeAir, nil
	case CategoryBus:
		return ModeBus, nil
	default:
		return "", NewInvalidCategoryError(string(c))
	}
}

// Label is the short human name shown on dashboards, e.g. "Car Hire".
func (c Category) Label() string {
	value := string(c)
	if idx := strings.LastIndex(value, ":"); idx >= 0 {
		return strings.TrimSpace(value[idx+1:])
	}
	if value == "" {
		return "Other"
	}
	return value
}
