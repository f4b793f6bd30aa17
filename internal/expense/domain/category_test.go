package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryMode(t *testing.T) {
	cases := []struct {
		category Category
		want     TravelMode
	}{
		{CategoryCarHire, ModeCar},
		{CategoryFuel, ModeCar},
		{CategoryTaxi, ModeTaxi},
		{CategoryTrain, ModeTrain},
		{CategoryAir, ModeAir},
		{CategoryBus, ModeBus},
	}
	for _, tc := range cases {
		got, err := tc.category.Mode()
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
		assert.True(t, tc.category.IsTravel())
	}
}

func TestCategoryModeRejectsOther(t *testing.T) {
	_, err := ParseCategory(" Office Supplies ").Mode()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCategory))
	assert.Contains(t, err.Error(), `"Office Supplies"`)
	assert.False(t, Category("Office Supplies").IsTravel())
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "Car Hire", CategoryCarHire.Label())
	assert.Equal(t, "Other", Category("").Label())
	assert.Equal(t, "Meals", Category("Meals").Label())
}

func TestNewExpenseDerivesTravelFlag(t *testing.T) {
	created := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	travel := NewExpense(1, 10, ExpenseInput{ExpenseID: 100, Category: string(CategoryTrain), CreatedDate: &created})
	assert.True(t, travel.TravelExpense)
	require.NotNil(t, travel.CreatedDate)

	other := NewExpense(1, 10, ExpenseInput{ExpenseID: 101, Category: "Meals"})
	assert.False(t, other.TravelExpense)
	assert.Nil(t, other.CreatedDate)
}

func TestExpenseIsUnit(t *testing.T) {
	expenseType := ExpenseTypeExpense
	distanceType := "distance"
	assert.False(t, Expense{ExpenseType: &expenseType}.IsUnit())
	assert.True(t, Expense{ExpenseType: &distanceType}.IsUnit())
	assert.True(t, Expense{}.IsUnit())
}
