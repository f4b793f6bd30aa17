package expensify

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExport = `[{
	"report_id": 4471,
	"report_name": "March trips",
	"report_policy_id": "P1",
	"report_expenses": {
		"expense_id": ["101", "102"],
		"expense_type": ["expense", "distance"],
		"expense_category": ["Car, Van and Travel Expenses: Train", "Car, Van and Travel Expenses: Fuel"],
		"expense_amount": ["2550", "900"],
		"expense_currency": ["GBP", "GBP"],
		"expense_comment": ["London; Leeds; R", ""],
		"expense_converted_amount": ["2550", ""],
		"expense_created_date": ["2024-03-05", "2024-03-06 10:11:12"],
		"expense_merchant": ["LNER", "Shell"],
		"expense_modified_amount": ["", "1000"],
		"expense_modified_created_date": ["", ""],
		"expense_modified_merchant": ["", "Shell Leeds"],
		"expense_unit_count": ["", "20.0"],
		"expense_unit_rate": ["", "45"],
		"expense_unit_unit": ["", "mi"]
	}
}]`

func TestNormalize(t *testing.T) {
	var raw []RawReport
	require.NoError(t, json.Unmarshal([]byte(sampleExport), &raw))
	require.Len(t, raw, 1)

	report, err := Normalize(raw[0])
	require.NoError(t, err)
	assert.Equal(t, int64(4471), report.ReportID)
	require.NotNil(t, report.ReportName)
	assert.Equal(t, "March trips", *report.ReportName)
	assert.NotEmpty(t, report.Raw)
	require.Len(t, report.Expenses, 2)

	train := report.Expenses[0]
	assert.Equal(t, int64(101), train.ExpenseID)
	assert.Equal(t, "Car, Van and Travel Expenses: Train", train.Category)
	require.NotNil(t, train.Amount)
	assert.Equal(t, 25.5, *train.Amount)
	require.NotNil(t, train.ConvertedAmount)
	assert.Equal(t, 25.5, *train.ConvertedAmount)
	require.NotNil(t, train.Comment)
	assert.Equal(t, "London; Leeds; R", *train.Comment)
	assert.Nil(t, train.UnitCount)
	assert.Nil(t, train.Unit)
	require.NotNil(t, train.CreatedDate)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), *train.CreatedDate)

	fuel := report.Expenses[1]
	assert.Nil(t, fuel.Comment)
	assert.Nil(t, fuel.ConvertedAmount)
	require.NotNil(t, fuel.Amount)
	assert.Equal(t, 10.0, *fuel.Amount)
	require.NotNil(t, fuel.Merchant)
	assert.Equal(t, "Shell Leeds", *fuel.Merchant)
	require.NotNil(t, fuel.UnitCount)
	assert.Equal(t, 20.0, *fuel.UnitCount)
	require.NotNil(t, fuel.UnitRate)
	assert.Equal(t, 0.45, *fuel.UnitRate)
	require.NotNil(t, fuel.Unit)
	assert.Equal(t, "mi", *fuel.Unit)
	require.NotNil(t, fuel.CreatedDate)
	assert.Equal(t, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), *fuel.CreatedDate)
}

func TestNormalizeSkipsBadRows(t *testing.T) {
	report, err := Normalize(RawReport{
		ReportID: "7",
		Expenses: map[string][]string{
			colID:       {"1", "2", ""},
			colCategory: {"Car, Van and Travel Expenses: Air", "Car, Van and Travel Expenses: Air", ""},
			colAmount:   {"1200", "abc", "50"},
		},
	})
	require.NoError(t, err)
	require.Len(t, report.Expenses, 1)
	assert.Equal(t, int64(1), report.Expenses[0].ExpenseID)
	require.NotNil(t, report.Expenses[0].Amount)
	assert.Equal(t, 12.0, *report.Expenses[0].Amount)

	require.Len(t, report.Rejected, 2)
	assert.Equal(t, 1, report.Rejected[0].Index)
	assert.Equal(t, "2", report.Rejected[0].ExpenseID)
	assert.Contains(t, report.Rejected[0].Error(), colAmount)
	assert.Equal(t, 2, report.Rejected[1].Index)
	assert.Contains(t, report.Rejected[1].Error(), colID)
}

func TestNormalizeRejectsBadReportID(t *testing.T) {
	_, err := Normalize(RawReport{ReportID: "x7", Expenses: map[string][]string{colID: {"1"}}})
	require.Error(t, err)
}

func TestNormalizeKeepsFractionalUnitCount(t *testing.T) {
	report, err := Normalize(RawReport{
		ReportID: "8",
		Expenses: map[string][]string{
			colID:        {"5"},
			colUnitCount: {"12.5"},
			colUnit:      {"mi"},
		},
	})
	require.NoError(t, err)
	require.Len(t, report.Expenses, 1)
	require.NotNil(t, report.Expenses[0].UnitCount)
	assert.Equal(t, 12.5, *report.Expenses[0].UnitCount)
}

func TestNormalizeEmptyReport(t *testing.T) {
	report, err := Normalize(RawReport{ReportID: "9", ReportName: " "})
	require.NoError(t, err)
	assert.Nil(t, report.ReportName)
	assert.Empty(t, report.Expenses)
}
