package expensify

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	expensedomain "github.com/smallbiznis/canopact/internal/expense/domain"
)

const dateLayout = "2006-01-02"

// Column keys produced by reportTemplate.
const (
	colID              = "expense_id"
	colType            = "expense_type"
	colCategory        = "expense_category"
	colAmount          = "expense_amount"
	colCurrency        = "expense_currency"
	colComment         = "expense_comment"
	colConvertedAmount = "expense_converted_amount"
	colCreated         = "expense_created_date"
	colMerchant        = "expense_merchant"
	colModifiedAmount  = "expense_modified_amount"
	colModifiedCreated = "expense_modified_created_date"
	colModifiedMerch   = "expense_modified_merchant"
	colUnitCount       = "expense_unit_count"
	colUnitRate        = "expense_unit_rate"
	colUnit            = "expense_unit_unit"
)

// RawReport is one report as rendered by the export template.
type RawReport struct {
	ReportID   json.Number         `json:"report_id"`
	ReportName string              `json:"report_name"`
	PolicyID   string              `json:"report_policy_id"`
	Expenses   map[string][]string `json:"report_expenses"`
}

// Report is a normalized report ready to be stored.
type Report struct {
	ReportID   int64
	ReportName *string
	Raw        json.RawMessage
	Expenses   []expensedomain.ExpenseInput
	// Rejected rows could not be converted and are left out of Expenses.
	Rejected []RowError
}

// RowError is one expense row that failed conversion.
type RowError struct {
	Index     int
	ExpenseID string
	Err       error
}

func (e RowError) Error() string {
	return fmt.Sprintf("expense %d (%s): %v", e.Index, e.ExpenseID, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Normalize turns the column arrays of a report into typed expense rows. Blank
// cells become nil and amounts move from minor to major units. A bad row is
// recorded in Rejected; only a bad report id fails the whole report.
func Normalize(raw RawReport) (Report, error) {
	reportID, err := raw.ReportID.Int64()
	if err != nil {
		return Report{}, fmt.Errorf("report_id %q: %w", raw.ReportID, err)
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return Report{}, err
	}
	report := Report{
		ReportID:   reportID,
		ReportName: nullable(raw.ReportName),
		Raw:        encoded,
	}

	count := len(raw.Expenses[colID])
	report.Expenses = make([]expensedomain.ExpenseInput, 0, count)
	for i := 0; i < count; i++ {
		row, err := normalizeRow(raw.Expenses, i)
		if err != nil {
			report.Rejected = append(report.Rejected, RowError{
				Index:     i,
				ExpenseID: rawCell(raw.Expenses, colID, i),
				Err:       err,
			})
			continue
		}
		report.Expenses = append(report.Expenses, row)
	}
	return report, nil
}

func normalizeRow(cols map[string][]string, i int) (expensedomain.ExpenseInput, error) {
	cell := func(key string) *string {
		values := cols[key]
		if i >= len(values) {
			return nil
		}
		return nullable(values[i])
	}

	var in expensedomain.ExpenseInput
	id, err := parseInt(cell(colID))
	if err != nil {
		return in, fmt.Errorf("%s: %w", colID, err)
	}
	if id == nil {
		return in, fmt.Errorf("%s: missing", colID)
	}
	in.ExpenseID = *id

	in.ExpenseType = cell(colType)
	if category := cell(colCategory); category != nil {
		in.Category = *category
	}
	in.Currency = cell(colCurrency)
	in.Comment = cell(colComment)
	in.Merchant = firstNonNil(cell(colModifiedMerch), cell(colMerchant))
	in.Unit = cell(colUnit)

	for _, f := range []struct {
		key string
		dst **float64
	}{
		{colAmount, &in.Amount},
		{colConvertedAmount, &in.ConvertedAmount},
		{colUnitRate, &in.UnitRate},
	} {
		v, err := parseMinor(cell(f.key))
		if err != nil {
			return in, fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = v
	}
	modified, err := parseMinor(cell(colModifiedAmount))
	if err != nil {
		return in, fmt.Errorf("%s: %w", colModifiedAmount, err)
	}
	if modified != nil {
		in.Amount = modified
	}

	count, err := parseFloat(cell(colUnitCount))
	if err != nil {
		return in, fmt.Errorf("%s: %w", colUnitCount, err)
	}
	in.UnitCount = count

	created, err := parseDate(firstNonNil(cell(colModifiedCreated), cell(colCreated)))
	if err != nil {
		return in, fmt.Errorf("%s: %w", colCreated, err)
	}
	in.CreatedDate = created
	return in, nil
}

func rawCell(cols map[string][]string, key string, i int) string {
	if values := cols[key]; i < len(values) {
		return values[i]
	}
	return ""
}

func nullable(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}

func firstNonNil(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// parseInt accepts "12" and "12.0"; ids sometimes come back as decimals.
func parseInt(v *string) (*int64, error) {
	if v == nil {
		return nil, nil
	}
	raw := strings.TrimSpace(*v)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return &n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	n := int64(f)
	return &n, nil
}

func parseFloat(v *string) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(*v), 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func parseMinor(v *string) (*float64, error) {
	f, err := parseFloat(v)
	if err != nil || f == nil {
		return nil, err
	}
	major := *f / 100
	return &major, nil
}

func parseDate(v *string) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	raw := strings.TrimSpace(*v)
	if len(raw) > len(dateLayout) {
		raw = raw[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
