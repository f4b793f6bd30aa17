package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	aggregationdomain "github.com/smallbiznis/canopact/internal/aggregation/domain"
	"gorm.io/gorm"
)

// Every query reads valid journeys only: a carbon row joined to a route that is
// not flagged invalid, dated by the expense.
const journeysFrom = `
 FROM carbon c
 JOIN routes r ON r.expense_id = c.expense_id
 JOIN expenses e ON e.expense_id = c.expense_id
 WHERE %s
   AND r.invalid = ?
   AND e.created_date BETWEEN ? AND ?`

type repo struct{}

func Provide() aggregationdomain.Repository {
	return &repo{}
}

type totalsRow struct {
	CO2e     float64 `gorm:"column:co2e"`
	CO2      float64 `gorm:"column:co2"`
	CH4      float64 `gorm:"column:ch4"`
	N2O      float64 `gorm:"column:n2o"`
	Distance float64 `gorm:"column:distance"`
	Journeys int64   `gorm:"column:journeys"`
}

func (r *repo) SumEmissions(ctx context.Context, db *gorm.DB, userIDs []snowflake.ID, window aggregationdomain.Window) (aggregationdomain.Totals, error) {
	query, args := scoped(
		`SELECT COALESCE(SUM(c.co2e), 0) AS co2e,
		        COALESCE(SUM(c.co2), 0) AS co2,
		        COALESCE(SUM(c.ch4), 0) AS ch4,
		        COALESCE(SUM(c.n2o), 0) AS n2o,
		        COALESCE(SUM(c.distance), 0) AS distance,
		        COUNT(c.id) AS journeys`+journeysFrom,
		userIDs, window,
	)
	var row totalsRow
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&row).Error; err != nil {
		return aggregationdomain.Totals{}, err
	}
	totals := aggregationdomain.Totals{Distance: row.Distance, Journeys: row.Journeys}
	totals.Emissions.CO2e = row.CO2e
	totals.Emissions.CO2 = row.CO2
	totals.Emissions.CH4 = row.CH4
	totals.Emissions.N2O = row.N2O
	return totals, nil
}

// SumCost adds up what the journeys cost in the report currency.
func (r *repo) SumCost(ctx context.Context, db *gorm.DB, userIDs []snowflake.ID, window aggregationdomain.Window) (float64, error) {
	query, args := scoped(
		`SELECT COALESCE(SUM(COALESCE(e.converted_amount, e.amount, 0)), 0) AS cost`+journeysFrom,
		userIDs, window,
	)
	var cost float64
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&cost).Error; err != nil {
		return 0, err
	}
	return cost, nil
}

func (r *repo) ListJourneys(ctx context.Context, db *gorm.DB, userIDs []snowflake.ID, window aggregationdomain.Window) ([]aggregationdomain.Journey, error) {
	query, args := scoped(
		`SELECT c.expense_id, e.created_date, c.category, c.origin, c.destination, c.distance,
		        COALESCE(e.converted_amount, e.amount, 0) AS cost,
		        c.co2e, c.co2, c.ch4, c.n2o`+journeysFrom+`
		 ORDER BY e.created_date ASC, c.expense_id ASC`,
		userIDs, window,
	)
	var rows []aggregationdomain.Journey
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) GroupByTransport(ctx context.Context, db *gorm.DB, userIDs []snowflake.ID, window aggregationdomain.Window) ([]aggregationdomain.GroupRow, error) {
	query, args := scoped(
		`SELECT c.category AS label, COUNT(c.id) AS count, COALESCE(SUM(c.co2e), 0) AS co2e`+journeysFrom+`
		 GROUP BY c.category`,
		userIDs, window,
	)
	var rows []aggregationdomain.GroupRow
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) GroupByRoute(ctx context.Context, db *gorm.DB, userIDs []snowflake.ID, window aggregationdomain.Window) ([]aggregationdomain.GroupRow, error) {
	query, args := scoped(
		`SELECT c.origin, c.destination, COUNT(c.id) AS count, COALESCE(SUM(c.co2e), 0) AS co2e`+journeysFrom+`
		 GROUP BY c.origin, c.destination`,
		userIDs, window,
	)
	var rows []aggregationdomain.GroupRow
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// scoped fills the user filter: a single employee compares by equality, a company
// by membership.
func scoped(query string, userIDs []snowflake.ID, window aggregationdomain.Window) (string, []interface{}) {
	var filter string
	args := make([]interface{}, 0, 4)
	if len(userIDs) == 1 {
		filter = "e.user_id = ?"
		args = append(args, userIDs[0])
	} else {
		filter = "e.user_id IN ?"
		args = append(args, userIDs)
	}
	args = append(args, false, window.Start, window.End)
	return strings.Replace(query, "%s", filter, 1), args
}
