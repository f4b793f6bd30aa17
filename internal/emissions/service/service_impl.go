package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/canopact/internal/clock"
	emissionsdomain "github.com/smallbiznis/canopact/internal/emissions/domain"
	obslogger "github.com/smallbiznis/canopact/internal/observability/logger"
	"github.com/smallbiznis/canopact/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    emissionsdomain.Repository
	Factors emissionsdomain.FactorProvider
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    emissionsdomain.Repository
	factors emissionsdomain.FactorProvider
	metrics *metrics.Metrics
}

func New(p Params) emissionsdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("emissions.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		factors: p.Factors,
		metrics: p.Metrics,
	}
}

// CalculatePending writes a carbon row for every route that has a distance but no
// footprint yet. An unknown category or a missing factor stops the run: both mean
// the data and the factor table disagree and every later row would be wrong too.
func (s *Service) CalculatePending(ctx context.Context, limit int) (emissionsdomain.CalculateResult, error) {
	if limit <= 0 {
		limit = 100
	}

	pending, err := s.repo.ListPending(ctx, s.db, limit)
	if err != nil {
		return emissionsdomain.CalculateResult{}, err
	}
	result := emissionsdomain.CalculateResult{Selected: len(pending)}
	if len(pending) == 0 {
		return result, nil
	}

	factors := s.factors.Get()
	now := s.clock.Now()
	log := obslogger.WithContext(ctx, s.log)

	for _, row := range pending {
		gases, err := emissionsdomain.Compute(row.Distance, row.Category, factors)
		if err != nil {
			obslogger.WithExpense(log, row.ExpenseID).Error("emissions computation failed",
				zap.String("category", string(row.Category)),
				zap.Float64("distance", row.Distance),
				zap.Error(err),
			)
			return result, fmt.Errorf("expense %d: %w", row.ExpenseID, err)
		}

		carbon := &emissionsdomain.Carbon{
			ID:          s.genID.Generate(),
			ExpenseID:   row.ExpenseID,
			Origin:      row.Origin,
			Destination: row.Destination,
			Category:    row.Category,
			Distance:    row.Distance,
			CO2e:        gases.CO2e,
			CO2:         gases.CO2,
			CH4:         gases.CH4,
			N2O:         gases.N2O,
			CreatedAt:   now,
		}
		if err := s.repo.Upsert(ctx, s.db, carbon); err != nil {
			return result, fmt.Errorf("upsert carbon for expense %d: %w", row.ExpenseID, err)
		}
		result.Created++

		if mode, modeErr := row.Category.Mode(); modeErr == nil {
			s.metrics.RecordCarbonRecord(ctx, string(mode))
		}
	}

	log.Debug("carbon rows written",
		zap.Int("selected", result.Selected),
		zap.Int("created", result.Created),
	)
	return result, nil
}
