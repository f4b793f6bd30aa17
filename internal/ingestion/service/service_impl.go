package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/canopact/internal/clock"
	companydomain "github.com/smallbiznis/canopact/internal/company/domain"
	"github.com/smallbiznis/canopact/internal/config"
	expensedomain "github.com/smallbiznis/canopact/internal/expense/domain"
	ingestiondomain "github.com/smallbiznis/canopact/internal/ingestion/domain"
	obslogger "github.com/smallbiznis/canopact/internal/observability/logger"
	"github.com/smallbiznis/canopact/internal/observability/metrics"
	"github.com/smallbiznis/canopact/internal/providers/expensify"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

type Params struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	Config     config.Config
	CompanySvc companydomain.Service
	ExpenseSvc expensedomain.Service
	Provider   expensify.Provider
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	log            *zap.Logger
	clock          clock.Clock
	companySvc     companydomain.Service
	expenseSvc     expensedomain.Service
	provider       expensify.Provider
	metrics        *metrics.Metrics
	lookbackMonths int
	concurrency    int
}

func New(p Params) ingestiondomain.Service {
	lookback := p.Config.Expensify.LookbackMonths
	if lookback <= 0 {
		lookback = 6
	}
	concurrency := p.Config.Expensify.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Service{
		log:            p.Log.Named("ingestion.service"),
		clock:          p.Clock,
		companySvc:     p.CompanySvc,
		expenseSvc:     p.ExpenseSvc,
		provider:       p.Provider,
		metrics:        p.Metrics,
		lookbackMonths: lookback,
		concurrency:    concurrency,
	}
}

// Ingest pulls recent reports for every account. An account without credentials is
// skipped and a failing account does not stop the others; their errors are joined.
func (s *Service) Ingest(ctx context.Context) (ingestiondomain.IngestResult, error) {
	result := ingestiondomain.IngestResult{RunID: ulid.Make().String()}
	log := obslogger.WithContext(ctx, s.log).With(zap.String("sync_run_id", result.RunID))

	accounts, err := s.companySvc.ListIngestionAccounts(ctx)
	if err != nil {
		return result, err
	}
	result.Accounts = len(accounts)
	since := s.clock.Now().AddDate(0, -s.lookbackMonths, 0)

	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, account := range accounts {
		account := account
		accountLog := log.With(zap.String("user_id", account.UserID.String()))
		if !account.HasCredentials() {
			accountLog.Warn("skipping account without expensify credentials")
			result.Skipped++
			continue
		}

		g.Go(func() error {
			reports, expenses, err := s.ingestAccount(gctx, account, since)
			mu.Lock()
			defer mu.Unlock()
			result.Reports += reports
			result.Expenses += expenses
			if err != nil {
				accountLog.Error("account ingestion failed", zap.Error(err))
				result.Failed++
				errs = append(errs, fmt.Errorf("user %s: %w", account.UserID, err))
			}
			return nil
		})
	}
	_ = g.Wait()

	log.Info("ingestion finished",
		zap.Int("accounts", result.Accounts),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Int("reports", result.Reports),
		zap.Int("expenses", result.Expenses),
	)
	return result, errors.Join(errs...)
}

func (s *Service) ingestAccount(ctx context.Context, account companydomain.IngestionAccount, since time.Time) (int, int, error) {
	reports, err := s.provider.Reports(ctx, expensify.Credentials{
		PartnerUserID:     account.PartnerUserID,
		PartnerUserSecret: account.PartnerUserSecret,
	}, since)
	if err != nil {
		return 0, 0, err
	}

	var stored, expenses int
	for _, report := range reports {
		resp, err := s.expenseSvc.UpsertReport(ctx, expensedomain.UpsertReportRequest{
			UserID:     account.UserID,
			ReportID:   report.ReportID,
			ReportName: report.ReportName,
			Raw:        json.RawMessage(report.Raw),
			Expenses:   report.Expenses,
		})
		if err != nil {
			return stored, expenses, fmt.Errorf("report %d: %w", report.ReportID, err)
		}
		stored++
		expenses += resp.ExpenseCount
		s.metrics.RecordExpensesIngested(ctx, resp.ExpenseCount)
	}
	return stored, expenses, nil
}
