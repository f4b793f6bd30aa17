package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/smallbiznis/canopact/internal/company/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo companydomain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo companydomain.Repository
}

func New(p Params) companydomain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("company.service"),
		repo: p.Repo,
	}
}

func (s *Service) GetUser(ctx context.Context, userID snowflake.ID) (*companydomain.User, error) {
	if userID == 0 {
		return nil, companydomain.ErrInvalidUser
	}
	user, err := s.repo.FindUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, companydomain.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) MemberIDs(ctx context.Context, companyID snowflake.ID) ([]snowflake.ID, error) {
	if companyID == 0 {
		return nil, companydomain.ErrInvalidCompany
	}
	return s.repo.ListMemberIDs(ctx, s.db, companyID)
}

func (s *Service) ListIngestionAccounts(ctx context.Context) ([]companydomain.IngestionAccount, error) {
	return s.repo.ListIngestionAccounts(ctx, s.db)
}

// TrialActive is the subscription gate: paying companies always pass, others only
// while their free trial is running.
func (s *Service) TrialActive(ctx context.Context, companyID snowflake.ID) (bool, error) {
	if companyID == 0 {
		return false, companydomain.ErrInvalidCompany
	}
	company, err := s.repo.FindCompany(ctx, s.db, companyID)
	if err != nil {
		return false, err
	}
	if company == nil {
		return false, companydomain.ErrNotFound
	}
	return company.Subscribed || company.TrialActive, nil
}

func (s *Service) ExpireTrials(ctx context.Context, now time.Time) (int64, error) {
	expired, err := s.repo.ExpireTrials(ctx, s.db, now.UTC())
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.log.Info("free trials expired", zap.Int64("count", expired))
	}
	return expired, nil
}
