package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/smallbiznis/canopact/internal/company/domain"
	"github.com/smallbiznis/canopact/internal/company/repository"
	"github.com/smallbiznis/canopact/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (companydomain.Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t, &companydomain.Company{}, &companydomain.User{})
	svc := New(Params{
		DB:   conn,
		Log:  zap.NewNop(),
		Repo: repository.Provide(),
	})
	return svc, conn
}

func seedCompany(t *testing.T, conn *gorm.DB, id snowflake.ID, trial, subscribed bool, expires *time.Time) {
	t.Helper()
	require.NoError(t, conn.Create(&companydomain.Company{
		ID:             id,
		Name:           "company",
		TrialActive:    trial,
		TrialExpiresAt: expires,
		Subscribed:     subscribed,
		CreatedAt:      testNow,
		UpdatedAt:      testNow,
	}).Error)
	// gorm skips zero-value booleans that carry a default tag.
	require.NoError(t, conn.Model(&companydomain.Company{}).Where("id = ?", id).
		Updates(map[string]any{"trial_active": trial, "subscribed": subscribed}).Error)
}

func seedUser(t *testing.T, conn *gorm.DB, id, companyID snowflake.ID, partner, secret string) {
	t.Helper()
	require.NoError(t, conn.Create(&companydomain.User{
		ID:                         id,
		CompanyID:                  companyID,
		Email:                      "user@example.com",
		ExpensifyPartnerUserID:     partner,
		ExpensifyPartnerUserSecret: secret,
		CreatedAt:                  testNow,
		UpdatedAt:                  testNow,
	}).Error)
}

func timePtr(t time.Time) *time.Time { return &t }

func TestGetUser(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	seedCompany(t, conn, 1, true, false, nil)
	seedUser(t, conn, 10, 1, "", "")

	user, err := svc.GetUser(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(1), user.CompanyID)

	_, err = svc.GetUser(ctx, 11)
	require.ErrorIs(t, err, companydomain.ErrUserNotFound)

	_, err = svc.GetUser(ctx, 0)
	require.ErrorIs(t, err, companydomain.ErrInvalidUser)
}

func TestMemberIDsAndIngestionAccounts(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	seedCompany(t, conn, 1, true, false, nil)
	seedCompany(t, conn, 2, true, false, nil)
	seedUser(t, conn, 11, 1, "partner", "secret")
	seedUser(t, conn, 10, 1, "", "")
	seedUser(t, conn, 20, 2, "other", "")

	members, err := svc.MemberIDs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{10, 11}, members)

	_, err = svc.MemberIDs(ctx, 0)
	require.ErrorIs(t, err, companydomain.ErrInvalidCompany)

	accounts, err := svc.ListIngestionAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.False(t, accounts[0].HasCredentials())
	assert.True(t, accounts[1].HasCredentials())
	assert.Equal(t, "partner", accounts[1].PartnerUserID)
	assert.False(t, accounts[2].HasCredentials())
}

func TestTrialActiveGate(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	seedCompany(t, conn, 1, true, false, nil)
	seedCompany(t, conn, 2, false, true, nil)
	seedCompany(t, conn, 3, false, false, nil)

	for id, want := range map[snowflake.ID]bool{1: true, 2: true, 3: false} {
		got, err := svc.TrialActive(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got, "company %d", id)
	}

	_, err := svc.TrialActive(ctx, 4)
	require.ErrorIs(t, err, companydomain.ErrNotFound)
}

func TestExpireTrials(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	seedCompany(t, conn, 1, true, false, timePtr(testNow.Add(-time.Hour)))
	seedCompany(t, conn, 2, true, false, timePtr(testNow.Add(time.Hour)))
	seedCompany(t, conn, 3, true, false, nil)

	expired, err := svc.ExpireTrials(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	active, err := svc.TrialActive(ctx, 1)
	require.NoError(t, err)
	assert.False(t, active)
	active, err = svc.TrialActive(ctx, 2)
	require.NoError(t, err)
	assert.True(t, active)

	again, err := svc.ExpireTrials(ctx, testNow)
	require.NoError(t, err)
	assert.Zero(t, again)
}
