package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	aggregationdomain "github.com/smallbiznis/canopact/internal/aggregation/domain"
	companydomain "github.com/smallbiznis/canopact/internal/company/domain"
	obscontext "github.com/smallbiznis/canopact/internal/observability/context"
)

// GetDashboard serves the KPI, chart and table dictionaries for one user at the
// requested granularity. Companies without a subscription or running trial get 402.
func (s *Server) GetDashboard(c *gin.Context) {
	userID, err := parseSnowflakeID(c.Param("userId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	granularity, err := aggregationdomain.ParseGranularity(c.Param("agg"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	date, err := parseOptionalDate(c.Query("date"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	ref := s.clock.Now().UTC()
	if date != nil {
		ref = *date
	}

	user, err := s.lookupUser(c, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	ctx := c.Request.Context()
	active, err := s.companySvc.TrialActive(ctx, user.CompanyID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !active {
		AbortWithError(c, ErrTrialExpired)
		return
	}

	resp, err := s.aggregationSvc.Dashboard(ctx, aggregationdomain.DashboardRequest{
		Subject:     aggregationdomain.Subject{UserID: user.ID, CompanyID: user.CompanyID},
		Granularity: granularity,
		Date:        ref,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// lookupUser loads the caller and tags the request context with their company so
// downstream logs carry company_id.
func (s *Server) lookupUser(c *gin.Context, userID snowflake.ID) (*companydomain.User, error) {
	user, err := s.companySvc.GetUser(c.Request.Context(), userID)
	if err != nil {
		return nil, err
	}
	ctx := obscontext.WithCompanyID(c.Request.Context(), user.CompanyID.String())
	c.Request = c.Request.WithContext(ctx)
	return user, nil
}
