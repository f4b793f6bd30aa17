package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	routedomain "github.com/smallbiznis/canopact/internal/route/domain"
)

type editRouteRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Return      bool   `json:"return"`
}

// ListCleanerRoutes lists the routes of everyone in the user's company that need a
// human correction.
func (s *Server) ListCleanerRoutes(c *gin.Context) {
	userID, err := parseSnowflakeID(c.Param("userId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var query struct {
		Sort      string `form:"sort"`
		Direction string `form:"direction"`
		Query     string `form:"q"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, err := s.lookupUser(c, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	ctx := c.Request.Context()
	members, err := s.companySvc.MemberIDs(ctx, user.CompanyID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rows, err := s.routeSvc.ListForCleaning(ctx, routedomain.CleanerFilter{
		UserIDs:   members,
		Sort:      query.Sort,
		Direction: routedomain.SortDirection(query.Direction),
		Query:     query.Query,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// EditRoute applies a cleaner correction to a route owned by someone in the
// caller's company.
func (s *Server) EditRoute(c *gin.Context) {
	userID, err := parseSnowflakeID(c.Param("userId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	expenseID, err := parseExpenseID(c.Param("expenseId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req editRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, err := s.lookupUser(c, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	ctx := c.Request.Context()
	members, err := s.companySvc.MemberIDs(ctx, user.CompanyID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	route, err := s.routeSvc.Edit(ctx, routedomain.EditRequest{
		UserIDs:     members,
		ExpenseID:   expenseID,
		Origin:      req.Origin,
		Destination: req.Destination,
		Return:      req.Return,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": route})
}
