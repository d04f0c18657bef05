package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mycally/internal/account"
)

func (s *Server) register(c *gin.Context) {
	if s.Accounts == nil {
		unavailable(c, "accounts")
		return
	}
	var in account.Credentials
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	sess, err := s.Accounts.Register(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (s *Server) login(c *gin.Context) {
	if s.Accounts == nil {
		unavailable(c, "accounts")
		return
	}
	var in account.Credentials
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	sess, err := s.Accounts.Login(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) refresh(c *gin.Context) {
	if s.Accounts == nil {
		unavailable(c, "accounts")
		return
	}
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "refreshToken is required")
		return
	}
	sess, err := s.Accounts.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}
