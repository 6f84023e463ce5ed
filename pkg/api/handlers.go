package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// submitThoughtHandler handles POST /api/v1/thoughts.
func (s *Server) submitThoughtHandler(c *gin.Context) {
	var req ThoughtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		status, msg := mapError(NewValidationError("body", err.Error()))
		c.JSON(status, ErrorResponse{Error: msg})
		return
	}

	review, sessionID, err := s.orchestrator.AuditThought(c.Request.Context(), req.toThought(), req.SessionID, req.Config.toSessionConfig())
	if err != nil {
		status, msg := mapError(err)
		c.JSON(status, ErrorResponse{Error: msg})
		return
	}

	c.JSON(http.StatusOK, ThoughtResponse{SessionID: sessionID, Review: review})
}

// getSessionHandler handles GET /api/v1/sessions/:id.
func (s *Server) getSessionHandler(c *gin.Context) {
	id := c.Param("id")
	state, ok := s.sessions.GetSession(id)
	if !ok {
		status, msg := mapError(ErrSessionNotFound)
		c.JSON(status, ErrorResponse{Error: msg})
		return
	}
	c.JSON(http.StatusOK, state)
}
