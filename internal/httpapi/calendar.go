package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mycally/internal/calendar"
	"mycally/internal/canvas"
	"mycally/internal/priority"
)

const maxJSONBody = 2 << 20

// canvas proxies /api/canvas/* to the Canvas API. The assignments path is
// served from the aggregator instead.
func (s *Server) canvas(c *gin.Context) {
	path := strings.Trim(c.Param("path"), "/")
	if path == "assignments" {
		s.assignments(c)
		return
	}
	if s.Canvas == nil {
		respondError(c, http.StatusInternalServerError, "canvas_unconfigured", "No Canvas API token configured")
		return
	}
	if path == "" || strings.Contains(path, "..") {
		badRequest(c, "invalid Canvas path")
		return
	}
	body, err := s.Canvas.Get(c.Request.Context(), path, c.Request.URL.Query())
	if err != nil {
		s.canvasFail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (s *Server) assignments(c *gin.Context) {
	if s.Assignments == nil {
		respondError(c, http.StatusInternalServerError, "canvas_unconfigured", "No Canvas API token configured")
		return
	}
	list, err := s.Assignments.Upcoming(c.Request.Context())
	if err != nil {
		s.aggregateFail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) canvasFail(c *gin.Context, err error) {
	var se *canvas.StatusError
	switch {
	case errors.Is(err, canvas.ErrNotConfigured):
		respondError(c, http.StatusInternalServerError, "canvas_unconfigured", "No Canvas API token configured")
	case errors.As(err, &se):
		s.log.Warn("canvas request failed", "status", se.Status, "path", c.Param("path"))
		respondError(c, se.Status, "canvas_error", fmt.Sprintf("Canvas API returned %d", se.Status))
	default:
		s.log.Error("canvas request failed", "error", err)
		respondError(c, http.StatusInternalServerError, "canvas_error", "Failed to fetch Canvas data: "+err.Error())
	}
}

// aggregateFail answers 500 for every aggregation failure. Canvas statuses
// stay internal; only the raw proxy passes them through.
func (s *Server) aggregateFail(c *gin.Context, err error) {
	if errors.Is(err, canvas.ErrNotConfigured) {
		respondError(c, http.StatusInternalServerError, "canvas_unconfigured", "No Canvas API token configured")
		return
	}
	if errors.Is(err, context.Canceled) {
		c.Abort()
		return
	}
	s.log.Error("canvas aggregation failed", "error", err)
	respondError(c, http.StatusInternalServerError, "canvas_error", "Failed to fetch Canvas assignments: "+err.Error())
}

// calendarPriorities classifies posted assignments and returns them with
// their calendar events.
func (s *Server) calendarPriorities(c *gin.Context) {
	if s.Prioritizer == nil || s.Materializer == nil {
		unavailable(c, "prioritizer")
		return
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxJSONBody))
	if err != nil {
		badRequest(c, "could not read request body")
		return
	}
	var list []canvas.ProcessedAssignment
	if err := json.Unmarshal(raw, &list); err != nil || list == nil {
		badRequest(c, "Invalid request body. Expected an array of assignments.")
		return
	}
	if len(list) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"prioritizedAssignments": []priority.PrioritizedAssignment{},
			"calendarEvents":         []calendar.Event{},
			"message":                "No assignments to prioritize.",
		})
		return
	}

	list = canvas.Refresh(list, s.Now())
	prioritized, result := s.Prioritizer.Prioritize(c.Request.Context(), list)
	events := s.Materializer.FromAssignments(prioritized)
	c.JSON(http.StatusOK, gin.H{
		"prioritizedAssignments": prioritized,
		"calendarEvents":         events,
		"source":                 result.Outcome.String(),
		"message":                fmt.Sprintf("Successfully prioritized %d assignments and created %d calendar events.", len(list), len(events)),
	})
}

// calendarEvents runs fetch, classify and materialize in one call.
func (s *Server) calendarEvents(c *gin.Context) {
	if s.Assignments == nil || s.Prioritizer == nil || s.Materializer == nil {
		unavailable(c, "calendar pipeline")
		return
	}
	list, err := s.Assignments.Upcoming(c.Request.Context())
	if err != nil {
		s.aggregateFail(c, err)
		return
	}
	prioritized, result := s.Prioritizer.Prioritize(c.Request.Context(), list)
	c.JSON(http.StatusOK, gin.H{
		"events":         s.Materializer.FromAssignments(prioritized),
		"rawAssignments": list,
		"source":         result.Outcome.String(),
	})
}
