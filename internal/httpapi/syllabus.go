package httpapi

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mycally/internal/auth"
	"mycally/internal/syllabus"
)

const noEventsMessage = "No events were found in the syllabus. Try a document that lists dates for exams, assignments or deadlines."

// processSyllabus streams the model output as delta events and finishes with
// a result event, or an info event when nothing dated was found.
func (s *Server) processSyllabus(c *gin.Context) {
	if s.Extractor == nil || s.Materializer == nil {
		unavailable(c, "syllabus extraction")
		return
	}
	var req struct {
		File fileBody `json:"file"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	f, err := req.File.decode(s.MaxUploadBytes)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	st := newStream(c)
	ex, err := s.Extractor.Extract(c.Request.Context(), syllabus.File{Name: f.Name, MIMEType: f.MIMEType, Data: f.Data}, st.delta)
	if err != nil {
		st.fail(s, err)
		return
	}
	if len(ex.Events) == 0 {
		_ = st.send("info", gin.H{"message": noEventsMessage, "source": ex.Source})
		return
	}

	calendarEvents := s.Materializer.FromSyllabusEvents(ex.Events)
	s.storeProcessed(c, f)
	_ = st.send("result", gin.H{
		"events":         ex.Events,
		"calendarEvents": calendarEvents,
		"courseCode":     ex.CourseCode,
		"courseName":     ex.CourseName,
		"instructor":     ex.Instructor,
		"term":           ex.Term,
		"source":         ex.Source,
		"dropped":        ex.Dropped,
		"message":        fmt.Sprintf("Found %d events in the syllabus.", len(ex.Events)),
	})
}

// storeProcessed keeps a successfully processed syllabus in the user's slot.
func (s *Server) storeProcessed(c *gin.Context, f decodedFile) {
	if s.Slots == nil {
		return
	}
	slot := syllabus.Slot{
		Content:  base64.StdEncoding.EncodeToString(f.Data),
		Metadata: syllabus.Metadata{Filename: f.Name, UploadedAt: s.Now().UTC(), HasEvents: true},
	}
	if err := s.Slots.Put(c.Request.Context(), auth.UserID(c), slot); err != nil {
		s.log.Warn("failed to store processed syllabus", "error", err)
	}
}

func (s *Server) putSyllabus(c *gin.Context) {
	if s.Slots == nil {
		unavailable(c, "syllabus store")
		return
	}
	var req struct {
		Filename  string `json:"filename"`
		Data      string `json:"data"`
		HasEvents bool   `json:"hasEvents"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	f, err := fileBody{Name: req.Filename, Data: req.Data}.decode(s.MaxUploadBytes)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if strings.TrimSpace(f.Name) == "" {
		badRequest(c, "filename is required")
		return
	}
	meta := syllabus.Metadata{Filename: f.Name, UploadedAt: s.Now().UTC(), HasEvents: req.HasEvents}
	slot := syllabus.Slot{Content: base64.StdEncoding.EncodeToString(f.Data), Metadata: meta}
	if err := s.Slots.Put(c.Request.Context(), auth.UserID(c), slot); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"metadata": meta})
}

func (s *Server) getSyllabus(c *gin.Context) {
	if s.Slots == nil {
		unavailable(c, "syllabus store")
		return
	}
	slot, err := s.Slots.Get(c.Request.Context(), auth.UserID(c))
	if err != nil {
		if errors.Is(err, syllabus.ErrSlotEmpty) {
			respondError(c, http.StatusNotFound, "not_found", "no stored syllabus")
			return
		}
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": syllabus.PDFDataURL(slot.Content), "metadata": slot.Metadata})
}

func (s *Server) deleteSyllabus(c *gin.Context) {
	if s.Slots == nil {
		unavailable(c, "syllabus store")
		return
	}
	if err := s.Slots.Delete(c.Request.Context(), auth.UserID(c)); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
