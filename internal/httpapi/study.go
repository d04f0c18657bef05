package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mycally/internal/auth"
	"mycally/internal/studygen"
)

func (s *Server) summary(c *gin.Context) { s.studyStream(c, studygen.KindSummary) }

func (s *Server) quiz(c *gin.Context) { s.studyStream(c, studygen.KindQuiz) }

// studyStream generates from either a stored document (?documentId=) or the
// first uploaded file. Results for stored documents are saved; a failed save
// is logged only.
func (s *Server) studyStream(c *gin.Context, kind studygen.Kind) {
	if s.Generator == nil || !s.Generator.Available() {
		unavailable(c, "model")
		return
	}
	docID := strings.TrimSpace(c.Query("documentId"))

	var file studygen.File
	if docID != "" {
		if s.Library == nil {
			unavailable(c, "library")
			return
		}
		doc, data, err := s.Library.LoadDocumentFile(c.Request.Context(), auth.UserID(c), docID)
		if err != nil {
			s.fail(c, err)
			return
		}
		file = studygen.File{Name: doc.FileName, MIMEType: doc.FileType, Data: data}
	} else {
		var req struct {
			Files []fileBody `json:"files"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || len(req.Files) == 0 {
			badRequest(c, "a file or documentId is required")
			return
		}
		f, err := req.Files[0].decode(s.MaxUploadBytes)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		file = studygen.File{Name: f.Name, MIMEType: f.MIMEType, Data: f.Data}
	}

	st := newStream(c)
	content, err := s.Generator.Stream(c.Request.Context(), kind, file, st.delta)
	if err != nil {
		st.fail(s, err)
		return
	}

	result := gin.H{"kind": kind, "content": content}
	if kind == studygen.KindQuiz {
		result["title"] = studygen.QuizTitle(file.Name)
	}
	if docID != "" {
		if saved, err := s.Library.SaveGenerated(c.Request.Context(), docID, string(kind), content); err != nil {
			s.log.Error("failed to save generated content", "document_id", docID, "kind", string(kind), "error", err)
		} else {
			result["contentId"] = saved.ID
		}
	}
	_ = st.send("result", result)
}

func (s *Server) quizTitle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"title": studygen.QuizTitle(c.Query("file"))})
}
