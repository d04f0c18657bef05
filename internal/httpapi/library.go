package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mycally/internal/auth"
	"mycally/internal/jobs"
	"mycally/internal/library"
	"mycally/internal/studygen"
)

func (s *Server) listFolders(c *gin.Context) {
	if s.Library == nil {
		unavailable(c, "library")
		return
	}
	folders, err := s.Library.ListFolders(c.Request.Context(), auth.UserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders})
}

func (s *Server) createFolder(c *gin.Context) {
	if s.Library == nil {
		unavailable(c, "library")
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	folder, err := s.Library.CreateFolder(c.Request.Context(), auth.UserID(c), req.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"folder": folder})
}

func (s *Server) getFolder(c *gin.Context) {
	if s.Library == nil {
		unavailable(c, "library")
		return
	}
	detail, err := s.Library.GetFolder(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"folder": detail.Folder, "documents": detail.Documents})
}

func (s *Server) deleteFolder(c *gin.Context) {
	if s.Library == nil {
		unavailable(c, "library")
		return
	}
	if err := s.Library.DeleteFolder(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// uploadDocument accepts a multipart "file" field.
func (s *Server) uploadDocument(c *gin.Context) {
	if s.Library == nil {
		unavailable(c, "library")
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}
	if fh.Size > s.MaxUploadBytes {
		badRequest(c, fmt.Sprintf("File size should be less than %d MB", s.MaxUploadBytes>>20))
		return
	}
	src, err := fh.Open()
	if err != nil {
		badRequest(c, "could not read upload")
		return
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, s.MaxUploadBytes+1))
	if err != nil {
		badRequest(c, "could not read upload")
		return
	}
	doc, err := s.Library.UploadDocument(c.Request.Context(), auth.UserID(c), c.Param("id"), library.Upload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"document": doc})
}

func (s *Server) getDocument(c *gin.Context) {
	if s.Library == nil {
		unavailable(c, "library")
		return
	}
	doc, err := s.Library.GetDocument(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc})
}

// generate queues a background job for the worker and points the client at
// the streaming endpoint for the same kind.
func (s *Server) generate(c *gin.Context) {
	if s.Library == nil || s.Queue == nil {
		unavailable(c, "generation")
		return
	}
	doc, err := s.Library.GetDocument(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	var req struct {
		ContentType string `json:"contentType"`
	}
	_ = c.ShouldBindJSON(&req)
	kind, ok := studygen.ParseKind(req.ContentType)
	if !ok {
		badRequest(c, "Invalid content type. Must be 'summary' or 'quiz'")
		return
	}
	job, err := jobs.Enqueue(c.Request.Context(), s.Queue, jobs.GenerateJob{
		DocumentID: doc.ID,
		UserID:     doc.UserID,
		Kind:       kind,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	redirect := "/api/summary?documentId=" + doc.ID
	if kind == studygen.KindQuiz {
		redirect = "/api/quizzes?documentId=" + doc.ID
	}
	c.JSON(http.StatusAccepted, gin.H{"redirectUrl": redirect, "jobId": job.JobID})
}

func (s *Server) listGenerated(c *gin.Context) {
	if s.Library == nil {
		unavailable(c, "library")
		return
	}
	docID := strings.TrimSpace(c.Query("documentId"))
	if docID == "" {
		badRequest(c, "Document ID is required")
		return
	}
	items, err := s.Library.ListGenerated(c.Request.Context(), auth.UserID(c), docID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"generatedContent": items})
}

func (s *Server) getGenerated(c *gin.Context) {
	if s.Library == nil {
		unavailable(c, "library")
		return
	}
	detail, err := s.Library.GetGenerated(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contentItem": detail.GeneratedContent, "documentInfo": detail.Document})
}
