package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mycally/internal/auth"
	"mycally/internal/chat"
)

// chat streams the assistant reply as delta events followed by done.
func (s *Server) chat(c *gin.Context) {
	if s.Chats == nil {
		unavailable(c, "chat")
		return
	}
	var req chat.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	st := newStream(c)
	reply, err := s.Chats.Respond(c.Request.Context(), auth.UserID(c), req, st.delta)
	if err != nil {
		st.fail(s, err)
		return
	}
	_ = st.send("done", gin.H{"id": reply.ChatID, "reply": reply.Text})
}

func (s *Server) deleteChat(c *gin.Context) {
	if s.Chats == nil {
		unavailable(c, "chat")
		return
	}
	if err := s.Chats.Delete(c.Request.Context(), auth.UserID(c), c.Query("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Chat deleted"})
}

func (s *Server) history(c *gin.Context) {
	if s.Chats == nil {
		unavailable(c, "chat")
		return
	}
	chats, err := s.Chats.History(c.Request.Context(), auth.UserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chats)
}
