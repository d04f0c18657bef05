package httpapi

import (
	"github.com/gin-gonic/gin"
)

// stream writes server-sent events. Headers go out with the first event so a
// failure before any output can still be answered with a JSON error.
type stream struct {
	c       *gin.Context
	started bool
}

func newStream(c *gin.Context) *stream { return &stream{c: c} }

func (st *stream) start() {
	if st.started {
		return
	}
	st.started = true
	h := st.c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	st.c.Status(200)
}

// send writes one event. It reports the request context error once the
// client is gone so producers stop.
func (st *stream) send(event string, data any) error {
	st.start()
	st.c.SSEvent(event, data)
	st.c.Writer.Flush()
	return st.c.Request.Context().Err()
}

// delta is the onDelta callback for model streams.
func (st *stream) delta(text string) error {
	return st.send("delta", gin.H{"text": text})
}

// fail reports err as an error event when streaming started, else as JSON.
func (st *stream) fail(s *Server, err error) {
	if !st.started {
		s.fail(st.c, err)
		return
	}
	s.log.Warn("stream failed", "path", st.c.FullPath(), "error", err)
	_ = st.send("error", gin.H{"error": err.Error()})
}
