// Package httpapi exposes the calendar, syllabus, study and library
// operations over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"mycally/internal/account"
	"mycally/internal/auth"
	"mycally/internal/calendar"
	"mycally/internal/canvas"
	"mycally/internal/chat"
	"mycally/internal/httpmiddleware"
	"mycally/internal/library"
	"mycally/internal/logger"
	"mycally/internal/observability"
	"mycally/internal/priority"
	"mycally/internal/queue"
	"mycally/internal/studygen"
	"mycally/internal/syllabus"
)

type Accounts interface {
	Register(ctx context.Context, in account.Credentials) (account.Session, error)
	Login(ctx context.Context, in account.Credentials) (account.Session, error)
	Refresh(ctx context.Context, refreshToken string) (account.Session, error)
}

type Chats interface {
	Respond(ctx context.Context, userID string, req chat.Request, onDelta func(string) error) (chat.Reply, error)
	Delete(ctx context.Context, userID, id string) error
	History(ctx context.Context, userID string) ([]chat.Chat, error)
}

// CanvasProxy forwards raw GETs to the Canvas API.
type CanvasProxy interface {
	Get(ctx context.Context, path string, query url.Values) ([]byte, error)
}

type Assignments interface {
	Upcoming(ctx context.Context) ([]canvas.ProcessedAssignment, error)
}

type Prioritizer interface {
	Prioritize(ctx context.Context, list []canvas.ProcessedAssignment) ([]priority.PrioritizedAssignment, priority.Result)
}

type Extractor interface {
	Extract(ctx context.Context, f syllabus.File, onDelta func(string) error) (syllabus.Extraction, error)
}

type Generator interface {
	Available() bool
	Stream(ctx context.Context, kind studygen.Kind, f studygen.File, onDelta func(string) error) (json.RawMessage, error)
}

type Library interface {
	CreateFolder(ctx context.Context, userID, name string) (library.Folder, error)
	ListFolders(ctx context.Context, userID string) ([]library.Folder, error)
	GetFolder(ctx context.Context, userID, id string) (library.FolderDetail, error)
	DeleteFolder(ctx context.Context, userID, id string) error
	UploadDocument(ctx context.Context, userID, folderID string, up library.Upload) (library.Document, error)
	GetDocument(ctx context.Context, userID, id string) (library.Document, error)
	LoadDocumentFile(ctx context.Context, userID, id string) (library.Document, []byte, error)
	SaveGenerated(ctx context.Context, documentID, contentType string, content json.RawMessage) (library.GeneratedContent, error)
	ListGenerated(ctx context.Context, userID, documentID string) ([]library.GeneratedContent, error)
	GetGenerated(ctx context.Context, userID, id string) (library.GeneratedDetail, error)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) bool

// Deps wires the handlers. Nil services leave their routes answering 503.
type Deps struct {
	Log          *logger.Logger
	Signer       *auth.Signer
	Accounts     Accounts
	Chats        Chats
	Canvas       CanvasProxy
	Assignments  Assignments
	Prioritizer  Prioritizer
	Materializer *calendar.Materializer
	Extractor    Extractor
	Slots        syllabus.SlotStore
	Generator    Generator
	Library      Library
	Queue        queue.Queue
	Metrics      *observability.Metrics
	Health       map[string]HealthCheck

	RateLimitPerMin int
	MaxUploadBytes  int64
	CORSOrigins     []string
	// TracingService enables otelgin spans under this name when non-empty.
	TracingService string
	Now            func() time.Time
}

// Server holds the handler dependencies.
type Server struct {
	Deps
	log *logger.Logger
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = library.DefaultMaxUploadSize
	}
	if d.RateLimitPerMin <= 0 {
		d.RateLimitPerMin = 120
	}
	s := &Server{Deps: d, log: d.Log.With("service", "HTTP")}

	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(gin.Recovery())
	if d.TracingService != "" {
		r.Use(otelgin.Middleware(d.TracingService))
	}
	r.Use(httpmiddleware.AttachTraceContext())
	r.Use(httpmiddleware.RequestLogger(d.Log, "/healthz", "/metrics"))
	r.Use(httpmiddleware.Metrics(d.Metrics))
	r.Use(corsMiddleware(d.CORSOrigins))
	r.Use(httpmiddleware.SecurityHeaders())

	r.GET("/healthz", s.health)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	ipLimit := httpmiddleware.NewTokenBucket(d.RateLimitPerMin, d.RateLimitPerMin).GinMiddleware(httpmiddleware.ClientIP)
	pub := r.Group("/api/auth", ipLimit)
	{
		pub.POST("/register", s.register)
		pub.POST("/login", s.login)
		pub.POST("/refresh", s.refresh)
	}

	userLimit := httpmiddleware.NewTokenBucket(d.RateLimitPerMin, d.RateLimitPerMin).GinMiddleware(auth.UserID)
	api := r.Group("/api", auth.RequireUser(d.Signer), userLimit)
	{
		api.POST("/chat", s.chat)
		api.DELETE("/chat", s.deleteChat)
		api.GET("/history", s.history)

		api.GET("/canvas/*path", s.canvas)
		api.POST("/calendar-priorities", s.calendarPriorities)
		api.GET("/calendar/events", s.calendarEvents)

		api.POST("/syllabus/process", s.processSyllabus)
		api.PUT("/syllabus", s.putSyllabus)
		api.GET("/syllabus", s.getSyllabus)
		api.DELETE("/syllabus", s.deleteSyllabus)

		api.POST("/summary", s.summary)
		api.POST("/quizzes", s.quiz)
		api.GET("/quizzes/title", s.quizTitle)

		api.GET("/folders", s.listFolders)
		api.POST("/folders", s.createFolder)
		api.GET("/folders/:id", s.getFolder)
		api.DELETE("/folders/:id", s.deleteFolder)
		api.POST("/folders/:id/documents", s.uploadDocument)
		api.GET("/documents/:id", s.getDocument)
		api.POST("/documents/:id/generate", s.generate)
		api.GET("/generated-content", s.listGenerated)
		api.GET("/generated-content/:id", s.getGenerated)
	}
	return r
}

// corsMiddleware reflects any origin unless an allow list is configured.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id", "X-Trace-Id"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}
	if len(origins) > 0 {
		cfg.AllowOrigins = origins
	} else {
		cfg.AllowOriginFunc = func(string) bool { return true }
	}
	return cors.New(cfg)
}
