package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/moyoez/localsend-uploader/api/controllers"
	"github.com/moyoez/localsend-uploader/api/middlewares"
	"github.com/moyoez/localsend-uploader/api/notifyhub"
	"github.com/moyoez/localsend-uploader/batch"
	"github.com/moyoez/localsend-uploader/tool"
)

// Server is the local control API for submitting upload batches.
type Server struct {
	port         int
	orchestrator *batch.Orchestrator
	hub          *notifyhub.Hub
	socketPath   string
	engine       *gin.Engine
	server       *http.Server
	mu           sync.RWMutex
}

// NewServer creates the API server. hub nil disables the websocket progress stream.
func NewServer(port int, orchestrator *batch.Orchestrator, hub *notifyhub.Hub, socketPath string) *Server {
	return &Server{
		port:         port,
		orchestrator: orchestrator,
		hub:          hub,
		socketPath:   socketPath,
	}
}

func (s *Server) setupRoutes() *gin.Engine {
	if tool.DefaultLogger.GetLevel() == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	batchCtrl := controllers.NewBatchController(s.orchestrator, s.hub, s.socketPath)

	self := engine.Group("/api/self/v1", middlewares.OnlyAllowLocal)
	{
		self.POST("/upload-batch", batchCtrl.HandleUploadBatch) // Start a batch (?wait=true blocks until done)
		self.GET("/batches/:id", batchCtrl.HandleGetBatch)      // Batch snapshot
		self.POST("/cancel", batchCtrl.HandleCancelBatch)       // Cancel a running batch
		self.GET("/status", controllers.UserStatus(s.hub != nil))
		if s.hub != nil {
			self.GET("/notify-ws", notifyhub.HandleNotifyWS(s.hub))
		}
	}
	return engine
}

// Handler returns the routed engine, building it on first use.
func (s *Server) Handler() http.Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		s.engine = s.setupRoutes()
	}
	return s.engine
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	handler := s.Handler()

	s.mu.Lock()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: handler,
	}
	srv := s.server
	s.mu.Unlock()

	tool.DefaultLogger.Infof("Starting API server on http://0.0.0.0:%d", s.port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
