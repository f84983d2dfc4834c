// Package api serves the loopback-only control API used by the browser UI.
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/moyoez/shareit-go/api/controllers"
	"github.com/moyoez/shareit-go/api/middlewares"
	"github.com/moyoez/shareit-go/notify"
	"github.com/moyoez/shareit-go/session"
	"github.com/moyoez/shareit-go/tool"
	"github.com/moyoez/shareit-go/types"
)

// Server represents the local HTTP API server
type Server struct {
	listen   string
	sessions *session.Controller
	prober   session.Prober
	hub      *notify.Hub
	defaults types.ShareDefaults

	mu     sync.RWMutex
	engine *gin.Engine
	server *http.Server
}

// Options wires a Server.
type Options struct {
	Listen   string // host:port, loopback by default
	Sessions *session.Controller
	Prober   session.Prober
	Hub      *notify.Hub // nil disables /notify-ws
	Defaults types.ShareDefaults
}

func NewServer(opts Options) *Server {
	listen := opts.Listen
	if listen == "" {
		listen = "127.0.0.1:8090"
	}
	return &Server{
		listen:   listen,
		sessions: opts.Sessions,
		prober:   opts.Prober,
		hub:      opts.Hub,
		defaults: opts.Defaults,
	}
}

// Handler builds the routes without listening, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

func (s *Server) setupRoutes() *gin.Engine {
	if tool.DefaultLogger.GetLevel() == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middlewares.AllowAllCORS())
	// ClientIP must come from the socket, OnlyAllowLocal depends on it
	_ = engine.SetTrustedProxies(nil)

	transferCtrl := controllers.NewTransferController(s.sessions, s.prober, s.defaults)
	historyCtrl := controllers.NewHistoryController(s.sessions)

	self := engine.Group("/api/self/v1", middlewares.OnlyAllowLocal)
	{
		self.GET("/status", transferCtrl.HandleStatus)          // Fresh probe of the transfer service
		self.POST("/share", transferCtrl.HandleShare)           // Upload, answers with the share code
		self.POST("/receive", transferCtrl.HandleReceive)       // Download by code into the download folder
		self.GET("/session", transferCtrl.HandleSession)        // Current or last session snapshot
		self.GET("/history", historyCtrl.HandleList)            // Recent transfers
		self.DELETE("/history", historyCtrl.HandleClear)        // Forget all transfers
		self.GET("/create-qr-code", controllers.GenerateQRCode) // QR code PNG of a share code
		if s.hub != nil {
			self.GET("/notify-ws", notify.HandleWS(s.hub))
		}
	}
	return engine
}

// Start listens on the configured address and blocks until the server stops.
func (s *Server) Start() error {
	engine := s.setupRoutes()

	s.mu.Lock()
	s.engine = engine
	s.server = &http.Server{
		Addr:              s.listen,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	tool.DefaultLogger.Infof("Starting local API on http://%s", s.listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for running ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
