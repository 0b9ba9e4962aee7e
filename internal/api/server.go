// Package api exposes the HTTP control surface: contact import, template
// and contact-list management, and campaign lifecycle control.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dripsend/internal/dispatch"
	"dripsend/internal/library"
	"dripsend/pkg/logx"
)

type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = "127.0.0.1:8080"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 60 * time.Second
	}
	return c
}

type Server struct {
	cfg       Config
	ctrl      *dispatch.Service
	lib       *library.Service
	defaultCC string
	log       logx.Logger

	srv *http.Server
}

func New(cfg Config, ctrl *dispatch.Service, lib *library.Service, defaultCC string, log logx.Logger) *Server {
	cfg = cfg.withDefaults()
	s := &Server{cfg: cfg, ctrl: ctrl, lib: lib, defaultCC: defaultCC, log: log}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/contacts/import", s.importContacts)

		apiGroup.GET("/contact-lists", s.listContactLists)
		apiGroup.GET("/contact-lists/:name", s.getContactList)
		apiGroup.DELETE("/contact-lists/:index", s.deleteContactList)

		apiGroup.GET("/templates", s.listTemplates)
		apiGroup.POST("/templates", s.saveTemplate)
		apiGroup.DELETE("/templates/:index", s.deleteTemplate)
		apiGroup.POST("/templates/preview", s.previewTemplate)

		apiGroup.POST("/campaign/start", s.startCampaign)
		apiGroup.POST("/campaign/pause", s.pauseCampaign)
		apiGroup.POST("/campaign/resume", s.resumeCampaign)
		apiGroup.POST("/campaign/stop", s.stopCampaign)
		apiGroup.GET("/campaign/status", s.campaignStatus)
		apiGroup.GET("/campaign/log", s.campaignLog)
		apiGroup.GET("/campaign/report", s.campaignReport)

		apiGroup.GET("/reports", s.listReports)
		apiGroup.DELETE("/reports/:index", s.deleteReport)
	}

	s.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Start serves until Stop is called. ErrServerClosed is swallowed.
func (s *Server) Start() error {
	s.log.Info("api listening", logx.String("addr", s.cfg.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("http request",
			logx.String("method", c.Request.Method),
			logx.String("path", c.Request.URL.Path),
			logx.Int("status", c.Writer.Status()),
			logx.Duration("took", time.Since(start)))
	}
}
