// Package server exposes interview sessions over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/mock-interview/internal/interview"
	"github.com/spigell/mock-interview/internal/logger"
	"github.com/spigell/mock-interview/internal/report"
)

const (
	defaultMaxUploadBytes = 10 << 20
	shutdownTimeout       = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	Controller     *interview.Controller
	Logger         *zap.Logger
	Metrics        http.Handler
	MaxUploadBytes int64
	// SessionTTL expires sessions idle for longer than it; zero keeps them until deleted.
	SessionTTL time.Duration
}

// Server serves the interview API.
type Server struct {
	controller *interview.Controller
	registry   *Registry
	logger     *zap.Logger
	metrics    http.Handler
	maxUpload  int64
	router     *gin.Engine
}

// New creates a Server with its router.
func New(opts Options) (*Server, error) {
	if opts.Controller == nil {
		return nil, errors.New("controller is required")
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}

	s := &Server{
		controller: opts.Controller,
		registry:   NewRegistry(opts.SessionTTL),
		logger:     logger.WithFields(opts.Logger),
		metrics:    opts.Metrics,
		maxUpload:  opts.MaxUploadBytes,
	}
	s.router = s.newRouter()

	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Registry returns the live session registry.
func (s *Server) Registry() *Registry {
	return s.registry
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go s.expireSessions(janitorCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func (s *Server) expireSessions(ctx context.Context) {
	if s.registry.idleTTL <= 0 {
		return
	}

	ticker := time.NewTicker(s.registry.sweepInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range s.registry.Sweep() {
				s.logger.Info("session expired", zap.String(logger.FieldSession, id))
			}
		}
	}
}

func (s *Server) newRouter() *gin.Engine {
	r := gin.New()
	r.Use(requestID(), s.logging(), s.recovery())

	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics))
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "sessions": s.registry.Len()})
	})

	api.POST("/sessions", s.createSession)

	sessions := api.Group("/sessions/:id", s.loadSession)
	sessions.GET("", s.getSession)
	sessions.DELETE("", s.deleteSession)
	sessions.PUT("/category", s.selectCategory)
	sessions.POST("/questions", s.generateQuestions)
	sessions.PUT("/questions/:index/answer", s.submitAnswer)
	sessions.POST("/questions/:index/feedback", s.requestFeedback)
	sessions.POST("/summary", s.requestSummary)
	sessions.GET("/transcript", s.transcript)

	return r
}

const sessionKey = "session"

func (s *Server) loadSession(c *gin.Context) {
	session, ok := s.registry.Get(c.Param("id"))
	if !ok {
		s.fail(c, http.StatusNotFound, "session_not_found", fmt.Sprintf("session %q does not exist", c.Param("id")))
		return
	}
	c.Set(sessionKey, session)
	c.Next()
}

func sessionFrom(c *gin.Context) *interview.Session {
	session, _ := c.MustGet(sessionKey).(*interview.Session)
	return session
}

func (s *Server) createSession(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)

	header, err := c.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			s.fail(c, http.StatusRequestEntityTooLarge, "payload_too_large", fmt.Sprintf("résumé exceeds %d bytes", s.maxUpload))
			return
		}
		s.fail(c, http.StatusBadRequest, "validation_error", "multipart field \"file\" is required")
		return
	}

	file, err := header.Open()
	if err != nil {
		s.fail(c, http.StatusBadRequest, "validation_error", "unable to read file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(c, http.StatusBadRequest, "validation_error", "unable to read file")
		return
	}

	session, err := s.controller.LoadResume(c.Request.Context(), interview.Document{Name: header.Filename, Data: data})
	if err != nil {
		s.failTransition(c, nil, err)
		return
	}

	s.registry.Add(session)
	c.Header("Location", "/api/v1/sessions/"+session.ID())
	c.JSON(http.StatusCreated, gin.H{"session": session.Snapshot()})
}

func (s *Server) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"session": sessionFrom(c).Snapshot()})
}

func (s *Server) deleteSession(c *gin.Context) {
	s.registry.Delete(c.Param("id"))
	c.Status(http.StatusNoContent)
}

type categoryRequest struct {
	Category string `json:"category" binding:"required"`
}

func (s *Server) selectCategory(c *gin.Context) {
	session := sessionFrom(c)

	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, "validation_error", "body must be {\"category\": \"...\"}")
		return
	}

	category, err := interview.ParseCategory(req.Category)
	if err != nil {
		category = interview.Category(req.Category)
	}

	if err := s.controller.SelectCategory(session, category); err != nil {
		s.failTransition(c, session, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session.Snapshot()})
}

func (s *Server) generateQuestions(c *gin.Context) {
	session := sessionFrom(c)

	if err := s.controller.GenerateQuestions(c.Request.Context(), session); err != nil {
		s.failTransition(c, session, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session.Snapshot()})
}

type answerRequest struct {
	Answer string `json:"answer"`
}

func (s *Server) submitAnswer(c *gin.Context) {
	session := sessionFrom(c)

	index, err := questionIndex(c)
	if err != nil {
		s.failTransition(c, session, err)
		return
	}

	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, "validation_error", "body must be {\"answer\": \"...\"}")
		return
	}

	if err := s.controller.SubmitAnswer(session, index, req.Answer); err != nil {
		s.failTransition(c, session, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session.Snapshot()})
}

func (s *Server) requestFeedback(c *gin.Context) {
	session := sessionFrom(c)

	index, err := questionIndex(c)
	if err != nil {
		s.failTransition(c, session, err)
		return
	}

	feedback, err := s.controller.RequestFeedback(c.Request.Context(), session, index)
	if err != nil {
		s.failTransition(c, session, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"feedback": feedback, "session": session.Snapshot()})
}

func (s *Server) requestSummary(c *gin.Context) {
	session := sessionFrom(c)

	summary, err := s.controller.RequestSummary(c.Request.Context(), session)
	if err != nil {
		s.failTransition(c, session, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary, "session": session.Snapshot()})
}

func (s *Server) transcript(c *gin.Context) {
	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		s.fail(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	snap := sessionFrom(c).Snapshot()
	data, err := report.Render(snap, format)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "internal", "unable to render transcript")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(snap.ID, format)))
	c.Data(http.StatusOK, format.ContentType(), data)
}

func questionIndex(c *gin.Context) (int, error) {
	raw := c.Param("index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", interview.ErrInvalidIndex, raw)
	}
	return index, nil
}
