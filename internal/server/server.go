// Package server exposes the board over a small JSON API for external
// screens and browser frontends.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/passerby/internal/apperr"
	"github.com/smokyabdulrahman/passerby/internal/coordinator"
)

const shutdownTimeout = 5 * time.Second

// Server serves the JSON API for one coordinator.
type Server struct {
	coord *coordinator.Coordinator
	log   zerolog.Logger

	engine *gin.Engine
}

// New builds the router.
func New(coord *coordinator.Coordinator, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		coord:  coord,
		log:    log.With().Str("component", "server").Logger(),
		engine: gin.New(),
	}

	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(string) bool { return true },
		AllowMethods:    []string{"GET", "POST", "PUT", "OPTIONS", "HEAD"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/api")
	api.GET("/state", endpoint(s.getState))
	api.GET("/methods", endpoint(s.getMethods))
	api.GET("/locations", endpoint(s.getLocations))
	api.GET("/countries/:code/cities", endpoint(s.getCities))
	api.PUT("/location", endpoint(s.putLocation))
	api.POST("/location/detect", endpoint(s.detectLocation))
	api.PUT("/settings", endpoint(s.putSettings))
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// endpoint adapts a handler returning (body, error) to gin. Errors are
// rendered as {"error", "kind"} with the matching status code.
func endpoint(h func(c *gin.Context) (any, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := h(c)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, body)
	}
}

func writeError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{
		"error": apperr.Message(err),
		"kind":  apperr.Kind(err),
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}
