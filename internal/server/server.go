package server

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/souschef-app/backend/internal/api"
)

// Server wraps the gin engine and the underlying http server.
type Server struct {
	router *gin.Engine
	http   *http.Server
	logger *logrus.Logger
}

// New builds the HTTP server with all routes registered. The frontend is a
// mobile app served from a different origin, so CORS is wide open.
func New(port string, handler *api.RecipeHandler, logger *logrus.Logger) *Server {
	router := gin.Default()
	router.Use(cors.Default())

	handler.RegisterRoutes(router)

	return &Server{
		router: router,
		http: &http.Server{
			Addr:    ":" + port,
			Handler: router,
		},
		logger: logger,
	}
}

// Start blocks serving requests until the server is shut down.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.http.Addr).Info("http server listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
