package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"stylehub-admin-svc/src/clients"
	"stylehub-admin-svc/src/internal/config"
	"stylehub-admin-svc/src/internal/dependency"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var log = logrus.StandardLogger()

type Server struct {
	cfg *config.Configuration
}

func New(cfg *config.Configuration) *Server {
	return &Server{cfg: cfg}
}

// Start connects every external collaborator, wires the dependency graph,
// restores a possibly still-valid admin session, and serves until a
// shutdown signal arrives.
func (s *Server) Start() error {
	cfg := s.cfg

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	mongodb, err := clients.NewMongoDB(&cfg.Database)
	if err != nil {
		return err
	}

	redisClient, err := clients.NewRedisClient(&cfg.Redis)
	if err != nil {
		return err
	}

	rabbitMQ, err := clients.NewRabbitMQ(&cfg.Queue)
	if err != nil {
		return err
	}
	if err := rabbitMQ.SetupExchange(); err != nil {
		return err
	}

	deps := dependency.NewDependencyManager(router, mongodb, redisClient, rabbitMQ, cfg)
	SetupRoutes(deps)

	startupCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.App.Timeout)*time.Second)
	if deps.SessionManager.Restore(startupCtx) {
		log.Info("Restored an existing admin session at startup")
	}
	cancel()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Listening on :%s", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Infof("Received signal %s, shutting down", sig)
	}

	deps.SessionManager.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.App.Timeout)*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}

	if err := rabbitMQ.Close(); err != nil {
		log.WithError(err).Warn("RabbitMQ close failed")
	}
	if err := redisClient.Close(); err != nil {
		log.WithError(err).Warn("Redis close failed")
	}
	if err := mongodb.Close(shutdownCtx); err != nil {
		log.WithError(err).Warn("MongoDB close failed")
	}

	return nil
}
