package dependency

import (
	"stylehub-admin-svc/src/clients"
	"stylehub-admin-svc/src/internal/audit"
	"stylehub-admin-svc/src/internal/cache"
	"stylehub-admin-svc/src/internal/config"
	"stylehub-admin-svc/src/internal/session"

	"github.com/gin-gonic/gin"
)

type Manager struct {
	Router         *gin.Engine
	Config         *config.Configuration
	Mongodb        *clients.MongoDB
	Redis          *clients.RedisClient
	RabbitMQ       *clients.RabbitMQ
	CacheService   cache.Service
	AuthClient     *clients.AuthClient
	AuditService   audit.Service
	AuditHandler   audit.Handler
	SessionManager *session.Manager
	SessionHandler session.Handler
}

func NewDependencyManager(router *gin.Engine,
	mongodb *clients.MongoDB,
	redisClient *clients.RedisClient,
	rabbitMQ *clients.RabbitMQ,
	cfg *config.Configuration) *Manager {
	cacheService := cache.NewCacheService(redisClient.Client, cfg)
	auditRepo := audit.NewAuditRepository(mongodb, cfg.Database.AuditCollection)
	auditService := audit.NewAuditService(auditRepo, cfg)
	auditHandler := audit.NewHandler(cfg, auditService, cacheService)
	authClient := clients.NewAuthClient(cfg, rabbitMQ.Channel)

	allowlist := session.NewAllowlist(cfg.Security.AllowedAdmins)
	sessionManager := session.NewManager(
		cacheService,
		authClient,
		allowlist,
		cfg.Session,
		session.WithAuditRecorder(auditService),
		session.WithActivityPublisher(authClient),
	)
	sessionHandler := session.NewHandler(cfg, sessionManager)

	return &Manager{
		Router:         router,
		Config:         cfg,
		Mongodb:        mongodb,
		Redis:          redisClient,
		RabbitMQ:       rabbitMQ,
		CacheService:   cacheService,
		AuthClient:     authClient,
		AuditService:   auditService,
		AuditHandler:   auditHandler,
		SessionManager: sessionManager,
		SessionHandler: sessionHandler,
	}
}
