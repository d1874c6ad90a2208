package http

import (
	"net/http"
	"time"

	"veritrust/internal/config"
	"veritrust/internal/domain"
	"veritrust/internal/infra/auditmem"
	"veritrust/internal/infra/auth/jwt"
	"veritrust/internal/infra/auth/rbac"
	"veritrust/internal/infra/db"
	"veritrust/internal/infra/ledger"
	"veritrust/internal/infra/ratelimit"
	"veritrust/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Server struct {
	cfg config.Config
	r   *gin.Engine

	anchors *usecase.AnchorService
	audit   *usecase.AuditRecorder

	authenticator domain.Authenticator
	authorizer    domain.Authorizer
	initErr       error

	rateLimiter         domain.RateLimiter
	rateLimitRequests   int
	rateLimitWindow     time.Duration
	rateLimitFailClosed bool
}

func NewServer(cfg config.Config, store *db.Store) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{cfg: cfg, r: r}
	s.initDeps(store)
	s.routes()
	return s
}

// ServerDeps lets tests substitute every external collaborator: the
// fake ledger, the in-memory audit store, a deterministic clock.
type ServerDeps struct {
	Ledger        domain.LedgerClient
	AuditRepo     usecase.AuditRepository
	Clock         usecase.Clock
	Authenticator domain.Authenticator
	Authorizer    domain.Authorizer
	RateLimiter   domain.RateLimiter
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:           cfg,
		r:             r,
		authenticator: deps.Authenticator,
		authorizer:    deps.Authorizer,
	}
	if deps.Ledger != nil {
		s.anchors = usecase.NewAnchorService(deps.Ledger)
	}
	if deps.AuditRepo != nil {
		s.audit = usecase.NewAuditRecorder(deps.AuditRepo, deps.Clock)
	}
	if s.authorizer == nil {
		s.authorizer = rbac.NewAuthorizer()
	}
	s.initRateLimit(deps.RateLimiter)
	s.routes()
	return s
}

func (s *Server) initDeps(store *db.Store) {
	ledgerClient, err := ledger.NewClient(s.cfg.LedgerURL, s.cfg.LedgerAPIKey, ledger.Options{
		PollInterval:   s.cfg.LedgerPollInterval(),
		ConfirmTimeout: s.cfg.LedgerConfirmTimeout(),
	})
	if err != nil {
		s.initErr = err
		return
	}
	s.anchors = usecase.NewAnchorService(ledgerClient)

	var auditRepo usecase.AuditRepository
	if store != nil && store.DB != nil {
		auditRepo = db.NewAuditRepository(store.DB)
	} else {
		auditRepo = auditmem.New()
	}
	s.audit = usecase.NewAuditRecorder(auditRepo, nil)

	authenticator, err := jwt.NewAuthenticator(s.cfg.JWTSecret, time.Duration(s.cfg.JWTClockSkewSecs)*time.Second)
	if err != nil {
		s.initErr = err
		return
	}
	s.authenticator = authenticator
	s.authorizer = rbac.NewAuthorizer()

	var limiter domain.RateLimiter
	if s.cfg.RedisAddr != "" {
		limiter, err = ratelimit.NewRedisLimiter(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB, nil)
		if err != nil {
			s.initErr = err
			return
		}
	} else if s.cfg.RateLimitRequests > 0 {
		limiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryConfig{MaxKeys: s.cfg.RateLimitMaxKeys})
	}
	s.initRateLimit(limiter)
}

func (s *Server) initRateLimit(limiter domain.RateLimiter) {
	s.rateLimiter = limiter
	s.rateLimitRequests = s.cfg.RateLimitRequests
	window := s.cfg.RateLimitWindowSeconds
	if window <= 0 {
		window = 60
	}
	s.rateLimitWindow = time.Duration(window) * time.Second
	s.rateLimitFailClosed = s.cfg.RateLimitFailClosed
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		mode := "memory"
		if s.cfg.PostgresDSN != "" {
			mode = "db"
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "audit_store": mode})
	})

	s.r.POST("/anchor", s.handleAnchor)
	s.r.GET("/verify", s.handleVerify)
	s.r.POST("/revoke", s.handleRevoke)
	s.r.GET("/audit", s.handleAudit)
	s.r.GET("/admin", s.handleAdmin)
	s.r.GET("/protected", s.handleProtected)

	s.r.NoRoute(func(c *gin.Context) {
		writeFailure(c, http.StatusNotFound, "route not found")
	})
}

func (s *Server) Run() error {
	if s.initErr != nil {
		return s.initErr
	}
	return s.r.Run(s.cfg.HTTPAddr)
}

// Handler exposes the router for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.r
}
