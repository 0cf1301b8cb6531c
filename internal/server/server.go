package server

import (
	"context"
	"net/http"
	"time"

	"github.com/hongminglow/smartsave/internal/analysis"
	"github.com/hongminglow/smartsave/internal/auth"
	"github.com/hongminglow/smartsave/internal/config"
	"github.com/hongminglow/smartsave/internal/http/handlers"
	"github.com/hongminglow/smartsave/internal/ledger"
	"github.com/hongminglow/smartsave/internal/logging"
	"github.com/hongminglow/smartsave/internal/middleware"
	"github.com/hongminglow/smartsave/internal/payment"
	"github.com/hongminglow/smartsave/internal/roundup"
	"github.com/hongminglow/smartsave/internal/storage"
)

// AnalysisService is the analysis upstream used for both analysis and pass-through.
type AnalysisService interface {
	analysis.Upstream
	handlers.Forwarder
}

// Deps are the collaborators the server is built from. Nil optional fields
// are replaced with production implementations derived from the config.
type Deps struct {
	Store  storage.Store
	Logger logging.Logger

	Cards    payment.CardProcessor
	Analysis AnalysisService
	Now      func() time.Time
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewHandler(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return &Server{inner: httpServer}
}

// NewHandler builds the routed handler with its middleware chain.
func NewHandler(cfg config.Config, deps Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = logging.Discard()
	}
	if deps.Cards == nil {
		deps.Cards = payment.NewStripeCheckout(cfg.Checkout, cfg.UpstreamTimeout)
	}
	if deps.Analysis == nil {
		deps.Analysis = analysis.NewClient(cfg.AnalysisBaseURL, cfg.UpstreamTimeout)
	}

	var tokens *auth.TokenManager
	if cfg.AuthEnabled() {
		tokens = auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	}

	savings := ledger.NewService(deps.Store, deps.Store, ledger.Config{
		Policies:        roundup.DefaultPolicies(cfg.CardSavingsPercent),
		DefaultLockDays: cfg.DefaultLockDays,
		Now:             deps.Now,
		Logger:          log.With("component", "ledger"),
	})

	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now()).Register(mux)
	handlers.NewPaymentHandler(payment.NewGateway(cfg.Gateway), savings, log).Register(mux)
	handlers.NewCheckoutHandler(deps.Cards, savings, log, cfg.Checkout.AllowUnverified).Register(mux)
	handlers.NewSavingsHandler(savings, log).Register(mux)
	handlers.NewUserHandler(deps.Store, tokens, log, cfg.SeedUserEnabled).Register(mux)
	analyzer := analysis.NewAnalyzer(deps.Analysis, log.With("component", "analysis"))
	handlers.NewAnalysisHandler(analyzer, deps.Analysis, log).Register(mux)

	return middleware.CORS(cfg.CORSOrigins, middleware.Logging(log, middleware.Identity(tokens, mux)))
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
