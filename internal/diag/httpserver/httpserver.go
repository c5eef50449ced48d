// Package httpserver exposes the container's diagnostics over HTTP using gin.
package httpserver

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oja-gamez/oja-injection/internal/engine"
	"github.com/oja-gamez/oja-injection/internal/regmodel"
)

// ScopeSink receives a scope's diagnostics snapshot whenever one is created
// or destroyed, for mirroring into an external store.
type ScopeSink interface {
	PublishScope(ctx context.Context, snap engine.ScopeDebug) error
}

// TickSink receives the dispatcher's debug snapshot each time GET /tick is
// polled.
type TickSink interface {
	PublishTick(ctx context.Context, info any) error
}

// AuditSink records one durable event per scope-lifecycle transition.
type AuditSink interface {
	Record(ctx context.Context, event, key, detail string) error
}

// Server is a thin gin wrapper exposing container and scope diagnostics,
// and a scope registry that requests populate as scopes are created and
// destroyed through this server or registered by the embedding application.
type Server struct {
	engine *gin.Engine

	container *engine.Container
	scopes    map[string]*engine.Scope
	logger    *log.Logger

	scopeSink ScopeSink
	tickSink  TickSink
	auditSink AuditSink
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithLogger overrides the *log.Logger used to report a failing sink
// publish. Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithScopeSink mirrors the snapshot of every scope created or destroyed
// through this server into sink. Snapshots served by GET /scopes/:id are
// not mirrored.
func WithScopeSink(sink ScopeSink) Option {
	return func(s *Server) { s.scopeSink = sink }
}

// WithTickSink mirrors the dispatcher snapshot into sink every time GET
// /tick is polled.
func WithTickSink(sink TickSink) Option {
	return func(s *Server) { s.tickSink = sink }
}

// WithAuditSink records a durable event for every scope created or
// destroyed through this server.
func WithAuditSink(sink AuditSink) Option {
	return func(s *Server) { s.auditSink = sink }
}

// New builds the router and registers its routes. container is polled for
// tick.Dispatcher diagnostics and used to create/destroy scopes through the
// /scopes endpoints.
func New(container *engine.Container, opts ...Option) *Server {
	s := &Server{
		engine:    gin.Default(),
		container: container,
		scopes:    make(map[string]*engine.Scope),
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealthz)
	s.engine.GET("/tick", s.handleTick)
	s.engine.GET("/scopes", s.handleListScopes)
	s.engine.POST("/scopes", s.handleCreateScope)
	s.engine.GET("/scopes/:id", s.handleScope)
	s.engine.DELETE("/scopes/:id", s.handleDestroyScope)
	s.engine.GET("/debug/health", s.handleHealthAll)
	s.engine.GET("/debug/health/:id", s.handleHealthOne)
}

// RegisterScope makes scope visible to GET /scopes and /scopes/:id under id,
// for a scope created outside this server (e.g. by the embedding
// application) that still wants its lifecycle observable here.
func (s *Server) RegisterScope(id string, scope *engine.Scope) {
	s.scopes[id] = scope
}

// UnregisterScope removes id, typically called right after the scope is
// destroyed.
func (s *Server) UnregisterScope(id string) {
	delete(s.scopes, id)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleTick(c *gin.Context) {
	info := s.container.TickDispatcher().DebugInfo()
	if s.tickSink != nil {
		if err := s.tickSink.PublishTick(c.Request.Context(), info); err != nil {
			s.logger.Printf("httpserver: publish tick snapshot: %v", err)
		}
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) handleListScopes(c *gin.Context) {
	ids := make([]string, 0, len(s.scopes))
	for id := range s.scopes {
		ids = append(ids, id)
	}
	c.JSON(http.StatusOK, gin.H{"scopes": ids})
}

func (s *Server) handleScope(c *gin.Context) {
	id := c.Param("id")
	scope, ok := s.scopes[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown scope"})
		return
	}
	c.JSON(http.StatusOK, scope.Debug())
}

// handleCreateScope creates a new root scope with no externals and no root
// constructor, registers it, and publishes its creation to whichever
// diagnostics sinks are configured.
func (s *Server) handleCreateScope(c *gin.Context) {
	scope, err := s.container.CreateScope(regmodel.NewScopeModule())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.scopes[scope.ID()] = scope
	s.publishScopeEvent(c.Request.Context(), "scope.created", scope.Debug())
	c.JSON(http.StatusCreated, scope.Debug())
}

// handleDestroyScope destroys the named scope, publishing its last
// snapshot before teardown clears it.
func (s *Server) handleDestroyScope(c *gin.Context) {
	id := c.Param("id")
	scope, ok := s.scopes[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown scope"})
		return
	}
	snap := scope.Debug()
	if err := scope.Destroy(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	delete(s.scopes, id)
	s.publishScopeEvent(c.Request.Context(), "scope.destroyed", snap)
	c.JSON(http.StatusOK, gin.H{"status": "destroyed"})
}

func (s *Server) publishScopeEvent(ctx context.Context, event string, snap engine.ScopeDebug) {
	if s.scopeSink != nil {
		if err := s.scopeSink.PublishScope(ctx, snap); err != nil {
			s.logger.Printf("httpserver: publish scope snapshot: %v", err)
		}
	}
	if s.auditSink != nil {
		if err := s.auditSink.Record(ctx, event, snap.ScopeID, ""); err != nil {
			s.logger.Printf("httpserver: record audit event: %v", err)
		}
	}
}

// handleHealthAll runs every registered scope's HealthChecker instances and
// reports 503 if any of them failed.
func (s *Server) handleHealthAll(c *gin.Context) {
	results := make(map[string][]engine.HealthReport, len(s.scopes))
	healthy := true
	for id, scope := range s.scopes {
		reports := scope.CheckHealth()
		results[id] = reports
		for _, r := range reports {
			if !r.Healthy {
				healthy = false
			}
		}
	}
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"healthy": healthy, "scopes": results})
}

func (s *Server) handleHealthOne(c *gin.Context) {
	id := c.Param("id")
	scope, ok := s.scopes[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown scope"})
		return
	}
	reports := scope.CheckHealth()
	healthy := true
	for _, r := range reports {
		if !r.Healthy {
			healthy = false
		}
	}
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"healthy": healthy, "checks": reports})
}

// Run starts the HTTP server, blocking until it exits or errors.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}
