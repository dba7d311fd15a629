package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/CriativoDevs/salonix-gateway/internal/config"
	"github.com/CriativoDevs/salonix-gateway/internal/gateway"
)

// readinessProbe reports whether the backing store is reachable.
type readinessProbe func(ctx context.Context) error

type Server struct {
	echo       *echo.Echo
	config     *config.Config
	registry   *Registry
	supervisor *gateway.Supervisor
	ready      readinessProbe
	clock      clockwork.Clock
	startTime  time.Time
}

func NewServer(cfg *config.Config, api upstreamAPI, supervisor *gateway.Supervisor, clock clockwork.Clock, ready readinessProbe) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimitRPS))))

	srv := &Server{
		echo:       e,
		config:     cfg,
		registry:   NewRegistry(api, clock),
		supervisor: supervisor,
		ready:      ready,
		clock:      clock,
		startTime:  clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	log.Printf("Starting gateway on port %s", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.registry.Close()
	return s.echo.Shutdown(ctx)
}

// tenantSlug extracts the tenant from header or query; header wins.
func tenantSlug(c echo.Context) string {
	if slug := c.Request().Header.Get("X-Salon-Slug"); slug != "" {
		return slug
	}
	return c.QueryParam("salon")
}

// requireTenant extracts the tenant slug; false means there was none and
// the caller must answer with tenantRequired.
func requireTenant(c echo.Context) (string, bool) {
	slug := tenantSlug(c)
	return slug, slug != ""
}

// tenantRequired is the uniform 400 for requests without a tenant.
func tenantRequired(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, map[string]string{
		"error": "tenant slug is required (X-Salon-Slug header or salon query parameter)",
	})
}
