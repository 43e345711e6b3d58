package proxy

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tsm-sh/tsm/internal/config"
	"github.com/tsm-sh/tsm/internal/discovery"
	"github.com/tsm-sh/tsm/internal/errors"
	"github.com/tsm-sh/tsm/internal/logging"
	"github.com/tsm-sh/tsm/internal/topology"
)

// Active health check cadence for backends that declare a check path.
const (
	healthCheckInterval = "30s"
	healthCheckTimeout  = "5s"
)

// Projector maps topology snapshots to routing documents and writes
// them atomically.
type Projector struct {
	cfg    config.TraefikConfig
	logger *logging.Logger
}

// NewProjector creates a projector from the traefik config section. A
// nil logger disables logging.
func NewProjector(cfg *config.Config, logger *logging.Logger) *Projector {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Projector{
		cfg:    cfg.Traefik,
		logger: logger.WithComponent("projector"),
	}
}

// Project builds the routing document for a snapshot. Services that
// opted out of routing are skipped; everything else gets one router
// and one backend pool, empty when no endpoints are live.
func (p *Projector) Project(snap *topology.Snapshot) *Document {
	doc := &Document{
		HTTP: HTTPSection{
			Routers:  make(map[string]Router),
			Services: make(map[string]Backend),
		},
	}

	for _, entry := range snap.Entries() {
		svc := entry.Service
		if !svc.TraefikEnabled {
			continue
		}
		routerName := svc.Name + "_router"
		backendName := svc.Name + "_service"
		doc.HTTP.Routers[routerName] = p.router(svc, backendName)
		doc.HTTP.Services[backendName] = p.backend(svc, entry.Endpoints)
	}

	p.logger.Debug("projected routing document",
		"services", snap.Len(), "routers", doc.RouterCount())
	return doc
}

func (p *Projector) router(svc discovery.Service, backendName string) Router {
	rule := svc.RuleOverride
	if rule == "" {
		rule = fmt.Sprintf("Host(`%s.%s`)", svc.Name, p.cfg.Suffix())
	}

	router := Router{
		Rule:        rule,
		Service:     backendName,
		Middlewares: p.middlewares(svc),
	}
	if p.cfg.EntryPoint != "" {
		router.EntryPoints = []string{p.cfg.EntryPoint}
	}
	return router
}

func (p *Projector) backend(svc discovery.Service, endpoints []string) Backend {
	port := svc.Port
	if port <= 0 {
		port = p.cfg.BackendPort
	}

	servers := make([]Server, 0, len(endpoints))
	for _, host := range endpoints {
		servers = append(servers, Server{URL: fmt.Sprintf("http://%s:%d", host, port)})
	}

	lb := LoadBalancer{Servers: servers}
	if svc.Sticky {
		lb.Sticky = &Sticky{Cookie: Cookie{
			Name:     svc.Name + "_session",
			Secure:   true,
			HTTPOnly: true,
		}}
	}
	if svc.HealthCheckPath != "" {
		lb.HealthCheck = &HealthCheck{
			Path:     svc.HealthCheckPath,
			Interval: healthCheckInterval,
			Timeout:  healthCheckTimeout,
		}
	}
	return Backend{LoadBalancer: lb}
}

// middlewares resolves a service's middleware chain. Label-supplied
// middlewares replace the default chain entirely; the default chain
// appends a rate limit tier matched to the service's priority class.
func (p *Projector) middlewares(svc discovery.Service) []string {
	if len(svc.Middlewares) > 0 {
		return append([]string(nil), svc.Middlewares...)
	}
	chain := append([]string(nil), p.cfg.DefaultMiddlewares...)
	return append(chain, rateLimitMiddleware(svc.Priority))
}

func rateLimitMiddleware(priority string) string {
	switch priority {
	case config.PriorityCritical:
		return "rate-limit-critical@file"
	case config.PriorityHigh, config.PriorityMedium:
		return "rate-limit-api@file"
	default:
		return "rate-limit@file"
	}
}

// Render marshals the document. Map keys marshal in sorted order, so
// identical documents render to identical bytes.
func (p *Projector) Render(doc *Document) ([]byte, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errors.NewProjectionError("encode routing document",
			errors.Join(errors.ErrProjectionFailed, err))
	}
	return data, nil
}

// Write renders the document and writes it to the configured output
// path through a temp file and rename, so a reader never observes a
// partial document. On failure the previous document is left intact.
// Returns the number of bytes written.
func (p *Projector) Write(doc *Document) (int, error) {
	data, err := p.Render(doc)
	if err != nil {
		return 0, err
	}

	path := p.cfg.OutputPath
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, p.writeError("create output directory", err, path)
	}

	tmp, err := os.CreateTemp(dir, ".services-*.yml")
	if err != nil {
		return 0, p.writeError("create temp file", err, path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return 0, p.writeError("write temp file", err, path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, p.writeError("close temp file", err, path)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return 0, p.writeError("chmod temp file", err, path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return 0, p.writeError("rename into place", err, path)
	}

	p.logger.Info("routing document written",
		"path", path, "routers", doc.RouterCount(), "bytes", len(data))
	return len(data), nil
}

// Path is the configured output location of the routing document.
func (p *Projector) Path() string {
	return p.cfg.OutputPath
}

func (p *Projector) writeError(message string, err error, path string) error {
	perr := errors.NewProjectionError(message,
		errors.Join(errors.ErrProjectionFailed, err)).WithPath(path)
	p.logger.Error("projection failed", "path", path, "error", perr)
	return perr
}
