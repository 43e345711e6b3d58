// Package proxy projects a topology snapshot into the reverse proxy's
// declarative routing document.
//
// The projection is deterministic: the same snapshot content always
// renders to byte-identical YAML, so unchanged topology never churns
// the proxy's file watcher. Documents are written through a temp file
// and rename, and a service with zero live endpoints keeps its router
// with an empty server pool rather than disappearing, which would
// erase any customization layered onto the router name.
package proxy

// Document is the dynamic configuration tree the proxy consumes.
type Document struct {
	HTTP HTTPSection `yaml:"http"`
}

// HTTPSection holds the routers and backend pools, keyed by generated
// names derived from the service name.
type HTTPSection struct {
	Routers  map[string]Router  `yaml:"routers"`
	Services map[string]Backend `yaml:"services"`
}

// Router matches one request pattern and forwards to a backend pool.
type Router struct {
	Rule        string   `yaml:"rule"`
	Service     string   `yaml:"service"`
	EntryPoints []string `yaml:"entryPoints,omitempty"`
	Middlewares []string `yaml:"middlewares,omitempty"`
}

// Backend is one service's load balancer.
type Backend struct {
	LoadBalancer LoadBalancer `yaml:"loadBalancer"`
}

// LoadBalancer lists the live servers for a backend. Servers is always
// present, empty when the service has no live endpoints; the proxy
// answers service-unavailable for an empty pool.
type LoadBalancer struct {
	Servers     []Server     `yaml:"servers"`
	Sticky      *Sticky      `yaml:"sticky,omitempty"`
	HealthCheck *HealthCheck `yaml:"healthCheck,omitempty"`
}

// Server is one backend address.
type Server struct {
	URL string `yaml:"url"`
}

// Sticky pins a client to one server via a session cookie.
type Sticky struct {
	Cookie Cookie `yaml:"cookie"`
}

// Cookie configures the sticky session cookie.
type Cookie struct {
	Name     string `yaml:"name"`
	Secure   bool   `yaml:"secure,omitempty"`
	HTTPOnly bool   `yaml:"httpOnly,omitempty"`
}

// HealthCheck configures active backend probing.
type HealthCheck struct {
	Path     string `yaml:"path"`
	Interval string `yaml:"interval,omitempty"`
	Timeout  string `yaml:"timeout,omitempty"`
}

// RouterCount is the number of routers in the document.
func (d *Document) RouterCount() int {
	return len(d.HTTP.Routers)
}
