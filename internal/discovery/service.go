package discovery

import (
	"strconv"
	"strings"

	"github.com/tsm-sh/tsm/internal/scaling"
)

// Service is one discovered compose service with its routing and
// scaling configuration resolved.
type Service struct {
	Name  string
	Image string

	// Replicas is the declared count from deploy.replicas (1 when
	// absent). The loop prefers the orchestrator's live count and
	// falls back to this on error.
	Replicas int

	// Port is the container port the routing document targets: the
	// traefik port label when present, else the first declared
	// container port, else 0 (the projector substitutes the configured
	// backend port).
	Port int

	Networks  []string
	Labels    map[string]string
	DependsOn []string

	// TraefikEnabled reports whether the service is projected into the
	// routing document. True unless the manifest opts out with
	// traefik.enable=false.
	TraefikEnabled bool

	// RuleOverride is a label-supplied router rule that replaces the
	// default Host rule built from the service name and domain suffix.
	RuleOverride string

	// Middlewares are label-supplied middleware names. When present
	// they replace the projector's default chain.
	Middlewares []string

	// Sticky enables a session cookie on the service's load balancer.
	Sticky bool

	// HealthCheckPath enables a health check block in the projected
	// document when set.
	HealthCheckPath string

	// Rule is the resolved scaling rule. Nil when the service is not
	// scalable, either disabled or carrying malformed labels.
	Rule *scaling.Rule

	// Priority orders reconciliation within a tick.
	Priority string
}

// Scalable reports whether the loop samples and scales this service.
func (s Service) Scalable() bool {
	return s.Rule != nil
}

const (
	labelTraefikEnable = "traefik.enable"
	routerLabelPrefix  = "traefik.http.routers."
	serviceLabelPrefix = "traefik.http.services."
	ruleLabelSuffix    = ".rule"
	portLabelSuffix    = ".loadbalancer.server.port"
	stickyLabelSuffix  = ".loadbalancer.sticky"
	cookieLabelSuffix  = ".loadbalancer.sticky.cookie"
	healthLabelSuffix  = ".loadbalancer.healthcheck.path"
)

// applyTraefikLabels resolves the routing fields from the service's
// traefik.* labels. Router-scoped labels (rule, middlewares) follow the
// first router name found in sorted key order; a port label scoped to
// that router wins over other port labels, which win over declared
// container ports.
func applyTraefikLabels(svc *Service, ports []int) {
	labels := svc.Labels
	keys := sortedKeys(labels)

	svc.TraefikEnabled = true
	if v, ok := labels[labelTraefikEnable]; ok {
		if enabled, err := strconv.ParseBool(v); err == nil {
			svc.TraefikEnabled = enabled
		}
	}

	routerName := ""
	for _, key := range keys {
		if strings.HasPrefix(key, routerLabelPrefix) && strings.HasSuffix(key, ruleLabelSuffix) {
			routerName = strings.TrimSuffix(strings.TrimPrefix(key, routerLabelPrefix), ruleLabelSuffix)
			svc.RuleOverride = labels[key]
			break
		}
	}

	port := 0
	if routerName != "" {
		if v, ok := labels[serviceLabelPrefix+routerName+portLabelSuffix]; ok {
			if p, err := strconv.Atoi(v); err == nil {
				port = p
			}
		}
	}
	if port == 0 {
		for _, key := range keys {
			if !strings.HasPrefix(key, serviceLabelPrefix) || !strings.HasSuffix(key, portLabelSuffix) {
				continue
			}
			if p, err := strconv.Atoi(labels[key]); err == nil {
				port = p
				break
			}
		}
	}
	if port == 0 && len(ports) > 0 {
		port = ports[0]
	}
	svc.Port = port

	if routerName != "" {
		if v, ok := labels[routerLabelPrefix+routerName+".middlewares"]; ok {
			for _, m := range strings.Split(v, ",") {
				if m = strings.TrimSpace(m); m != "" {
					svc.Middlewares = append(svc.Middlewares, m)
				}
			}
		}
	}

	for _, key := range keys {
		if !strings.HasPrefix(key, serviceLabelPrefix) {
			continue
		}
		switch {
		case strings.HasSuffix(key, stickyLabelSuffix), strings.HasSuffix(key, cookieLabelSuffix):
			if sticky, err := strconv.ParseBool(labels[key]); err == nil && sticky {
				svc.Sticky = true
			}
		case strings.HasSuffix(key, healthLabelSuffix):
			if svc.HealthCheckPath == "" {
				svc.HealthCheckPath = labels[key]
			}
		}
	}
}
