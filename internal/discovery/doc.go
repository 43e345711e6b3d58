// Package discovery parses compose manifests into service descriptors.
//
// A [Scanner] reads the manifest, normalizes the polymorphic compose
// forms (labels and environment as list or map, ports as scalar,
// string, or mapping), and resolves each service's routing fields from
// its traefik.* labels and its scaling rule from tsm.scaling.* labels
// layered over the configured defaults. The returned [Service] list is
// sorted by name so every downstream consumer sees a deterministic
// order.
package discovery
