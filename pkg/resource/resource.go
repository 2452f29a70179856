package resource

import (
	"os"
	"sort"
)

// Well-known resource attribute keys.
const (
	ServiceNameKey    = "service.name"
	ServiceVersionKey = "service.version"
	EnvironmentKey    = "deployment.environment"
	HostNameKey       = "host.name"
)

const defaultServiceName = "unknown_service"

// Resource describes the process emitting telemetry. It is built once at
// startup and never mutated afterwards; every exported span and metric
// aggregate carries a reference to it.
type Resource struct {
	attrs map[string]string
}

// Option configures a Resource during construction.
type Option func(map[string]string)

// WithServiceName sets the service name.
func WithServiceName(name string) Option {
	return func(attrs map[string]string) {
		attrs[ServiceNameKey] = name
	}
}

// WithServiceVersion sets the service version.
func WithServiceVersion(version string) Option {
	return func(attrs map[string]string) {
		attrs[ServiceVersionKey] = version
	}
}

// WithEnvironment sets the deployment environment (e.g. "production").
func WithEnvironment(env string) Option {
	return func(attrs map[string]string) {
		attrs[EnvironmentKey] = env
	}
}

// WithHost sets the host name from the operating system.
func WithHost() Option {
	return func(attrs map[string]string) {
		if host, err := os.Hostname(); err == nil {
			attrs[HostNameKey] = host
		}
	}
}

// WithAttribute sets an arbitrary identifying attribute.
func WithAttribute(key, value string) Option {
	return func(attrs map[string]string) {
		attrs[key] = value
	}
}

// New creates a Resource from the given options. A service name is always
// present, defaulting to "unknown_service".
func New(opts ...Option) *Resource {
	attrs := map[string]string{
		ServiceNameKey: defaultServiceName,
	}
	for _, opt := range opts {
		opt(attrs)
	}
	return &Resource{attrs: attrs}
}

// Default returns a Resource with only the default service name.
func Default() *Resource {
	return New()
}

// ServiceName returns the service name.
func (r *Resource) ServiceName() string {
	return r.attrs[ServiceNameKey]
}

// Get returns the value for the given attribute key.
func (r *Resource) Get(key string) (string, bool) {
	v, ok := r.attrs[key]
	return v, ok
}

// Attributes returns a copy of all identifying attributes.
func (r *Resource) Attributes() map[string]string {
	out := make(map[string]string, len(r.attrs))
	for k, v := range r.attrs {
		out[k] = v
	}
	return out
}

// Keys returns the attribute keys in sorted order.
func (r *Resource) Keys() []string {
	keys := make([]string, 0, len(r.attrs))
	for k := range r.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
