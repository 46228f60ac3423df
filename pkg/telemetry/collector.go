package telemetry

import (
	"net"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// Collector enumerates the telemetry destinations.
type Collector int

const (
	// CollectorConsole writes formatted spans to a local output stream.
	// It is only suitable for development and debugging.
	CollectorConsole Collector = iota
	// CollectorOTLP sends spans to a remote collector over OTLP/gRPC.
	CollectorOTLP
)

const (
	collectorConsoleLiteral = "console"
	collectorOTLPLiteral    = "otlp"
)

func (c Collector) String() string {
	switch c {
	case CollectorConsole:
		return collectorConsoleLiteral
	case CollectorOTLP:
		return collectorOTLPLiteral
	default:
		return "unknown"
	}
}

// ParseCollector converts a collector literal, either "console" or "otlp",
// into a Collector.
func ParseCollector(value string) (Collector, error) {
	switch value {
	case collectorConsoleLiteral:
		return CollectorConsole, nil
	case collectorOTLPLiteral:
		return CollectorOTLP, nil
	default:
		return 0, errors.Errorf("telemetry: invalid collector %q", value)
	}
}

// CollectorConfig is the closed set of collector configurations. A value is
// fully validated at construction and immutable afterward.
type CollectorConfig interface {
	Collector() Collector
	validate() error
}

var (
	_ CollectorConfig = ConsoleConfig{}
	_ CollectorConfig = OTLPConfig{}
)

// ConsoleConfig selects the console collector. The zero value is valid.
type ConsoleConfig struct{}

func (ConsoleConfig) Collector() Collector {
	return CollectorConsole
}

func (ConsoleConfig) validate() error {
	return nil
}

// OTLPConfig selects a remote OTLP collector. Construct it with
// NewOTLPConfig; the zero value does not validate.
type OTLPConfig struct {
	endpoint *url.URL
	apiKey   Secret
	timeout  time.Duration
}

// DefaultOTLPPort is used when the endpoint URL does not carry a port.
const DefaultOTLPPort = "4317"

// NewOTLPConfig validates endpoint, apiKey, and timeout and builds an
// OTLPConfig. The endpoint must be an absolute URL with scheme http, https,
// grpc, or grpcs; the timeout must be positive. The API key may be empty
// for collectors that do not authenticate.
func NewOTLPConfig(endpoint string, apiKey Secret, timeout time.Duration) (OTLPConfig, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return OTLPConfig{}, &ConfigError{Field: "endpoint", Reason: err.Error()}
	}
	cfg := OTLPConfig{
		endpoint: u,
		apiKey:   apiKey,
		timeout:  timeout,
	}
	if err := cfg.validate(); err != nil {
		return OTLPConfig{}, err
	}
	return cfg, nil
}

func (c OTLPConfig) Collector() Collector {
	return CollectorOTLP
}

// Endpoint returns a copy of the collector endpoint URL.
func (c OTLPConfig) Endpoint() *url.URL {
	if c.endpoint == nil {
		return nil
	}
	u := *c.endpoint
	return &u
}

// APIKey returns the collector credential.
func (c OTLPConfig) APIKey() Secret {
	return c.apiKey
}

// Timeout returns the export and flush bound.
func (c OTLPConfig) Timeout() time.Duration {
	return c.timeout
}

func (c OTLPConfig) validate() error {
	if c.endpoint == nil {
		return &ConfigError{Field: "endpoint", Reason: "not set"}
	}
	if !c.endpoint.IsAbs() {
		return &ConfigError{Field: "endpoint", Reason: "not an absolute URL"}
	}
	switch c.endpoint.Scheme {
	case "http", "https", "grpc", "grpcs":
	default:
		return &ConfigError{Field: "endpoint", Reason: "unsupported scheme " + c.endpoint.Scheme}
	}
	if len(c.endpoint.Hostname()) == 0 {
		return &ConfigError{Field: "endpoint", Reason: "no host"}
	}
	if c.timeout <= 0 {
		return &ConfigError{Field: "timeout", Reason: "must be positive"}
	}
	return nil
}

// dialTarget derives the gRPC target and transport security from the
// endpoint URL. http and grpc are plaintext; https and grpcs use TLS.
func (c OTLPConfig) dialTarget() (target string, insecure bool) {
	target = c.endpoint.Host
	if len(c.endpoint.Port()) == 0 {
		// JoinHostPort restores the brackets around IPv6 literals.
		target = net.JoinHostPort(c.endpoint.Hostname(), DefaultOTLPPort)
	}
	insecure = c.endpoint.Scheme == "http" || c.endpoint.Scheme == "grpc"
	return target, insecure
}
