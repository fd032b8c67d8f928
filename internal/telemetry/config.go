package telemetry

// Config configures trace export. The zero value disables tracing.
type Config struct {
	Enabled bool

	// ServiceName and ServiceVersion become the service.* resource
	// attributes of every span.
	ServiceName    string
	ServiceVersion string

	// Endpoint is the OTLP gRPC collector, host:port.
	Endpoint string

	// Insecure dials the collector without TLS.
	Insecure bool

	// SampleRate is the fraction of root spans kept. Values outside [0, 1]
	// are clamped.
	SampleRate float64
}

const (
	defaultServiceName = "assetstream"
	defaultEndpoint    = "localhost:4317"
)

// DefaultConfig returns a disabled configuration that exports to a local
// collector once enabled.
func DefaultConfig() Config {
	return Config{
		ServiceName:    defaultServiceName,
		ServiceVersion: "dev",
		Endpoint:       defaultEndpoint,
		Insecure:       true,
		SampleRate:     1.0,
	}
}

// withDefaults fills the identity and endpoint fields left empty.
func (c Config) withDefaults() Config {
	if c.ServiceName == "" {
		c.ServiceName = defaultServiceName
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "dev"
	}
	if c.Endpoint == "" {
		c.Endpoint = defaultEndpoint
	}
	return c
}
