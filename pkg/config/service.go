package config

import "os"

// Service holds the service-level settings, populated from flags with
// environment fallbacks.
type Service struct {
	// Addr is the HTTP listen address.
	Addr string

	// DataDir holds the credential artifacts.
	DataDir string

	// ProjectRoot anchors image reference resolution (output/, history/).
	ProjectRoot string

	// ProvidersFile is the text-provider configuration path.
	ProvidersFile string

	// Headless runs the browser without a window. QR login needs a window,
	// so this defaults off.
	Headless bool
}

// DefaultService returns the service settings with environment overrides
// applied.
func DefaultService() Service {
	return Service{
		Addr:          envOr("REDPUB_ADDR", ":8081"),
		DataDir:       envOr("REDPUB_DATA_DIR", "data"),
		ProjectRoot:   envOr("REDPUB_PROJECT_ROOT", "."),
		ProvidersFile: envOr("REDPUB_PROVIDERS_FILE", DefaultProvidersFile),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
