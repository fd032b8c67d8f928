package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# assetstream Configuration File
#
# Every value can be overridden with an ASSETSTREAM_ environment variable,
# e.g. ASSETSTREAM_LOGGING_LEVEL=DEBUG or ASSETSTREAM_API_PORT=9000.

logging:
  level: INFO       # DEBUG, INFO, WARN, ERROR
  format: text      # text, json
  output: stdout    # stdout, stderr, or a file path

telemetry:
  enabled: false
  endpoint: localhost:4317
  insecure: true
  sample_rate: 1.0
  profiling:
    enabled: false
    endpoint: http://localhost:4040

shutdown_timeout: 30s

metrics:
  enabled: false
  port: 9090

api:
  port: 8080
  read_timeout: 10s
  write_timeout: 10s
  idle_timeout: 60s
  max_body_size: 16Mi

# Pool running asynchronous filter and sort requests
scheduler:
  workers: 4
  queue_size: 256

# Streaming loader
streamer:
  workers: 4
  queue_size: 1024
  load_timeout: 30s

# Where resource bytes come from: memory, filesystem, badger, s3
source:
  type: memory
  # filesystem:
  #   path: /var/lib/assetstream/assets
  # badger:
  #   path: /var/lib/assetstream/badger
  # s3:
  #   bucket: assets
  #   region: us-east-1
  #   endpoint: http://localhost:9000
  #   force_path_style: true

prioritizer:
  refresh_window_on_commit: false

# Catalog files registered at startup
# libraries:
#   - name: weapons
#     path: /etc/assetstream/weapons.yaml
#     watch: true
`

// InitConfig writes a commented default configuration to the default
// location and returns its path. An existing file is only replaced when
// force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a commented default configuration to path.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
