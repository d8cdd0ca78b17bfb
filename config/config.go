// Package config reads the server settings from the environment.
package config

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

var (
	ErrInvalidPort      = errors.New("port out of range")
	ErrInvalidLogFormat = errors.New("log format must be console or json")
)

// Config holds the server settings.
type Config struct {
	Port            int
	ServeRoot       string
	LogFormat       string
	LogResponse     bool
	ShutdownTimeout time.Duration

	// MQTTBroker enables the MQTT calculation sink when not empty.
	MQTTBroker      string
	MQTTClientID    string
	MQTTTopicPrefix string
	MQTTUsername    string
	MQTTPassword    string
	// MQTTCAFile is a PEM bundle trusted for TLS brokers, the system pool when empty.
	MQTTCAFile               string
	MQTTKeepAlive            time.Duration
	MQTTMaxReconnectInterval time.Duration
	MQTTRetryInterval        time.Duration
	MQTTDebug                bool
}

// Addr returns the listen address for Port on all interfaces.
func (c *Config) Addr() string {
	return net.JoinHostPort("", strconv.Itoa(c.Port))
}

// Load reads the configuration through getenv, usually os.Getenv.
// Unset variables take their defaults.
func Load(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		ServeRoot:       get("SERVE_ROOT", "."),
		LogFormat:       strings.ToLower(get("LOG_FORMAT", LogFormatConsole)),
		MQTTBroker:      get("MQTT_BROKER", ""),
		MQTTClientID:    get("MQTT_CLIENT_ID", "wasm-htmx-"+uuid.NewString()),
		MQTTTopicPrefix: strings.TrimSuffix(get("MQTT_TOPIC_PREFIX", "wasm-htmx"), "/"),
		MQTTUsername:    getenv("MQTT_USERNAME"),
		MQTTPassword:    getenv("MQTT_PASSWORD"),
		MQTTCAFile:      get("MQTT_CA_FILE", ""),
	}

	port, err := strconv.Atoi(get("PORT", "3000"))
	if err != nil {
		return nil, errors.Wrap(err, "parse PORT")
	}
	if port < 0 || port > 65535 {
		return nil, errors.Wrapf(ErrInvalidPort, "PORT=%d", port)
	}
	cfg.Port = port

	if cfg.LogFormat != LogFormatConsole && cfg.LogFormat != LogFormatJSON {
		return nil, errors.Wrapf(ErrInvalidLogFormat, "LOG_FORMAT=%q", cfg.LogFormat)
	}

	if cfg.LogResponse, err = strconv.ParseBool(get("LOG_RESPONSE", "true")); err != nil {
		return nil, errors.Wrap(err, "parse LOG_RESPONSE")
	}

	for _, d := range []struct {
		key, def string
		dst      *time.Duration
	}{
		{"SHUTDOWN_TIMEOUT", "30s", &cfg.ShutdownTimeout},
		{"MQTT_KEEPALIVE", "60s", &cfg.MQTTKeepAlive},
		{"MQTT_MAX_RECONNECT_INTERVAL", "1m", &cfg.MQTTMaxReconnectInterval},
		{"MQTT_RETRY_INTERVAL", "10s", &cfg.MQTTRetryInterval},
	} {
		if *d.dst, err = time.ParseDuration(get(d.key, d.def)); err != nil {
			return nil, errors.Wrapf(err, "parse %s", d.key)
		}
	}

	if cfg.MQTTDebug, err = strconv.ParseBool(get("MQTT_DEBUG", "false")); err != nil {
		return nil, errors.Wrap(err, "parse MQTT_DEBUG")
	}

	return &cfg, nil
}
