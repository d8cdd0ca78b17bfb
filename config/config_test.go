package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string {
		return vars[key]
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(env(nil))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.Equal(t, ".", cfg.ServeRoot)
	assert.Equal(t, LogFormatConsole, cfg.LogFormat)
	assert.True(t, cfg.LogResponse)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.MQTTBroker)
	assert.Regexp(t, `^wasm-htmx-[0-9a-f-]{36}$`, cfg.MQTTClientID)
	assert.Equal(t, "wasm-htmx", cfg.MQTTTopicPrefix)
	assert.Empty(t, cfg.MQTTUsername)
	assert.Empty(t, cfg.MQTTCAFile)
	assert.Equal(t, 60*time.Second, cfg.MQTTKeepAlive)
	assert.Equal(t, time.Minute, cfg.MQTTMaxReconnectInterval)
	assert.Equal(t, 10*time.Second, cfg.MQTTRetryInterval)
	assert.False(t, cfg.MQTTDebug)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(env(map[string]string{
		"PORT":              "8080",
		"SERVE_ROOT":        "/srv/www",
		"LOG_FORMAT":        "JSON",
		"LOG_RESPONSE":      "false",
		"SHUTDOWN_TIMEOUT":  "5s",
		"MQTT_BROKER":       "tcp://broker:1883",
		"MQTT_CLIENT_ID":    "demo",
		"MQTT_TOPIC_PREFIX": "demo/",
		"MQTT_USERNAME":     "alice",
		"MQTT_PASSWORD":     " secret ",
		"MQTT_CA_FILE":      "/etc/ca.pem",
		"MQTT_KEEPALIVE":    "15s",
		"MQTT_DEBUG":        "true",

		"MQTT_MAX_RECONNECT_INTERVAL": "2m",
		"MQTT_RETRY_INTERVAL":         "1s",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "/srv/www", cfg.ServeRoot)
	assert.Equal(t, LogFormatJSON, cfg.LogFormat)
	assert.False(t, cfg.LogResponse)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTTBroker)
	assert.Equal(t, "demo", cfg.MQTTClientID)
	assert.Equal(t, "demo", cfg.MQTTTopicPrefix)
	assert.Equal(t, "alice", cfg.MQTTUsername)
	assert.Equal(t, " secret ", cfg.MQTTPassword)
	assert.Equal(t, "/etc/ca.pem", cfg.MQTTCAFile)
	assert.Equal(t, 15*time.Second, cfg.MQTTKeepAlive)
	assert.Equal(t, 2*time.Minute, cfg.MQTTMaxReconnectInterval)
	assert.Equal(t, time.Second, cfg.MQTTRetryInterval)
	assert.True(t, cfg.MQTTDebug)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		err  string
	}{
		{"port not a number", map[string]string{"PORT": "http"}, "parse PORT"},
		{"port out of range", map[string]string{"PORT": "70000"}, "PORT=70000: port out of range"},
		{"log format", map[string]string{"LOG_FORMAT": "xml"}, `LOG_FORMAT="xml"`},
		{"log response", map[string]string{"LOG_RESPONSE": "sometimes"}, "parse LOG_RESPONSE"},
		{"shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "soon"}, "parse SHUTDOWN_TIMEOUT"},
		{"mqtt keepalive", map[string]string{"MQTT_KEEPALIVE": "often"}, "parse MQTT_KEEPALIVE"},
		{"mqtt debug", map[string]string{"MQTT_DEBUG": "loud"}, "parse MQTT_DEBUG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(env(tt.vars))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}
}
