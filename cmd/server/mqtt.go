package main

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/xizhibei/go-wasm-htmx/config"
	"github.com/xizhibei/go-wasm-htmx/mqttadapter"
	"github.com/xizhibei/go-wasm-htmx/mqttsink"
)

// mqttOptions maps the MQTT settings onto adapter options. The status topic
// carries a retained "online" while connected and "offline" as last will.
func mqttOptions(cfg *config.Config) ([]mqttadapter.Option, error) {
	status := mqttsink.StatusTopic(cfg.MQTTTopicPrefix)
	opts := []mqttadapter.Option{
		mqttadapter.WithStatus(status, []byte("online"), status, []byte("offline")),
		mqttadapter.WithKeepAlive(cfg.MQTTKeepAlive),
		mqttadapter.WithMaxReconnectInterval(cfg.MQTTMaxReconnectInterval),
		mqttadapter.WithRetryInterval(cfg.MQTTRetryInterval),
		mqttadapter.WithDebug(cfg.MQTTDebug),
	}

	if cfg.MQTTUsername != "" {
		opts = append(opts, mqttadapter.WithUserPass(cfg.MQTTUsername, cfg.MQTTPassword))
	}

	if cfg.MQTTCAFile != "" {
		data, err := os.ReadFile(cfg.MQTTCAFile)
		if err != nil {
			return nil, errors.Wrap(err, "read MQTT_CA_FILE")
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(data) {
			return nil, errors.Newf("no certificates in %s", cfg.MQTTCAFile)
		}
		opts = append(opts, mqttadapter.WithTLSConfig(&tls.Config{
			RootCAs:    pool,
			MinVersion: tls.VersionTLS12,
		}))
	}

	return opts, nil
}
