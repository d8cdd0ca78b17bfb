package mqttadapter

import (
	"crypto/tls"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const defaultRetryInterval = 10 * time.Second

// ClientOptions wraps the paho options with the adapter settings.
type ClientOptions struct {
	*mqtt.ClientOptions
	enableStatus  bool
	enableDebug   bool
	onlineTopic   string
	onlinePayload []byte
	retryInterval time.Duration
}

// Option configures a Client.
type Option func(o *ClientOptions)

// WithDebug routes paho's internal logs to stderr.
func WithDebug(debug bool) Option {
	return func(o *ClientOptions) {
		o.enableDebug = debug
	}
}

// WithUserPass sets the broker credentials, overriding any in the URI.
func WithUserPass(user, pass string) Option {
	return func(o *ClientOptions) {
		o.SetUsername(user)
		o.SetPassword(pass)
	}
}

// WithKeepAlive sets the keepalive ping interval.
func WithKeepAlive(keepalive time.Duration) Option {
	return func(o *ClientOptions) {
		o.SetKeepAlive(keepalive)
	}
}

// WithTLSConfig sets the TLS configuration for ssl:// and tls:// brokers.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *ClientOptions) {
		o.SetTLSConfig(cfg)
	}
}

// WithMaxReconnectInterval caps the backoff of paho's automatic reconnect.
func WithMaxReconnectInterval(interval time.Duration) Option {
	return func(o *ClientOptions) {
		o.SetMaxReconnectInterval(interval)
	}
}

// WithRetryInterval sets the pause between failed attempts of
// ConnectAndWaitForSuccess.
func WithRetryInterval(interval time.Duration) Option {
	return func(o *ClientOptions) {
		o.retryInterval = interval
	}
}

// WithStatus publishes onlinePayload to onlineTopic, retained, on every
// connect and leaves offlinePayload on offlineTopic as the last will.
func WithStatus(
	onlineTopic string, onlinePayload []byte,
	offlineTopic string, offlinePayload []byte,
) Option {
	return func(o *ClientOptions) {
		o.enableStatus = true
		o.onlineTopic = onlineTopic
		o.onlinePayload = onlinePayload
		o.SetBinaryWill(offlineTopic, offlinePayload, 1, true)
	}
}
