package mqttadapter

//go:generate mockgen -source=interface.go -destination=mock/mock_mqttadapter.go
//go:generate mockgen -package mock_mqtt -destination=mock/mqtt/mock_mqtt_client.go github.com/eclipse/paho.mqtt.golang Client,Token

import (
	"context"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// OnConnectCallback is called each time the client connects to the broker.
type OnConnectCallback func()

// Client publishes messages to an MQTT broker and keeps the connection alive.
type Client interface {
	// MQTTClient returns the underlying paho client.
	MQTTClient() mqtt.Client

	// OnConnect registers cb to run on every connect, and immediately when
	// already connected.
	OnConnect(cb OnConnectCallback)

	// Connect makes one connection attempt.
	Connect(ctx context.Context) error

	// EnsureConnected connects in the background, retrying until it succeeds
	// or Disconnect is called.
	EnsureConnected()

	// ConnectAndWaitForSuccess connects, retrying until it succeeds or
	// Disconnect is called.
	ConnectAndWaitForSuccess()

	// Disconnect stops retrying and closes the connection.
	Disconnect()

	// IsConnected reports whether the connection to the broker is open.
	IsConnected() bool

	// PublishBytesWait publishes data and waits until the broker acknowledges
	// it or ctx is done.
	PublishBytesWait(ctx context.Context, topic string, qos byte, retained bool, data []byte) error

	// PublishObject publishes payload as JSON without waiting for delivery.
	PublishObject(ctx context.Context, topic string, qos byte, retained bool, payload any) error
}
