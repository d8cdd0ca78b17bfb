// Package mqttsink forwards reported calculations to an MQTT broker.
package mqttsink

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	wasmhtmx "github.com/xizhibei/go-wasm-htmx"
	"github.com/xizhibei/go-wasm-htmx/mqttadapter"
	"go.uber.org/zap"
)

// ErrNotConnected is returned when the broker connection is down.
var ErrNotConnected = errors.New("mqtt not connected")

// Event is the JSON payload published for each calculation.
// Fields the client left out are published as null.
type Event struct {
	Operation string         `json:"operation"`
	Num1      wasmhtmx.Value `json:"num1"`
	Num2      wasmhtmx.Value `json:"num2"`
	Result    wasmhtmx.Value `json:"result"`
	Timestamp string         `json:"timestamp"`
}

// Sink publishes calculations to "<prefix>/calculations" at QoS 0.
type Sink struct {
	client mqttadapter.Client
	topic  string
	log    *zap.SugaredLogger
}

// New creates a Sink publishing through client under topicPrefix.
func New(client mqttadapter.Client, topicPrefix string) *Sink {
	return &Sink{
		client: client,
		topic:  CalculationsTopic(topicPrefix),
		log:    zap.S().With("module", "mqttsink"),
	}
}

// CalculationsTopic returns the calculations topic under prefix.
func CalculationsTopic(prefix string) string {
	return prefix + "/calculations"
}

// StatusTopic returns the retained online/offline status topic under prefix.
func StatusTopic(prefix string) string {
	return prefix + "/status"
}

// Topic returns the topic calculations are published to.
func (s *Sink) Topic() string {
	return s.topic
}

// PublishCalculation publishes calc without waiting for delivery.
func (s *Sink) PublishCalculation(ctx context.Context, calc *wasmhtmx.Calculation) error {
	if !s.client.IsConnected() {
		return ErrNotConnected
	}

	ts := calc.ReceivedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	event := &Event{
		Operation: calc.Expression(),
		Num1:      calc.Num1,
		Num2:      calc.Num2,
		Result:    calc.Result,
		Timestamp: ts.UTC().Format(time.RFC3339Nano),
	}

	if err := s.client.PublishObject(ctx, s.topic, 0, false, event); err != nil {
		return errors.Wrapf(err, "publish to %s", s.topic)
	}
	s.log.Debugf("Published %s to %s", event.Operation, s.topic)
	return nil
}
