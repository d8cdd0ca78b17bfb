package mqttsink

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	wasmhtmx "github.com/xizhibei/go-wasm-htmx"
	mock_mqttadapter "github.com/xizhibei/go-wasm-htmx/mqttadapter/mock"
	"go.uber.org/mock/gomock"
)

type SinkTestSuite struct {
	suite.Suite
	mockCtrl   *gomock.Controller
	mqttClient *mock_mqttadapter.MockClient
	sink       *Sink
}

func TestSink(t *testing.T) {
	suite.Run(t, new(SinkTestSuite))
}

func (s *SinkTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mqttClient = mock_mqttadapter.NewMockClient(s.mockCtrl)
	s.sink = New(s.mqttClient, "wasm-htmx")
}

func (s *SinkTestSuite) TestTopics() {
	s.Equal("wasm-htmx/calculations", s.sink.Topic())
	s.Equal("wasm-htmx/status", StatusTopic("wasm-htmx"))
}

func (s *SinkTestSuite) TestPublishCalculation() {
	n1, n2, r := wasmhtmx.ValueOf(5), wasmhtmx.ValueOf(3), wasmhtmx.ValueOf(8)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	s.mqttClient.EXPECT().IsConnected().Return(true)
	s.mqttClient.EXPECT().
		PublishObject(gomock.Any(), "wasm-htmx/calculations", byte(0), false, &Event{
			Operation: "5 + 3 = 8",
			Num1:      n1,
			Num2:      n2,
			Result:    r,
			Timestamp: "2024-01-02T03:04:05Z",
		}).
		Return(nil)

	err := s.sink.PublishCalculation(context.Background(), &wasmhtmx.Calculation{
		Num1: n1, Num2: n2, Result: r, ReceivedAt: at,
	})
	s.NoError(err)
}

func (s *SinkTestSuite) TestPublishCalculationNotConnected() {
	s.mqttClient.EXPECT().IsConnected().Return(false)

	err := s.sink.PublishCalculation(context.Background(), &wasmhtmx.Calculation{})
	s.ErrorIs(err, ErrNotConnected)
}

func (s *SinkTestSuite) TestPublishCalculationError() {
	s.mqttClient.EXPECT().IsConnected().Return(true)
	s.mqttClient.EXPECT().
		PublishObject(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("boom"))

	err := s.sink.PublishCalculation(context.Background(), &wasmhtmx.Calculation{})
	s.ErrorContains(err, "publish to wasm-htmx/calculations: boom")
}

func TestEventJSON(t *testing.T) {
	data, err := json.Marshal(&Event{
		Operation: "2 + undefined = 5",
		Num1:      wasmhtmx.ValueOf("2"),
		Result:    wasmhtmx.ValueOf(5),
		Timestamp: "t",
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"operation":"2 + undefined = 5","num1":"2","num2":null,"result":5,"timestamp":"t"}`, string(data))
}
