package integration_tests

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/getAlby/relay.go/lib"
	"github.com/getAlby/relay.go/lib/responses"
	"github.com/getAlby/relay.go/lib/service"
	"github.com/getAlby/relay.go/lib/transport"
	"github.com/getAlby/relay.go/store"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/ziflex/lecho/v3"
)

func RelayTestServiceInit() *service.RelayService {
	c := &service.Config{
		RelayName:      "test relay",
		SendBufferSize: 64,
		MaxMessageSize: 512000,
	}
	return service.NewRelayService(c, store.NewMemory(), lecho.New(io.Discard))
}

// startRelay serves svc with the production routes on a local test server.
func startRelay(svc *service.RelayService) *httptest.Server {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = responses.HTTPErrorHandler
	e.Validator = &lib.CustomValidator{Validator: validator.New()}
	e.Logger = svc.Logger
	transport.RegisterRelayEndpoints(svc, e, transport.CreateLoggingMiddleware(svc.Logger))
	return httptest.NewServer(e)
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

type TestSuite struct {
	suite.Suite
	service *service.RelayService
	server  *httptest.Server
}

func (suite *TestSuite) SetupTest() {
	suite.service = RelayTestServiceInit()
	suite.server = startRelay(suite.service)
}

func (suite *TestSuite) TearDownTest() {
	suite.server.Close()
}

func (suite *TestSuite) dial() *websocket.Conn {
	ws, _, err := websocket.DefaultDialer.Dial(wsURL(suite.server), nil)
	require.NoError(suite.T(), err)
	return ws
}

func (suite *TestSuite) send(ws *websocket.Conn, frame ...interface{}) {
	require.NoError(suite.T(), ws.WriteJSON(frame))
}

func (suite *TestSuite) readFrame(ws *websocket.Conn) []json.RawMessage {
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := ws.ReadMessage()
	require.NoError(suite.T(), err)
	frame := []json.RawMessage{}
	require.NoError(suite.T(), json.Unmarshal(msg, &frame))
	require.NotEmpty(suite.T(), frame)
	return frame
}

func (suite *TestSuite) expectNoFrame(ws *websocket.Conn) {
	ws.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, msg, err := ws.ReadMessage()
	require.Error(suite.T(), err, "unexpected frame %s", msg)
}

func str(raw json.RawMessage) string {
	s := ""
	_ = json.Unmarshal(raw, &s)
	return s
}

func decodeEvent(raw json.RawMessage) nostr.Event {
	ev := nostr.Event{}
	_ = json.Unmarshal(raw, &ev)
	return ev
}

func signedEvent(sk string, kind int, createdAt int64, content string) nostr.Event {
	pk, _ := nostr.GetPublicKey(sk)
	ev := nostr.Event{
		PubKey:    pk,
		CreatedAt: nostr.Timestamp(createdAt),
		Kind:      kind,
		Tags:      nostr.Tags{},
		Content:   content,
	}
	_ = ev.Sign(sk)
	return ev
}
